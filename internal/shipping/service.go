package shipping

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// Rate is the delivery charge applied to every order.
type Rate struct {
	Price decimal.Decimal `json:"price"`
}

type Service interface {
	Get(ctx context.Context) (Rate, error)
	Update(ctx context.Context, price decimal.Decimal) (Rate, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Get returns the configured rate. An unconfigured rate is free delivery.
func (s *service) Get(ctx context.Context) (Rate, error) {
	return DeliveryCharge(ctx, s.repo)
}

func (s *service) Update(ctx context.Context, price decimal.Decimal) (Rate, error) {
	if price.IsNegative() {
		return Rate{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").
			WithDetails(map[string]any{"field": "price"})
	}
	row, err := s.repo.Upsert(ctx, price)
	if err != nil {
		return Rate{}, err
	}
	s.logg.Info(s.logg.WithField(ctx, "delivery_price", row.Price.String()), "shipping rate updated")
	return Rate{Price: row.Price}, nil
}

// DeliveryCharge reads the current rate through repo, which may be bound to a
// transaction.
func DeliveryCharge(ctx context.Context, repo Repository) (Rate, error) {
	row, err := repo.Current(ctx)
	if err != nil {
		return Rate{}, err
	}
	if row == nil {
		return Rate{Price: decimal.Zero}, nil
	}
	return Rate{Price: row.Price}, nil
}
