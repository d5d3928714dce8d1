package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/internal/address"
	"github.com/angelmondragon/grocery-backend/internal/cart"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/internal/shipping"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

// Service covers the customer-facing order operations.
type Service interface {
	Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerOrderList, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)
}

// ServiceParams wires the order service. Every repository is rebound to the
// finalize transaction.
type ServiceParams struct {
	Repo       Repository
	Carts      cart.CartRepository
	Addresses  address.Repository
	Discounts  discounts.Repository
	Shipping   shipping.Repository
	Outbox     outboxEmitter
	Tx         txRunner
	Calculator discounts.Calculator
	Currency   string
	Metrics    finalizeRecorder
	Logger     *logger.Logger
	Clock      func() time.Time
	Numbers    func(time.Time) string
}

type service struct {
	repo      Repository
	carts     cart.CartRepository
	addresses address.Repository
	discounts discounts.Repository
	shipping  shipping.Repository
	outbox    outboxEmitter
	tx        txRunner
	calc      discounts.Calculator
	currency  string
	metrics   finalizeRecorder
	logg      *logger.Logger
	now       func() time.Time
	numbers   func(time.Time) string
}

// NewService builds the customer order service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Discounts == nil:
		return nil, fmt.Errorf("discounts repository required")
	case params.Shipping == nil:
		return nil, fmt.Errorf("shipping repository required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	numbers := params.Numbers
	if numbers == nil {
		numbers = NewOrderNumber
	}
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}
	return &service{
		repo:      params.Repo,
		carts:     params.Carts,
		addresses: params.Addresses,
		discounts: params.Discounts,
		shipping:  params.Shipping,
		outbox:    params.Outbox,
		tx:        params.Tx,
		calc:      params.Calculator,
		currency:  currency,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       clock,
		numbers:   numbers,
	}, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerOrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	return s.repo.ListForUser(ctx, userID, params)
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	detail := mapDetail(*order)
	return &detail, nil
}
