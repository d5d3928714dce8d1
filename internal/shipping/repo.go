package shipping

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
)

// Repository persists the single delivery rate row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Current(ctx context.Context) (*models.ShippingRate, error)
	Upsert(ctx context.Context, price decimal.Decimal) (*models.ShippingRate, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Current returns the most recently written rate, or nil when none is configured.
func (r *repository) Current(ctx context.Context) (*models.ShippingRate, error) {
	var rate models.ShippingRate
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbpkg.Classify(err, "load shipping rate")
	}
	return &rate, nil
}

func (r *repository) Upsert(ctx context.Context, price decimal.Decimal) (*models.ShippingRate, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		rate := &models.ShippingRate{Price: price}
		if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
			return nil, dbpkg.Classify(err, "create shipping rate")
		}
		return rate, nil
	}
	current.Price = price
	if err := r.db.WithContext(ctx).Save(current).Error; err != nil {
		return nil, dbpkg.Classify(err, "update shipping rate")
	}
	return current, nil
}
