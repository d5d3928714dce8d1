package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// Repository defines persistence for coupons, offers and their usage ledgers.
type Repository interface {
	Store
	WithTx(tx *gorm.DB) Repository
	RecordUsage(ctx context.Context, kind enums.DiscountKind, discountID, userID, orderID uuid.UUID, amount decimal.Decimal) error

	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	FindCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	SaveCoupon(ctx context.Context, coupon *models.Coupon) error
	DeleteCoupon(ctx context.Context, id uuid.UUID) error

	ListOffers(ctx context.Context) ([]models.Offer, error)
	FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	CreateOffer(ctx context.Context, offer *models.Offer) error
	SaveOffer(ctx context.Context, offer *models.Offer) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error

	DeactivateExpired(ctx context.Context, now time.Time) (coupons, offers int64, err error)
}
