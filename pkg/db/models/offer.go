package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// Offer is a promotional discount selected by title.
type Offer struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string              `gorm:"column:title;not null"`
	Description   *string             `gorm:"column:description"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinCartAmount decimal.NullDecimal `gorm:"column:min_cart_amount;type:numeric(12,2)"`
	MaxDiscount   decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)"`
	ValidFrom     time.Time           `gorm:"column:valid_from;not null"`
	ValidTill     time.Time           `gorm:"column:valid_till;not null"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UserLimit     *int                `gorm:"column:user_limit"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OfferUsage is the append-only ledger row written when an order redeems an offer.
type OfferUsage struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID   uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Discount  decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (u *OfferUsage) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
