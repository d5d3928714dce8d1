package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// Coupon is a code-redeemed discount. Codes are unique case-insensitively.
type Coupon struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string              `gorm:"column:code;not null"`
	Description   *string             `gorm:"column:description"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinAmount     decimal.NullDecimal `gorm:"column:min_amount;type:numeric(12,2)"`
	MaxDiscount   decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)"`
	ValidFrom     time.Time           `gorm:"column:valid_from;not null"`
	ValidTill     time.Time           `gorm:"column:valid_till;not null"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UserLimit     *int                `gorm:"column:user_limit"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CouponUsage is the append-only ledger row written when an order redeems a coupon.
type CouponUsage struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID  uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Discount  decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (u *CouponUsage) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
