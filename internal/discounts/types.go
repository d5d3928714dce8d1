package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// CartLine is one priced line of the cart being evaluated.
type CartLine struct {
	ProductID uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
}

// Definition is the variant-agnostic view of a coupon or an offer. Label holds
// the coupon code or the offer title; MinAmount holds minAmount or minCartAmount.
type Definition struct {
	Kind        enums.DiscountKind
	ID          uuid.UUID
	Label       string
	Type        enums.DiscountType
	Value       decimal.Decimal
	MinAmount   decimal.NullDecimal
	MaxDiscount decimal.NullDecimal
	ValidFrom   time.Time
	ValidTill   time.Time
	UsageLimit  *int
	UserLimit   *int
}

func FromCoupon(c models.Coupon) Definition {
	return Definition{
		Kind:        enums.DiscountKindCoupon,
		ID:          c.ID,
		Label:       c.Code,
		Type:        c.DiscountType,
		Value:       c.DiscountValue,
		MinAmount:   c.MinAmount,
		MaxDiscount: c.MaxDiscount,
		ValidFrom:   c.ValidFrom,
		ValidTill:   c.ValidTill,
		UsageLimit:  c.UsageLimit,
		UserLimit:   c.UserLimit,
	}
}

func FromOffer(o models.Offer) Definition {
	return Definition{
		Kind:        enums.DiscountKindOffer,
		ID:          o.ID,
		Label:       o.Title,
		Type:        o.DiscountType,
		Value:       o.DiscountValue,
		MinAmount:   o.MinCartAmount,
		MaxDiscount: o.MaxDiscount,
		ValidFrom:   o.ValidFrom,
		ValidTill:   o.ValidTill,
		UsageLimit:  o.UsageLimit,
		UserLimit:   o.UserLimit,
	}
}

// Usage is the redemption count for one definition, globally and for one user.
type Usage struct {
	Total  int64
	ByUser int64
}

// Breakdown describes how a discount amount was derived.
type Breakdown struct {
	Kind               enums.DiscountKind  `json:"kind"`
	DiscountID         uuid.UUID           `json:"discount_id"`
	Code               string              `json:"code"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	DiscountType       enums.DiscountType  `json:"discount_type"`
	DiscountValue      decimal.Decimal     `json:"discount_value"`
	AppliedMinAmount   decimal.NullDecimal `json:"applied_min_amount"`
	AppliedMaxDiscount decimal.NullDecimal `json:"applied_max_discount"`
}

// Totals is the assembled payable amount for an order.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
}
