package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// Order is a finalized checkout. Money columns are snapshots taken at finalize time.
// DeliveryPartnerID is set once an admin assigns the order for delivery.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	AddressID         uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharges   decimal.Decimal     `gorm:"column:delivery_charges;type:numeric(12,2);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CouponID          *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	OfferID           *uuid.UUID          `gorm:"column:offer_id;type:uuid"`
	DeliveryPartnerID *uuid.UUID          `gorm:"column:delivery_partner_id;type:uuid"`
	DeliveryPartner   *DeliveryPartner    `gorm:"foreignKey:DeliveryPartnerID"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User              *User               `gorm:"foreignKey:UserID"`
	Address           *Address            `gorm:"foreignKey:AddressID"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a line of an order with the unit price charged.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
