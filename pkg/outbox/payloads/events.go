package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when an order is finalized.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID           `json:"order_id"`
	OrderNumber     string              `json:"order_number"`
	UserID          uuid.UUID           `json:"user_id"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DeliveryCharges decimal.Decimal     `json:"delivery_charges"`
	Tax             decimal.Decimal     `json:"tax"`
	Discount        decimal.Decimal     `json:"discount"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	DiscountKind    *enums.DiscountKind `json:"discount_kind,omitempty"`
	DiscountID      *uuid.UUID          `json:"discount_id,omitempty"`
	ItemCount       int                 `json:"item_count"`
}

// OrderStatusChangedEvent is emitted when an admin or the assigned delivery
// partner moves an order.
type OrderStatusChangedEvent struct {
	OrderID               uuid.UUID           `json:"order_id"`
	OrderNumber           string              `json:"order_number"`
	UserID                uuid.UUID           `json:"user_id"`
	PreviousStatus        enums.OrderStatus   `json:"previous_status"`
	Status                enums.OrderStatus   `json:"status"`
	PreviousPaymentStatus enums.PaymentStatus `json:"previous_payment_status"`
	PaymentStatus         enums.PaymentStatus `json:"payment_status"`
}

// OrderAssignedEvent is emitted when an order is handed to a delivery partner.
type OrderAssignedEvent struct {
	OrderID                   uuid.UUID  `json:"order_id"`
	OrderNumber               string     `json:"order_number"`
	UserID                    uuid.UUID  `json:"user_id"`
	DeliveryPartnerID         uuid.UUID  `json:"delivery_partner_id"`
	PreviousDeliveryPartnerID *uuid.UUID `json:"previous_delivery_partner_id,omitempty"`
}

// DiscountRedeemedEvent is emitted alongside order_created when the order
// consumed a coupon or offer.
type DiscountRedeemedEvent struct {
	DiscountID uuid.UUID          `json:"discount_id"`
	Kind       enums.DiscountKind `json:"kind"`
	Code       string             `json:"code"`
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Amount     decimal.Decimal    `json:"amount"`
}
