package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

// FinalizeResult is returned to the customer after checkout.
type FinalizeResult struct {
	OrderID         uuid.UUID            `json:"order_id"`
	OrderNumber     string               `json:"order_number"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentStatus   enums.PaymentStatus  `json:"payment_status"`
	Total           decimal.Decimal      `json:"total"`
	DiscountApplied decimal.Decimal      `json:"discount_applied"`
	Totals          discounts.Totals     `json:"totals"`
	Discount        *discounts.Breakdown `json:"discount,omitempty"`
}

// OrderSummary is the compact row used in listings.
type OrderSummary struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	UserID            uuid.UUID           `json:"user_id"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	DeliveryCharges   decimal.Decimal     `json:"delivery_charges"`
	Tax               decimal.Decimal     `json:"tax"`
	Discount          decimal.Decimal     `json:"discount"`
	Total             decimal.Decimal     `json:"total"`
	Currency          string              `json:"currency"`
	CouponID          *uuid.UUID          `json:"coupon_id,omitempty"`
	OfferID           *uuid.UUID          `json:"offer_id,omitempty"`
	DeliveryPartnerID *uuid.UUID          `json:"delivery_partner_id,omitempty"`
	CustomerName      string              `json:"customer_name,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// OrderItemDTO is one purchased line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CustomerDTO is the ordering user as shown to admins.
type CustomerDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
	Phone string    `json:"phone"`
}

// AddressDTO is the delivery address snapshot.
type AddressDTO struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 *string   `json:"address_line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
	Landmark     *string   `json:"landmark,omitempty"`
}

// OrderDetail is the full order view.
type OrderDetail struct {
	OrderSummary
	Items    []OrderItemDTO `json:"items"`
	Customer *CustomerDTO   `json:"customer,omitempty"`
	Address  *AddressDTO    `json:"address,omitempty"`
}

// CustomerOrderList is a cursor page of the caller's orders.
type CustomerOrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AdminOrderList is an offset page of orders.
type AdminOrderList struct {
	Orders     []OrderDetail   `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

// StatsSummary aggregates orders inside a date window.
type StatsSummary struct {
	TotalOrders           int64                         `json:"total_orders"`
	PaidOrders            int64                         `json:"paid_orders"`
	TotalRevenue          decimal.Decimal               `json:"total_revenue"`
	AverageOrderValue     decimal.Decimal               `json:"average_order_value"`
	OrdersByStatus        map[enums.OrderStatus]int64   `json:"orders_by_status"`
	OrdersByPaymentStatus map[enums.PaymentStatus]int64 `json:"orders_by_payment_status"`
	RecentOrders          []OrderSummary                `json:"recent_orders"`
}

// DailyStat is the order count and paid revenue of one UTC day.
type DailyStat struct {
	Date       string          `json:"date"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

func mapSummary(o models.Order) OrderSummary {
	out := OrderSummary{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		PaymentMethod:     o.PaymentMethod,
		Subtotal:          o.Subtotal,
		DeliveryCharges:   o.DeliveryCharges,
		Tax:               o.Tax,
		Discount:          o.Discount,
		Total:             o.Total,
		Currency:          o.Currency,
		CouponID:          o.CouponID,
		OfferID:           o.OfferID,
		DeliveryPartnerID: o.DeliveryPartnerID,
		CreatedAt:         o.CreatedAt,
	}
	if o.User != nil {
		out.CustomerName = o.User.Name
	}
	return out
}

func mapDetail(o models.Order) OrderDetail {
	out := OrderDetail{
		OrderSummary: mapSummary(o),
		Items:        make([]OrderItemDTO, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		dto := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
		}
		out.Items = append(out.Items, dto)
	}
	if o.User != nil {
		out.Customer = &CustomerDTO{
			ID:    o.User.ID,
			Name:  o.User.Name,
			Email: o.User.Email,
			Phone: o.User.Phone,
		}
	}
	if o.Address != nil {
		out.Address = &AddressDTO{
			ID:           o.Address.ID,
			FullName:     o.Address.FullName,
			Phone:        o.Address.Phone,
			AddressLine1: o.Address.AddressLine1,
			AddressLine2: o.Address.AddressLine2,
			City:         o.Address.City,
			State:        o.Address.State,
			Pincode:      o.Address.Pincode,
			Landmark:     o.Address.Landmark,
		}
	}
	return out
}
