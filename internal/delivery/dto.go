package delivery

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// PartnerDTO is a delivery partner as shown to admins.
type PartnerDTO struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// PartnerInput creates or patches a partner. Nil fields are left unchanged on
// update; Name is required on create.
type PartnerInput struct {
	Name     *string
	Phone    *string
	Email    *string
	UserID   *uuid.UUID
	IsActive *bool
}

// AssignInput hands OrderID to PartnerID.
type AssignInput struct {
	OrderID     uuid.UUID
	PartnerID   uuid.UUID
	ActorUserID uuid.UUID
}

// Assignment is the result of an assignment.
type Assignment struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Partner     PartnerDTO        `json:"delivery_partner"`
}

// StatusInput is a partner reporting progress on an assigned order.
type StatusInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Status  enums.OrderStatus
}

// PartnerStats counts a partner's assigned orders. The today counters cover
// orders whose status settled since UTC midnight.
type PartnerStats struct {
	TotalOrders       int64 `json:"total_orders"`
	PendingDeliveries int64 `json:"pending_deliveries"`
	CompletedToday    int64 `json:"completed_today"`
	UnreachableToday  int64 `json:"unreachable_today"`
}

// DeliveryAddress is where the partner drops the order.
type DeliveryAddress struct {
	FullName     string  `json:"full_name,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	Landmark     *string `json:"landmark,omitempty"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Pincode      string  `json:"pincode"`
}

type DeliveryItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// DeliveryOrder is an assigned order from the partner's point of view.
type DeliveryOrder struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
	Address       *DeliveryAddress    `json:"address,omitempty"`
	Items         []DeliveryItem      `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

func mapPartner(p models.DeliveryPartner) PartnerDTO {
	return PartnerDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

func mapDeliveryOrder(o models.Order) DeliveryOrder {
	out := DeliveryOrder{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		Currency:      o.Currency,
		Items:         make([]DeliveryItem, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
	}
	if o.User != nil {
		out.CustomerName = o.User.Name
		out.CustomerPhone = o.User.Phone
	}
	if a := o.Address; a != nil {
		out.Address = &DeliveryAddress{
			FullName:     a.FullName,
			Phone:        a.Phone,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			Landmark:     a.Landmark,
			City:         a.City,
			State:        a.State,
			Pincode:      a.Pincode,
		}
	}
	for _, item := range o.Items {
		line := DeliveryItem{Quantity: item.Quantity}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		out.Items = append(out.Items, line)
	}
	return out
}
