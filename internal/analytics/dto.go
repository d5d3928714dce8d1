package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

type ProductSales struct {
	ProductID  uuid.UUID       `json:"product_id" gorm:"column:product_id"`
	Name       string          `json:"name" gorm:"column:name"`
	Quantity   int64           `json:"quantity" gorm:"column:quantity"`
	OrderCount int64           `json:"order_count" gorm:"column:order_count"`
	Revenue    decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}

type CustomerSales struct {
	UserID     uuid.UUID       `json:"user_id" gorm:"column:user_id"`
	Name       string          `json:"name" gorm:"column:name"`
	Phone      string          `json:"phone" gorm:"column:phone"`
	OrderCount int64           `json:"order_count" gorm:"column:order_count"`
	Revenue    decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}

type CategoryRevenue struct {
	Category string          `json:"category" gorm:"column:category"`
	Revenue  decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}

// MultiPeriodStats holds order counts and revenue for every period.
type MultiPeriodStats struct {
	Orders  map[Period]int64           `json:"orders"`
	Revenue map[Period]decimal.Decimal `json:"revenue"`
}

// Change compares a period against the window right before it.
type Change struct {
	Current          decimal.Decimal `json:"current"`
	Previous         decimal.Decimal `json:"previous"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
}

type DashboardSummary struct {
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCustomers    int64           `json:"total_customers"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type LiveOrder struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerName  string              `json:"customer_name"`
	Total         decimal.Decimal     `json:"total"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Dashboard is the admin overview for one period.
type Dashboard struct {
	Period            Period            `json:"period"`
	Window            Window            `json:"window"`
	Summary           DashboardSummary  `json:"summary"`
	RevenueByCategory []CategoryRevenue `json:"revenue_by_category"`
	TopProducts       []ProductSales    `json:"top_products"`
	TopCustomers      []CustomerSales   `json:"top_customers"`
	LiveOrders        []LiveOrder       `json:"live_orders"`
}

type Segment string

const (
	SegmentNew       Segment = "new"
	SegmentReturning Segment = "returning"
	SegmentLoyal     Segment = "loyal"
	SegmentVIP       Segment = "vip"
)

type SegmentStats struct {
	Customers int64           `json:"customers"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Segments buckets paying customers by how many paid orders they placed.
type Segments struct {
	Period   Period                   `json:"period"`
	Segments map[Segment]SegmentStats `json:"segments"`
}

// segmentFor maps a paid order count to its bucket: 1 new, 2-5 returning,
// 6-10 loyal, above that vip.
func segmentFor(orders int64) Segment {
	switch {
	case orders > 10:
		return SegmentVIP
	case orders > 5:
		return SegmentLoyal
	case orders > 1:
		return SegmentReturning
	default:
		return SegmentNew
	}
}

func mapLiveOrder(o models.Order) LiveOrder {
	out := LiveOrder{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Total:         o.Total,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
	}
	if o.User != nil {
		out.CustomerName = o.User.Name
	}
	return out
}
