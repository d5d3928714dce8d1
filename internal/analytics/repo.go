package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

const uncategorized = "Uncategorized"

// Filter scopes the order aggregates. Status nil matches every status.
type Filter struct {
	Window   Window
	Status   *enums.OrderStatus
	PaidOnly bool
}

// Repository runs the reporting aggregates over orders.
type Repository interface {
	CountOrders(ctx context.Context, f Filter) (int64, error)
	SumRevenue(ctx context.Context, f Filter) (decimal.Decimal, error)
	CountCustomers(ctx context.Context, f Filter) (int64, error)
	TopProducts(ctx context.Context, f Filter, limit int) ([]ProductSales, error)
	TopCustomers(ctx context.Context, f Filter, limit int) ([]CustomerSales, error)
	RevenueByCategory(ctx context.Context, f Filter) ([]CategoryRevenue, error)
	CustomerTotals(ctx context.Context, f Filter) ([]CustomerTotal, error)
	LiveOrders(ctx context.Context, limit int) ([]models.Order, error)
}

// CustomerTotal is one customer's order count and spend inside a filter.
type CustomerTotal struct {
	UserID     uuid.UUID       `gorm:"column:user_id"`
	OrderCount int64           `gorm:"column:order_count"`
	Revenue    decimal.Decimal `gorm:"column:revenue"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) orders(ctx context.Context, f Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("orders.created_at >= ? AND orders.created_at < ?", f.Window.Start, f.Window.End)
	if f.Status != nil {
		q = q.Where("orders.status = ?", *f.Status)
	}
	if f.PaidOnly {
		q = q.Where("orders.payment_status = ?", enums.PaymentStatusPaid)
	}
	return q
}

func (r *repository) CountOrders(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := r.orders(ctx, f).Count(&n).Error; err != nil {
		return 0, dbpkg.Classify(err, "count orders")
	}
	return n, nil
}

func (r *repository) SumRevenue(ctx context.Context, f Filter) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.orders(ctx, f).Select("SUM(orders.total)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, dbpkg.Classify(err, "sum revenue")
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repository) CountCustomers(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := r.orders(ctx, f).Distinct("orders.user_id").Count(&n).Error; err != nil {
		return 0, dbpkg.Classify(err, "count customers")
	}
	return n, nil
}

func (r *repository) TopProducts(ctx context.Context, f Filter, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.orders(ctx, f).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Select(`order_items.product_id AS product_id,
			products.name AS name,
			SUM(order_items.quantity) AS quantity,
			COUNT(DISTINCT orders.id) AS order_count,
			SUM(order_items.price * order_items.quantity) AS revenue`).
		Group("order_items.product_id, products.name").
		Order("quantity DESC").Order("name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, dbpkg.Classify(err, "top products")
	}
	return rows, nil
}

func (r *repository) TopCustomers(ctx context.Context, f Filter, limit int) ([]CustomerSales, error) {
	var rows []CustomerSales
	err := r.orders(ctx, f).
		Joins("JOIN users ON users.id = orders.user_id").
		Select(`orders.user_id AS user_id,
			users.name AS name,
			users.phone AS phone,
			COUNT(*) AS order_count,
			SUM(orders.total) AS revenue`).
		Group("orders.user_id, users.name, users.phone").
		Order("revenue DESC").Order("order_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, dbpkg.Classify(err, "top customers")
	}
	return rows, nil
}

func (r *repository) RevenueByCategory(ctx context.Context, f Filter) ([]CategoryRevenue, error) {
	var rows []CategoryRevenue
	category := "COALESCE(categories.name, '" + uncategorized + "')"
	err := r.orders(ctx, f).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Select(category + ` AS category,
			SUM(order_items.price * order_items.quantity) AS revenue`).
		Group(category).
		Order("revenue DESC").Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbpkg.Classify(err, "revenue by category")
	}
	return rows, nil
}

func (r *repository) CustomerTotals(ctx context.Context, f Filter) ([]CustomerTotal, error) {
	var rows []CustomerTotal
	err := r.orders(ctx, f).
		Select("orders.user_id AS user_id, COUNT(*) AS order_count, SUM(orders.total) AS revenue").
		Group("orders.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbpkg.Classify(err, "customer totals")
	}
	return rows, nil
}

func (r *repository) LiveOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, dbpkg.Classify(err, "live orders")
	}
	return rows, nil
}
