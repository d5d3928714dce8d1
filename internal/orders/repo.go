package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and then its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return dbpkg.Classify(err, "create order")
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order.Items).Error; err != nil {
		return dbpkg.Classify(err, "create order items")
	}
	return nil
}

func (r *repository) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Address").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, notFoundOr(err, "find order")
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Address").
		Preload("User").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, notFoundOr(err, "find order")
	}
	return &order, nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return dbpkg.Classify(err, message)
}

// ListForUser pages the caller's orders newest first using a created_at/id cursor.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerOrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(cursor.After).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "list orders")
	}

	rows, more := pagination.Trim(rows, limit)
	out := &CustomerOrderList{Orders: make([]OrderSummary, 0, len(rows))}
	if more {
		last := rows[len(rows)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, row := range rows {
		out.Orders = append(out.Orders, mapSummary(row))
	}
	return out, nil
}

func (r *repository) filtered(ctx context.Context, filters AdminListFilters, rng DateRange) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		query = query.Where("orders.status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("orders.payment_status = ?", *filters.PaymentStatus)
	}
	if filters.PaymentMethod != nil {
		query = query.Where("orders.payment_method = ?", *filters.PaymentMethod)
	}
	if filters.UserID != nil {
		query = query.Where("orders.user_id = ?", *filters.UserID)
	}
	if filters.Search != "" {
		like := "%" + escapeLike(filters.Search) + "%"
		query = query.Where(
			`(LOWER(orders.order_number) LIKE LOWER(?) ESCAPE '\'
  OR orders.user_id IN (SELECT id FROM users WHERE LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE LOWER(?) ESCAPE '\' OR phone LIKE ? ESCAPE '\')
  OR orders.address_id IN (SELECT id FROM addresses WHERE LOWER(full_name) LIKE LOWER(?) ESCAPE '\' OR phone LIKE ? ESCAPE '\'))`,
			like, like, like, like, like, like,
		)
	}
	return applyRange(query, rng)
}

func applyRange(query *gorm.DB, rng DateRange) *gorm.DB {
	if !rng.From.IsZero() {
		query = query.Where("orders.created_at >= ?", rng.From)
	}
	if !rng.To.IsZero() {
		query = query.Where("orders.created_at < ?", rng.To)
	}
	return query
}

func (r *repository) ListAdmin(ctx context.Context, filters AdminListFilters, rng DateRange) ([]models.Order, int64, error) {
	base := r.filtered(ctx, filters, rng)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, dbpkg.Classify(err, "count orders")
	}

	var rows []models.Order
	if err := base.Session(&gorm.Session{}).
		Preload("User").
		Preload("Address").
		Preload("Items.Product").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: string(filters.SortBy)}, Desc: filters.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: "id"}, Desc: filters.SortDesc}).
		Scopes(filters.Page.Scope()).
		Find(&rows).Error; err != nil {
		return nil, 0, dbpkg.Classify(err, "list orders")
	}
	return rows, total, nil
}

func (r *repository) ListForExport(ctx context.Context, filters AdminListFilters, rng DateRange) ([]models.Order, error) {
	var rows []models.Order
	if err := r.filtered(ctx, filters, rng).
		Preload("User").
		Preload("Address").
		Preload("Items.Product").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "export orders")
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":         status,
			"payment_status": paymentStatus,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return dbpkg.Classify(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// StatsRows loads the columns needed for summary and daily aggregation.
func (r *repository) StatsRows(ctx context.Context, rng DateRange) ([]models.Order, error) {
	var rows []models.Order
	query := applyRange(r.db.WithContext(ctx).Model(&models.Order{}), rng)
	if err := query.
		Select("id", "status", "payment_status", "total", "created_at").
		Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "load order stats")
	}
	return rows, nil
}

func (r *repository) Recent(ctx context.Context, rng DateRange, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := applyRange(r.db.WithContext(ctx).Model(&models.Order{}), rng)
	if err := query.
		Preload("User").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "load recent orders")
	}
	return rows, nil
}

func escapeLike(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
