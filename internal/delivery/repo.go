package delivery

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
)

// Repository persists delivery partners and their order assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePartner(ctx context.Context, partner *models.DeliveryPartner) error
	SavePartner(ctx context.Context, partner *models.DeliveryPartner) error
	DeletePartner(ctx context.Context, partnerID uuid.UUID) error
	FindPartner(ctx context.Context, partnerID uuid.UUID) (*models.DeliveryPartner, error)
	FindPartnerByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPartner, error)
	ListPartners(ctx context.Context) ([]models.DeliveryPartner, error)
	FindOrder(ctx context.Context, orderID uuid.UUID, lock bool) (*models.Order, error)
	AssignOrder(ctx context.Context, orderID, partnerID uuid.UUID) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus) error
	FindAssigned(ctx context.Context, partnerID, orderID uuid.UUID) (*models.Order, error)
	ListAssigned(ctx context.Context, partnerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	CountAssigned(ctx context.Context, partnerID uuid.UUID, filter CountFilter) (int64, error)
}

// CountFilter narrows CountAssigned. Empty Statuses matches every status and
// a zero UpdatedSince leaves the window open.
type CountFilter struct {
	Statuses     []enums.OrderStatus
	UpdatedSince time.Time
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func partnerNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "delivery partner not found")
}

func (r *repository) CreatePartner(ctx context.Context, partner *models.DeliveryPartner) error {
	if err := r.db.WithContext(ctx).Create(partner).Error; err != nil {
		return dbpkg.Classify(err, "create delivery partner")
	}
	return nil
}

func (r *repository) SavePartner(ctx context.Context, partner *models.DeliveryPartner) error {
	if err := r.db.WithContext(ctx).Save(partner).Error; err != nil {
		return dbpkg.Classify(err, "update delivery partner")
	}
	return nil
}

// DeletePartner removes the partner. Assigned orders keep their history with
// the assignment cleared by the foreign key.
func (r *repository) DeletePartner(ctx context.Context, partnerID uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.DeliveryPartner{}, "id = ?", partnerID)
	if res.Error != nil {
		return dbpkg.Classify(res.Error, "delete delivery partner")
	}
	if res.RowsAffected == 0 {
		return partnerNotFound()
	}
	return nil
}

func (r *repository) FindPartner(ctx context.Context, partnerID uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.db.WithContext(ctx).Where("id = ?", partnerID).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partnerNotFound()
		}
		return nil, dbpkg.Classify(err, "find delivery partner")
	}
	return &partner, nil
}

func (r *repository) FindPartnerByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partnerNotFound()
		}
		return nil, dbpkg.Classify(err, "find delivery partner")
	}
	return &partner, nil
}

func (r *repository) ListPartners(ctx context.Context) ([]models.DeliveryPartner, error) {
	var rows []models.DeliveryPartner
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "list delivery partners")
	}
	return rows, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID, lock bool) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := q.Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, dbpkg.Classify(err, "find order")
	}
	return &order, nil
}

func (r *repository) AssignOrder(ctx context.Context, orderID, partnerID uuid.UUID) error {
	return r.updateOrder(ctx, orderID, map[string]any{
		"delivery_partner_id": partnerID,
		"updated_at":          time.Now().UTC(),
	}, "assign order")
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus) error {
	return r.updateOrder(ctx, orderID, map[string]any{
		"status":         status,
		"payment_status": paymentStatus,
		"updated_at":     time.Now().UTC(),
	}, "update order status")
}

func (r *repository) updateOrder(ctx context.Context, orderID uuid.UUID, fields map[string]any, message string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(fields)
	if res.Error != nil {
		return dbpkg.Classify(res.Error, message)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (r *repository) FindAssigned(ctx context.Context, partnerID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND delivery_partner_id = ?", orderID, partnerID).
		Preload("User").
		Preload("Address").
		Preload("Items.Product").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, dbpkg.Classify(err, "find assigned order")
	}
	return &order, nil
}

// ListAssigned returns the partner's orders in the given statuses, newest first.
func (r *repository) ListAssigned(ctx context.Context, partnerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Where("delivery_partner_id = ?", partnerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var rows []models.Order
	if err := q.
		Preload("User").
		Preload("Address").
		Preload("Items.Product").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, dbpkg.Classify(err, "list assigned orders")
	}
	return rows, nil
}

func (r *repository) CountAssigned(ctx context.Context, partnerID uuid.UUID, filter CountFilter) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("delivery_partner_id = ?", partnerID)
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if !filter.UpdatedSince.IsZero() {
		q = q.Where("updated_at >= ?", filter.UpdatedSince)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, dbpkg.Classify(err, "count assigned orders")
	}
	return n, nil
}
