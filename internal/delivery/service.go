package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/outbox/payloads"
)

// Service is what a signed-in delivery partner can do.
type Service interface {
	Orders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]DeliveryOrder, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*DeliveryOrder, error)
	MyStats(ctx context.Context, userID uuid.UUID) (*PartnerStats, error)
}

// AdminService manages partners and hands orders to them.
type AdminService interface {
	ListPartners(ctx context.Context) ([]PartnerDTO, error)
	CreatePartner(ctx context.Context, input PartnerInput) (*PartnerDTO, error)
	UpdatePartner(ctx context.Context, partnerID uuid.UUID, input PartnerInput) (*PartnerDTO, error)
	DeletePartner(ctx context.Context, partnerID uuid.UUID) error
	Assign(ctx context.Context, input AssignInput) (*Assignment, error)
	Stats(ctx context.Context, partnerID uuid.UUID) (*PartnerStats, error)
}

var (
	openStatuses    = []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing, enums.OrderStatusOutForDelivery, enums.OrderStatusUserNotReachable}
	pendingStatuses = []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing, enums.OrderStatusOutForDelivery}
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Params wires the delivery services.
type Params struct {
	Repo   Repository
	Tx     txRunner
	Outbox outboxEmitter
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
	logg   *logger.Logger
	now    func() time.Time
}

func newService(params Params) (*service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("delivery repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    clock,
	}, nil
}

// NewService builds the partner-facing delivery service.
func NewService(params Params) (Service, error) {
	return newService(params)
}

// NewAdminService builds the back-office delivery service.
func NewAdminService(params Params) (AdminService, error) {
	return newService(params)
}

func (s *service) ListPartners(ctx context.Context) ([]PartnerDTO, error) {
	rows, err := s.repo.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PartnerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPartner(row))
	}
	return out, nil
}

func (s *service) CreatePartner(ctx context.Context, input PartnerInput) (*PartnerDTO, error) {
	partner := &models.DeliveryPartner{IsActive: true}
	if input.Name == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").
			WithDetails(map[string]any{"field": "name"})
	}
	if err := applyPartnerInput(partner, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePartner(ctx, partner); err != nil {
		return nil, partnerConflict(err)
	}
	s.logg.Info(s.logg.WithField(ctx, "delivery_partner_id", partner.ID.String()), "delivery partner created")
	dto := mapPartner(*partner)
	return &dto, nil
}

func (s *service) UpdatePartner(ctx context.Context, partnerID uuid.UUID, input PartnerInput) (*PartnerDTO, error) {
	var partner *models.DeliveryPartner
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindPartner(ctx, partnerID)
		if err != nil {
			return err
		}
		if err := applyPartnerInput(found, input); err != nil {
			return err
		}
		if err := repo.SavePartner(ctx, found); err != nil {
			return partnerConflict(err)
		}
		partner = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := mapPartner(*partner)
	return &dto, nil
}

func (s *service) DeletePartner(ctx context.Context, partnerID uuid.UUID) error {
	if err := s.repo.DeletePartner(ctx, partnerID); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "delivery_partner_id", partnerID.String()), "delivery partner deleted")
	return nil
}

// Assign hands an order to an active partner. Reassigning to the current
// partner is a no-op; delivered and cancelled orders cannot be reassigned.
func (s *service) Assign(ctx context.Context, input AssignInput) (*Assignment, error) {
	switch {
	case input.OrderID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	case input.PartnerID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery partner id required").
			WithDetails(map[string]any{"field": "delivery_partner_id"})
	}

	var out *Assignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partner, err := repo.FindPartner(ctx, input.PartnerID)
		if err != nil {
			return err
		}
		if !partner.IsActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "delivery partner is inactive")
		}
		order, err := repo.FindOrder(ctx, input.OrderID, true)
		if err != nil {
			return err
		}
		if isClosed(order.Status) {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is already closed").
				WithDetails(map[string]any{"status": order.Status})
		}
		out = &Assignment{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			Partner:     mapPartner(*partner),
		}
		previous := order.DeliveryPartnerID
		if previous != nil && *previous == partner.ID {
			return nil
		}
		if err := repo.AssignOrder(ctx, order.ID, partner.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(enums.RoleAdmin)},
			Data: payloads.OrderAssignedEvent{
				OrderID:                   order.ID,
				OrderNumber:               order.OrderNumber,
				UserID:                    order.UserID,
				DeliveryPartnerID:         partner.ID,
				PreviousDeliveryPartnerID: previous,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":            input.OrderID.String(),
		"delivery_partner_id": input.PartnerID.String(),
	})
	s.logg.Info(logCtx, "order assigned")
	return out, nil
}

func (s *service) Stats(ctx context.Context, partnerID uuid.UUID) (*PartnerStats, error) {
	if _, err := s.repo.FindPartner(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.stats(ctx, partnerID)
}

func (s *service) MyStats(ctx context.Context, userID uuid.UUID) (*PartnerStats, error) {
	partner, err := s.callerPartner(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return s.stats(ctx, partner.ID)
}

func (s *service) stats(ctx context.Context, partnerID uuid.UUID) (*PartnerStats, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out PartnerStats
	for _, counter := range []struct {
		dest   *int64
		filter CountFilter
	}{
		{&out.TotalOrders, CountFilter{}},
		{&out.PendingDeliveries, CountFilter{Statuses: pendingStatuses}},
		{&out.CompletedToday, CountFilter{Statuses: []enums.OrderStatus{enums.OrderStatusDelivered}, UpdatedSince: midnight}},
		{&out.UnreachableToday, CountFilter{Statuses: []enums.OrderStatus{enums.OrderStatusUserNotReachable}, UpdatedSince: midnight}},
	} {
		n, err := s.repo.CountAssigned(ctx, partnerID, counter.filter)
		if err != nil {
			return nil, err
		}
		*counter.dest = n
	}
	return &out, nil
}

// Orders lists the caller's assigned orders. Without a status filter only
// orders still awaiting delivery are returned.
func (s *service) Orders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]DeliveryOrder, error) {
	partner, err := s.callerPartner(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	statuses := openStatuses
	if status != nil {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
				WithDetails(map[string]any{"field": "status"})
		}
		statuses = []enums.OrderStatus{*status}
	}
	rows, err := s.repo.ListAssigned(ctx, partner.ID, statuses)
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapDeliveryOrder(row))
	}
	return out, nil
}

// UpdateStatus records delivery progress on an order assigned to the caller.
// A cash-on-delivery order is marked paid when it is delivered.
func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*DeliveryOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.PartnerSettable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status cannot be set by a delivery partner").
			WithDetails(map[string]any{"field": "status", "status": input.Status})
	}

	var partnerID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partner, err := s.callerPartner(ctx, repo, input.UserID)
		if err != nil {
			return err
		}
		partnerID = partner.ID
		order, err := repo.FindOrder(ctx, input.OrderID, true)
		if err != nil {
			return err
		}
		if order.DeliveryPartnerID == nil || *order.DeliveryPartnerID != partner.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if isClosed(order.Status) {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is already closed").
				WithDetails(map[string]any{"status": order.Status})
		}

		paymentStatus := order.PaymentStatus
		if input.Status == enums.OrderStatusDelivered &&
			order.PaymentMethod == enums.PaymentMethodCOD &&
			order.PaymentStatus == enums.PaymentStatusPending {
			paymentStatus = enums.PaymentStatusPaid
		}
		if order.Status == input.Status && order.PaymentStatus == paymentStatus {
			return nil
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, input.Status, paymentStatus); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.RoleDelivery)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:               order.ID,
				OrderNumber:           order.OrderNumber,
				UserID:                order.UserID,
				PreviousStatus:        order.Status,
				Status:                input.Status,
				PreviousPaymentStatus: order.PaymentStatus,
				PaymentStatus:         paymentStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":            input.OrderID.String(),
		"delivery_partner_id": partnerID.String(),
		"status":              input.Status,
	})
	s.logg.Info(logCtx, "delivery status updated")

	order, err := s.repo.FindAssigned(ctx, partnerID, input.OrderID)
	if err != nil {
		return nil, err
	}
	dto := mapDeliveryOrder(*order)
	return &dto, nil
}

// callerPartner resolves the active partner linked to a delivery account.
func (s *service) callerPartner(ctx context.Context, repo Repository, userID uuid.UUID) (*models.DeliveryPartner, error) {
	partner, err := repo.FindPartnerByUser(ctx, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not linked to a delivery partner")
		}
		return nil, err
	}
	if !partner.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery partner is inactive")
	}
	return partner, nil
}

func isClosed(status enums.OrderStatus) bool {
	return status == enums.OrderStatusDelivered || status == enums.OrderStatusCancelled
}

func applyPartnerInput(partner *models.DeliveryPartner, input PartnerInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name is required").
				WithDetails(map[string]any{"field": "name"})
		}
		partner.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			partner.Email = nil
		} else {
			partner.Email = &email
		}
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			partner.Phone = nil
		} else {
			partner.Phone = &phone
		}
	}
	if input.UserID != nil {
		if *input.UserID == uuid.Nil {
			partner.UserID = nil
		} else {
			userID := *input.UserID
			partner.UserID = &userID
		}
	}
	if input.IsActive != nil {
		partner.IsActive = *input.IsActive
	}
	return nil
}

func partnerConflict(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "delivery partner email or account already in use")
	}
	return err
}
