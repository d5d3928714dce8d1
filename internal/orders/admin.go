package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

const (
	recentOrdersLimit = 5
	dailyStatsDays    = 30
)

// AdminService covers the back-office order operations.
type AdminService interface {
	List(ctx context.Context, filters AdminListFilters) (*AdminOrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*OrderDetail, error)
	Summary(ctx context.Context, query DateQuery) (*StatsSummary, error)
	Daily(ctx context.Context, query DateQuery) ([]DailyStat, error)
	Export(ctx context.Context, filters AdminListFilters) ([]byte, error)
}

// StatusUpdateInput moves an order to Status and, when set, PaymentStatus.
type StatusUpdateInput struct {
	OrderID       uuid.UUID
	Status        enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	ActorUserID   uuid.UUID
}

// AdminParams wires the admin order service.
type AdminParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxEmitter
	Logger     *logger.Logger
	MinorUnits int32
	Clock      func() time.Time
}

type adminService struct {
	repo       Repository
	tx         txRunner
	outbox     outboxEmitter
	logg       *logger.Logger
	minorUnits int32
	now        func() time.Time
}

// NewAdminService builds the admin order service.
func NewAdminService(params AdminParams) (AdminService, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
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
	return &adminService{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		logg:       params.Logger,
		minorUnits: params.MinorUnits,
		now:        clock,
	}, nil
}

func (s *adminService) List(ctx context.Context, filters AdminListFilters) (*AdminOrderList, error) {
	filters = filters.Normalize()
	if err := filters.validate(); err != nil {
		return nil, err
	}
	rng, err := filters.Date.Range(s.now())
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.ListAdmin(ctx, filters, rng)
	if err != nil {
		return nil, err
	}
	out := &AdminOrderList{
		Orders:     make([]OrderDetail, 0, len(rows)),
		Pagination: pagination.NewMeta(filters.Page, total),
	}
	for _, row := range rows {
		out.Orders = append(out.Orders, mapDetail(row))
	}
	return out, nil
}

func (s *adminService) Get(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	detail := mapDetail(*order)
	return &detail, nil
}

func (s *adminService) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"field": "status"})
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
			WithDetails(map[string]any{"field": "payment_status"})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		paymentStatus := order.PaymentStatus
		if input.PaymentStatus != nil {
			paymentStatus = *input.PaymentStatus
		}
		if order.Status == input.Status && order.PaymentStatus == paymentStatus {
			return nil
		}
		if err := repo.UpdateStatus(ctx, order.ID, input.Status, paymentStatus); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(enums.RoleAdmin)},
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
		"order_id": input.OrderID.String(),
		"status":   input.Status,
	})
	s.logg.Info(logCtx, "order status updated")
	return s.Get(ctx, input.OrderID)
}

func (s *adminService) Summary(ctx context.Context, query DateQuery) (*StatsSummary, error) {
	rng, err := query.Range(s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.StatsRows(ctx, rng)
	if err != nil {
		return nil, err
	}

	out := &StatsSummary{
		TotalRevenue:          decimal.Zero,
		AverageOrderValue:     decimal.Zero,
		OrdersByStatus:        map[enums.OrderStatus]int64{},
		OrdersByPaymentStatus: map[enums.PaymentStatus]int64{},
	}
	for _, row := range rows {
		out.TotalOrders++
		out.OrdersByStatus[row.Status]++
		out.OrdersByPaymentStatus[row.PaymentStatus]++
		if row.PaymentStatus == enums.PaymentStatusPaid {
			out.PaidOrders++
			out.TotalRevenue = out.TotalRevenue.Add(row.Total)
		}
	}
	if out.PaidOrders > 0 {
		out.AverageOrderValue = out.TotalRevenue.
			Div(decimal.NewFromInt(out.PaidOrders)).
			RoundFloor(s.minorUnits)
	}

	recent, err := s.repo.Recent(ctx, rng, recentOrdersLimit)
	if err != nil {
		return nil, err
	}
	out.RecentOrders = make([]OrderSummary, 0, len(recent))
	for _, row := range recent {
		out.RecentOrders = append(out.RecentOrders, mapSummary(row))
	}
	return out, nil
}

// Daily groups orders by UTC day, newest day first, for at most 30 days that
// have orders. Without a date filter the window is the last 30 days.
func (s *adminService) Daily(ctx context.Context, query DateQuery) ([]DailyStat, error) {
	now := s.now().UTC()
	rng, err := query.Range(now)
	if err != nil {
		return nil, err
	}
	if rng.From.IsZero() {
		rng.From = now.AddDate(0, 0, -dailyStatsDays)
	}
	rows, err := s.repo.StatsRows(ctx, rng)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DailyStat{}
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format(time.DateOnly)
		stat, ok := byDay[day]
		if !ok {
			stat = &DailyStat{Date: day, Revenue: decimal.Zero}
			byDay[day] = stat
		}
		stat.OrderCount++
		if row.PaymentStatus == enums.PaymentStatusPaid {
			stat.Revenue = stat.Revenue.Add(row.Total)
		}
	}

	out := make([]DailyStat, 0, len(byDay))
	for _, stat := range byDay {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > dailyStatsDays {
		out = out[:dailyStatsDays]
	}
	return out, nil
}

func (s *adminService) Export(ctx context.Context, filters AdminListFilters) ([]byte, error) {
	filters = filters.Normalize()
	rng, err := filters.Date.Range(s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForExport(ctx, filters, rng)
	if err != nil {
		return nil, err
	}
	data, err := WriteCSV(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render orders csv")
	}
	logCtx := s.logg.WithField(ctx, "rows", len(rows))
	s.logg.Info(logCtx, "orders exported")
	return data, nil
}
