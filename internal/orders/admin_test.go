package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	dbpkg "github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

func newAdminService(t *testing.T, db *gorm.DB) AdminService {
	t.Helper()
	svc, err := NewAdminService(AdminParams{
		Repo:       NewRepository(db),
		Tx:         dbpkg.NewFromConn(db),
		Outbox:     outbox.NewService(outbox.NewRepository(db), logger.Nop()),
		Logger:     logger.Nop(),
		MinorUnits: 2,
		Clock:      func() time.Time { return baseTime.Add(3 * time.Hour) },
	})
	require.NoError(t, err)
	return svc
}

type statsFixture struct {
	db      *gorm.DB
	alice   customer
	product *models.Product
	orders  map[string]*models.Order
}

func seedStatsFixture(t *testing.T) statsFixture {
	t.Helper()
	db := testdb.Open(t)
	product := testdb.SeedProduct(t, db, "Tea", "50.00")
	alice := seedCustomerWithCart(t, db, nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.user.ID).Update("name", "Alice").Error)
	alice.user.Name = "Alice"

	orders := map[string]*models.Order{
		"A": seedOrder(t, db, alice, product, "ORD-A", withTotal("300"), withStatus(enums.OrderStatusDelivered, enums.PaymentStatusPaid)),
		"B": seedOrder(t, db, alice, product, "ORD-B", withTotal("150"), createdAt(baseTime.Add(time.Hour))),
		"C": seedOrder(t, db, alice, product, "ORD-C", withTotal("90"), createdAt(baseTime.Add(2*time.Hour))),
		"D": seedOrder(t, db, alice, product, "ORD-D", withTotal("101"), withStatus(enums.OrderStatusConfirmed, enums.PaymentStatusPaid), createdAt(baseTime.Add(150*time.Minute))),
		"E": seedOrder(t, db, alice, product, "ORD-E", withTotal("50"), withStatus(enums.OrderStatusDelivered, enums.PaymentStatusPaid), createdAt(baseTime.Add(-24*time.Hour))),
	}
	return statsFixture{db: db, alice: alice, product: product, orders: orders}
}

func TestAdminSummary(t *testing.T) {
	fx := seedStatsFixture(t)
	svc := newAdminService(t, fx.db)

	all, err := svc.Summary(context.Background(), DateQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.TotalOrders)
	assert.Equal(t, int64(3), all.PaidOrders)
	assert.True(t, all.TotalRevenue.Equal(decimal.RequireFromString("451")), "revenue %s", all.TotalRevenue)
	assert.True(t, all.AverageOrderValue.Equal(decimal.RequireFromString("150.33")), "aov %s", all.AverageOrderValue)
	assert.Equal(t, int64(2), all.OrdersByStatus[enums.OrderStatusDelivered])
	assert.Equal(t, int64(2), all.OrdersByStatus[enums.OrderStatusPending])
	assert.Equal(t, int64(2), all.OrdersByPaymentStatus[enums.PaymentStatusPending])
	require.Len(t, all.RecentOrders, 5)
	assert.Equal(t, "ORD-D", all.RecentOrders[0].OrderNumber)
	assert.Equal(t, "Alice", all.RecentOrders[0].CustomerName)

	today, err := svc.Summary(context.Background(), DateQuery{Filter: DateFilterToday})
	require.NoError(t, err)
	assert.Equal(t, int64(4), today.TotalOrders)
	assert.True(t, today.TotalRevenue.Equal(decimal.RequireFromString("401")))
	assert.True(t, today.AverageOrderValue.Equal(decimal.RequireFromString("200.5")))
	assert.Len(t, today.RecentOrders, 4)
}

func TestAdminSummaryWithoutPaidOrders(t *testing.T) {
	db := testdb.Open(t)
	svc := newAdminService(t, db)

	summary, err := svc.Summary(context.Background(), DateQuery{Filter: DateFilterWeek})
	require.NoError(t, err)
	assert.Zero(t, summary.TotalOrders)
	assert.True(t, summary.AverageOrderValue.IsZero())
	assert.Empty(t, summary.RecentOrders)
}

func TestAdminDaily(t *testing.T) {
	fx := seedStatsFixture(t)
	svc := newAdminService(t, fx.db)

	stats, err := svc.Daily(context.Background(), DateQuery{})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-03-14", stats[0].Date)
	assert.Equal(t, int64(4), stats[0].OrderCount)
	assert.True(t, stats[0].Revenue.Equal(decimal.RequireFromString("401")))
	assert.Equal(t, "2026-03-13", stats[1].Date)
	assert.Equal(t, int64(1), stats[1].OrderCount)
	assert.True(t, stats[1].Revenue.Equal(decimal.RequireFromString("50")))

	start := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	custom, err := svc.Daily(context.Background(), DateQuery{Filter: DateFilterCustom, Start: &start, End: &start})
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "2026-03-13", custom[0].Date)
}

func TestAdminListValidation(t *testing.T) {
	db := testdb.Open(t)
	svc := newAdminService(t, db)

	_, err := svc.List(context.Background(), AdminListFilters{SortBy: "email"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), AdminListFilters{Date: DateQuery{Filter: DateFilterCustom}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := svc.List(context.Background(), AdminListFilters{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
	assert.Equal(t, pagination.Meta{Page: 1, Limit: pagination.DefaultLimit}, list.Pagination)
}

func TestAdminListReturnsDetails(t *testing.T) {
	fx := seedStatsFixture(t)
	svc := newAdminService(t, fx.db)

	list, err := svc.List(context.Background(), AdminListFilters{Page: pagination.Page{Page: 1, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, int64(5), list.Pagination.Total)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	first := list.Orders[0]
	assert.Equal(t, "ORD-D", first.OrderNumber)
	require.NotNil(t, first.Customer)
	assert.Equal(t, "Alice", first.Customer.Name)
	require.NotNil(t, first.Address)
	assert.Equal(t, "Pune", first.Address.City)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "Tea", first.Items[0].ProductName)
	assert.True(t, first.Items[0].LineTotal.Equal(decimal.RequireFromString("100")))
}

func TestAdminUpdateStatusEmitsEvent(t *testing.T) {
	fx := seedStatsFixture(t)
	svc := newAdminService(t, fx.db)
	admin := uuid.New()
	paid := enums.PaymentStatusPaid
	target := fx.orders["B"]

	detail, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderID:       target.ID,
		Status:        enums.OrderStatusOutForDelivery,
		PaymentStatus: &paid,
		ActorUserID:   admin,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, detail.Status)
	assert.Equal(t, enums.PaymentStatusPaid, detail.PaymentStatus)

	var events []models.OutboxEvent
	require.NoError(t, fx.db.Where("event_type = ?", enums.EventOrderStatusChanged).Find(&events).Error)
	require.Len(t, events, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	assert.Equal(t, admin, envelope.Actor.UserID)
	var data payloads.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, enums.OrderStatusPending, data.PreviousStatus)
	assert.Equal(t, enums.OrderStatusOutForDelivery, data.Status)
	assert.Equal(t, enums.PaymentStatusPending, data.PreviousPaymentStatus)

	// same status again is a no-op
	_, err = svc.UpdateStatus(context.Background(), StatusUpdateInput{OrderID: target.ID, Status: enums.OrderStatusOutForDelivery})
	require.NoError(t, err)
	var count int64
	require.NoError(t, fx.db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAdminUpdateStatusValidation(t *testing.T) {
	db := testdb.Open(t)
	svc := newAdminService(t, db)
	bogus := enums.PaymentStatus("LOST")

	cases := []struct {
		name  string
		input StatusUpdateInput
		code  pkgerrors.Code
	}{
		{"missing id", StatusUpdateInput{Status: enums.OrderStatusConfirmed}, pkgerrors.CodeValidation},
		{"bad status", StatusUpdateInput{OrderID: uuid.New(), Status: "SHIPPED"}, pkgerrors.CodeValidation},
		{"bad payment status", StatusUpdateInput{OrderID: uuid.New(), Status: enums.OrderStatusConfirmed, PaymentStatus: &bogus}, pkgerrors.CodeValidation},
		{"unknown order", StatusUpdateInput{OrderID: uuid.New(), Status: enums.OrderStatusConfirmed}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestAdminExportCSV(t *testing.T) {
	fx := seedStatsFixture(t)
	svc := newAdminService(t, fx.db)
	paid := enums.PaymentStatusPaid

	data, err := svc.Export(context.Background(), AdminListFilters{PaymentStatus: &paid})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])

	row := records[1]
	assert.Equal(t, "ORD-D", row[0])
	assert.Equal(t, "Alice", row[1])
	assert.Equal(t, "12 Market Road, Pune, MH - 411001", row[4])
	assert.Equal(t, "CONFIRMED", row[5])
	assert.Equal(t, "101.00", row[12])
	assert.Equal(t, "2026-03-14", row[13])
	assert.Equal(t, "Tea (2)", row[14])
}
