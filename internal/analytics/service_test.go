package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

var now = time.Date(2026, 5, 31, 15, 30, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	svc   Service
	asha  *models.User
	bala  *models.User
	rice  *models.Product
	soap  *models.Product
	today *models.Order
}

func named(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := testdb.SeedUser(t, db, enums.RoleCustomer)
	require.NoError(t, db.Model(user).Update("name", name).Error)
	user.Name = name
	return user
}

func placed(at time.Time, status enums.OrderStatus, payment enums.PaymentStatus) testdb.OrderOption {
	return func(o *models.Order) {
		o.CreatedAt = at
		o.UpdatedAt = at
		o.Status = status
		o.PaymentStatus = payment
	}
}

// setup seeds four orders around now:
//
//	A-1 asha  now-1h   rice 2x50  paid     delivered
//	A-2 asha  now-2d   soap 1x80  paid     confirmed
//	B-1 bala  now-3h   rice 2x50  pending  pending
//	B-2 bala  now-10d  rice 2x50  paid     delivered
func setup(t *testing.T) fixture {
	t.Helper()
	db := testdb.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		MinorUnits: 2,
		Clock:      func() time.Time { return now },
	})
	require.NoError(t, err)

	grains := testdb.SeedCategory(t, db, "Grains")
	rice := testdb.SeedProduct(t, db, "Rice", "50.00")
	require.NoError(t, db.Model(rice).Update("category_id", grains.ID).Error)
	soap := testdb.SeedProduct(t, db, "Soap", "80.00")

	asha := named(t, db, "Asha")
	bala := named(t, db, "Bala")
	ashaAddr := testdb.SeedAddress(t, db, asha.ID)
	balaAddr := testdb.SeedAddress(t, db, bala.ID)

	fx := fixture{db: db, svc: svc, asha: asha, bala: bala, rice: rice, soap: soap}
	fx.today = testdb.SeedOrder(t, db, asha.ID, ashaAddr.ID, rice.ID, "A-1",
		placed(now.Add(-time.Hour), enums.OrderStatusDelivered, enums.PaymentStatusPaid))
	testdb.SeedOrder(t, db, asha.ID, ashaAddr.ID, soap.ID, "A-2",
		placed(now.Add(-48*time.Hour), enums.OrderStatusConfirmed, enums.PaymentStatusPaid),
		func(o *models.Order) {
			o.Subtotal = decimal.RequireFromString("80")
			o.Total = decimal.RequireFromString("80")
			o.Items[0].Quantity = 1
			o.Items[0].Price = decimal.RequireFromString("80")
		})
	testdb.SeedOrder(t, db, bala.ID, balaAddr.ID, rice.ID, "B-1",
		placed(now.Add(-3*time.Hour), enums.OrderStatusPending, enums.PaymentStatusPending))
	testdb.SeedOrder(t, db, bala.ID, balaAddr.ID, rice.ID, "B-2",
		placed(now.AddDate(0, 0, -10), enums.OrderStatusDelivered, enums.PaymentStatusPaid))
	return fx
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(nil), MinorUnits: -1})
	require.Error(t, err)
}

func TestMultiPeriod(t *testing.T) {
	fx := setup(t)

	stats, err := fx.svc.MultiPeriod(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[Period]int64{
		PeriodToday: 2, PeriodWeek: 3, PeriodMonth: 4, PeriodQuarter: 4, PeriodYear: 4,
	}, stats.Orders)
	assertDecimal(t, "100", stats.Revenue[PeriodToday])
	assertDecimal(t, "180", stats.Revenue[PeriodWeek])
	assertDecimal(t, "280", stats.Revenue[PeriodYear])

	delivered := enums.OrderStatusDelivered
	stats, err = fx.svc.MultiPeriod(context.Background(), &delivered)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Orders[PeriodWeek])
	assert.EqualValues(t, 2, stats.Orders[PeriodMonth])
	assertDecimal(t, "100", stats.Revenue[PeriodWeek])
}

func TestSummariesCompareWithPreviousWindow(t *testing.T) {
	fx := setup(t)

	orders, err := fx.svc.OrdersSummary(context.Background(), nil)
	require.NoError(t, err)
	assertDecimal(t, "3", orders[PeriodWeek].Current)
	assertDecimal(t, "1", orders[PeriodWeek].Previous)
	assertDecimal(t, "200", orders[PeriodWeek].PercentageChange)
	assertDecimal(t, "2", orders[PeriodToday].Current)
	assertDecimal(t, "0", orders[PeriodToday].Previous)
	assertDecimal(t, "100", orders[PeriodToday].PercentageChange)

	revenue, err := fx.svc.RevenueSummary(context.Background(), nil)
	require.NoError(t, err)
	assertDecimal(t, "180", revenue[PeriodWeek].Current)
	assertDecimal(t, "100", revenue[PeriodWeek].Previous)
	assertDecimal(t, "80", revenue[PeriodWeek].PercentageChange)
	assertDecimal(t, "280", revenue[PeriodMonth].Current)
	assertDecimal(t, "0", revenue[PeriodMonth].Previous)
}

func TestDashboard(t *testing.T) {
	fx := setup(t)

	dash, err := fx.svc.Dashboard(context.Background(), PeriodWeek, nil)
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, dash.Period)
	assert.Equal(t, now, dash.Window.End)

	assert.EqualValues(t, 3, dash.Summary.TotalOrders)
	assert.EqualValues(t, 2, dash.Summary.TotalCustomers)
	assertDecimal(t, "180", dash.Summary.TotalRevenue)
	assertDecimal(t, "90", dash.Summary.AverageOrderValue)

	require.Len(t, dash.RevenueByCategory, 2)
	assert.Equal(t, "Grains", dash.RevenueByCategory[0].Category)
	assertDecimal(t, "100", dash.RevenueByCategory[0].Revenue)
	assert.Equal(t, uncategorized, dash.RevenueByCategory[1].Category)
	assertDecimal(t, "80", dash.RevenueByCategory[1].Revenue)

	require.Len(t, dash.TopProducts, 2)
	assert.Equal(t, fx.rice.ID, dash.TopProducts[0].ProductID)
	assert.EqualValues(t, 2, dash.TopProducts[0].Quantity)
	assert.EqualValues(t, 1, dash.TopProducts[0].OrderCount)
	assert.Equal(t, "Soap", dash.TopProducts[1].Name)

	require.Len(t, dash.TopCustomers, 1)
	assert.Equal(t, fx.asha.ID, dash.TopCustomers[0].UserID)
	assert.Equal(t, "Asha", dash.TopCustomers[0].Name)
	assert.EqualValues(t, 2, dash.TopCustomers[0].OrderCount)
	assertDecimal(t, "180", dash.TopCustomers[0].Revenue)

	require.Len(t, dash.LiveOrders, 4)
	assert.Equal(t, fx.today.ID, dash.LiveOrders[0].ID)
	assert.Equal(t, "Asha", dash.LiveOrders[0].CustomerName)
	assert.Equal(t, "B-2", dash.LiveOrders[3].OrderNumber)
}

func TestDashboardWithoutPaidOrders(t *testing.T) {
	fx := setup(t)
	pending := enums.OrderStatusPending

	dash, err := fx.svc.Dashboard(context.Background(), PeriodToday, &pending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Summary.TotalOrders)
	assertDecimal(t, "0", dash.Summary.TotalRevenue)
	assertDecimal(t, "0", dash.Summary.AverageOrderValue)
	assert.Empty(t, dash.TopProducts)
	assert.Empty(t, dash.RevenueByCategory)
}

func TestSegments(t *testing.T) {
	fx := setup(t)

	got, err := fx.svc.Segments(context.Background(), PeriodMonth)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Segments[SegmentNew].Customers)
	assertDecimal(t, "100", got.Segments[SegmentNew].Revenue)
	assert.EqualValues(t, 1, got.Segments[SegmentReturning].Customers)
	assertDecimal(t, "180", got.Segments[SegmentReturning].Revenue)
	assert.Zero(t, got.Segments[SegmentVIP].Customers)
}

func TestSegmentFor(t *testing.T) {
	assert.Equal(t, SegmentNew, segmentFor(1))
	assert.Equal(t, SegmentReturning, segmentFor(2))
	assert.Equal(t, SegmentReturning, segmentFor(5))
	assert.Equal(t, SegmentLoyal, segmentFor(6))
	assert.Equal(t, SegmentLoyal, segmentFor(10))
	assert.Equal(t, SegmentVIP, segmentFor(11))
}
