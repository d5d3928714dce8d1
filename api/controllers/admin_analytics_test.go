package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/internal/analytics"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

type stubAnalyticsService struct {
	err       error
	multi     *analytics.MultiPeriodStats
	summary   map[analytics.Period]analytics.Change
	dashboard *analytics.Dashboard
	segments  *analytics.Segments

	status *enums.OrderStatus
	period analytics.Period
}

func (s *stubAnalyticsService) MultiPeriod(ctx context.Context, status *enums.OrderStatus) (*analytics.MultiPeriodStats, error) {
	s.status = status
	return s.multi, s.err
}

func (s *stubAnalyticsService) OrdersSummary(ctx context.Context, status *enums.OrderStatus) (map[analytics.Period]analytics.Change, error) {
	s.status = status
	return s.summary, s.err
}

func (s *stubAnalyticsService) RevenueSummary(ctx context.Context, status *enums.OrderStatus) (map[analytics.Period]analytics.Change, error) {
	s.status = status
	return s.summary, s.err
}

func (s *stubAnalyticsService) Dashboard(ctx context.Context, period analytics.Period, status *enums.OrderStatus) (*analytics.Dashboard, error) {
	s.period = period
	s.status = status
	return s.dashboard, s.err
}

func (s *stubAnalyticsService) Segments(ctx context.Context, period analytics.Period) (*analytics.Segments, error) {
	s.period = period
	return s.segments, s.err
}

func TestAdminAnalyticsMultiPeriodStatusFilter(t *testing.T) {
	svc := &stubAnalyticsService{multi: &analytics.MultiPeriodStats{
		Orders:  map[analytics.Period]int64{analytics.PeriodWeek: 3},
		Revenue: map[analytics.Period]decimal.Decimal{analytics.PeriodWeek: decimal.NewFromInt(180)},
	}}

	resp := serve(t, AdminAnalyticsMultiPeriod(svc, nil), testRequest{method: http.MethodGet, target: "/?status=delivered"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.status)
	assert.Equal(t, enums.OrderStatusDelivered, *svc.status)
	var body struct {
		Orders map[string]int64 `json:"orders"`
	}
	decodeData(t, resp, &body)
	assert.EqualValues(t, 3, body.Orders["last1week"])

	resp = serve(t, AdminAnalyticsMultiPeriod(svc, nil), testRequest{method: http.MethodGet, target: "/?status=all"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, svc.status)

	resp = serve(t, AdminAnalyticsMultiPeriod(svc, nil), testRequest{method: http.MethodGet, target: "/?status=lost"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, resp))
}

func TestAdminAnalyticsRevenueSummary(t *testing.T) {
	svc := &stubAnalyticsService{summary: map[analytics.Period]analytics.Change{
		analytics.PeriodWeek: {
			Current:          decimal.NewFromInt(180),
			Previous:         decimal.NewFromInt(100),
			PercentageChange: decimal.NewFromInt(80),
		},
	}}

	resp := serve(t, AdminAnalyticsRevenueSummary(svc, nil), testRequest{method: http.MethodGet, target: "/"})
	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]struct {
		PercentageChange string `json:"percentage_change"`
	}
	decodeData(t, resp, &body)
	assert.Equal(t, "80", body["last1week"].PercentageChange)

	resp = serve(t, AdminAnalyticsOrdersSummary(svc, nil), testRequest{method: http.MethodGet, target: "/?status=pending"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.OrderStatusPending, *svc.status)
}

func TestAdminAnalyticsDashboardPeriod(t *testing.T) {
	svc := &stubAnalyticsService{dashboard: &analytics.Dashboard{Period: analytics.PeriodMonth}}

	resp := serve(t, AdminAnalyticsDashboard(svc, nil), testRequest{method: http.MethodGet, target: "/?period=last1month"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, analytics.PeriodMonth, svc.period)

	resp = serve(t, AdminAnalyticsDashboard(svc, nil), testRequest{method: http.MethodGet, target: "/"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, analytics.PeriodWeek, svc.period)

	resp = serve(t, AdminAnalyticsDashboard(svc, nil), testRequest{method: http.MethodGet, target: "/?period=decade"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminAnalyticsSegmentsDefaultsToMonth(t *testing.T) {
	svc := &stubAnalyticsService{segments: &analytics.Segments{Period: analytics.PeriodMonth}}

	resp := serve(t, AdminAnalyticsSegments(svc, nil), testRequest{method: http.MethodGet, target: "/"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, analytics.PeriodMonth, svc.period)
}

func TestAdminAnalyticsWithoutService(t *testing.T) {
	resp := serve(t, AdminAnalyticsDashboard(nil, nil), testRequest{method: http.MethodGet, target: "/"})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
