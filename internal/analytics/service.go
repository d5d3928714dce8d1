package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

const (
	topLimit  = 5
	liveLimit = 10
)

// Service exposes the admin reporting views. Order counts cover every order
// in a window; revenue only sums paid orders.
type Service interface {
	MultiPeriod(ctx context.Context, status *enums.OrderStatus) (*MultiPeriodStats, error)
	OrdersSummary(ctx context.Context, status *enums.OrderStatus) (map[Period]Change, error)
	RevenueSummary(ctx context.Context, status *enums.OrderStatus) (map[Period]Change, error)
	Dashboard(ctx context.Context, period Period, status *enums.OrderStatus) (*Dashboard, error)
	Segments(ctx context.Context, period Period) (*Segments, error)
}

type ServiceParams struct {
	Repo       Repository
	MinorUnits int32
	Clock      func() time.Time
}

type service struct {
	repo       Repository
	minorUnits int32
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("analytics repository required")
	case params.MinorUnits < 0:
		return nil, fmt.Errorf("minor units must not be negative")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, minorUnits: params.MinorUnits, now: clock}, nil
}

func (s *service) MultiPeriod(ctx context.Context, status *enums.OrderStatus) (*MultiPeriodStats, error) {
	now := s.now()
	out := &MultiPeriodStats{
		Orders:  make(map[Period]int64, len(Periods)),
		Revenue: make(map[Period]decimal.Decimal, len(Periods)),
	}
	for _, p := range Periods {
		f := Filter{Window: p.Window(now), Status: status}
		count, err := s.repo.CountOrders(ctx, f)
		if err != nil {
			return nil, err
		}
		f.PaidOnly = true
		revenue, err := s.repo.SumRevenue(ctx, f)
		if err != nil {
			return nil, err
		}
		out.Orders[p] = count
		out.Revenue[p] = s.money(revenue)
	}
	return out, nil
}

func (s *service) OrdersSummary(ctx context.Context, status *enums.OrderStatus) (map[Period]Change, error) {
	return s.summary(func(f Filter) (decimal.Decimal, error) {
		n, err := s.repo.CountOrders(ctx, f)
		return decimal.NewFromInt(n), err
	}, status)
}

func (s *service) RevenueSummary(ctx context.Context, status *enums.OrderStatus) (map[Period]Change, error) {
	return s.summary(func(f Filter) (decimal.Decimal, error) {
		f.PaidOnly = true
		total, err := s.repo.SumRevenue(ctx, f)
		return s.money(total), err
	}, status)
}

func (s *service) summary(measure func(Filter) (decimal.Decimal, error), status *enums.OrderStatus) (map[Period]Change, error) {
	now := s.now()
	out := make(map[Period]Change, len(Periods))
	for _, p := range Periods {
		window := p.Window(now)
		current, err := measure(Filter{Window: window, Status: status})
		if err != nil {
			return nil, err
		}
		previous, err := measure(Filter{Window: window.Previous(), Status: status})
		if err != nil {
			return nil, err
		}
		out[p] = Change{
			Current:          current,
			Previous:         previous,
			PercentageChange: PercentageChange(current, previous),
		}
	}
	return out, nil
}

// Dashboard counts every order in the window for the order total but only
// paid orders for revenue and the breakdowns.
func (s *service) Dashboard(ctx context.Context, period Period, status *enums.OrderStatus) (*Dashboard, error) {
	window := period.Window(s.now())
	all := Filter{Window: window, Status: status}
	paid := Filter{Window: window, Status: status, PaidOnly: true}

	out := &Dashboard{Period: period, Window: window}
	var (
		paidOrders int64
		revenue    decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary.TotalOrders, err = s.repo.CountOrders(gctx, all)
		return err
	})
	g.Go(func() (err error) {
		paidOrders, err = s.repo.CountOrders(gctx, paid)
		return err
	})
	g.Go(func() (err error) {
		revenue, err = s.repo.SumRevenue(gctx, paid)
		return err
	})
	g.Go(func() (err error) {
		out.Summary.TotalCustomers, err = s.repo.CountCustomers(gctx, all)
		return err
	})
	g.Go(func() (err error) {
		out.RevenueByCategory, err = s.repo.RevenueByCategory(gctx, paid)
		return err
	})
	g.Go(func() (err error) {
		out.TopProducts, err = s.repo.TopProducts(gctx, paid, topLimit)
		return err
	})
	g.Go(func() (err error) {
		out.TopCustomers, err = s.repo.TopCustomers(gctx, paid, topLimit)
		return err
	})
	g.Go(func() error {
		orders, err := s.repo.LiveOrders(gctx, liveLimit)
		if err != nil {
			return err
		}
		out.LiveOrders = make([]LiveOrder, 0, len(orders))
		for _, o := range orders {
			out.LiveOrders = append(out.LiveOrders, mapLiveOrder(o))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Summary.TotalRevenue = s.money(revenue)
	out.Summary.AverageOrderValue = decimal.Zero
	if paidOrders > 0 {
		out.Summary.AverageOrderValue = revenue.Div(decimal.NewFromInt(paidOrders)).Round(s.minorUnits)
	}
	for i := range out.RevenueByCategory {
		out.RevenueByCategory[i].Revenue = s.money(out.RevenueByCategory[i].Revenue)
	}
	for i := range out.TopProducts {
		out.TopProducts[i].Revenue = s.money(out.TopProducts[i].Revenue)
	}
	for i := range out.TopCustomers {
		out.TopCustomers[i].Revenue = s.money(out.TopCustomers[i].Revenue)
	}
	return out, nil
}

func (s *service) Segments(ctx context.Context, period Period) (*Segments, error) {
	rows, err := s.repo.CustomerTotals(ctx, Filter{Window: period.Window(s.now()), PaidOnly: true})
	if err != nil {
		return nil, err
	}
	out := &Segments{Period: period, Segments: map[Segment]SegmentStats{
		SegmentNew:       {Revenue: decimal.Zero},
		SegmentReturning: {Revenue: decimal.Zero},
		SegmentLoyal:     {Revenue: decimal.Zero},
		SegmentVIP:       {Revenue: decimal.Zero},
	}}
	for _, row := range rows {
		seg := segmentFor(row.OrderCount)
		stats := out.Segments[seg]
		stats.Customers++
		stats.Revenue = stats.Revenue.Add(row.Revenue)
		out.Segments[seg] = stats
	}
	for seg, stats := range out.Segments {
		stats.Revenue = s.money(stats.Revenue)
		out.Segments[seg] = stats
	}
	return out, nil
}

func (s *service) money(v decimal.Decimal) decimal.Decimal {
	return v.Round(s.minorUnits)
}
