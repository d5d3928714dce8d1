package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

// Period is a trailing reporting window ending now.
type Period string

const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "last1week"
	PeriodMonth   Period = "last1month"
	PeriodQuarter Period = "last1quarter"
	PeriodYear    Period = "last1year"
)

// Periods lists every reporting period, shortest first.
var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}

// ParsePeriod accepts a period name. Empty input falls back to fallback.
func ParsePeriod(raw string, fallback Period) (Period, error) {
	value := Period(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return fallback, nil
	}
	for _, p := range Periods {
		if p == value {
			return p, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid period").
		WithDetails(map[string]any{"field": "period", "allowed": Periods})
}

// Window bounds created_at as [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Window resolves p against now. Today starts at UTC midnight; the others
// start the same wall time one week, month, quarter or year back.
func (p Period) Window(now time.Time) Window {
	now = now.UTC()
	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	case PeriodQuarter:
		start = now.AddDate(0, -3, 0)
	case PeriodYear:
		start = now.AddDate(-1, 0, 0)
	default:
		start = now.AddDate(0, 0, -7)
	}
	return Window{Start: start, End: now}
}

// Previous is the window of equal length that ends where w starts.
func (w Window) Previous() Window {
	return Window{Start: w.Start.Add(-w.End.Sub(w.Start)), End: w.Start}
}

var hundred = decimal.NewFromInt(100)

// PercentageChange is (current - previous) / previous * 100 rounded to two
// places. With no previous value it is 100 when current is positive and 0
// otherwise.
func PercentageChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}
