package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

// DateFilter selects a created_at window relative to now.
type DateFilter string

const (
	DateFilterNone    DateFilter = ""
	DateFilterToday   DateFilter = "today"
	DateFilterWeek    DateFilter = "week"
	DateFilterMonth   DateFilter = "month"
	DateFilterQuarter DateFilter = "quarter"
	DateFilterYear    DateFilter = "year"
	DateFilterCustom  DateFilter = "custom"
)

// IsValid reports whether the value is a known date filter.
func (d DateFilter) IsValid() bool {
	switch d {
	case DateFilterNone, DateFilterToday, DateFilterWeek, DateFilterMonth,
		DateFilterQuarter, DateFilterYear, DateFilterCustom:
		return true
	}
	return false
}

// DateRange bounds created_at as [From, To). Zero values leave that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// SortField is an admin list sort column.
type SortField string

const (
	SortByOrderNumber SortField = "order_number"
	SortByTotal       SortField = "total"
	SortByCreatedAt   SortField = "created_at"
	SortByStatus      SortField = "status"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByOrderNumber, SortByTotal, SortByCreatedAt, SortByStatus:
		return true
	}
	return false
}

// DateQuery is the date selection shared by listings, stats and export.
type DateQuery struct {
	Filter DateFilter
	Start  *time.Time
	End    *time.Time
}

// AdminListFilters captures the admin order listing query.
type AdminListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	PaymentMethod *enums.PaymentMethod
	UserID        *uuid.UUID
	Search        string
	Date          DateQuery
	SortBy        SortField
	SortDesc      bool
	Page          pagination.Page
}

// Normalize applies defaults: newest first, page 1 and the default page size.
func (f AdminListFilters) Normalize() AdminListFilters {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
		f.SortDesc = true
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Page = pagination.NormalizePage(f.Page)
	return f
}

func (f AdminListFilters) validate() error {
	if !f.SortBy.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid sort field").
			WithDetails(map[string]any{"field": "sort_by"})
	}
	return nil
}

// Range resolves the date query against now. Relative windows start at the
// same wall time in the past; custom ranges include the whole end day.
func (q DateQuery) Range(now time.Time) (DateRange, error) {
	now = now.UTC()
	switch q.Filter {
	case DateFilterNone:
		return DateRange{}, nil
	case DateFilterToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return DateRange{From: start, To: start.AddDate(0, 0, 1)}, nil
	case DateFilterWeek:
		return DateRange{From: now.AddDate(0, 0, -7)}, nil
	case DateFilterMonth:
		return DateRange{From: now.AddDate(0, -1, 0)}, nil
	case DateFilterQuarter:
		return DateRange{From: now.AddDate(0, -3, 0)}, nil
	case DateFilterYear:
		return DateRange{From: now.AddDate(-1, 0, 0)}, nil
	case DateFilterCustom:
		if q.Start == nil || q.End == nil {
			return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "custom date filter requires start_date and end_date").
				WithDetails(map[string]any{"field": "start_date"})
		}
		start := truncateDay(*q.Start)
		end := truncateDay(*q.End).AddDate(0, 0, 1)
		if !start.Before(end) {
			return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must not be after end_date").
				WithDetails(map[string]any{"field": "end_date"})
		}
		return DateRange{From: start, To: end}, nil
	default:
		return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date filter").
			WithDetails(map[string]any{"field": "date_filter"})
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
