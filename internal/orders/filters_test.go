package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

func TestDateQueryRange(t *testing.T) {
	now := time.Date(2026, 5, 31, 15, 4, 5, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		filter DateFilter
		want   DateRange
	}{
		{DateFilterNone, DateRange{}},
		{DateFilterToday, DateRange{From: day(2026, 5, 31), To: day(2026, 6, 1)}},
		{DateFilterWeek, DateRange{From: now.AddDate(0, 0, -7)}},
		{DateFilterMonth, DateRange{From: now.AddDate(0, -1, 0)}},
		{DateFilterQuarter, DateRange{From: now.AddDate(0, -3, 0)}},
		{DateFilterYear, DateRange{From: now.AddDate(-1, 0, 0)}},
	}
	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			got, err := DateQuery{Filter: tc.filter}.Range(now)
			require.NoError(t, err)
			assert.True(t, tc.want.From.Equal(got.From), "from %s", got.From)
			assert.True(t, tc.want.To.Equal(got.To), "to %s", got.To)
		})
	}
}

func TestDateQueryCustomRange(t *testing.T) {
	now := time.Now()
	start := time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)

	got, err := DateQuery{Filter: DateFilterCustom, Start: &start, End: &end}.Range(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), got.From)
	assert.Equal(t, time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), got.To)

	_, err = DateQuery{Filter: DateFilterCustom, Start: &end, End: &start}.Range(now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = DateQuery{Filter: DateFilterCustom, Start: &start}.Range(now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = DateQuery{Filter: "decade"}.Range(now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdminListFiltersNormalize(t *testing.T) {
	f := AdminListFilters{Search: "  ORD-1  "}.Normalize()
	assert.Equal(t, SortByCreatedAt, f.SortBy)
	assert.True(t, f.SortDesc)
	assert.Equal(t, "ORD-1", f.Search)
	assert.Equal(t, 1, f.Page.Page)

	kept := AdminListFilters{SortBy: SortByTotal}.Normalize()
	assert.Equal(t, SortByTotal, kept.SortBy)
	assert.False(t, kept.SortDesc)
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	pattern := regexp.MustCompile(`^ORD-1767225600123-(\d{1,4})$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, NewOrderNumber(now))
	}
}
