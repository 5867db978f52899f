package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise-app/finwise/backend/internal/model"
)

func TestRangeLabel(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		days int
		want string
	}{
		{name: "exactly 30", days: 30, want: "30d"},
		{name: "lower tolerance", days: 28, want: "30d"},
		{name: "upper tolerance", days: 32, want: "30d"},
		{name: "just past tolerance", days: 33, want: "custom:20240301-20240403"},
		{name: "quarter", days: 90, want: "90d"},
		{name: "quarter upper", days: 95, want: "90d"},
		{name: "year", days: 365, want: "1y"},
		{name: "leap year", days: 366, want: "1y"},
		{name: "week", days: 7, want: "custom:20240301-20240308"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Trailing windows: now falls on the window's end day.
			end := base.Add(time.Duration(tt.days) * 24 * time.Hour)
			assert.Equal(t, tt.want, rangeLabel(base, end, end))
		})
	}
}

func TestRangeLabelHistoricalWindow(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	// A 30-day span that ended weeks ago is not "the trailing 30 days" and
	// must carry its own dates.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "custom:20240101-20240131", rangeLabel(start, end, now))

	// The same span ending today collapses to the preset.
	start = now.AddDate(0, 0, -30)
	assert.Equal(t, "30d", rangeLabel(start, now, now))
}

func TestAnalyticsSummary(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env, "user-1")
	env.fixedNow(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	rec := env.do(http.MethodGet, "/v1/analytics/summary", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary analyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "30d", summary.Range)
	assert.Equal(t, int64(450000), summary.IncomeCents)
	assert.Equal(t, int64(4520+1599), summary.ExpenseCents)
	assert.Equal(t, int64(450000-4520-1599), summary.NetCents)
	assert.Equal(t, 3, summary.TransactionCount)
}

func TestAnalyticsSummaryIsCached(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env, "user-1")
	env.fixedNow(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	rec := env.do(http.MethodGet, "/v1/analytics/summary", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)

	// Mutate underlying data; the cached aggregate must not change within
	// the TTL.
	require.NoError(t, env.store.CreateTransactions(context.Background(), []*model.Transaction{
		{ID: "tx-new", UserID: "user-1", Description: "COFFEE", Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			AmountCents: 500, Type: model.TransactionExpense},
	}))

	rec = env.do(http.MethodGet, "/v1/analytics/summary", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary analyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.TransactionCount, "second read should come from cache")
}

func TestAnalyticsSummaryDistinctWindowsCachedSeparately(t *testing.T) {
	env := newTestEnv(t)
	env.fixedNow(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	require.NoError(t, env.store.CreateTransactions(context.Background(), []*model.Transaction{
		{ID: "tx-jan", UserID: "user-1", Description: "GYM", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			AmountCents: 1000, Type: model.TransactionExpense},
	}))

	rec := env.do(http.MethodGet, "/v1/analytics/summary?startDate=2024-01-01&endDate=2024-01-31", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)
	var january analyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &january))
	assert.Equal(t, 1, january.TransactionCount)
	assert.Equal(t, int64(1000), january.ExpenseCents)

	// A same-span window over a different period must not hit January's
	// cache entry.
	rec = env.do(http.MethodGet, "/v1/analytics/summary?startDate=2024-03-01&endDate=2024-03-31", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)
	var march analyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &march))
	assert.Equal(t, 0, march.TransactionCount)
	assert.Equal(t, int64(0), march.ExpenseCents)
}

func TestAnalyticsByCategory(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env, "user-1")
	env.fixedNow(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	rec := env.do(http.MethodGet, "/v1/analytics/by-category", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)

	var result analyticsByCategory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Categories, 2)
	// Sorted by spend descending; income is excluded.
	assert.Equal(t, "sys-groceries", result.Categories[0].CategoryID)
	assert.Equal(t, int64(4520), result.Categories[0].ExpenseCents)
	assert.Equal(t, "uncategorized", result.Categories[1].CategoryID)
}

func TestAnalyticsDaily(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env, "user-1")
	env.fixedNow(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	rec := env.do(http.MethodGet, "/v1/analytics/daily?startDate=2024-03-01&endDate=2024-03-31", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)

	var result analyticsDaily
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Days, 3)
	assert.Equal(t, "2024-03-10", result.Days[0].Date)
	assert.Equal(t, int64(4520), result.Days[0].ExpenseCents)
	assert.Equal(t, "2024-03-12", result.Days[2].Date)
	assert.Equal(t, int64(450000), result.Days[2].IncomeCents)
}

func TestAnalyticsInvalidRange(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/analytics/summary?startDate=not-a-date", nil, "user-1", model.PlanPlus)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/v1/analytics/summary?startDate=2024-05-01&endDate=2024-04-01", nil, "user-1", model.PlanPlus)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
