package service

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/cache"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/store"
)

const analyticsTTL = 5 * time.Minute

// analyticsRange is the parsed date window of an analytics request.
type analyticsRange struct {
	Start time.Time
	End   time.Time
	// Label names the window in cache keys. Trailing windows within a few
	// days of a preset share the preset's label so near-identical
	// client-generated windows hit the same cache entry.
	Label string
}

// rangeLabel classifies a window against the preset trailing windows. Only
// windows ending on the current day qualify for a preset label; a historical
// window is keyed by its exact dates so two same-span windows over different
// periods never share a cache entry.
func rangeLabel(start, end, now time.Time) string {
	if end.UTC().Format("2006-01-02") == now.UTC().Format("2006-01-02") {
		days := int(end.Sub(start).Hours() / 24)
		switch {
		case days >= 28 && days <= 32:
			return "30d"
		case days >= 88 && days <= 95:
			return "90d"
		case days >= 360 && days <= 370:
			return "1y"
		}
	}
	return fmt.Sprintf("custom:%s-%s", start.Format("20060102"), end.Format("20060102"))
}

// parseAnalyticsRange reads startDate/endDate query params, defaulting to
// the trailing 30 days.
func (s *Service) parseAnalyticsRange(r *http.Request) (analyticsRange, error) {
	end := s.now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
	start := end.Add(-30 * 24 * time.Hour)

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return analyticsRange{}, auth.ValidationFailed("startDate must be YYYY-MM-DD")
		}
		start = t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return analyticsRange{}, auth.ValidationFailed("endDate must be YYYY-MM-DD")
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return analyticsRange{}, auth.ValidationFailed("endDate must not precede startDate")
	}

	return analyticsRange{Start: start, End: end, Label: rangeLabel(start, end, s.now())}, nil
}

// loadTransactions pages through every transaction in the window.
func (s *Service) loadTransactions(r *http.Request, userID string, window analyticsRange) ([]*model.Transaction, error) {
	var all []*model.Transaction
	filter := store.TransactionFilter{
		StartDate: &window.Start,
		EndDate:   &window.End,
		PageSize:  500,
	}
	for {
		page, nextToken, err := s.store.ListTransactions(r.Context(), userID, filter)
		if err != nil {
			return nil, auth.WrapStoreError("list transactions", "transactions", err)
		}
		all = append(all, page...)
		if nextToken == "" {
			return all, nil
		}
		filter.PageToken = nextToken
	}
}

type analyticsSummary struct {
	Range            string `json:"range"`
	IncomeCents      int64  `json:"incomeCents"`
	ExpenseCents     int64  `json:"expenseCents"`
	NetCents         int64  `json:"netCents"`
	TransactionCount int    `json:"transactionCount"`
}

func (s *Service) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	window, err := s.parseAnalyticsRange(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	key := cache.AnalyticsKey(claims.UID, "summary", map[string]string{"range": window.Label})
	summary, err := cache.WithCache(s.cache, key, analyticsTTL, func() (analyticsSummary, error) {
		transactions, err := s.loadTransactions(r, claims.UID, window)
		if err != nil {
			return analyticsSummary{}, err
		}
		out := analyticsSummary{Range: window.Label, TransactionCount: len(transactions)}
		for _, tx := range transactions {
			switch tx.Type {
			case model.TransactionIncome:
				out.IncomeCents += tx.AmountCents
			case model.TransactionExpense:
				out.ExpenseCents += tx.AmountCents
			}
		}
		out.NetCents = out.IncomeCents - out.ExpenseCents
		return out, nil
	})
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type categoryTotal struct {
	CategoryID       string `json:"categoryId"`
	ExpenseCents     int64  `json:"expenseCents"`
	TransactionCount int    `json:"transactionCount"`
}

type analyticsByCategory struct {
	Range      string          `json:"range"`
	Categories []categoryTotal `json:"categories"`
}

func (s *Service) handleAnalyticsByCategory(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	window, err := s.parseAnalyticsRange(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	key := cache.AnalyticsKey(claims.UID, "by-category", map[string]string{"range": window.Label})
	result, err := cache.WithCache(s.cache, key, analyticsTTL, func() (analyticsByCategory, error) {
		transactions, err := s.loadTransactions(r, claims.UID, window)
		if err != nil {
			return analyticsByCategory{}, err
		}

		totals := make(map[string]*categoryTotal)
		for _, tx := range transactions {
			if tx.Type != model.TransactionExpense {
				continue
			}
			categoryID := tx.CategoryID
			if categoryID == "" {
				categoryID = "uncategorized"
			}
			total, ok := totals[categoryID]
			if !ok {
				total = &categoryTotal{CategoryID: categoryID}
				totals[categoryID] = total
			}
			total.ExpenseCents += tx.AmountCents
			total.TransactionCount++
		}

		out := analyticsByCategory{Range: window.Label, Categories: make([]categoryTotal, 0, len(totals))}
		for _, total := range totals {
			out.Categories = append(out.Categories, *total)
		}
		sort.Slice(out.Categories, func(i, j int) bool {
			return out.Categories[i].ExpenseCents > out.Categories[j].ExpenseCents
		})
		return out, nil
	})
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type dailyTotal struct {
	Date         string `json:"date"`
	IncomeCents  int64  `json:"incomeCents"`
	ExpenseCents int64  `json:"expenseCents"`
}

type analyticsDaily struct {
	Range string       `json:"range"`
	Days  []dailyTotal `json:"days"`
}

func (s *Service) handleAnalyticsDaily(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	window, err := s.parseAnalyticsRange(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	key := cache.AnalyticsKey(claims.UID, "daily", map[string]string{"range": window.Label})
	result, err := cache.WithCache(s.cache, key, analyticsTTL, func() (analyticsDaily, error) {
		transactions, err := s.loadTransactions(r, claims.UID, window)
		if err != nil {
			return analyticsDaily{}, err
		}

		totals := make(map[string]*dailyTotal)
		for _, tx := range transactions {
			day := tx.Date.Format("2006-01-02")
			total, ok := totals[day]
			if !ok {
				total = &dailyTotal{Date: day}
				totals[day] = total
			}
			switch tx.Type {
			case model.TransactionIncome:
				total.IncomeCents += tx.AmountCents
			case model.TransactionExpense:
				total.ExpenseCents += tx.AmountCents
			}
		}

		out := analyticsDaily{Range: window.Label, Days: make([]dailyTotal, 0, len(totals))}
		for _, total := range totals {
			out.Days = append(out.Days, *total)
		}
		sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })
		return out, nil
	})
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
