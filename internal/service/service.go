// Package service exposes the HTTP JSON API. Handlers authenticate via
// context claims set by the auth middleware, enforce plan entitlements, and
// hand long-running work to the job queue.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/finwise-app/finwise/backend/internal/cache"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/search"
	"github.com/finwise-app/finwise/backend/internal/store"
)

// TextExtractor pulls text out of an uploaded PDF. Implemented by
// extraction.Runner; stubbed in tests.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfData []byte, password string) (string, error)
}

// Searcher serves full-text transaction search. Optional; when nil the
// search endpoint falls back to a store scan.
type Searcher interface {
	Search(ctx context.Context, params search.Params) (*search.Response, error)
}

// Service holds the API handlers and their dependencies.
type Service struct {
	store     store.Store
	cache     *cache.Cache
	publisher queue.Publisher
	extractor TextExtractor
	searcher  Searcher
	billing   *StripeClient
	now       func() time.Time
}

// New creates the API service. searcher may be nil.
func New(s store.Store, c *cache.Cache, publisher queue.Publisher, extractor TextExtractor, searcher Searcher) *Service {
	return &Service{
		store:     s,
		cache:     c,
		publisher: publisher,
		extractor: extractor,
		searcher:  searcher,
		now:       time.Now,
	}
}

// WithBilling enables the Stripe billing endpoints.
func (s *Service) WithBilling(client *StripeClient) *Service {
	s.billing = client
	return s
}

// Routes mounts every API endpoint on mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /v1/cards", s.handleCreateCard)
	mux.HandleFunc("GET /v1/cards", s.handleListCards)
	mux.HandleFunc("DELETE /v1/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("POST /v1/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /v1/categories", s.handleListCategories)
	mux.HandleFunc("DELETE /v1/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /v1/keywords", s.handleCreateKeyword)
	mux.HandleFunc("GET /v1/keywords", s.handleListKeywords)
	mux.HandleFunc("DELETE /v1/keywords/{id}", s.handleDeleteKeyword)
	mux.HandleFunc("POST /v1/keywords/{id}/retry", s.handleRetryKeyword)

	mux.HandleFunc("POST /v1/excluded-keywords", s.handleCreateExcludedKeyword)
	mux.HandleFunc("GET /v1/excluded-keywords", s.handleListExcludedKeywords)
	mux.HandleFunc("DELETE /v1/excluded-keywords/{id}", s.handleDeleteExcludedKeyword)

	mux.HandleFunc("POST /v1/statements", s.handleUploadStatement)
	mux.HandleFunc("GET /v1/statements", s.handleListStatements)
	mux.HandleFunc("GET /v1/statements/{id}", s.handleGetStatement)

	mux.HandleFunc("GET /v1/transactions", s.handleListTransactions)
	mux.HandleFunc("PATCH /v1/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("POST /v1/transactions/recategorize", s.handleRecategorize)
	mux.HandleFunc("GET /v1/transactions/search", s.handleSearchTransactions)

	mux.HandleFunc("GET /v1/analytics/summary", s.handleAnalyticsSummary)
	mux.HandleFunc("GET /v1/analytics/by-category", s.handleAnalyticsByCategory)
	mux.HandleFunc("GET /v1/analytics/daily", s.handleAnalyticsDaily)

	mux.HandleFunc("GET /v1/entitlements", s.handleEntitlements)

	mux.HandleFunc("POST /v1/billing/checkout", s.handleCreateCheckout)
	mux.HandleFunc("GET /v1/billing/subscription", s.handleGetSubscription)
	mux.HandleFunc("POST /v1/billing/cancel", s.handleCancelSubscription)

	mux.HandleFunc("POST /v1/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /v1/budgets", s.handleListBudgets)
	mux.HandleFunc("DELETE /v1/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /v1/alerts", s.handleCreateAlert)
	mux.HandleFunc("GET /v1/alerts", s.handleListAlerts)
	mux.HandleFunc("DELETE /v1/alerts/{id}", s.handleDeleteAlert)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

// decodeJSON parses the request body into v, bounded at 1MB.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
