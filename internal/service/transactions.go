package service

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/search"
	"github.com/finwise-app/finwise/backend/internal/store"
)

func (s *Service) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := store.TransactionFilter{
		CardID:     query.Get("cardId"),
		CategoryID: query.Get("categoryId"),
		PageSize:   20,
		PageToken:  query.Get("pageToken"),
	}
	if raw := query.Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			filter.PageSize = int32(n)
		}
	}
	if raw := query.Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			auth.WriteError(w, auth.ValidationFailed("startDate must be YYYY-MM-DD"))
			return
		}
		filter.StartDate = &t
	}
	if raw := query.Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			auth.WriteError(w, auth.ValidationFailed("endDate must be YYYY-MM-DD"))
			return
		}
		filter.EndDate = &t
	}

	transactions, nextToken, err := s.store.ListTransactions(r.Context(), claims.UID, filter)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list transactions", "transactions", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions":  transactions,
		"nextPageToken": nextToken,
	})
}

type updateTransactionRequest struct {
	CategoryID *string `json:"categoryId"`
}

// handleUpdateTransaction applies a manual category override. Cached
// analytics for the user are invalidated since the aggregates changed.
func (s *Service) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	if req.CategoryID == nil {
		auth.WriteError(w, auth.ValidationFailed("categoryId is required"))
		return
	}

	transaction, err := s.store.GetTransaction(r.Context(), claims.UID, r.PathValue("id"))
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("get transaction", "transaction", err))
		return
	}

	transaction.CategoryID = *req.CategoryID
	if err := s.store.UpdateTransaction(r.Context(), transaction); err != nil {
		auth.WriteError(w, auth.WrapStoreError("update transaction", "transaction", err))
		return
	}

	s.cache.Invalidate("analytics:" + claims.UID)

	writeJSON(w, http.StatusOK, transaction)
}

type recategorizeRequest struct {
	TransactionIDs []string `json:"transactionIds"`
}

// handleRecategorize enqueues a full keyword reapplication over the given
// transactions.
func (s *Service) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req recategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	if len(req.TransactionIDs) == 0 {
		auth.WriteError(w, auth.ValidationFailed("transactionIds is required"))
		return
	}

	event, err := queue.NewEvent(queue.EventRecategorize, queue.RecategorizePayload{
		UserID:         claims.UID,
		TransactionIDs: req.TransactionIDs,
	})
	if err != nil {
		log.Printf("[Transactions] failed to build recategorize event: %v", err)
		auth.WriteError(w, auth.Internal())
		return
	}
	if err := s.publisher.Send(r.Context(), event); err != nil {
		log.Printf("[Transactions] failed to enqueue recategorize: %v", err)
		auth.WriteError(w, auth.ExternalFailure("could not schedule recategorization"))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"scheduled": len(req.TransactionIDs)})
}

// handleSearchTransactions serves full-text search via Algolia when
// configured, falling back to a store scan otherwise.
func (s *Service) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		auth.WriteError(w, auth.ValidationFailed("q is required"))
		return
	}

	if s.searcher == nil {
		results, err := s.scanSearch(r, claims.UID, query)
		if err != nil {
			auth.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	params := search.Params{
		Query:      query,
		UserID:     claims.UID,
		CategoryID: r.URL.Query().Get("categoryId"),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			params.Page = n
		}
	}

	resp, err := s.searcher.Search(r.Context(), params)
	if err != nil {
		log.Printf("[Search] algolia query failed: %v", err)
		auth.WriteError(w, auth.ExternalFailure("search is temporarily unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// scanSearch is the unconfigured-search fallback: case-insensitive substring
// match over the user's transactions.
func (s *Service) scanSearch(r *http.Request, userID, query string) (*search.Response, error) {
	transactions, _, err := s.store.ListTransactions(r.Context(), userID, store.TransactionFilter{PageSize: 500})
	if err != nil {
		return nil, auth.WrapStoreError("search transactions", "transactions", err)
	}

	needle := strings.ToLower(query)
	results := make([]search.Result, 0)
	for _, tx := range transactions {
		if strings.Contains(strings.ToLower(tx.Description), needle) ||
			strings.Contains(strings.ToLower(tx.Merchant), needle) {
			results = append(results, searchResultFrom(tx))
		}
	}

	return &search.Response{Results: results, TotalCount: len(results), TotalPages: 1}, nil
}

func searchResultFrom(tx *model.Transaction) search.Result {
	return search.Result{
		ID:          tx.ID,
		Description: tx.Description,
		Merchant:    tx.Merchant,
		CategoryID:  tx.CategoryID,
		AmountCents: tx.AmountCents,
		Type:        tx.Type,
		Date:        tx.Date,
	}
}
