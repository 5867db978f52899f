package service

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/store"
)

type createKeywordRequest struct {
	Keyword    string `json:"keyword"`
	CategoryID string `json:"categoryId"`
}

// handleCreateKeyword creates a keyword in the categorizing state and
// enqueues the background run that applies it. The status write always lands
// before the enqueue so a crash between the two leaves an observable
// categorizing keyword rather than a silent one.
func (s *Service) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if !entitlements.HasKeywordCategorization(auth.PlanFromContext(r.Context())) {
		auth.WriteError(w, auth.PlanLimit("keyword categorization is not included in your plan"))
		return
	}

	var req createKeywordRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		auth.WriteError(w, auth.ValidationFailed("keyword is required"))
		return
	}
	if req.CategoryID == "" {
		auth.WriteError(w, auth.ValidationFailed("categoryId is required"))
		return
	}

	keyword := &model.CategoryKeyword{
		ID:         uuid.New().String(),
		UserID:     claims.UID,
		CategoryID: req.CategoryID,
		Keyword:    req.Keyword,
		Status:     model.KeywordCategorizing,
		CreatedAt:  s.now(),
		UpdatedAt:  s.now(),
	}
	if err := s.store.CreateKeyword(r.Context(), keyword); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			auth.WriteError(w, auth.Conflict("keyword already exists"))
			return
		}
		auth.WriteError(w, auth.WrapStoreError("create keyword", "keyword", err))
		return
	}

	if err := s.enqueueKeywordRun(r, keyword); err != nil {
		auth.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, keyword)
}

func (s *Service) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	keywords, err := s.store.ListKeywords(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list keywords", "keywords", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keywords": keywords})
}

func (s *Service) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteKeyword(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete keyword", "keyword", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRetryKeyword re-runs a keyword's categorization. The keyword is
// reset to categorizing with its failure reason cleared before the job is
// enqueued, so pollers observe the reset even if the enqueue fails.
func (s *Service) handleRetryKeyword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	keyword, err := s.store.GetKeyword(r.Context(), claims.UID, r.PathValue("id"))
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("get keyword", "keyword", err))
		return
	}

	keyword.Status = model.KeywordCategorizing
	keyword.FailureReason = ""
	keyword.UpdatedAt = s.now()
	if err := s.store.UpdateKeyword(r.Context(), keyword); err != nil {
		auth.WriteError(w, auth.WrapStoreError("reset keyword", "keyword", err))
		return
	}

	if err := s.enqueueKeywordRun(r, keyword); err != nil {
		auth.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, keyword)
}

// enqueueKeywordRun publishes the categorize-by-keyword event. On failure
// the keyword stays categorizing; the caller surfaces the queue failure and
// the client may retry.
func (s *Service) enqueueKeywordRun(r *http.Request, keyword *model.CategoryKeyword) error {
	event, err := queue.NewEvent(queue.EventCategorizeByKeyword, queue.CategorizeByKeywordPayload{
		UserID:     keyword.UserID,
		KeywordID:  keyword.ID,
		Keyword:    keyword.Keyword,
		CategoryID: keyword.CategoryID,
	})
	if err != nil {
		log.Printf("[Keywords] failed to build event for keyword %s: %v", keyword.ID, err)
		return auth.Internal()
	}
	if err := s.publisher.Send(r.Context(), event); err != nil {
		log.Printf("[Keywords] failed to enqueue run for keyword %s: %v", keyword.ID, err)
		return auth.ExternalFailure("could not schedule categorization")
	}
	return nil
}

type createExcludedKeywordRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Service) handleCreateExcludedKeyword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req createExcludedKeywordRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		auth.WriteError(w, auth.ValidationFailed("keyword is required"))
		return
	}

	excluded := &model.ExcludedKeyword{
		ID:        uuid.New().String(),
		UserID:    claims.UID,
		Keyword:   req.Keyword,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateExcludedKeyword(r.Context(), excluded); err != nil {
		auth.WriteError(w, auth.WrapStoreError("create excluded keyword", "excluded keyword", err))
		return
	}
	writeJSON(w, http.StatusCreated, excluded)
}

func (s *Service) handleListExcludedKeywords(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	excluded, err := s.store.ListExcludedKeywords(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list excluded keywords", "excluded keywords", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"excludedKeywords": excluded})
}

func (s *Service) handleDeleteExcludedKeyword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteExcludedKeyword(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete excluded keyword", "excluded keyword", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
