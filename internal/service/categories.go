package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/store"
)

type createCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// handleCreateCategory creates a user category. System categories are seeded
// at the store level and never count against the plan's limit.
func (s *Service) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		auth.WriteError(w, auth.ValidationFailed("name is required"))
		return
	}

	current, err := s.store.CountUserCategories(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("count categories", "categories", err))
		return
	}
	if !entitlements.CanCreateCategory(auth.PlanFromContext(r.Context()), current) {
		auth.WriteError(w, auth.PlanLimit("custom categories are not available on your plan"))
		return
	}

	category := &model.Category{
		ID:        uuid.New().String(),
		UserID:    claims.UID,
		Name:      req.Name,
		Icon:      req.Icon,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			auth.WriteError(w, auth.Conflict("category already exists"))
			return
		}
		auth.WriteError(w, auth.WrapStoreError("create category", "category", err))
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// handleListCategories returns the system categories plus the user's own.
func (s *Service) handleListCategories(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	categories, err := s.store.ListCategories(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list categories", "categories", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Service) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteCategory(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete category", "category", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
