package service

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
)

type createBudgetRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	LimitCents int64  `json:"limitCents"`
	Period     string `json:"period"`
}

func (s *Service) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		auth.WriteError(w, auth.ValidationFailed("name is required"))
		return
	}
	if req.LimitCents <= 0 {
		auth.WriteError(w, auth.ValidationFailed("limitCents must be positive"))
		return
	}
	period := model.BudgetPeriod(req.Period)
	if period != model.BudgetMonthly && period != model.BudgetYearly {
		auth.WriteError(w, auth.ValidationFailed("period must be monthly or yearly"))
		return
	}

	existing, err := s.store.ListBudgets(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list budgets", "budgets", err))
		return
	}
	if !entitlements.CanCreateBudget(auth.PlanFromContext(r.Context()), len(existing)) {
		auth.WriteError(w, auth.PlanLimit("budget limit reached for your plan"))
		return
	}

	budget := &model.Budget{
		ID:         uuid.New().String(),
		UserID:     claims.UID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		LimitCents: req.LimitCents,
		Period:     period,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateBudget(r.Context(), budget); err != nil {
		auth.WriteError(w, auth.WrapStoreError("create budget", "budget", err))
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Service) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	budgets, err := s.store.ListBudgets(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list budgets", "budgets", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (s *Service) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteBudget(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete budget", "budget", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
