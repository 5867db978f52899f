package service

import (
	"net/http"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
)

type entitlementsResponse struct {
	Plan      model.Plan                `json:"plan"`
	Limits    entitlements.Entitlements `json:"limits"`
	Remaining map[string]int            `json:"remaining"`
}

// handleEntitlements reports the caller's plan limits and how much headroom
// is left on each counted resource. Unlimited resources report -1.
func (s *Service) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	plan := auth.PlanFromContext(r.Context())

	cards, err := s.store.ListCards(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list cards", "cards", err))
		return
	}
	statementsThisMonth, err := s.store.CountStatementsInMonth(r.Context(), claims.UID, s.now())
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("count statements", "statements", err))
		return
	}
	categories, err := s.store.CountUserCategories(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("count categories", "categories", err))
		return
	}
	alerts, err := s.store.ListAlerts(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list alerts", "alerts", err))
		return
	}
	budgets, err := s.store.ListBudgets(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list budgets", "budgets", err))
		return
	}

	writeJSON(w, http.StatusOK, entitlementsResponse{
		Plan:   plan,
		Limits: entitlements.Get(plan),
		Remaining: map[string]int{
			"cards":              entitlements.Remaining(plan, entitlements.ResourceCards, len(cards)),
			"statementsPerMonth": entitlements.Remaining(plan, entitlements.ResourceStatements, statementsThisMonth),
			"categories":         entitlements.Remaining(plan, entitlements.ResourceCategories, categories),
			"alerts":             entitlements.Remaining(plan, entitlements.ResourceAlerts, len(alerts)),
			"budgets":            entitlements.Remaining(plan, entitlements.ResourceBudgets, len(budgets)),
		},
	})
}
