package service

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
)

type createAlertRequest struct {
	CategoryID     string `json:"categoryId"`
	ThresholdCents int64  `json:"thresholdCents"`
}

func (s *Service) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req createAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	if req.ThresholdCents <= 0 {
		auth.WriteError(w, auth.ValidationFailed("thresholdCents must be positive"))
		return
	}

	existing, err := s.store.ListAlerts(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list alerts", "alerts", err))
		return
	}
	if !entitlements.CanCreateAlert(auth.PlanFromContext(r.Context()), len(existing)) {
		auth.WriteError(w, auth.PlanLimit("alert limit reached for your plan"))
		return
	}

	alert := &model.Alert{
		ID:             uuid.New().String(),
		UserID:         claims.UID,
		CategoryID:     req.CategoryID,
		ThresholdCents: req.ThresholdCents,
		Enabled:        true,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateAlert(r.Context(), alert); err != nil {
		auth.WriteError(w, auth.WrapStoreError("create alert", "alert", err))
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *Service) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	alerts, err := s.store.ListAlerts(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list alerts", "alerts", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Service) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteAlert(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete alert", "alert", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
