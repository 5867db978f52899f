package service

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/entitlements"
	"github.com/finwise-app/finwise/backend/internal/model"
)

type createCardRequest struct {
	Name     string `json:"name"`
	LastFour string `json:"lastFour"`
	Currency string `json:"currency"`
}

func (s *Service) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		auth.WriteError(w, auth.ValidationFailed("name is required"))
		return
	}
	if req.Currency == "" {
		req.Currency = "AUD"
	}

	existing, err := s.store.ListCards(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list cards", "cards", err))
		return
	}
	if !entitlements.CanCreateCard(auth.PlanFromContext(r.Context()), len(existing)) {
		auth.WriteError(w, auth.PlanLimit("card limit reached for your plan"))
		return
	}

	card := &model.Card{
		ID:        uuid.New().String(),
		UserID:    claims.UID,
		Name:      req.Name,
		LastFour:  req.LastFour,
		Currency:  req.Currency,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCard(r.Context(), card); err != nil {
		auth.WriteError(w, auth.WrapStoreError("create card", "card", err))
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Service) handleListCards(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	cards, err := s.store.ListCards(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("list cards", "cards", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Service) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	if err := s.store.DeleteCard(r.Context(), claims.UID, r.PathValue("id")); err != nil {
		auth.WriteError(w, auth.WrapStoreError("delete card", "card", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
