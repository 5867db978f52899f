package service

import (
	"log"
	"net/http"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/model"
)

type checkoutRequest struct {
	Plan       string `json:"plan"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// handleCreateCheckout starts a Stripe Checkout session for a plan upgrade.
// The plan change itself lands later via the webhook.
func (s *Service) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	if s.billing == nil {
		auth.WriteError(w, auth.ExternalFailure("billing is not configured"))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		auth.WriteError(w, auth.ValidationFailed("invalid request body"))
		return
	}
	plan := model.ParsePlan(req.Plan)
	if plan != model.PlanPlus && plan != model.PlanPro {
		auth.WriteError(w, auth.ValidationFailed("plan must be plus or pro"))
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		auth.WriteError(w, auth.ValidationFailed("successUrl and cancelUrl are required"))
		return
	}

	customerID, err := s.billing.GetOrCreateCustomer(claims.Email, claims.UID)
	if err != nil {
		log.Printf("[Billing] failed to resolve customer for %s: %v", claims.UID, err)
		auth.WriteError(w, auth.ExternalFailure("could not start checkout"))
		return
	}

	result, err := s.billing.CreateCheckoutSession(customerID, claims.UID, plan, req.SuccessURL, req.CancelURL)
	if err != nil {
		log.Printf("[Billing] failed to create checkout session for %s: %v", claims.UID, err)
		auth.WriteError(w, auth.ExternalFailure("could not start checkout"))
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleGetSubscription reports the caller's Stripe subscription state.
func (s *Service) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	if s.billing == nil {
		auth.WriteError(w, auth.ExternalFailure("billing is not configured"))
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("get user", "user", err))
		return
	}
	if user.StripeSubscriptionID == "" {
		auth.WriteError(w, auth.NotFound("subscription"))
		return
	}

	info, err := s.billing.GetSubscription(user.StripeSubscriptionID)
	if err != nil {
		log.Printf("[Billing] failed to fetch subscription for %s: %v", claims.UID, err)
		auth.WriteError(w, auth.ExternalFailure("could not fetch subscription"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleCancelSubscription schedules the caller's subscription to end at the
// period boundary. The downgrade to free lands via the webhook when Stripe
// finalizes the cancellation.
func (s *Service) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.RequireAuth(r.Context())
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	if s.billing == nil {
		auth.WriteError(w, auth.ExternalFailure("billing is not configured"))
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UID)
	if err != nil {
		auth.WriteError(w, auth.WrapStoreError("get user", "user", err))
		return
	}
	if user.StripeSubscriptionID == "" {
		auth.WriteError(w, auth.NotFound("subscription"))
		return
	}

	info, err := s.billing.CancelSubscriptionAtPeriodEnd(user.StripeSubscriptionID)
	if err != nil {
		log.Printf("[Billing] failed to cancel subscription for %s: %v", claims.UID, err)
		auth.WriteError(w, auth.ExternalFailure("could not cancel subscription"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
