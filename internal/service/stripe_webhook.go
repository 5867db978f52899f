package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/store"
)

// StripeWebhookHandler syncs Stripe subscription state onto the user's plan.
type StripeWebhookHandler struct {
	store         store.Store
	webhookSecret string
}

// NewStripeWebhookHandler creates a new Stripe webhook handler.
func NewStripeWebhookHandler(s store.Store, webhookSecret string) *StripeWebhookHandler {
	return &StripeWebhookHandler{store: s, webhookSecret: webhookSecret}
}

// HandleWebhook processes incoming Stripe webhook events.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(body, sigHeader, h.webhookSecret)
	if err != nil {
		log.Printf("[Stripe] Webhook signature verification failed: %v", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(ctx, event)
	default:
		log.Printf("[Stripe] Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"received": true}`)
}

// handleCheckoutCompleted upgrades the user named in the session metadata to
// the purchased plan and records their Stripe identifiers.
func (h *StripeWebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var session struct {
		Customer     string            `json:"customer"`
		Subscription string            `json:"subscription"`
		Metadata     map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Printf("[Stripe] Failed to parse checkout.session.completed: %v", err)
		return
	}

	userID := session.Metadata["finwise_user_id"]
	if userID == "" {
		log.Printf("[Stripe] checkout.session.completed: missing finwise_user_id in metadata")
		return
	}

	plan := model.ParsePlan(session.Metadata["finwise_plan"])
	if plan == model.PlanFree {
		// Checkout with no recognizable plan defaults to plus.
		plan = model.PlanPlus
	}

	log.Printf("[Stripe] Checkout completed: user=%s plan=%s customer=%s", userID, plan, session.Customer)

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		// User not synced yet, create a minimal record
		user = &model.User{
			ID:        userID,
			CreatedAt: time.Now().UTC(),
		}
	}

	user.Plan = plan
	user.StripeCustomerID = session.Customer
	user.StripeSubscriptionID = session.Subscription
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpsertUser(ctx, user); err != nil {
		log.Printf("[Stripe] Failed to update user %s after checkout: %v", userID, err)
	}
}

// handleSubscriptionUpdated downgrades the user when the subscription goes
// canceled or unpaid; an active or trialing subscription keeps its plan.
func (h *StripeWebhookHandler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) {
	var sub struct {
		ID       string            `json:"id"`
		Customer string            `json:"customer"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("[Stripe] Failed to parse customer.subscription.updated: %v", err)
		return
	}

	user, err := h.resolveUser(ctx, sub.Metadata["finwise_user_id"], sub.Customer)
	if err != nil {
		log.Printf("[Stripe] subscription.updated: could not resolve user (sub=%s): %v", sub.ID, err)
		return
	}

	log.Printf("[Stripe] Subscription updated: user=%s status=%s", user.ID, sub.Status)

	switch sub.Status {
	case "canceled", "unpaid":
		user.Plan = model.PlanFree
		user.StripeSubscriptionID = ""
	case "active", "trialing", "past_due":
		// Plan unchanged; past_due gets a grace period until Stripe
		// transitions the subscription to canceled or unpaid.
		return
	default:
		log.Printf("[Stripe] subscription.updated: unknown status %q for user %s", sub.Status, user.ID)
		return
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.store.UpsertUser(ctx, user); err != nil {
		log.Printf("[Stripe] Failed to update user %s subscription status: %v", user.ID, err)
	}
}

// handleSubscriptionDeleted downgrades the user to the free plan.
func (h *StripeWebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) {
	var sub struct {
		ID       string            `json:"id"`
		Customer string            `json:"customer"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("[Stripe] Failed to parse customer.subscription.deleted: %v", err)
		return
	}

	user, err := h.resolveUser(ctx, sub.Metadata["finwise_user_id"], sub.Customer)
	if err != nil {
		log.Printf("[Stripe] subscription.deleted: could not resolve user (sub=%s): %v", sub.ID, err)
		return
	}

	log.Printf("[Stripe] Subscription deleted: user=%s", user.ID)

	user.Plan = model.PlanFree
	user.StripeSubscriptionID = ""
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpsertUser(ctx, user); err != nil {
		log.Printf("[Stripe] Failed to update user %s after subscription deletion: %v", user.ID, err)
	}
}

// handlePaymentFailed logs the failure. The plan is not downgraded here;
// Stripe drives the subscription to canceled/unpaid after its retry schedule
// and the subscription.updated handler downgrades then.
func (h *StripeWebhookHandler) handlePaymentFailed(ctx context.Context, event stripe.Event) {
	var invoice struct {
		Subscription string            `json:"subscription"`
		Customer     string            `json:"customer"`
		Metadata     map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		log.Printf("[Stripe] Failed to parse invoice.payment_failed: %v", err)
		return
	}

	user, err := h.resolveUser(ctx, invoice.Metadata["finwise_user_id"], invoice.Customer)
	if err != nil {
		log.Printf("[Stripe] invoice.payment_failed: could not resolve user (sub=%s customer=%s): %v",
			invoice.Subscription, invoice.Customer, err)
		return
	}

	log.Printf("[Stripe] Payment failed: user=%s", user.ID)
}

// resolveUser finds the user by the metadata ID, falling back to the stored
// Stripe customer mapping for events Stripe sends without our metadata.
func (h *StripeWebhookHandler) resolveUser(ctx context.Context, userID, customerID string) (*model.User, error) {
	if userID != "" {
		return h.store.GetUser(ctx, userID)
	}
	if customerID != "" {
		return h.store.GetUserByStripeCustomer(ctx, customerID)
	}
	return nil, fmt.Errorf("no user id or customer id on event")
}
