package service

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// StripeClient wraps the Stripe API for subscription management.
type StripeClient struct {
	// Stripe price IDs per paid plan.
	priceIDs map[model.Plan]string
}

// NewStripeClient creates a new Stripe API wrapper.
// stripe.Key must be set globally before calling Stripe APIs.
func NewStripeClient(plusPriceID, proPriceID string) *StripeClient {
	return &StripeClient{priceIDs: map[model.Plan]string{
		model.PlanPlus: plusPriceID,
		model.PlanPro:  proPriceID,
	}}
}

// GetOrCreateCustomer finds an existing Stripe customer by email or creates a
// new one. The user ID is stored in the customer metadata.
func (c *StripeClient) GetOrCreateCustomer(email, userID string) (string, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = fmt.Sprintf("email:'%s'", email)
	iter := customer.Search(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("search customers: %w", err)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"finwise_user_id": userID,
		},
	}
	cust, err := customer.New(createParams)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutResult holds the result of creating a checkout session.
type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckoutSession creates a Stripe Checkout session for the given plan.
func (c *StripeClient) CreateCheckoutSession(customerID, userID string, plan model.Plan, successURL, cancelURL string) (*CheckoutResult, error) {
	priceID, ok := c.priceIDs[plan]
	if !ok || priceID == "" {
		return nil, fmt.Errorf("no price configured for plan %s", plan)
	}

	metadata := map[string]string{
		"finwise_user_id": userID,
		"finwise_plan":    string(plan),
	}
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata:   metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// StripeSubscriptionInfo holds details about a Stripe subscription.
type StripeSubscriptionInfo struct {
	ID                string                    `json:"id"`
	Status            stripe.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd  time.Time                 `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool                      `json:"cancelAtPeriodEnd"`
}

// GetSubscription retrieves a Stripe subscription by ID.
func (c *StripeClient) GetSubscription(subscriptionID string) (*StripeSubscriptionInfo, error) {
	sub, err := stripesub.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return subscriptionToInfo(sub), nil
}

// CancelSubscriptionAtPeriodEnd cancels a subscription at the end of the
// current period.
func (c *StripeClient) CancelSubscriptionAtPeriodEnd(subscriptionID string) (*StripeSubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	sub, err := stripesub.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return subscriptionToInfo(sub), nil
}

// subscriptionToInfo converts a Stripe subscription to our info struct.
// In stripe-go v82, CurrentPeriodEnd lives on the subscription items.
func subscriptionToInfo(sub *stripe.Subscription) *StripeSubscriptionInfo {
	var periodEnd time.Time
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		periodEnd = time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0)
	}
	return &StripeSubscriptionInfo{
		ID:                sub.ID,
		Status:            sub.Status,
		CurrentPeriodEnd:  periodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
}
