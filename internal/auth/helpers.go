package auth

import (
	"context"

	"github.com/finwise-app/finwise/backend/internal/model"
)

type contextKey string

const (
	userClaimsKey contextKey = "user_claims"
	userPlanKey   contextKey = "user_plan"
)

// WithUserClaims adds user claims to context (exported for testing)
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*UserClaims)
	return claims, ok
}

// RequireAuth extracts user claims from context or returns an
// unauthenticated error.
func RequireAuth(ctx context.Context) (*UserClaims, error) {
	claims, ok := GetUserClaims(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// WithPlan adds the user's subscription plan to context.
func WithPlan(ctx context.Context, plan model.Plan) context.Context {
	return context.WithValue(ctx, userPlanKey, plan)
}

// PlanFromContext retrieves the user's plan, defaulting to free when the
// plan was never resolved.
func PlanFromContext(ctx context.Context) model.Plan {
	if plan, ok := ctx.Value(userPlanKey).(model.Plan); ok {
		return plan
	}
	return model.PlanFree
}
