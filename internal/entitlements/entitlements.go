// Package entitlements maps subscription plans to resource limits.
// Limits are static in-process configuration, never persisted.
package entitlements

import "github.com/finwise-app/finwise/backend/internal/model"

// Unlimited marks a resource with no cap.
const Unlimited = -1

// Resource names a limited resource type.
type Resource string

const (
	ResourceCards      Resource = "cards"
	ResourceStatements Resource = "statements_per_month"
	ResourceCategories Resource = "categories"
	ResourceAlerts     Resource = "alerts"
	ResourceBudgets    Resource = "budgets"
)

// Entitlements holds the limits granted by a plan. Numeric limits are
// non-negative counts or Unlimited.
type Entitlements struct {
	Cards                 int  `json:"cards"`
	StatementsPerMonth    int  `json:"statementsPerMonth"`
	Categories            int  `json:"categories"`
	Alerts                int  `json:"alerts"`
	Budgets               int  `json:"budgets"`
	KeywordCategorization bool `json:"keywordCategorization"`
}

var planEntitlements = map[model.Plan]Entitlements{
	model.PlanFree: {
		Cards:                 1,
		StatementsPerMonth:    2,
		Categories:            0,
		Alerts:                1,
		Budgets:               1,
		KeywordCategorization: false,
	},
	model.PlanPlus: {
		Cards:                 3,
		StatementsPerMonth:    10,
		Categories:            19,
		Alerts:                5,
		Budgets:               5,
		KeywordCategorization: true,
	},
	model.PlanPro: {
		Cards:                 Unlimited,
		StatementsPerMonth:    Unlimited,
		Categories:            Unlimited,
		Alerts:                Unlimited,
		Budgets:               Unlimited,
		KeywordCategorization: true,
	},
	model.PlanAdmin: {
		Cards:                 Unlimited,
		StatementsPerMonth:    Unlimited,
		Categories:            Unlimited,
		Alerts:                Unlimited,
		Budgets:               Unlimited,
		KeywordCategorization: true,
	},
}

// Get returns the entitlements for a plan. Unknown plans fall back to free.
func Get(plan model.Plan) Entitlements {
	if e, ok := planEntitlements[plan]; ok {
		return e
	}
	return planEntitlements[model.PlanFree]
}

func withinLimit(limit, current int) bool {
	if limit == Unlimited {
		return true
	}
	return current < limit
}

// CanCreateCard reports whether the plan allows another card.
func CanCreateCard(plan model.Plan, current int) bool {
	return withinLimit(Get(plan).Cards, current)
}

// CanUploadStatement reports whether the plan allows another statement
// upload this calendar month.
func CanUploadStatement(plan model.Plan, currentThisMonth int) bool {
	return withinLimit(Get(plan).StatementsPerMonth, currentThisMonth)
}

// CanCreateCategory reports whether the plan allows another user-created
// category. The free plan can never add categories beyond the system set.
func CanCreateCategory(plan model.Plan, current int) bool {
	if plan == model.PlanFree {
		return false
	}
	return withinLimit(Get(plan).Categories, current)
}

// CanCreateAlert reports whether the plan allows another alert.
func CanCreateAlert(plan model.Plan, current int) bool {
	return withinLimit(Get(plan).Alerts, current)
}

// CanCreateBudget reports whether the plan allows another budget.
func CanCreateBudget(plan model.Plan, current int) bool {
	return withinLimit(Get(plan).Budgets, current)
}

// HasKeywordCategorization reports whether the plan includes
// keyword-based auto-categorization.
func HasKeywordCategorization(plan model.Plan) bool {
	return Get(plan).KeywordCategorization
}

// Remaining returns how many more of a resource the plan allows, clamped at
// zero, or Unlimited.
func Remaining(plan model.Plan, resource Resource, current int) int {
	limit := limitFor(Get(plan), resource)
	if limit == Unlimited {
		return Unlimited
	}
	if current >= limit {
		return 0
	}
	return limit - current
}

func limitFor(e Entitlements, resource Resource) int {
	switch resource {
	case ResourceCards:
		return e.Cards
	case ResourceStatements:
		return e.StatementsPerMonth
	case ResourceCategories:
		return e.Categories
	case ResourceAlerts:
		return e.Alerts
	case ResourceBudgets:
		return e.Budgets
	default:
		return 0
	}
}
