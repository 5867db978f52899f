package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finwise-app/finwise/backend/internal/model"
)

func TestCanCreateCard(t *testing.T) {
	assert.True(t, CanCreateCard(model.PlanFree, 0))
	assert.False(t, CanCreateCard(model.PlanFree, 1))
	assert.False(t, CanCreateCard(model.PlanFree, 5))

	assert.True(t, CanCreateCard(model.PlanPlus, 2))
	assert.False(t, CanCreateCard(model.PlanPlus, 3))

	// Unlimited plans never hit the cap
	assert.True(t, CanCreateCard(model.PlanPro, 0))
	assert.True(t, CanCreateCard(model.PlanPro, 10000))
	assert.True(t, CanCreateCard(model.PlanAdmin, 10000))
}

func TestCanCreateCategory(t *testing.T) {
	// Free plan can never add user categories, even at zero
	for _, count := range []int{0, 1, 19, 100} {
		assert.False(t, CanCreateCategory(model.PlanFree, count), "count=%d", count)
	}

	assert.True(t, CanCreateCategory(model.PlanPlus, 0))
	assert.True(t, CanCreateCategory(model.PlanPlus, 18))
	assert.False(t, CanCreateCategory(model.PlanPlus, 19))
	assert.False(t, CanCreateCategory(model.PlanPlus, 20))

	assert.True(t, CanCreateCategory(model.PlanPro, 500))
}

func TestCanUploadStatement(t *testing.T) {
	assert.True(t, CanUploadStatement(model.PlanFree, 1))
	assert.False(t, CanUploadStatement(model.PlanFree, 2))
	assert.True(t, CanUploadStatement(model.PlanPlus, 9))
	assert.False(t, CanUploadStatement(model.PlanPlus, 10))
	assert.True(t, CanUploadStatement(model.PlanPro, 99999))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 1, Remaining(model.PlanFree, ResourceCards, 0))
	assert.Equal(t, 0, Remaining(model.PlanFree, ResourceCards, 1))
	// Clamped at zero when over the limit
	assert.Equal(t, 0, Remaining(model.PlanFree, ResourceCards, 7))

	assert.Equal(t, 19, Remaining(model.PlanPlus, ResourceCategories, 0))
	assert.Equal(t, 1, Remaining(model.PlanPlus, ResourceCategories, 18))

	assert.Equal(t, Unlimited, Remaining(model.PlanPro, ResourceBudgets, 42))
}

func TestHasKeywordCategorization(t *testing.T) {
	assert.False(t, HasKeywordCategorization(model.PlanFree))
	assert.True(t, HasKeywordCategorization(model.PlanPlus))
	assert.True(t, HasKeywordCategorization(model.PlanPro))
	assert.True(t, HasKeywordCategorization(model.PlanAdmin))
}

func TestGetUnknownPlanFallsBackToFree(t *testing.T) {
	assert.Equal(t, Get(model.PlanFree), Get(model.Plan("trial")))
}

func TestCanCreateMatchesLimits(t *testing.T) {
	for _, plan := range []model.Plan{model.PlanFree, model.PlanPlus, model.PlanPro, model.PlanAdmin} {
		e := Get(plan)
		for _, count := range []int{0, 1, 2, 5, 19, 100} {
			want := e.Cards == Unlimited || count < e.Cards
			assert.Equal(t, want, CanCreateCard(plan, count), "plan=%s count=%d", plan, count)
		}
	}
}
