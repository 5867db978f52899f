package service

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise-app/finwise/backend/internal/model"
)

func TestCreateCardFreePlanLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/cards",
		strings.NewReader(`{"name":"Everyday","lastFour":"4242"}`), "user-1", model.PlanFree)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Free plan allows a single card.
	rec = env.do(http.MethodPost, "/v1/cards",
		strings.NewReader(`{"name":"Travel","lastFour":"1111"}`), "user-1", model.PlanFree)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCategoryFreePlanBlocked(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/categories",
		strings.NewReader(`{"name":"Hobbies"}`), "user-1", model.PlanFree)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListCategoriesIncludesSystem(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/categories", nil, "user-1", model.PlanFree)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Categories []*model.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Categories)
	for _, c := range resp.Categories {
		assert.True(t, c.IsSystem)
	}
}

func TestEntitlementsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedCard("user-1")

	rec := env.do(http.MethodGet, "/v1/entitlements", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entitlementsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.PlanPlus, resp.Plan)
	assert.Equal(t, 3, resp.Limits.Cards)
	assert.Equal(t, 2, resp.Remaining["cards"])
	assert.Equal(t, 10, resp.Remaining["statementsPerMonth"])
	assert.True(t, resp.Limits.KeywordCategorization)
}

func TestCreateBudgetValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/budgets",
		strings.NewReader(`{"name":"Groceries","limitCents":50000,"period":"weekly"}`), "user-1", model.PlanPlus)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/v1/budgets",
		strings.NewReader(`{"name":"Groceries","limitCents":50000,"period":"monthly"}`), "user-1", model.PlanPlus)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAlertFreePlanLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/alerts",
		strings.NewReader(`{"thresholdCents":10000}`), "user-1", model.PlanFree)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/v1/alerts",
		strings.NewReader(`{"thresholdCents":20000}`), "user-1", model.PlanFree)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
