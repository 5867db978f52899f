package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
)

func TestCreateKeyword(t *testing.T) {
	env := newTestEnv(t)
	env.pub.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	rec := env.do(http.MethodPost, "/v1/keywords",
		strings.NewReader(`{"keyword":"woolworths","categoryId":"sys-groceries"}`),
		"user-1", model.PlanPlus)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.CategoryKeyword
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.KeywordCategorizing, created.Status)
	assert.Equal(t, "woolworths", created.Keyword)
}

func TestCreateKeywordFreePlanBlocked(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/keywords",
		strings.NewReader(`{"keyword":"woolworths","categoryId":"sys-groceries"}`),
		"user-1", model.PlanFree)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateKeywordDuplicateConflict(t *testing.T) {
	env := newTestEnv(t)
	env.pub.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	rec := env.do(http.MethodPost, "/v1/keywords",
		strings.NewReader(`{"keyword":"netflix","categoryId":"sys-entertainment"}`),
		"user-1", model.PlanPlus)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same keyword, different case
	rec = env.do(http.MethodPost, "/v1/keywords",
		strings.NewReader(`{"keyword":"NETFLIX","categoryId":"sys-entertainment"}`),
		"user-1", model.PlanPlus)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRetryKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	failed := &model.CategoryKeyword{
		ID:            "kw-1",
		UserID:        "user-1",
		CategoryID:    "sys-food",
		Keyword:       "uber eats",
		Status:        model.KeywordFailed,
		FailureReason: "store unavailable",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, env.store.CreateKeyword(ctx, failed))

	// The reset must be observable in the store before the event goes out.
	env.pub.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event queue.Event) error {
			stored, err := env.store.GetKeyword(ctx, "user-1", "kw-1")
			require.NoError(t, err)
			assert.Equal(t, model.KeywordCategorizing, stored.Status)
			assert.Empty(t, stored.FailureReason)
			assert.Equal(t, queue.EventCategorizeByKeyword, event.Name)
			return nil
		})

	rec := env.do(http.MethodPost, "/v1/keywords/kw-1/retry", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRetryKeywordEnqueueFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	failed := &model.CategoryKeyword{
		ID:            "kw-1",
		UserID:        "user-1",
		CategoryID:    "sys-food",
		Keyword:       "uber eats",
		Status:        model.KeywordFailed,
		FailureReason: "store unavailable",
	}
	require.NoError(t, env.store.CreateKeyword(ctx, failed))

	env.pub.EXPECT().Send(gomock.Any(), gomock.Any()).Return(assert.AnError)

	rec := env.do(http.MethodPost, "/v1/keywords/kw-1/retry", nil, "user-1", model.PlanPlus)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The keyword stays categorizing: the reset landed, only the enqueue
	// failed, and a later retry can re-enqueue.
	stored, err := env.store.GetKeyword(ctx, "user-1", "kw-1")
	require.NoError(t, err)
	assert.Equal(t, model.KeywordCategorizing, stored.Status)
	assert.Empty(t, stored.FailureReason)
}

func TestRetryKeywordForeignUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.CreateKeyword(context.Background(), &model.CategoryKeyword{
		ID: "kw-1", UserID: "owner", CategoryID: "sys-food", Keyword: "uber eats",
	}))

	rec := env.do(http.MethodPost, "/v1/keywords/kw-1/retry", nil, "intruder", model.PlanPlus)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.CreateKeyword(ctx, &model.CategoryKeyword{
		ID: "kw-1", UserID: "user-1", CategoryID: "sys-food", Keyword: "uber eats",
	}))

	rec := env.do(http.MethodDelete, "/v1/keywords/kw-1", nil, "user-1", model.PlanPlus)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.store.GetKeyword(ctx, "user-1", "kw-1")
	assert.Error(t, err)
}
