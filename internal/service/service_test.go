package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/finwise-app/finwise/backend/internal/auth"
	"github.com/finwise-app/finwise/backend/internal/cache"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/store"
)

// stubExtractor returns canned extraction results without spawning the
// subprocess.
type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, pdfData []byte, password string) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	t       *testing.T
	service *Service
	store   *store.MemoryStore
	cache   *cache.Cache
	pub     *queue.MockPublisher
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	pub := queue.NewMockPublisher(ctrl)
	memStore := store.NewMemoryStore()
	c := cache.New()

	svc := New(memStore, c, pub, stubExtractor{text: "01/02/2024 WOOLWORTHS 45.20"}, nil)
	mux := http.NewServeMux()
	svc.Routes(mux)

	return &testEnv{t: t, service: svc, store: memStore, cache: c, pub: pub, mux: mux}
}

// do issues a request as the given user and plan.
func (e *testEnv) do(method, path string, body io.Reader, userID string, plan model.Plan) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := auth.WithUserClaims(req.Context(), &auth.UserClaims{UID: userID, Email: userID + "@test.local"})
	ctx = auth.WithPlan(ctx, plan)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedCard(userID string) *model.Card {
	e.t.Helper()
	card := &model.Card{
		ID:       "card-" + userID,
		UserID:   userID,
		Name:     "Everyday",
		Currency: "AUD",
	}
	require.NoError(e.t, e.store.CreateCard(context.Background(), card))
	return card
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/cards", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// fixedNow pins the service clock for deterministic timestamps.
func (e *testEnv) fixedNow(at time.Time) {
	e.service.now = func() time.Time { return at }
}
