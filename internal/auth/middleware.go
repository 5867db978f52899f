package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/store"
)

// ExtractTokenFromHeader pulls the bearer token out of an Authorization header.
func ExtractTokenFromHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return token, nil
}

// Middleware verifies the Firebase bearer token and attaches the user's
// claims to the request context. Public endpoints pass through untouched.
func Middleware(firebaseAuth *FirebaseAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, ErrUnauthenticated)
				return
			}

			token, err := ExtractTokenFromHeader(authHeader)
			if err != nil {
				WriteError(w, ErrUnauthenticated)
				return
			}

			claims, err := firebaseAuth.VerifyToken(r.Context(), token)
			if err != nil {
				log.Printf("[Auth] token verification failed: %v", err)
				WriteError(w, ErrUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
		})
	}
}

// LocalDevMiddleware provides a mock user context for local development.
// An X-Debug-Impersonate-User header overrides the mock UID so different
// users can be exercised without real tokens.
func LocalDevMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			claims := &UserClaims{
				UID:         "local-dev-user",
				Email:       "dev@localhost",
				DisplayName: "Local Dev User",
				Verified:    true,
			}
			if impersonate := r.Header.Get("X-Debug-Impersonate-User"); impersonate != "" {
				claims = &UserClaims{
					UID:   impersonate,
					Email: impersonate + "@debug.local",
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
		})
	}
}

// PlanMiddleware resolves the authenticated user's plan from the store and
// attaches it to the context. Users seen for the first time are created on
// the free plan. Must run after the auth middleware.
func PlanMiddleware(s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaims(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := s.GetUser(r.Context(), claims.UID)
			if errors.Is(err, store.ErrNotFound) {
				user = &model.User{
					ID:          claims.UID,
					Email:       claims.Email,
					DisplayName: claims.DisplayName,
					Plan:        model.PlanFree,
					CreatedAt:   time.Now().UTC(),
				}
				if err := s.UpsertUser(r.Context(), user); err != nil {
					WriteError(w, WrapStoreError("create user", "user", err))
					return
				}
			} else if err != nil {
				WriteError(w, WrapStoreError("get user", "user", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPlan(r.Context(), user.Plan)))
		})
	}
}

// isPublicEndpoint checks if an endpoint should be accessible without authentication
func isPublicEndpoint(path string) bool {
	publicEndpoints := []string{
		"/health",
		"/ping",
		"/v1/stripe/webhook",
	}

	for _, endpoint := range publicEndpoints {
		if path == endpoint {
			return true
		}
	}

	return false
}
