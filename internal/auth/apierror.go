package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/finwise-app/finwise/backend/internal/store"
)

// APIError is the error shape returned to clients. Internal details are
// logged, never sent: the client sees a stable code and a generic message.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrUnauthenticated is returned when no user claims are present.
var ErrUnauthenticated = &APIError{
	Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required",
}

// Error constructors for the handler layer.

func NotFound(resource string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: resource + " not found"}
}

func ValidationFailed(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: message}
}

func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

func PlanLimit(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: "PLAN_LIMIT", Message: message}
}

func ExternalFailure(message string) *APIError {
	return &APIError{Status: http.StatusBadGateway, Code: "EXTERNAL_FAILURE", Message: message}
}

func Internal() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: "something went wrong"}
}

// WrapStoreError translates store errors into API errors. ErrNotFound maps
// to NOT_FOUND (ownership failures look identical to absence), ErrDuplicate
// to CONFLICT; anything else is logged and surfaced as a generic internal
// error.
func WrapStoreError(operation, resource string, err error) *APIError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFound(resource)
	case errors.Is(err, store.ErrDuplicate):
		return Conflict(resource + " already exists")
	default:
		log.Printf("[Store] failed to %s: %v", operation, err)
		return Internal()
	}
}

// WriteError writes an APIError (or a generic internal error for anything
// else) as the JSON response.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		log.Printf("[API] unexpected error: %v", err)
		apiErr = Internal()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
