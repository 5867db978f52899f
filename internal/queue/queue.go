// Package queue defines the background job events and the in-process
// dispatcher that delivers them. Delivery is at-least-once: handlers must be
// safe to re-run.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

//go:generate mockgen -source=queue.go -destination=publisher_mock.go -package=queue

// Event names.
const (
	EventStatementProcess    = "statement/process"
	EventCategorizeByKeyword = "transactions/categorize-by-keyword"
	EventRecategorize        = "transactions/recategorize"
)

// StatementProcessPayload carries pre-extracted statement text to the
// ingestion job. The raw PDF is never enqueued or persisted.
type StatementProcessPayload struct {
	StatementID   string `json:"statementId"`
	UserID        string `json:"userId"`
	CardID        string `json:"cardId"`
	FileName      string `json:"fileName"`
	ExtractedText string `json:"extractedText"`
}

// CategorizeByKeywordPayload asks the categorizer to reapply one keyword.
type CategorizeByKeywordPayload struct {
	UserID     string `json:"userId"`
	KeywordID  string `json:"keywordId"`
	Keyword    string `json:"keyword"`
	CategoryID string `json:"categoryId"`
}

// RecategorizePayload asks the categorizer to reapply every keyword to the
// given transactions.
type RecategorizePayload struct {
	UserID         string   `json:"userId"`
	TransactionIDs []string `json:"transactionIds"`
}

// Event is a named JSON payload.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// NewEvent marshals payload into an Event.
func NewEvent(name string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Event{Name: name, Payload: raw}, nil
}

// Publisher sends events to the job queue.
type Publisher interface {
	Send(ctx context.Context, event Event) error
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, payload json.RawMessage) error
