// Package jobs implements the background workers behind the queue events.
// Jobs record their failures on the entity they operate on (failure_reason +
// status) instead of returning them past the job boundary, so progress is
// observable by polling. Delivery is at-least-once: every job body is safe
// to re-run.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/finwise-app/finwise/backend/internal/extraction"
	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
	"github.com/finwise-app/finwise/backend/internal/store"
)

// Indexer receives newly ingested transactions for search indexing. It is
// optional; a nil Indexer disables indexing.
type Indexer interface {
	IndexTransactions(ctx context.Context, transactions []*model.Transaction)
}

// Jobs bundles the background job handlers and their dependencies.
type Jobs struct {
	store   store.Store
	indexer Indexer
	now     func() time.Time
}

// New creates the job handlers. indexer may be nil.
func New(s store.Store, indexer Indexer) *Jobs {
	return &Jobs{store: s, indexer: indexer, now: time.Now}
}

// RegisterHandlers wires the job handlers into the dispatcher.
func (j *Jobs) RegisterHandlers(d *queue.Dispatcher) {
	d.Register(queue.EventStatementProcess, func(ctx context.Context, payload json.RawMessage) error {
		var p queue.StatementProcessPayload
		if err := queue.Decode(payload, &p); err != nil {
			return err
		}
		return j.ProcessStatement(ctx, p)
	})
	d.Register(queue.EventCategorizeByKeyword, func(ctx context.Context, payload json.RawMessage) error {
		var p queue.CategorizeByKeywordPayload
		if err := queue.Decode(payload, &p); err != nil {
			return err
		}
		return j.CategorizeByKeyword(ctx, p)
	})
	d.Register(queue.EventRecategorize, func(ctx context.Context, payload json.RawMessage) error {
		var p queue.RecategorizePayload
		if err := queue.Decode(payload, &p); err != nil {
			return err
		}
		return j.Recategorize(ctx, p)
	})
}

// ProcessStatement parses pre-extracted statement text into transactions,
// applies keyword categorization, and moves the statement to completed or
// failed. Re-running for the same statement wipes the previous run's rows
// before inserting, so duplicate deliveries cannot double transactions.
func (j *Jobs) ProcessStatement(ctx context.Context, p queue.StatementProcessPayload) error {
	statement, err := j.store.GetStatement(ctx, p.UserID, p.StatementID)
	if err != nil {
		return fmt.Errorf("load statement %s: %w", p.StatementID, err)
	}
	// Completed statements are never re-entered
	if statement.Status == model.StatementCompleted {
		log.Printf("[Ingest] statement %s already completed, skipping", p.StatementID)
		return nil
	}

	parsed, err := extraction.ParseStatementText(p.ExtractedText)
	if err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("parse statement text: %v", err))
	}

	card, err := j.store.GetCard(ctx, p.UserID, p.CardID)
	if err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("load card: %v", err))
	}

	keywords, err := j.store.ListKeywords(ctx, p.UserID)
	if err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("load keywords: %v", err))
	}
	excluded, err := j.store.ListExcludedKeywords(ctx, p.UserID)
	if err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("load excluded keywords: %v", err))
	}

	transactions := make([]*model.Transaction, 0, len(parsed))
	for _, tx := range parsed {
		record := &model.Transaction{
			ID:          uuid.New().String(),
			UserID:      p.UserID,
			CardID:      p.CardID,
			StatementID: p.StatementID,
			Description: tx.Description,
			Merchant:    tx.Merchant,
			Date:        tx.Date,
			Currency:    card.Currency,
			AmountCents: tx.AmountCents,
			Type:        tx.Type,
			CreatedAt:   j.now(),
		}
		record.CategoryID = categorize(tx.Description, keywords, excluded)
		transactions = append(transactions, record)
	}

	// Idempotence: wipe any partial rows from a prior delivery of this
	// statement before inserting the fresh set.
	if err := j.store.DeleteTransactionsByStatement(ctx, p.UserID, p.StatementID); err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("clear previous run: %v", err))
	}
	if err := j.store.CreateTransactions(ctx, transactions); err != nil {
		return j.failStatement(ctx, statement, fmt.Sprintf("insert transactions: %v", err))
	}

	statement.Status = model.StatementCompleted
	statement.FailureReason = ""
	statement.TransactionCount = len(transactions)
	statement.ProcessedAt = j.now()
	if err := j.store.UpdateStatement(ctx, statement); err != nil {
		return fmt.Errorf("mark statement %s completed: %w", p.StatementID, err)
	}

	if j.indexer != nil {
		j.indexer.IndexTransactions(ctx, transactions)
	}

	log.Printf("[Ingest] statement %s completed with %d transactions", p.StatementID, len(transactions))
	return nil
}

// failStatement records the failure on the statement and bumps retry_count.
// The original error is returned for logging only; callers must not requeue
// based on it.
func (j *Jobs) failStatement(ctx context.Context, statement *model.Statement, reason string) error {
	statement.Status = model.StatementFailed
	statement.FailureReason = reason
	statement.RetryCount++
	if err := j.store.UpdateStatement(ctx, statement); err != nil {
		return fmt.Errorf("record statement failure (%s): %w", reason, err)
	}
	log.Printf("[Ingest] statement %s failed: %s", statement.ID, reason)
	return nil
}
