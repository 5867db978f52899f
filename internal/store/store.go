package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// Sentinel errors returned by all Store implementations. Ownership checks
// happen at this boundary: a resource that exists but belongs to another
// user surfaces as ErrNotFound, never as a permission error that would leak
// its existence.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	CardID     string
	CategoryID string
	StartDate  *time.Time
	EndDate    *time.Time
	PageSize   int32
	PageToken  string
}

// Store defines the persistence operations used by the service and job layers.
// Every read and write is scoped by the owning user's ID.
type Store interface {
	// User operations
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	GetUserByStripeCustomer(ctx context.Context, customerID string) (*model.User, error)

	// Card operations
	CreateCard(ctx context.Context, card *model.Card) error
	GetCard(ctx context.Context, userID, cardID string) (*model.Card, error)
	ListCards(ctx context.Context, userID string) ([]*model.Card, error)
	DeleteCard(ctx context.Context, userID, cardID string) error

	// Category operations. System categories have an empty user ID and are
	// visible to everyone; user categories count against plan limits.
	CreateCategory(ctx context.Context, category *model.Category) error
	ListCategories(ctx context.Context, userID string) ([]*model.Category, error)
	CountUserCategories(ctx context.Context, userID string) (int, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error

	// Category keyword operations. Keywords are unique per user,
	// case-insensitively; a duplicate create returns ErrDuplicate.
	CreateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error
	GetKeyword(ctx context.Context, userID, keywordID string) (*model.CategoryKeyword, error)
	ListKeywords(ctx context.Context, userID string) ([]*model.CategoryKeyword, error)
	UpdateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error
	DeleteKeyword(ctx context.Context, userID, keywordID string) error

	// Excluded keyword operations
	CreateExcludedKeyword(ctx context.Context, excluded *model.ExcludedKeyword) error
	ListExcludedKeywords(ctx context.Context, userID string) ([]*model.ExcludedKeyword, error)
	DeleteExcludedKeyword(ctx context.Context, userID, excludedID string) error

	// Statement operations
	CreateStatement(ctx context.Context, statement *model.Statement) error
	GetStatement(ctx context.Context, userID, statementID string) (*model.Statement, error)
	UpdateStatement(ctx context.Context, statement *model.Statement) error
	ListStatements(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Statement, string, error)
	CountStatementsInMonth(ctx context.Context, userID string, month time.Time) (int, error)

	// Transaction operations
	CreateTransactions(ctx context.Context, transactions []*model.Transaction) error
	GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, transaction *model.Transaction) error
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]*model.Transaction, string, error)
	ListUncategorizedTransactions(ctx context.Context, userID string) ([]*model.Transaction, error)
	GetTransactionsByIDs(ctx context.Context, userID string, ids []string) ([]*model.Transaction, error)
	DeleteTransactionsByStatement(ctx context.Context, userID, statementID string) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	// Alert operations
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlerts(ctx context.Context, userID string) ([]*model.Alert, error)
	DeleteAlert(ctx context.Context, userID, alertID string) error
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
