// Package model defines the domain types shared by the store, service and job layers.
package model

import "time"

// Plan identifies a subscription plan.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPlus  Plan = "plus"
	PlanPro   Plan = "pro"
	PlanAdmin Plan = "admin"
)

// ParsePlan maps a stored plan string to a Plan, defaulting to free.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanPlus, PlanPro, PlanAdmin:
		return Plan(s)
	default:
		return PlanFree
	}
}

// User is an account holder. Authentication itself is delegated to Firebase;
// this record carries the billing and plan state the backend owns.
type User struct {
	ID                   string    `firestore:"id" json:"id"`
	Email                string    `firestore:"email" json:"email"`
	DisplayName          string    `firestore:"display_name" json:"displayName"`
	Plan                 Plan      `firestore:"plan" json:"plan"`
	StripeCustomerID     string    `firestore:"stripe_customer_id" json:"-"`
	StripeSubscriptionID string    `firestore:"stripe_subscription_id" json:"-"`
	CreatedAt            time.Time `firestore:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `firestore:"updated_at" json:"updatedAt"`
}

// Card is a bank card/account that statements are uploaded against.
type Card struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"user_id" json:"userId"`
	Name      string    `firestore:"name" json:"name"`
	LastFour  string    `firestore:"last_four" json:"lastFour"`
	Currency  string    `firestore:"currency" json:"currency"`
	CreatedAt time.Time `firestore:"created_at" json:"createdAt"`
}

// Category groups transactions. System categories are shared across all users
// (UserID empty); user categories count against the plan's category limit.
type Category struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"user_id" json:"userId,omitempty"`
	Name      string    `firestore:"name" json:"name"`
	Icon      string    `firestore:"icon" json:"icon,omitempty"`
	IsSystem  bool      `firestore:"is_system" json:"isSystem"`
	CreatedAt time.Time `firestore:"created_at" json:"createdAt"`
}

// KeywordStatus is the lifecycle state of a category keyword's background
// categorization run.
type KeywordStatus string

const (
	KeywordCategorizing KeywordStatus = "categorizing"
	KeywordCompleted    KeywordStatus = "completed"
	KeywordFailed       KeywordStatus = "failed"
)

// CategoryKeyword maps a case-insensitive substring to a category. The
// background categorizer applies it to uncategorized transactions.
type CategoryKeyword struct {
	ID            string        `firestore:"id" json:"id"`
	UserID        string        `firestore:"user_id" json:"userId"`
	CategoryID    string        `firestore:"category_id" json:"categoryId"`
	Keyword       string        `firestore:"keyword" json:"keyword"`
	Status        KeywordStatus `firestore:"status" json:"status"`
	FailureReason string        `firestore:"failure_reason" json:"failureReason,omitempty"`
	CreatedAt     time.Time     `firestore:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `firestore:"updated_at" json:"updatedAt"`
}

// ExcludedKeyword suppresses keyword matches that would otherwise
// produce false-positive categorizations.
type ExcludedKeyword struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"user_id" json:"userId"`
	Keyword   string    `firestore:"keyword" json:"keyword"`
	CreatedAt time.Time `firestore:"created_at" json:"createdAt"`
}

// StatementStatus is the lifecycle state of an uploaded statement.
type StatementStatus string

const (
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementFailed     StatementStatus = "failed"
)

// Statement records one uploaded bank statement. The PDF itself is never
// persisted; only extracted text crosses the job boundary.
type Statement struct {
	ID               string          `firestore:"id" json:"id"`
	UserID           string          `firestore:"user_id" json:"userId"`
	CardID           string          `firestore:"card_id" json:"cardId"`
	FileName         string          `firestore:"file_name" json:"fileName"`
	Status           StatementStatus `firestore:"status" json:"status"`
	FailureReason    string          `firestore:"failure_reason" json:"failureReason,omitempty"`
	RetryCount       int             `firestore:"retry_count" json:"retryCount"`
	TransactionCount int             `firestore:"transaction_count" json:"transactionCount"`
	UploadedAt       time.Time       `firestore:"uploaded_at" json:"uploadedAt"`
	ProcessedAt      time.Time       `firestore:"processed_at" json:"processedAt,omitempty"`
}

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a single line item, created by the ingestion job or manually.
// Amounts are stored in integer cents to avoid float drift.
type Transaction struct {
	ID          string          `firestore:"id" json:"id"`
	UserID      string          `firestore:"user_id" json:"userId"`
	CardID      string          `firestore:"card_id" json:"cardId"`
	StatementID string          `firestore:"statement_id" json:"statementId,omitempty"`
	Description string          `firestore:"description" json:"description"`
	Merchant    string          `firestore:"merchant" json:"merchant,omitempty"`
	Date        time.Time       `firestore:"date" json:"date"`
	CategoryID  string          `firestore:"category_id" json:"categoryId,omitempty"`
	Currency    string          `firestore:"currency" json:"currency"`
	AmountCents int64           `firestore:"amount_cents" json:"amountCents"`
	Type        TransactionType `firestore:"type" json:"type"`
	CreatedAt   time.Time       `firestore:"created_at" json:"createdAt"`
}

// BudgetPeriod is the recurrence of a budget window.
type BudgetPeriod string

const (
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetYearly  BudgetPeriod = "yearly"
)

// Budget caps spending for a category (or all spending when CategoryID is empty).
type Budget struct {
	ID          string       `firestore:"id" json:"id"`
	UserID      string       `firestore:"user_id" json:"userId"`
	CategoryID  string       `firestore:"category_id" json:"categoryId,omitempty"`
	Name        string       `firestore:"name" json:"name"`
	LimitCents  int64        `firestore:"limit_cents" json:"limitCents"`
	Period      BudgetPeriod `firestore:"period" json:"period"`
	CreatedAt   time.Time    `firestore:"created_at" json:"createdAt"`
}

// Alert notifies the user when a spending threshold is crossed.
type Alert struct {
	ID             string    `firestore:"id" json:"id"`
	UserID         string    `firestore:"user_id" json:"userId"`
	CategoryID     string    `firestore:"category_id" json:"categoryId,omitempty"`
	ThresholdCents int64     `firestore:"threshold_cents" json:"thresholdCents"`
	Enabled        bool      `firestore:"enabled" json:"enabled"`
	CreatedAt      time.Time `firestore:"created_at" json:"createdAt"`
}
