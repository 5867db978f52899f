package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/finwise-app/finwise/backend/internal/model"
	"github.com/finwise-app/finwise/backend/internal/queue"
)

// categorize returns the category for a description, or "" when no keyword
// applies. Matching is case-insensitive substring; an excluded keyword match
// suppresses categorization entirely, which keeps known false positives out.
func categorize(description string, keywords []*model.CategoryKeyword, excluded []*model.ExcludedKeyword) string {
	lower := strings.ToLower(description)
	for _, ex := range excluded {
		if ex.Keyword != "" && strings.Contains(lower, strings.ToLower(ex.Keyword)) {
			return ""
		}
	}
	for _, kw := range keywords {
		if kw.Keyword != "" && strings.Contains(lower, strings.ToLower(kw.Keyword)) {
			return kw.CategoryID
		}
	}
	return ""
}

// CategorizeByKeyword applies one keyword to the user's uncategorized
// transactions and records the outcome on the keyword. A keyword already in
// completed state is reapplied, not rejected: the status field is advisory,
// and duplicate deliveries must be harmless.
func (j *Jobs) CategorizeByKeyword(ctx context.Context, p queue.CategorizeByKeywordPayload) error {
	keyword, err := j.store.GetKeyword(ctx, p.UserID, p.KeywordID)
	if err != nil {
		// Keyword deleted between enqueue and delivery: nothing to update
		log.Printf("[Categorize] keyword %s gone: %v", p.KeywordID, err)
		return nil
	}

	matched, err := j.applyKeyword(ctx, p.UserID, p.Keyword, p.CategoryID)
	if err != nil {
		keyword.Status = model.KeywordFailed
		keyword.FailureReason = fmt.Sprintf("categorization failed: %v", err)
		keyword.UpdatedAt = j.now()
		if uerr := j.store.UpdateKeyword(ctx, keyword); uerr != nil {
			return fmt.Errorf("record keyword failure: %w", uerr)
		}
		log.Printf("[Categorize] keyword %s failed: %v", p.KeywordID, err)
		return nil
	}

	keyword.Status = model.KeywordCompleted
	keyword.FailureReason = ""
	keyword.UpdatedAt = j.now()
	if err := j.store.UpdateKeyword(ctx, keyword); err != nil {
		return fmt.Errorf("mark keyword completed: %w", err)
	}
	log.Printf("[Categorize] keyword %q categorized %d transactions", p.Keyword, matched)
	return nil
}

// applyKeyword assigns categoryID to every uncategorized transaction whose
// description contains the keyword, skipping excluded-keyword hits.
func (j *Jobs) applyKeyword(ctx context.Context, userID, keyword, categoryID string) (int, error) {
	uncategorized, err := j.store.ListUncategorizedTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list uncategorized transactions: %w", err)
	}
	excluded, err := j.store.ListExcludedKeywords(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list excluded keywords: %w", err)
	}

	needle := strings.ToLower(keyword)
	matched := 0
	for _, tx := range uncategorized {
		lower := strings.ToLower(tx.Description)
		if !strings.Contains(lower, needle) {
			continue
		}
		if isExcluded(lower, excluded) {
			continue
		}
		tx.CategoryID = categoryID
		if err := j.store.UpdateTransaction(ctx, tx); err != nil {
			return matched, fmt.Errorf("update transaction %s: %w", tx.ID, err)
		}
		matched++
	}
	return matched, nil
}

func isExcluded(lowerDescription string, excluded []*model.ExcludedKeyword) bool {
	for _, ex := range excluded {
		if ex.Keyword != "" && strings.Contains(lowerDescription, strings.ToLower(ex.Keyword)) {
			return true
		}
	}
	return false
}

// Recategorize reapplies the user's full keyword set to the given
// transactions, including ones that already have a category.
func (j *Jobs) Recategorize(ctx context.Context, p queue.RecategorizePayload) error {
	keywords, err := j.store.ListKeywords(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}
	excluded, err := j.store.ListExcludedKeywords(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("list excluded keywords: %w", err)
	}
	transactions, err := j.store.GetTransactionsByIDs(ctx, p.UserID, p.TransactionIDs)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	updated := 0
	for _, tx := range transactions {
		categoryID := categorize(tx.Description, keywords, excluded)
		if categoryID == "" || categoryID == tx.CategoryID {
			continue
		}
		tx.CategoryID = categoryID
		if err := j.store.UpdateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("update transaction %s: %w", tx.ID, err)
		}
		updated++
	}
	log.Printf("[Categorize] recategorized %d/%d transactions", updated, len(transactions))
	return nil
}
