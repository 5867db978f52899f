package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// Collection names.
const (
	colUsers            = "users"
	colCards            = "cards"
	colCategories       = "categories"
	colKeywords         = "categoryKeywords"
	colExcludedKeywords = "excludedKeywords"
	colStatements       = "statements"
	colTransactions     = "transactions"
	colBudgets          = "budgets"
	colAlerts           = "alerts"
)

// FirestoreStore implements the Store interface using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{client: client}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// getOwned fetches a document and decodes it into out, verifying ownership.
// Missing documents and documents owned by another user both surface as
// ErrNotFound.
func (s *FirestoreStore) getOwned(ctx context.Context, collection, id string, out interface{}, owner func() string, userID string) error {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := doc.DataTo(out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	if owner() != userID {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	doc, err := s.client.Collection(colUsers).Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (s *FirestoreStore) UpsertUser(ctx context.Context, user *model.User) error {
	_, err := s.client.Collection(colUsers).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetUserByStripeCustomer(ctx context.Context, customerID string) (*model.User, error) {
	docs, err := s.client.Collection(colUsers).
		Where("stripe_customer_id", "==", customerID).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query user by stripe customer: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var user model.User
	if err := docs[0].DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// --- Cards ---

func (s *FirestoreStore) CreateCard(ctx context.Context, card *model.Card) error {
	_, err := s.client.Collection(colCards).Doc(card.ID).Create(ctx, card)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetCard(ctx context.Context, userID, cardID string) (*model.Card, error) {
	var card model.Card
	if err := s.getOwned(ctx, colCards, cardID, &card, func() string { return card.UserID }, userID); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *FirestoreStore) ListCards(ctx context.Context, userID string) ([]*model.Card, error) {
	docs, err := s.client.Collection(colCards).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	out := make([]*model.Card, 0, len(docs))
	for _, doc := range docs {
		var card model.Card
		if err := doc.DataTo(&card); err != nil {
			return nil, fmt.Errorf("decode card: %w", err)
		}
		out = append(out, &card)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteCard(ctx context.Context, userID, cardID string) error {
	if _, err := s.GetCard(ctx, userID, cardID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colCards).Doc(cardID).Delete(ctx); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// --- Categories ---

func (s *FirestoreStore) CreateCategory(ctx context.Context, category *model.Category) error {
	existing, err := s.client.Collection(colCategories).
		Where("user_id", "==", category.UserID).
		Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("check category uniqueness: %w", err)
	}
	for _, doc := range existing {
		var cur model.Category
		if err := doc.DataTo(&cur); err != nil {
			continue
		}
		if strings.EqualFold(cur.Name, category.Name) {
			return ErrDuplicate
		}
	}
	if _, err := s.client.Collection(colCategories).Doc(category.ID).Create(ctx, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	// Firestore has no OR queries across fields here, so system and user
	// categories are fetched separately.
	system, err := s.client.Collection(colCategories).
		Where("is_system", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list system categories: %w", err)
	}
	owned, err := s.client.Collection(colCategories).
		Where("user_id", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list user categories: %w", err)
	}

	var out []*model.Category
	for _, doc := range append(system, owned...) {
		var category model.Category
		if err := doc.DataTo(&category); err != nil {
			return nil, fmt.Errorf("decode category: %w", err)
		}
		if category.UserID != "" && category.UserID != userID {
			continue
		}
		out = append(out, &category)
	}
	return out, nil
}

func (s *FirestoreStore) CountUserCategories(ctx context.Context, userID string) (int, error) {
	docs, err := s.client.Collection(colCategories).
		Where("user_id", "==", userID).
		Where("is_system", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("count user categories: %w", err)
	}
	return len(docs), nil
}

func (s *FirestoreStore) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	var category model.Category
	if err := s.getOwned(ctx, colCategories, categoryID, &category, func() string { return category.UserID }, userID); err != nil {
		return err
	}
	if category.IsSystem {
		return ErrNotFound
	}
	if _, err := s.client.Collection(colCategories).Doc(categoryID).Delete(ctx); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// --- Category keywords ---

func (s *FirestoreStore) CreateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error {
	// Keyword uniqueness is case-insensitive; Firestore string equality is
	// not, so compare against the user's full keyword set (small in practice).
	existing, err := s.client.Collection(colKeywords).
		Where("user_id", "==", keyword.UserID).
		Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("check keyword uniqueness: %w", err)
	}
	for _, doc := range existing {
		var cur model.CategoryKeyword
		if err := doc.DataTo(&cur); err != nil {
			continue
		}
		if strings.EqualFold(cur.Keyword, keyword.Keyword) {
			return ErrDuplicate
		}
	}
	if _, err := s.client.Collection(colKeywords).Doc(keyword.ID).Create(ctx, keyword); err != nil {
		return fmt.Errorf("create keyword: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetKeyword(ctx context.Context, userID, keywordID string) (*model.CategoryKeyword, error) {
	var keyword model.CategoryKeyword
	if err := s.getOwned(ctx, colKeywords, keywordID, &keyword, func() string { return keyword.UserID }, userID); err != nil {
		return nil, err
	}
	return &keyword, nil
}

func (s *FirestoreStore) ListKeywords(ctx context.Context, userID string) ([]*model.CategoryKeyword, error) {
	docs, err := s.client.Collection(colKeywords).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	out := make([]*model.CategoryKeyword, 0, len(docs))
	for _, doc := range docs {
		var keyword model.CategoryKeyword
		if err := doc.DataTo(&keyword); err != nil {
			return nil, fmt.Errorf("decode keyword: %w", err)
		}
		out = append(out, &keyword)
	}
	return out, nil
}

func (s *FirestoreStore) UpdateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error {
	if _, err := s.GetKeyword(ctx, keyword.UserID, keyword.ID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colKeywords).Doc(keyword.ID).Set(ctx, keyword); err != nil {
		return fmt.Errorf("update keyword: %w", err)
	}
	return nil
}

func (s *FirestoreStore) DeleteKeyword(ctx context.Context, userID, keywordID string) error {
	if _, err := s.GetKeyword(ctx, userID, keywordID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colKeywords).Doc(keywordID).Delete(ctx); err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	return nil
}

// --- Excluded keywords ---

func (s *FirestoreStore) CreateExcludedKeyword(ctx context.Context, excluded *model.ExcludedKeyword) error {
	existing, err := s.client.Collection(colExcludedKeywords).
		Where("user_id", "==", excluded.UserID).
		Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("check excluded keyword uniqueness: %w", err)
	}
	for _, doc := range existing {
		var cur model.ExcludedKeyword
		if err := doc.DataTo(&cur); err != nil {
			continue
		}
		if strings.EqualFold(cur.Keyword, excluded.Keyword) {
			return ErrDuplicate
		}
	}
	if _, err := s.client.Collection(colExcludedKeywords).Doc(excluded.ID).Create(ctx, excluded); err != nil {
		return fmt.Errorf("create excluded keyword: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListExcludedKeywords(ctx context.Context, userID string) ([]*model.ExcludedKeyword, error) {
	docs, err := s.client.Collection(colExcludedKeywords).
		Where("user_id", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list excluded keywords: %w", err)
	}
	out := make([]*model.ExcludedKeyword, 0, len(docs))
	for _, doc := range docs {
		var excluded model.ExcludedKeyword
		if err := doc.DataTo(&excluded); err != nil {
			return nil, fmt.Errorf("decode excluded keyword: %w", err)
		}
		out = append(out, &excluded)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteExcludedKeyword(ctx context.Context, userID, excludedID string) error {
	var excluded model.ExcludedKeyword
	if err := s.getOwned(ctx, colExcludedKeywords, excludedID, &excluded, func() string { return excluded.UserID }, userID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colExcludedKeywords).Doc(excludedID).Delete(ctx); err != nil {
		return fmt.Errorf("delete excluded keyword: %w", err)
	}
	return nil
}

// --- Statements ---

func (s *FirestoreStore) CreateStatement(ctx context.Context, statement *model.Statement) error {
	if _, err := s.client.Collection(colStatements).Doc(statement.ID).Create(ctx, statement); err != nil {
		return fmt.Errorf("create statement: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetStatement(ctx context.Context, userID, statementID string) (*model.Statement, error) {
	var statement model.Statement
	if err := s.getOwned(ctx, colStatements, statementID, &statement, func() string { return statement.UserID }, userID); err != nil {
		return nil, err
	}
	return &statement, nil
}

func (s *FirestoreStore) UpdateStatement(ctx context.Context, statement *model.Statement) error {
	if _, err := s.GetStatement(ctx, statement.UserID, statement.ID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colStatements).Doc(statement.ID).Set(ctx, statement); err != nil {
		return fmt.Errorf("update statement: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListStatements(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Statement, string, error) {
	// Firestore needs OrderBy on the cursor fields: uploaded_at desc with
	// document ID as tiebreaker, StartAfter with both values.
	query := s.client.Collection(colStatements).
		Where("user_id", "==", userID).
		OrderBy("uploaded_at", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		cursorDoc, err := s.client.Collection(colStatements).Doc(cursorID).Get(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("fetch cursor document: %w", err)
		}
		query = query.StartAfter(cursorDoc.Data()["uploaded_at"], cursorID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	docs, err := query.Limit(int(pageSize) + 1).Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("list statements: %w", err)
	}

	hasMore := len(docs) > int(pageSize)
	if hasMore {
		docs = docs[:pageSize]
	}
	out := make([]*model.Statement, 0, len(docs))
	for _, doc := range docs {
		var statement model.Statement
		if err := doc.DataTo(&statement); err != nil {
			return nil, "", fmt.Errorf("decode statement: %w", err)
		}
		out = append(out, &statement)
	}
	nextToken := ""
	if hasMore && len(out) > 0 {
		nextToken = EncodePageToken(out[len(out)-1].ID)
	}
	return out, nextToken, nil
}

func (s *FirestoreStore) CountStatementsInMonth(ctx context.Context, userID string, month time.Time) (int, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	docs, err := s.client.Collection(colStatements).
		Where("user_id", "==", userID).
		Where("uploaded_at", ">=", start).
		Where("uploaded_at", "<", end).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("count statements in month: %w", err)
	}
	return len(docs), nil
}

// --- Transactions ---

func (s *FirestoreStore) CreateTransactions(ctx context.Context, transactions []*model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(transactions))
	for _, tx := range transactions {
		job, err := bw.Create(s.client.Collection(colTransactions).Doc(tx.ID), tx)
		if err != nil {
			return fmt.Errorf("enqueue transaction write: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk insert transactions: %w", err)
		}
	}
	return nil
}

func (s *FirestoreStore) GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := s.getOwned(ctx, colTransactions, transactionID, &tx, func() string { return tx.UserID }, userID); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *FirestoreStore) UpdateTransaction(ctx context.Context, transaction *model.Transaction) error {
	if _, err := s.GetTransaction(ctx, transaction.UserID, transaction.ID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colTransactions).Doc(transaction.ID).Set(ctx, transaction); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]*model.Transaction, string, error) {
	query := s.client.Collection(colTransactions).Where("user_id", "==", userID)
	if filter.CardID != "" {
		query = query.Where("card_id", "==", filter.CardID)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id", "==", filter.CategoryID)
	}
	if filter.StartDate != nil {
		query = query.Where("date", ">=", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date", "<=", *filter.EndDate)
	}
	query = query.OrderBy("date", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)

	if filter.PageToken != "" {
		cursorID, err := DecodePageToken(filter.PageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		cursorDoc, err := s.client.Collection(colTransactions).Doc(cursorID).Get(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("fetch cursor document: %w", err)
		}
		query = query.StartAfter(cursorDoc.Data()["date"], cursorID)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	docs, err := query.Limit(int(pageSize) + 1).Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("list transactions: %w", err)
	}

	hasMore := len(docs) > int(pageSize)
	if hasMore {
		docs = docs[:pageSize]
	}
	out := make([]*model.Transaction, 0, len(docs))
	for _, doc := range docs {
		var tx model.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, "", fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, &tx)
	}
	nextToken := ""
	if hasMore && len(out) > 0 {
		nextToken = EncodePageToken(out[len(out)-1].ID)
	}
	return out, nextToken, nil
}

func (s *FirestoreStore) ListUncategorizedTransactions(ctx context.Context, userID string) ([]*model.Transaction, error) {
	docs, err := s.client.Collection(colTransactions).
		Where("user_id", "==", userID).
		Where("category_id", "==", "").
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list uncategorized transactions: %w", err)
	}
	out := make([]*model.Transaction, 0, len(docs))
	for _, doc := range docs {
		var tx model.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, &tx)
	}
	return out, nil
}

func (s *FirestoreStore) GetTransactionsByIDs(ctx context.Context, userID string, ids []string) ([]*model.Transaction, error) {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.client.Collection(colTransactions).Doc(id))
	}
	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("get transactions by ids: %w", err)
	}
	out := make([]*model.Transaction, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var tx model.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		if tx.UserID != userID {
			continue
		}
		out = append(out, &tx)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteTransactionsByStatement(ctx context.Context, userID, statementID string) error {
	docs, err := s.client.Collection(colTransactions).
		Where("user_id", "==", userID).
		Where("statement_id", "==", statementID).
		Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("query statement transactions: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			return fmt.Errorf("enqueue transaction delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk delete transactions: %w", err)
		}
	}
	return nil
}

// --- Budgets ---

func (s *FirestoreStore) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if _, err := s.client.Collection(colBudgets).Doc(budget.ID).Create(ctx, budget); err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error) {
	docs, err := s.client.Collection(colBudgets).
		Where("user_id", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]*model.Budget, 0, len(docs))
	for _, doc := range docs {
		var budget model.Budget
		if err := doc.DataTo(&budget); err != nil {
			return nil, fmt.Errorf("decode budget: %w", err)
		}
		out = append(out, &budget)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	var budget model.Budget
	if err := s.getOwned(ctx, colBudgets, budgetID, &budget, func() string { return budget.UserID }, userID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colBudgets).Doc(budgetID).Delete(ctx); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// --- Alerts ---

func (s *FirestoreStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if _, err := s.client.Collection(colAlerts).Doc(alert.ID).Create(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListAlerts(ctx context.Context, userID string) ([]*model.Alert, error) {
	docs, err := s.client.Collection(colAlerts).
		Where("user_id", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	out := make([]*model.Alert, 0, len(docs))
	for _, doc := range docs {
		var alert model.Alert
		if err := doc.DataTo(&alert); err != nil {
			return nil, fmt.Errorf("decode alert: %w", err)
		}
		out = append(out, &alert)
	}
	return out, nil
}

func (s *FirestoreStore) DeleteAlert(ctx context.Context, userID, alertID string) error {
	var alert model.Alert
	if err := s.getOwned(ctx, colAlerts, alertID, &alert, func() string { return alert.UserID }, userID); err != nil {
		return err
	}
	if _, err := s.client.Collection(colAlerts).Doc(alertID).Delete(ctx); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}
