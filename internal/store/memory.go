package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// MemoryStore implements Store with in-memory maps. It is used for local
// development and as the standard test double.
type MemoryStore struct {
	mu sync.RWMutex

	users            map[string]*model.User
	cards            map[string]*model.Card
	categories       map[string]*model.Category
	keywords         map[string]*model.CategoryKeyword
	excludedKeywords map[string]*model.ExcludedKeyword
	statements       map[string]*model.Statement
	transactions     map[string]*model.Transaction
	budgets          map[string]*model.Budget
	alerts           map[string]*model.Alert
}

// NewMemoryStore creates an empty in-memory store seeded with the system
// category set.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:            make(map[string]*model.User),
		cards:            make(map[string]*model.Card),
		categories:       make(map[string]*model.Category),
		keywords:         make(map[string]*model.CategoryKeyword),
		excludedKeywords: make(map[string]*model.ExcludedKeyword),
		statements:       make(map[string]*model.Statement),
		transactions:     make(map[string]*model.Transaction),
		budgets:          make(map[string]*model.Budget),
		alerts:           make(map[string]*model.Alert),
	}
	for _, c := range SystemCategories() {
		cc := c
		s.categories[c.ID] = &cc
	}
	return s
}

// SystemCategories returns the fixed category set every user sees.
func SystemCategories() []model.Category {
	names := []struct{ id, name, icon string }{
		{"sys-food", "Food & Dining", "utensils"},
		{"sys-groceries", "Groceries", "shopping-cart"},
		{"sys-transport", "Transportation", "car"},
		{"sys-shopping", "Shopping", "shopping-bag"},
		{"sys-entertainment", "Entertainment", "film"},
		{"sys-utilities", "Utilities", "zap"},
		{"sys-health", "Healthcare", "heart"},
		{"sys-travel", "Travel", "plane"},
		{"sys-housing", "Housing", "home"},
		{"sys-income", "Income", "trending-up"},
		{"sys-other", "Other", "more-horizontal"},
	}
	out := make([]model.Category, 0, len(names))
	for _, n := range names {
		out = append(out, model.Category{ID: n.id, Name: n.name, Icon: n.icon, IsSystem: true})
	}
	return out
}

// --- Users ---

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUserByStripeCustomer(ctx context.Context, customerID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- Cards ---

func (s *MemoryStore) CreateCard(ctx context.Context, card *model.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *card
	s.cards[card.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCard(ctx context.Context, userID, cardID string) (*model.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[cardID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListCards(ctx context.Context, userID string) ([]*model.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Card
	for _, c := range s.cards {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteCard(ctx context.Context, userID, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.cards, cardID)
	return nil
}

// --- Categories ---

func (s *MemoryStore) CreateCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == category.UserID && strings.EqualFold(c.Name, category.Name) {
			return ErrDuplicate
		}
	}
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Category
	for _, c := range s.categories {
		if c.IsSystem || c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountUserCategories(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.categories {
		if !c.IsSystem && c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok || c.IsSystem || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.categories, categoryID)
	return nil
}

// --- Category keywords ---

func (s *MemoryStore) CreateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keywords {
		if k.UserID == keyword.UserID && strings.EqualFold(k.Keyword, keyword.Keyword) {
			return ErrDuplicate
		}
	}
	cp := *keyword
	s.keywords[keyword.ID] = &cp
	return nil
}

func (s *MemoryStore) GetKeyword(ctx context.Context, userID, keywordID string) (*model.CategoryKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keywords[keywordID]
	if !ok || k.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (s *MemoryStore) ListKeywords(ctx context.Context, userID string) ([]*model.CategoryKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.CategoryKeyword
	for _, k := range s.keywords {
		if k.UserID == userID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateKeyword(ctx context.Context, keyword *model.CategoryKeyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.keywords[keyword.ID]
	if !ok || existing.UserID != keyword.UserID {
		return ErrNotFound
	}
	cp := *keyword
	s.keywords[keyword.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteKeyword(ctx context.Context, userID, keywordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keywords[keywordID]
	if !ok || k.UserID != userID {
		return ErrNotFound
	}
	delete(s.keywords, keywordID)
	return nil
}

// --- Excluded keywords ---

func (s *MemoryStore) CreateExcludedKeyword(ctx context.Context, excluded *model.ExcludedKeyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.excludedKeywords {
		if e.UserID == excluded.UserID && strings.EqualFold(e.Keyword, excluded.Keyword) {
			return ErrDuplicate
		}
	}
	cp := *excluded
	s.excludedKeywords[excluded.ID] = &cp
	return nil
}

func (s *MemoryStore) ListExcludedKeywords(ctx context.Context, userID string) ([]*model.ExcludedKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.ExcludedKeyword
	for _, e := range s.excludedKeywords {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteExcludedKeyword(ctx context.Context, userID, excludedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.excludedKeywords[excludedID]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(s.excludedKeywords, excludedID)
	return nil
}

// --- Statements ---

func (s *MemoryStore) CreateStatement(ctx context.Context, statement *model.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *statement
	s.statements[statement.ID] = &cp
	return nil
}

func (s *MemoryStore) GetStatement(ctx context.Context, userID, statementID string) (*model.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statements[statementID]
	if !ok || st.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStore) UpdateStatement(ctx context.Context, statement *model.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.statements[statement.ID]
	if !ok || existing.UserID != statement.UserID {
		return ErrNotFound
	}
	cp := *statement
	s.statements[statement.ID] = &cp
	return nil
}

func (s *MemoryStore) ListStatements(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Statement, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*model.Statement
	for _, st := range s.statements {
		if st.UserID == userID {
			cp := *st
			all = append(all, &cp)
		}
	}
	// Newest first, ID as tiebreaker so pagination is stable
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UploadedAt.Equal(all[j].UploadedAt) {
			return all[i].UploadedAt.After(all[j].UploadedAt)
		}
		return all[i].ID < all[j].ID
	})

	start := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", err
		}
		for i, st := range all {
			if st.ID == cursorID {
				start = i + 1
				break
			}
		}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]
	nextToken := ""
	if end < len(all) && len(page) > 0 {
		nextToken = EncodePageToken(page[len(page)-1].ID)
	}
	return page, nextToken, nil
}

func (s *MemoryStore) CountStatementsInMonth(ctx context.Context, userID string, month time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, st := range s.statements {
		if st.UserID == userID &&
			st.UploadedAt.Year() == month.Year() &&
			st.UploadedAt.Month() == month.Month() {
			count++
		}
	}
	return count, nil
}

// --- Transactions ---

func (s *MemoryStore) CreateTransactions(ctx context.Context, transactions []*model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range transactions {
		cp := *tx
		s.transactions[tx.ID] = &cp
	}
	return nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[transactionID]
	if !ok || tx.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) UpdateTransaction(ctx context.Context, transaction *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID {
		return ErrNotFound
	}
	cp := *transaction
	s.transactions[transaction.ID] = &cp
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]*model.Transaction, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*model.Transaction
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if filter.CardID != "" && tx.CardID != filter.CardID {
			continue
		}
		if filter.CategoryID != "" && tx.CategoryID != filter.CategoryID {
			continue
		}
		if filter.StartDate != nil && tx.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && tx.Date.After(*filter.EndDate) {
			continue
		}
		cp := *tx
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})

	start := 0
	if filter.PageToken != "" {
		cursorID, err := DecodePageToken(filter.PageToken)
		if err != nil {
			return nil, "", err
		}
		for i, tx := range all {
			if tx.ID == cursorID {
				start = i + 1
				break
			}
		}
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]
	nextToken := ""
	if end < len(all) && len(page) > 0 {
		nextToken = EncodePageToken(page[len(page)-1].ID)
	}
	return page, nextToken, nil
}

func (s *MemoryStore) ListUncategorizedTransactions(ctx context.Context, userID string) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.CategoryID == "" {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetTransactionsByIDs(ctx context.Context, userID string, ids []string) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Transaction
	for _, id := range ids {
		tx, ok := s.transactions[id]
		if !ok || tx.UserID != userID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteTransactionsByStatement(ctx context.Context, userID, statementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, tx := range s.transactions {
		if tx.UserID == userID && tx.StatementID == statementID {
			delete(s.transactions, id)
		}
	}
	return nil
}

// --- Budgets ---

func (s *MemoryStore) CreateBudget(ctx context.Context, budget *model.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *budget
	s.budgets[budget.ID] = &cp
	return nil
}

func (s *MemoryStore) ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(s.budgets, budgetID)
	return nil
}

// --- Alerts ---

func (s *MemoryStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *alert
	s.alerts[alert.ID] = &cp
	return nil
}

func (s *MemoryStore) ListAlerts(ctx context.Context, userID string) ([]*model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Alert
	for _, a := range s.alerts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteAlert(ctx context.Context, userID, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(s.alerts, alertID)
	return nil
}
