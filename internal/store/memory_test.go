package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise-app/finwise/backend/internal/model"
)

func TestKeywordUniquenessIsCaseInsensitive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.CreateKeyword(ctx, &model.CategoryKeyword{
		ID: "k1", UserID: "u1", CategoryID: "sys-food", Keyword: "Woolworths",
	})
	require.NoError(t, err)

	err = s.CreateKeyword(ctx, &model.CategoryKeyword{
		ID: "k2", UserID: "u1", CategoryID: "sys-food", Keyword: "woolworths",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Other users are not affected
	err = s.CreateKeyword(ctx, &model.CategoryKeyword{
		ID: "k3", UserID: "u2", CategoryID: "sys-food", Keyword: "woolworths",
	})
	assert.NoError(t, err)
}

func TestOwnershipScopedReads(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateKeyword(ctx, &model.CategoryKeyword{
		ID: "k1", UserID: "u1", CategoryID: "sys-food", Keyword: "coles",
	}))

	// Another user's keyword reads as absent, not forbidden
	_, err := s.GetKeyword(ctx, "u2", "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetKeyword(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, "coles", got.Keyword)

	assert.ErrorIs(t, s.DeleteKeyword(ctx, "u2", "k1"), ErrNotFound)
}

func TestDeleteTransactionsByStatement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	txs := []*model.Transaction{
		{ID: "t1", UserID: "u1", StatementID: "s1", Description: "a", AmountCents: 100},
		{ID: "t2", UserID: "u1", StatementID: "s1", Description: "b", AmountCents: 200},
		{ID: "t3", UserID: "u1", StatementID: "s2", Description: "c", AmountCents: 300},
	}
	require.NoError(t, s.CreateTransactions(ctx, txs))

	require.NoError(t, s.DeleteTransactionsByStatement(ctx, "u1", "s1"))

	remaining, _, err := s.ListTransactions(ctx, "u1", TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "t3", remaining[0].ID)
}

func TestListUncategorizedTransactions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateTransactions(ctx, []*model.Transaction{
		{ID: "t1", UserID: "u1", Description: "uncategorized"},
		{ID: "t2", UserID: "u1", CategoryID: "sys-food", Description: "categorized"},
		{ID: "t3", UserID: "u2", Description: "other user"},
	}))

	got, err := s.ListUncategorizedTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}

func TestStatementPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateStatement(ctx, &model.Statement{
			ID:         fmt.Sprintf("s%d", i),
			UserID:     "u1",
			Status:     model.StatementCompleted,
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page1, token, err := s.ListStatements(ctx, "u1", 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, token)
	assert.Equal(t, "s4", page1[0].ID) // newest first

	page2, token, err := s.ListStatements(ctx, "u1", 2, token)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEmpty(t, token)

	page3, token, err := s.ListStatements(ctx, "u1", 2, token)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, token)

	seen := map[string]bool{}
	for _, st := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[st.ID], "duplicate %s across pages", st.ID)
		seen[st.ID] = true
	}
}

func TestCountStatementsInMonth(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateStatement(ctx, &model.Statement{
		ID: "s1", UserID: "u1", UploadedAt: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.CreateStatement(ctx, &model.Statement{
		ID: "s2", UserID: "u1", UploadedAt: time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.CreateStatement(ctx, &model.Statement{
		ID: "s3", UserID: "u1", UploadedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	count, err := s.CountStatementsInMonth(ctx, "u1", time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSystemCategoriesSeeded(t *testing.T) {
	s := NewMemoryStore()
	cats, err := s.ListCategories(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
	for _, c := range cats {
		assert.True(t, c.IsSystem)
	}

	count, err := s.CountUserCategories(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
