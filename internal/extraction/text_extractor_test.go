package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise-app/finwise/backend/internal/model"
)

const sampleStatement = `ACME BANK
Statement Period: 01/03/2025 - 31/03/2025

Date        Description                  Amount
03/03/2025  WOOLWORTHS 1234 SYDNEY       $45.20
05/03/2025  NETFLIX.COM                  15.99
12/03/2025  SALARY ACME PTY LTD          -4,500.00
18/03/2025  UBER EATS SYDNEY             32.50
25/03/2025  REFUND TARGET                12.00 CR

Closing balance: $4,394.31`

func TestParseStatementText(t *testing.T) {
	txs, err := ParseStatementText(sampleStatement)
	require.NoError(t, err)
	require.Len(t, txs, 5)

	first := txs[0]
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Contains(t, first.Description, "WOOLWORTHS")
	assert.Equal(t, "Woolworths", first.Merchant)
	assert.Equal(t, int64(4520), first.AmountCents)
	assert.Equal(t, model.TransactionExpense, first.Type)

	// Negative amount is money in
	salary := txs[2]
	assert.Equal(t, int64(450000), salary.AmountCents)
	assert.Equal(t, model.TransactionIncome, salary.Type)

	// CR suffix is money in
	refund := txs[4]
	assert.Equal(t, int64(1200), refund.AmountCents)
	assert.Equal(t, model.TransactionIncome, refund.Type)
}

func TestParseStatementTextNoTransactions(t *testing.T) {
	_, err := ParseStatementText("Dear customer,\nthank you for banking with us.\n")
	require.Error(t, err)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, ErrNoTransactionsFound, extErr.Code)
}

func TestParseStatementTextDateFormats(t *testing.T) {
	cases := []struct {
		line string
		want time.Time
	}{
		{"2025-03-14  COLES  10.00", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"14/03/2025  COLES  10.00", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"14 Mar 2025  COLES  10.00", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"Mar 14, 2025  COLES  10.00", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"14/03/25  COLES  10.00", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		txs, err := ParseStatementText(tc.line)
		require.NoError(t, err, tc.line)
		require.Len(t, txs, 1, tc.line)
		assert.Equal(t, tc.want, txs[0].Date, tc.line)
	}
}

func TestParseAmountCents(t *testing.T) {
	cases := []struct {
		in       string
		cents    int64
		negative bool
		ok       bool
	}{
		{"$45.20", 4520, false, true},
		{"1,234.56", 123456, false, true},
		{"-4,500.00", 450000, true, true},
		{"0.99", 99, false, true},
		{"45", 0, false, false},
		{"abc", 0, false, false},
	}
	for _, tc := range cases {
		cents, negative, ok := parseAmountCents(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.cents, cents, tc.in)
			assert.Equal(t, tc.negative, negative, tc.in)
		}
	}
}

func TestNormalizeMerchant(t *testing.T) {
	info := NormalizeMerchant("WOOLWORTHS 1234 SYDNEY PTY LTD")
	assert.Equal(t, "Woolworths", info.Name)
	assert.Equal(t, "sys-groceries", info.CategoryID)

	// Longest keyword wins
	info = NormalizeMerchant("UBER EATS SYDNEY")
	assert.Equal(t, "Uber Eats", info.Name)
	assert.Equal(t, "sys-food", info.CategoryID)

	info = NormalizeMerchant("UBER *TRIP")
	assert.Equal(t, "Uber", info.Name)
	assert.Equal(t, "sys-transport", info.CategoryID)

	// Unknown merchants keep a cleaned description and no suggestion
	info = NormalizeMerchant("LOCAL PLUMBER 99881122")
	assert.Empty(t, info.CategoryID)
	assert.NotEmpty(t, info.Name)
}
