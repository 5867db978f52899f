package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// ParsedTransaction is one transaction line recovered from statement text.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Merchant    string
	AmountCents int64
	Type        model.TransactionType
}

// transactionLineRe matches a line with: date ... description ... amount.
// Groups: (1) date, (2) description, (3) amount, (4) optional CR/DR suffix.
var transactionLineRe = regexp.MustCompile(
	`(?i)^` +
		// Date group - various formats
		`(\d{1,2}[/\-\.]\d{1,2}[/\-\.]\d{2,4}|\d{4}[/\-]\d{2}[/\-]\d{2}|` +
		`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:[,\s]+\d{2,4})?|` +
		`\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?(?:[,\s]+\d{2,4})?)` +
		// Separator + description (non-greedy)
		`\s+(.+?)\s+` +
		// Amount (possibly negative or with $ prefix)
		`(-?\$?\d{1,3}(?:,\d{3})*\.\d{2})\s*(CR|DR)?$`,
)

// dateFormats to try when parsing extracted dates.
var dateFormats = []string{
	"02/01/2006", // DD/MM/YYYY
	"2/1/2006",   // D/M/YYYY
	"02-01-2006", // DD-MM-YYYY
	"02.01.2006", // DD.MM.YYYY
	"2006-01-02", // YYYY-MM-DD
	"2006/01/02", // YYYY/MM/DD
	"Jan 02 2006",
	"Jan 2 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"02/01/06", // DD/MM/YY
	"2/1/06",   // D/M/YY
}

// ParseStatementText recovers transaction lines from pre-extracted PDF text.
// Lines that do not look like a transaction are skipped; an ExtractionError
// with ErrNoTransactionsFound is returned when nothing parses.
func ParseStatementText(text string) ([]ParsedTransaction, error) {
	var out []ParsedTransaction

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matches := transactionLineRe.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		dateStr := strings.TrimSpace(matches[1])
		description := strings.TrimSpace(matches[2])
		amountStr := strings.TrimSpace(matches[3])
		suffix := strings.ToUpper(strings.TrimSpace(matches[4]))

		date, ok := parseFlexibleDate(dateStr)
		if !ok {
			continue
		}
		cents, negative, ok := parseAmountCents(amountStr)
		if !ok || cents == 0 {
			continue
		}

		// Negative amounts and CR-suffixed amounts are money in
		txType := model.TransactionExpense
		if negative || suffix == "CR" {
			txType = model.TransactionIncome
		}

		out = append(out, ParsedTransaction{
			Date:        date,
			Description: description,
			Merchant:    NormalizeMerchant(description).Name,
			AmountCents: cents,
			Type:        txType,
		})
	}

	if len(out) == 0 {
		return nil, &ExtractionError{
			Code:    ErrNoTransactionsFound,
			Message: "no transaction lines recognized in statement text",
		}
	}
	return out, nil
}

// parseFlexibleDate tries multiple date formats.
func parseFlexibleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	// Month-day without a year: assume the current year
	for _, format := range []string{"Jan 02", "Jan 2", "02 Jan", "2 Jan"} {
		if t, err := time.Parse(format, s); err == nil {
			now := time.Now()
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseAmountCents converts "$1,234.56" or "-1234.56" to integer cents,
// avoiding float arithmetic.
func parseAmountCents(s string) (cents int64, negative bool, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	whole, frac, found := strings.Cut(s, ".")
	if !found || len(frac) != 2 {
		return 0, false, false
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false, false
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, false, false
	}
	return w*100 + f, negative, true
}
