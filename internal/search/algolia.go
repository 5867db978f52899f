// Package search wraps the Algolia transaction index. Indexing is best
// effort: a failed index write is logged and never fails the ingestion job
// that triggered it.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"

	"github.com/finwise-app/finwise/backend/internal/model"
)

// Config holds Algolia configuration.
type Config struct {
	AppID     string
	APIKey    string
	IndexName string
}

// Params defines the input for a transaction search.
type Params struct {
	Query      string
	UserID     string
	CategoryID string
	// Amount range (cents)
	AmountMinCents int64
	AmountMaxCents int64
	// Date range
	StartDate *time.Time
	EndDate   *time.Time
	Type      model.TransactionType
	// Pagination (offset-based)
	Page     int
	PageSize int
}

// Result is one search hit.
type Result struct {
	ID          string                `json:"id"`
	Description string                `json:"description"`
	Merchant    string                `json:"merchant,omitempty"`
	CategoryID  string                `json:"categoryId,omitempty"`
	AmountCents int64                 `json:"amountCents"`
	Type        model.TransactionType `json:"type"`
	Date        time.Time             `json:"date"`
}

// Response holds results from Algolia.
type Response struct {
	Results    []Result `json:"results"`
	TotalCount int      `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
	Page       int      `json:"page"`
}

// AlgoliaClient wraps the Algolia search API client.
type AlgoliaClient struct {
	client    *search.APIClient
	indexName string
}

// NewAlgoliaClient creates a new Algolia search client.
func NewAlgoliaClient(cfg Config) (*AlgoliaClient, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("algolia AppID and APIKey are required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "finwise_transactions"
	}

	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating algolia client: %w", err)
	}

	return &AlgoliaClient{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// IndexTransactions pushes ingested transactions into the search index.
// Failures are logged; ingestion never depends on the index being reachable.
func (c *AlgoliaClient) IndexTransactions(ctx context.Context, transactions []*model.Transaction) {
	for _, tx := range transactions {
		object := map[string]any{
			"objectID":    tx.ID,
			"UserId":      tx.UserID,
			"Description": tx.Description,
			"Merchant":    tx.Merchant,
			"CategoryId":  tx.CategoryID,
			"AmountCents": tx.AmountCents,
			"Type":        string(tx.Type),
			"DateUnix":    tx.Date.Unix(),
		}
		if _, err := c.client.SaveObject(c.client.NewApiSaveObjectRequest(c.indexName, object)); err != nil {
			log.Printf("[Search] failed to index transaction %s: %v", tx.ID, err)
		}
	}
}

// Search performs a full-text search via Algolia.
func (c *AlgoliaClient) Search(ctx context.Context, params Params) (*Response, error) {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}

	page := params.Page
	if page < 0 {
		page = 0
	}

	filters := buildFilters(params)

	searchParams := search.SearchParamsObjectAsSearchParams(
		search.NewSearchParamsObject().
			SetQuery(params.Query).
			SetHitsPerPage(int32(pageSize)).
			SetPage(int32(page)).
			SetFilters(filters),
	)

	resp, err := c.client.SearchSingleIndex(c.client.NewApiSearchSingleIndexRequest(c.indexName).WithSearchParams(searchParams))
	if err != nil {
		return nil, fmt.Errorf("algolia search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if result, ok := hitToResult(hit.AdditionalProperties); ok {
			results = append(results, result)
		}
	}

	totalCount := 0
	if resp.NbHits != nil {
		totalCount = int(*resp.NbHits)
	}
	totalPages := 0
	if resp.NbPages != nil {
		totalPages = int(*resp.NbPages)
	}

	return &Response{
		Results:    results,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

// buildFilters constructs the Algolia filter string from search params.
// UserId is always enforced so results never cross account boundaries.
func buildFilters(params Params) string {
	var parts []string

	if params.UserID != "" {
		parts = append(parts, fmt.Sprintf("UserId:%q", params.UserID))
	}

	if params.CategoryID != "" {
		parts = append(parts, fmt.Sprintf("CategoryId:%q", params.CategoryID))
	}

	switch params.Type {
	case model.TransactionExpense:
		parts = append(parts, `Type:"expense"`)
	case model.TransactionIncome:
		parts = append(parts, `Type:"income"`)
	}

	if params.AmountMinCents > 0 {
		parts = append(parts, fmt.Sprintf("AmountCents >= %d", params.AmountMinCents))
	}
	if params.AmountMaxCents > 0 {
		parts = append(parts, fmt.Sprintf("AmountCents <= %d", params.AmountMaxCents))
	}

	if params.StartDate != nil {
		parts = append(parts, fmt.Sprintf("DateUnix >= %d", params.StartDate.Unix()))
	}
	if params.EndDate != nil {
		parts = append(parts, fmt.Sprintf("DateUnix <= %d", params.EndDate.Unix()))
	}

	return strings.Join(parts, " AND ")
}

// hitToResult converts an Algolia hit into a Result.
func hitToResult(props map[string]any) (Result, bool) {
	var result Result

	if v, ok := props["objectID"].(string); ok {
		result.ID = v
	}
	if v, ok := props["Description"].(string); ok {
		result.Description = v
	}
	if v, ok := props["Merchant"].(string); ok {
		result.Merchant = v
	}
	if v, ok := props["CategoryId"].(string); ok {
		result.CategoryID = v
	}
	if v, ok := props["AmountCents"].(float64); ok {
		result.AmountCents = int64(v)
	}
	if v, ok := props["DateUnix"].(float64); ok && v > 0 {
		result.Date = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := props["Type"].(string); ok {
		switch strings.ToLower(v) {
		case "expense":
			result.Type = model.TransactionExpense
		case "income":
			result.Type = model.TransactionIncome
		}
	}

	if result.ID == "" {
		log.Printf("[Search] skipping hit with no objectID")
		return Result{}, false
	}

	return result, true
}
