package port

import (
	"context"

	"search-backend/domain"
)

// IndexSettings is everything the engine needs to rank and filter one
// content type's documents.
type IndexSettings struct {
	// RankingOrder lists searchable attributes, highest boost first.
	RankingOrder []string
	Filterable   []string
	StopWords    []string
	RankingRules []string
	MaxTotalHits int64
}

// SearchQuery is one engine-native request against a single index.
type SearchQuery struct {
	Index string
	Text  string
	// Filter is an engine filter expression; empty means unfiltered.
	Filter string
	// FacetAttribute is the engine attribute to facet on; empty means no
	// facets.
	FacetAttribute string
	// Ranking restricts and orders the attributes searched for this
	// request, per the content type's schema.
	Ranking []string
	Limit   int64
}

// EngineHit is one raw hit: document id plus the engine's normalized score.
type EngineHit struct {
	ID    string
	Score float64
}

// IndexSearchResult is one index's slice of a search response.
type IndexSearchResult struct {
	Index string
	Hits  []EngineHit
	// FacetCounts maps value to count for the requested facet attribute.
	FacetCounts map[string]int
}

// IndexStats is the engine's view of one index.
type IndexStats struct {
	Documents int64
}

// SearchEngine is the outbound capability to the remote search engine. All
// calls are blocking network operations; implementations surface failures as
// domain.EngineError so callers can recognize missing indexes.
type SearchEngine interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string) error
	ApplySettings(ctx context.Context, index string, settings IndexSettings) error
	UpsertDocuments(ctx context.Context, index string, docs []domain.Document) error
	AddDocuments(ctx context.Context, index string, docs []domain.Document) error
	DeleteAllDocuments(ctx context.Context, index string) error
	DeleteDocument(ctx context.Context, index string, id string) error
	Search(ctx context.Context, query SearchQuery) (IndexSearchResult, error)
	MultiSearch(ctx context.Context, queries []SearchQuery) ([]IndexSearchResult, error)
	IndexStats(ctx context.Context, index string) (IndexStats, error)
}
