package gateway

import (
	"context"
	"errors"

	"search-backend/domain"
	"search-backend/driver"
	"search-backend/port"
)

// SearchDriver is what the gateway needs from the engine driver.
type SearchDriver interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string) error
	ApplySettings(ctx context.Context, index string, searchable, filterable, stopWords, rankingRules []string, maxTotalHits int64) error
	UpsertDocuments(ctx context.Context, index string, docs []map[string]any) error
	AddDocuments(ctx context.Context, index string, docs []map[string]any) error
	DeleteAllDocuments(ctx context.Context, index string) error
	DeleteDocument(ctx context.Context, index string, id string) error
	Search(ctx context.Context, q driver.SearchQueryDriver) (driver.SearchResultDriver, error)
	MultiSearch(ctx context.Context, qs []driver.SearchQueryDriver) ([]driver.SearchResultDriver, error)
	IndexStats(ctx context.Context, index string) (int64, error)
}

// SearchEngineGateway adapts the engine driver to the SearchEngine port,
// converting driver errors into the domain taxonomy so callers can
// recognize missing indexes.
type SearchEngineGateway struct {
	driver SearchDriver
}

var _ port.SearchEngine = (*SearchEngineGateway)(nil)

func NewSearchEngineGateway(driver SearchDriver) *SearchEngineGateway {
	return &SearchEngineGateway{driver: driver}
}

func (g *SearchEngineGateway) IndexExists(ctx context.Context, index string) (bool, error) {
	exists, err := g.driver.IndexExists(ctx, index)
	if err != nil {
		return false, engineError("IndexExists", index, err)
	}
	return exists, nil
}

func (g *SearchEngineGateway) CreateIndex(ctx context.Context, index string) error {
	if err := g.driver.CreateIndex(ctx, index); err != nil {
		return engineError("CreateIndex", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) ApplySettings(ctx context.Context, index string, settings port.IndexSettings) error {
	err := g.driver.ApplySettings(ctx, index,
		settings.RankingOrder,
		settings.Filterable,
		settings.StopWords,
		settings.RankingRules,
		settings.MaxTotalHits,
	)
	if err != nil {
		return engineError("ApplySettings", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) UpsertDocuments(ctx context.Context, index string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := g.driver.UpsertDocuments(ctx, index, payloads(docs)); err != nil {
		return engineError("UpsertDocuments", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) AddDocuments(ctx context.Context, index string, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := g.driver.AddDocuments(ctx, index, payloads(docs)); err != nil {
		return engineError("AddDocuments", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) DeleteAllDocuments(ctx context.Context, index string) error {
	if err := g.driver.DeleteAllDocuments(ctx, index); err != nil {
		return engineError("DeleteAllDocuments", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) DeleteDocument(ctx context.Context, index string, id string) error {
	if err := g.driver.DeleteDocument(ctx, index, id); err != nil {
		return engineError("DeleteDocument", index, err)
	}
	return nil
}

func (g *SearchEngineGateway) Search(ctx context.Context, query port.SearchQuery) (port.IndexSearchResult, error) {
	result, err := g.driver.Search(ctx, toDriverQuery(query))
	if err != nil {
		return port.IndexSearchResult{}, engineError("Search", query.Index, err)
	}
	return toPortResult(result), nil
}

func (g *SearchEngineGateway) MultiSearch(ctx context.Context, queries []port.SearchQuery) ([]port.IndexSearchResult, error) {
	driverQueries := make([]driver.SearchQueryDriver, 0, len(queries))
	for _, q := range queries {
		driverQueries = append(driverQueries, toDriverQuery(q))
	}

	driverResults, err := g.driver.MultiSearch(ctx, driverQueries)
	if err != nil {
		return nil, engineError("MultiSearch", "", err)
	}

	results := make([]port.IndexSearchResult, 0, len(driverResults))
	for _, r := range driverResults {
		results = append(results, toPortResult(r))
	}
	return results, nil
}

func (g *SearchEngineGateway) IndexStats(ctx context.Context, index string) (port.IndexStats, error) {
	documents, err := g.driver.IndexStats(ctx, index)
	if err != nil {
		return port.IndexStats{}, engineError("IndexStats", index, err)
	}
	return port.IndexStats{Documents: documents}, nil
}

func payloads(docs []domain.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Payload())
	}
	return out
}

func toDriverQuery(q port.SearchQuery) driver.SearchQueryDriver {
	return driver.SearchQueryDriver{
		Index:          q.Index,
		Text:           q.Text,
		Filter:         q.Filter,
		FacetAttribute: q.FacetAttribute,
		Ranking:        q.Ranking,
		Limit:          q.Limit,
	}
}

func toPortResult(r driver.SearchResultDriver) port.IndexSearchResult {
	result := port.IndexSearchResult{
		Index:       r.Index,
		FacetCounts: r.FacetCounts,
	}
	for _, hit := range r.Hits {
		result.Hits = append(result.Hits, port.EngineHit{ID: hit.ID, Score: hit.Score})
	}
	return result
}

func engineError(op, index string, err error) error {
	kind := domain.EngineOther
	var de *driver.DriverError
	if errors.As(err, &de) && de.NotFound {
		kind = domain.EngineIndexNotFound
	}
	return &domain.EngineError{Op: op, Index: index, Kind: kind, Err: err.Error()}
}
