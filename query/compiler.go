// Package query compiles structured application queries into engine-native
// search requests and executes them with as few remote round trips as
// possible.
package query

import (
	"context"
	"log/slog"

	"search-backend/domain"
	"search-backend/index"
	"search-backend/port"
)

// Params is one structured application query.
type Params struct {
	// Text is the free-text query; empty means match-all, used for listing
	// and filtering without search.
	Text         string
	ContentTypes []string
	Filters      []domain.FilterPair
	Operator     domain.Operator
	// FacetAttribute requests a facet distribution on the given
	// caller-facing attribute name.
	FacetAttribute string
	// Limit caps results per content type, not overall.
	Limit int64
	// Autocomplete restricts the searched attributes to the autocomplete
	// subset of each schema.
	Autocomplete bool
}

// Compiler turns Params into one or more engine requests, batching them into
// a single multi-index call when more than one index is active.
type Compiler struct {
	engine   port.SearchEngine
	registry *index.Registry
	logger   *slog.Logger
}

func NewCompiler(engine port.SearchEngine, registry *index.Registry, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{engine: engine, registry: registry, logger: logger}
}

// Execute resolves the active indexes for the requested content types,
// issues the compiled requests and groups the hits per content type. Skipped
// and nonexistent indexes are silently excluded. The outcome's hit list and
// facet distributions come from one execution.
func (c *Compiler) Execute(ctx context.Context, p Params) (domain.QueryOutcome, error) {
	if p.Operator == "" {
		p.Operator = domain.OperatorAnd
	}

	handles := c.registry.ActiveIndexes(ctx, p.ContentTypes)
	if len(handles) == 0 {
		return domain.QueryOutcome{}, nil
	}

	queries := make([]port.SearchQuery, 0, len(handles))
	for _, h := range handles {
		queries = append(queries, c.compileOne(h, p))
	}

	if len(queries) == 1 {
		result, err := c.engine.Search(ctx, queries[0])
		if err != nil {
			if domain.IsIndexNotFound(err) {
				c.registry.Forget(handles[0].ContentType)
				return domain.QueryOutcome{Partial: true}, nil
			}
			return domain.QueryOutcome{}, err
		}
		return domain.QueryOutcome{Groups: c.group(handles, []port.IndexSearchResult{result})}, nil
	}

	results, err := c.engine.MultiSearch(ctx, queries)
	if err != nil {
		// One bad index fails the whole batched call. Degrade once by
		// issuing single requests and dropping the indexes that cannot
		// serve the query, reporting partial results.
		c.logger.Warn("multi-index search failed, degrading to single requests", "err", err)
		return c.degrade(ctx, handles, queries)
	}

	return domain.QueryOutcome{Groups: c.group(handles, results)}, nil
}

// compileOne builds the engine request for one content type, with that
// type's ranking order and the shared filters, operator, facet and limit.
func (c *Compiler) compileOne(h index.Handle, p Params) port.SearchQuery {
	ranking := h.Schema.RankingOrder()
	if p.Autocomplete {
		ranking = h.Schema.AutocompleteOrder()
	}

	q := port.SearchQuery{
		Index:   h.Name,
		Text:    p.Text,
		Filter:  buildFilterExpression(h.Schema, p.Filters, p.Operator),
		Ranking: ranking,
		Limit:   p.Limit,
	}

	if p.FacetAttribute != "" {
		if attr, ok := h.Schema.FilterAttribute(p.FacetAttribute); ok {
			q.FacetAttribute = attr
		}
	}

	return q
}

// degrade retries each index individually after a failed batched call. The
// indexes that still fail are dropped from the result set instead of
// failing the whole query; the outcome is marked partial.
func (c *Compiler) degrade(ctx context.Context, handles []index.Handle, queries []port.SearchQuery) (domain.QueryOutcome, error) {
	outcome := domain.QueryOutcome{Partial: true}
	for i, q := range queries {
		result, err := c.engine.Search(ctx, q)
		if err != nil {
			if domain.IsIndexNotFound(err) {
				c.registry.Forget(handles[i].ContentType)
			}
			c.logger.Warn("dropping index from degraded query", "index", q.Index, "err", err)
			continue
		}
		outcome.Groups = append(outcome.Groups, c.groupOne(handles[i], result))
	}
	return outcome, nil
}

func (c *Compiler) group(handles []index.Handle, results []port.IndexSearchResult) []domain.HitGroup {
	byIndex := make(map[string]port.IndexSearchResult, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}

	groups := make([]domain.HitGroup, 0, len(handles))
	for _, h := range handles {
		result, ok := byIndex[h.Name]
		if !ok {
			continue
		}
		groups = append(groups, c.groupOne(h, result))
	}
	return groups
}

func (c *Compiler) groupOne(h index.Handle, result port.IndexSearchResult) domain.HitGroup {
	group := domain.HitGroup{
		ContentType: h.ContentType,
		Hits:        make([]domain.SearchHit, 0, len(result.Hits)),
		FacetCounts: result.FacetCounts,
	}
	for _, hit := range result.Hits {
		group.Hits = append(group.Hits, domain.SearchHit{
			DocumentID:  hit.ID,
			ContentType: h.ContentType,
			Score:       hit.Score,
		})
	}
	return group
}
