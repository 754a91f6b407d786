package usecase

import (
	"context"
	"log/slog"

	"search-backend/domain"
	"search-backend/query"
	"search-backend/results"
)

// maxPageLimit bounds the caller's page size, independent of the per-type
// engine limit configured on the usecase.
const maxPageLimit = 1000

// SearchParams is the query-facing surface of the search usecase.
type SearchParams struct {
	Text           string
	ContentTypes   []string
	Filters        []domain.FilterPair
	Operator       domain.Operator
	FacetAttribute string
	Offset         int
	Limit          int
	Autocomplete   bool
}

// SearchPage is one page of ranked results. Total is the sum of per-type
// hit counts from the execution that produced Results.
type SearchPage struct {
	Results []domain.RankedResult
	Total   int
	Partial bool
	Facets  []domain.FacetCount
}

// SearchUsecase runs the full query path: compile, execute, materialize,
// paginate.
type SearchUsecase struct {
	compiler *query.Compiler
	mapper   *results.Mapper
	// perTypeLimit caps candidates per content type on each engine call.
	perTypeLimit int64
	logger       *slog.Logger
}

func NewSearchUsecase(compiler *query.Compiler, mapper *results.Mapper, perTypeLimit int64, logger *slog.Logger) *SearchUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUsecase{
		compiler:     compiler,
		mapper:       mapper,
		perTypeLimit: perTypeLimit,
		logger:       logger,
	}
}

// Execute runs one search. An empty text query is a valid match-all used for
// listing and filtering.
func (u *SearchUsecase) Execute(ctx context.Context, p SearchParams) (*SearchPage, error) {
	if p.Limit < 0 || p.Limit > maxPageLimit {
		return nil, &domain.ConfigError{Setting: "limit", Reason: "out of range"}
	}
	operator, err := domain.ParseOperator(string(p.Operator))
	if err != nil {
		return nil, err
	}

	outcome, err := u.compiler.Execute(ctx, query.Params{
		Text:           p.Text,
		ContentTypes:   p.ContentTypes,
		Filters:        p.Filters,
		Operator:       operator,
		FacetAttribute: p.FacetAttribute,
		Limit:          u.perTypeLimit,
		Autocomplete:   p.Autocomplete,
	})
	if err != nil {
		return nil, err
	}

	ranked, total, err := u.mapper.Materialize(ctx, outcome)
	if err != nil {
		return nil, err
	}

	page := &SearchPage{
		Results: results.Window(ranked, p.Offset, p.Limit),
		Total:   total,
		Partial: outcome.Partial,
	}
	if p.FacetAttribute != "" {
		page.Facets = domain.MergeFacets(outcome.Groups)
	}
	return page, nil
}

// Facet returns the merged facet table for an attribute across the active
// indexes of the given content types.
func (u *SearchUsecase) Facet(ctx context.Context, text string, contentTypes []string, attribute string) ([]domain.FacetCount, error) {
	if attribute == "" {
		return nil, &domain.ConfigError{Setting: "attribute", Reason: "facet attribute is required"}
	}

	outcome, err := u.compiler.Execute(ctx, query.Params{
		Text:           text,
		ContentTypes:   contentTypes,
		FacetAttribute: attribute,
		Limit:          1,
	})
	if err != nil {
		return nil, err
	}
	return domain.MergeFacets(outcome.Groups), nil
}
