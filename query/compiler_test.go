package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"search-backend/domain"
	"search-backend/index"
	"search-backend/port"
)

// fakeEngine records calls and serves canned per-index results.
type fakeEngine struct {
	existing      map[string]bool
	results       map[string]port.IndexSearchResult
	searchErr     map[string]error
	multiErr      error
	multiCalls    int
	searchCalls   []string
	searchQueries []port.SearchQuery
	lastQueries   []port.SearchQuery
}

func (f *fakeEngine) IndexExists(ctx context.Context, idx string) (bool, error) {
	return f.existing[idx], nil
}

func (f *fakeEngine) CreateIndex(ctx context.Context, idx string) error { return nil }

func (f *fakeEngine) ApplySettings(ctx context.Context, idx string, settings port.IndexSettings) error {
	return nil
}

func (f *fakeEngine) UpsertDocuments(ctx context.Context, idx string, docs []domain.Document) error {
	return nil
}

func (f *fakeEngine) AddDocuments(ctx context.Context, idx string, docs []domain.Document) error {
	return nil
}

func (f *fakeEngine) DeleteAllDocuments(ctx context.Context, idx string) error { return nil }

func (f *fakeEngine) DeleteDocument(ctx context.Context, idx string, id string) error { return nil }

func (f *fakeEngine) Search(ctx context.Context, q port.SearchQuery) (port.IndexSearchResult, error) {
	f.searchCalls = append(f.searchCalls, q.Index)
	f.searchQueries = append(f.searchQueries, q)
	if err := f.searchErr[q.Index]; err != nil {
		return port.IndexSearchResult{}, err
	}
	return f.results[q.Index], nil
}

func (f *fakeEngine) MultiSearch(ctx context.Context, queries []port.SearchQuery) ([]port.IndexSearchResult, error) {
	f.multiCalls++
	f.lastQueries = queries
	if f.multiErr != nil {
		return nil, f.multiErr
	}
	out := make([]port.IndexSearchResult, 0, len(queries))
	for _, q := range queries {
		out = append(out, f.results[q.Index])
	}
	return out, nil
}

func (f *fakeEngine) IndexStats(ctx context.Context, idx string) (port.IndexStats, error) {
	return port.IndexStats{}, nil
}

func newTestCompiler(t *testing.T, engine *fakeEngine, skip []string) *Compiler {
	t.Helper()
	schemas := domain.NewSchemaRegistry(domain.ArticleType{}, domain.PageType{})
	registry := index.NewRegistry(engine, schemas, index.Options{SkipTypes: skip, QueryLimit: 100})
	return NewCompiler(engine, registry, nil)
}

func TestCompiler_ExecuteBatchesMultipleIndexes(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true, "page": true},
		results: map[string]port.IndexSearchResult{
			"article": {Index: "article", Hits: []port.EngineHit{{ID: "a1", Score: 0.9}}},
			"page":    {Index: "page", Hits: []port.EngineHit{{ID: "p1", Score: 0.7}, {ID: "p2", Score: 0.5}}},
		},
	}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		Text:         "go",
		ContentTypes: []string{"article", "page"},
		Limit:        50,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if engine.multiCalls != 1 {
		t.Errorf("multiCalls = %d, want exactly one batched call", engine.multiCalls)
	}
	if len(engine.searchCalls) != 0 {
		t.Errorf("searchCalls = %v, want none", engine.searchCalls)
	}
	if len(outcome.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2", len(outcome.Groups))
	}
	if outcome.Partial {
		t.Error("Partial should be false on a clean execution")
	}
	if outcome.TotalHits() != 3 {
		t.Errorf("TotalHits() = %d, want 3", outcome.TotalHits())
	}
	if outcome.Groups[0].ContentType != "article" || outcome.Groups[1].ContentType != "page" {
		t.Errorf("group order = %s, %s", outcome.Groups[0].ContentType, outcome.Groups[1].ContentType)
	}
	for _, hit := range outcome.Groups[1].Hits {
		if hit.ContentType != "page" {
			t.Errorf("hit %s tagged %s, want page", hit.DocumentID, hit.ContentType)
		}
	}
}

func TestCompiler_ExecuteSingleIndex(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true},
		results: map[string]port.IndexSearchResult{
			"article": {Index: "article", Hits: []port.EngineHit{{ID: "a1", Score: 1}}},
		},
	}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		Text:         "go",
		ContentTypes: []string{"article"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if engine.multiCalls != 0 {
		t.Error("single active index must not use the batched call")
	}
	if len(engine.searchCalls) != 1 {
		t.Errorf("searchCalls = %v, want one", engine.searchCalls)
	}
	if len(outcome.Groups) != 1 || outcome.Groups[0].ContentType != "article" {
		t.Fatalf("unexpected groups %v", outcome.Groups)
	}
}

func TestCompiler_ExecuteSkipsAndMissing(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true},
		results: map[string]port.IndexSearchResult{
			"article": {Index: "article"},
		},
	}
	compiler := newTestCompiler(t, engine, []string{"page"})

	outcome, err := compiler.Execute(context.Background(), Params{
		ContentTypes: []string{"article", "page"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(outcome.Groups) != 1 {
		t.Fatalf("Groups = %d, want skipped type excluded", len(outcome.Groups))
	}
}

func TestCompiler_ExecuteNoActiveIndexes(t *testing.T) {
	engine := &fakeEngine{existing: map[string]bool{}}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		ContentTypes: []string{"article", "page"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(outcome.Groups) != 0 || outcome.Partial {
		t.Errorf("outcome = %+v, want empty", outcome)
	}
	if engine.multiCalls != 0 || len(engine.searchCalls) != 0 {
		t.Error("no engine calls expected when nothing is active")
	}
}

func TestCompiler_ExecuteDegradesOnMultiFailure(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true, "page": true},
		multiErr: &domain.EngineError{Op: "MultiSearch", Err: "index page not found", Kind: domain.EngineIndexNotFound},
		results: map[string]port.IndexSearchResult{
			"article": {Index: "article", Hits: []port.EngineHit{{ID: "a1", Score: 0.8}}},
		},
		searchErr: map[string]error{
			"page": &domain.EngineError{Op: "Search", Index: "page", Kind: domain.EngineIndexNotFound, Err: "index not found"},
		},
	}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		Text:         "go",
		ContentTypes: []string{"article", "page"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !outcome.Partial {
		t.Error("degraded execution must be marked partial")
	}
	if len(outcome.Groups) != 1 || outcome.Groups[0].ContentType != "article" {
		t.Fatalf("Groups = %+v, want only the surviving index", outcome.Groups)
	}
	if len(engine.searchCalls) != 2 {
		t.Errorf("searchCalls = %v, want one retry per index", engine.searchCalls)
	}
}

func TestCompiler_ExecuteSingleIndexNotFound(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true},
		searchErr: map[string]error{
			"article": &domain.EngineError{Op: "Search", Index: "article", Kind: domain.EngineIndexNotFound, Err: "index not found"},
		},
	}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		ContentTypes: []string{"article"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !outcome.Partial || len(outcome.Groups) != 0 {
		t.Errorf("outcome = %+v, want empty partial outcome", outcome)
	}
}

func TestCompiler_ExecuteSingleIndexOtherError(t *testing.T) {
	wantErr := &domain.EngineError{Op: "Search", Index: "article", Err: "timeout"}
	engine := &fakeEngine{
		existing:  map[string]bool{"article": true},
		searchErr: map[string]error{"article": wantErr},
	}
	compiler := newTestCompiler(t, engine, nil)

	_, err := compiler.Execute(context.Background(), Params{ContentTypes: []string{"article"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestCompiler_CompileOneRanking(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"page": true},
		results:  map[string]port.IndexSearchResult{"page": {Index: "page"}},
	}
	compiler := newTestCompiler(t, engine, nil)

	// Full-text request searches the whole ranking order.
	_, err := compiler.Execute(context.Background(), Params{
		Text:         "go",
		ContentTypes: []string{"page"},
		Filters:      []domain.FilterPair{{Attribute: "category", Value: "Docs"}},
		Limit:        25,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(engine.searchQueries) != 1 {
		t.Fatalf("searchQueries = %d, want 1", len(engine.searchQueries))
	}
	q := engine.searchQueries[0]
	if !reflect.DeepEqual(q.Ranking, []string{"title", "body", "title_autocomplete"}) {
		t.Errorf("Ranking = %v, want boost order", q.Ranking)
	}
	if q.Filter != `category_filter = "docs"` {
		t.Errorf("Filter = %q", q.Filter)
	}
	if q.Limit != 25 {
		t.Errorf("Limit = %d, want 25", q.Limit)
	}

	// Autocomplete request restricts to the autocomplete attributes.
	engine2 := &fakeEngine{
		existing: map[string]bool{"page": true},
		results:  map[string]port.IndexSearchResult{"page": {Index: "page"}},
	}
	compiler2 := newTestCompiler(t, engine2, nil)
	_, err = compiler2.Execute(context.Background(), Params{
		Text:         "g",
		ContentTypes: []string{"page"},
		Autocomplete: true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := engine2.searchQueries[0].Ranking; !reflect.DeepEqual(got, []string{"title_autocomplete"}) {
		t.Errorf("autocomplete Ranking = %v, want [title_autocomplete]", got)
	}
}

func TestCompiler_FacetAttributeMappedPerSchema(t *testing.T) {
	engine := &fakeEngine{
		existing: map[string]bool{"article": true, "page": true},
		results: map[string]port.IndexSearchResult{
			"article": {Index: "article", FacetCounts: map[string]int{"go": 2}},
			"page":    {Index: "page", FacetCounts: map[string]int{"go": 1}},
		},
	}
	compiler := newTestCompiler(t, engine, nil)

	outcome, err := compiler.Execute(context.Background(), Params{
		ContentTypes:   []string{"article", "page"},
		FacetAttribute: "category",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, q := range engine.lastQueries {
		if q.FacetAttribute != "category_filter" {
			t.Errorf("index %s FacetAttribute = %q, want category_filter", q.Index, q.FacetAttribute)
		}
	}
	merged := domain.MergeFacets(outcome.Groups)
	if len(merged) != 1 || merged[0].Count != 3 {
		t.Errorf("merged facets = %v, want go:3", merged)
	}
}
