package gateway

import (
	"context"
	"testing"

	"search-backend/domain"
	"search-backend/driver"
	"search-backend/port"
)

// fakeSearchDriver serves canned responses and records payloads.
type fakeSearchDriver struct {
	err        error
	upserted   [][]map[string]any
	added      [][]map[string]any
	lastQuery  driver.SearchQueryDriver
	lastMulti  []driver.SearchQueryDriver
	result     driver.SearchResultDriver
	statsCount int64
}

func (f *fakeSearchDriver) IndexExists(ctx context.Context, index string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func (f *fakeSearchDriver) CreateIndex(ctx context.Context, index string) error { return f.err }

func (f *fakeSearchDriver) ApplySettings(ctx context.Context, index string, searchable, filterable, stopWords, rankingRules []string, maxTotalHits int64) error {
	return f.err
}

func (f *fakeSearchDriver) UpsertDocuments(ctx context.Context, index string, docs []map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, docs)
	return nil
}

func (f *fakeSearchDriver) AddDocuments(ctx context.Context, index string, docs []map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, docs)
	return nil
}

func (f *fakeSearchDriver) DeleteAllDocuments(ctx context.Context, index string) error { return f.err }

func (f *fakeSearchDriver) DeleteDocument(ctx context.Context, index string, id string) error {
	return f.err
}

func (f *fakeSearchDriver) Search(ctx context.Context, q driver.SearchQueryDriver) (driver.SearchResultDriver, error) {
	f.lastQuery = q
	if f.err != nil {
		return driver.SearchResultDriver{}, f.err
	}
	return f.result, nil
}

func (f *fakeSearchDriver) MultiSearch(ctx context.Context, qs []driver.SearchQueryDriver) ([]driver.SearchResultDriver, error) {
	f.lastMulti = qs
	if f.err != nil {
		return nil, f.err
	}
	return []driver.SearchResultDriver{f.result}, nil
}

func (f *fakeSearchDriver) IndexStats(ctx context.Context, index string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.statsCount, nil
}

func TestSearchEngineGateway_NotFoundClassification(t *testing.T) {
	fake := &fakeSearchDriver{err: &driver.DriverError{Op: "Search", Err: "index not found", NotFound: true}}
	gw := NewSearchEngineGateway(fake)

	_, err := gw.Search(context.Background(), port.SearchQuery{Index: "article"})
	if err == nil {
		t.Fatal("Search() expected error")
	}
	if !domain.IsIndexNotFound(err) {
		t.Errorf("IsIndexNotFound() = false for %v", err)
	}
}

func TestSearchEngineGateway_OtherErrorClassification(t *testing.T) {
	fake := &fakeSearchDriver{err: &driver.DriverError{Op: "Search", Err: "timeout"}}
	gw := NewSearchEngineGateway(fake)

	_, err := gw.Search(context.Background(), port.SearchQuery{Index: "article"})
	if err == nil {
		t.Fatal("Search() expected error")
	}
	if domain.IsIndexNotFound(err) {
		t.Error("plain failure classified as missing index")
	}
}

func TestSearchEngineGateway_UpsertPayloads(t *testing.T) {
	fake := &fakeSearchDriver{}
	gw := NewSearchEngineGateway(fake)

	docs := []domain.Document{
		{ID: "1", Fields: map[string]any{"title": "One"}},
		{ID: "2", Fields: map[string]any{"title": "Two"}},
	}
	if err := gw.UpsertDocuments(context.Background(), "article", docs); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	if len(fake.upserted) != 1 || len(fake.upserted[0]) != 2 {
		t.Fatalf("upserted = %+v", fake.upserted)
	}
	payload := fake.upserted[0][0]
	if payload["id"] != "1" || payload["title"] != "One" {
		t.Errorf("payload = %v", payload)
	}

	// Empty slices never reach the driver.
	if err := gw.UpsertDocuments(context.Background(), "article", nil); err != nil {
		t.Fatalf("UpsertDocuments(nil) error = %v", err)
	}
	if len(fake.upserted) != 1 {
		t.Error("empty upsert reached the driver")
	}
}

func TestSearchEngineGateway_SearchConversion(t *testing.T) {
	fake := &fakeSearchDriver{result: driver.SearchResultDriver{
		Index:       "article",
		Hits:        []driver.EngineHitDriver{{ID: "a1", Score: 0.75}},
		FacetCounts: map[string]int{"go": 2},
	}}
	gw := NewSearchEngineGateway(fake)

	result, err := gw.Search(context.Background(), port.SearchQuery{
		Index:   "article",
		Text:    "go",
		Ranking: []string{"title"},
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if fake.lastQuery.Index != "article" || fake.lastQuery.Limit != 10 {
		t.Errorf("driver query = %+v", fake.lastQuery)
	}
	if len(result.Hits) != 1 || result.Hits[0].ID != "a1" || result.Hits[0].Score != 0.75 {
		t.Errorf("result hits = %+v", result.Hits)
	}
	if result.FacetCounts["go"] != 2 {
		t.Errorf("facets = %v", result.FacetCounts)
	}
}

func TestSearchEngineGateway_IndexStats(t *testing.T) {
	fake := &fakeSearchDriver{statsCount: 7}
	gw := NewSearchEngineGateway(fake)

	stats, err := gw.IndexStats(context.Background(), "article")
	if err != nil {
		t.Fatalf("IndexStats() error = %v", err)
	}
	if stats.Documents != 7 {
		t.Errorf("Documents = %d, want 7", stats.Documents)
	}
}
