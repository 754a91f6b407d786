package driver

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/meilisearch/meilisearch-go"
)

func TestIsNotFoundErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "engine code", err: errors.New("Meilisearch api error: index_not_found"), want: true},
		{name: "plain message", err: errors.New("Index not found"), want: true},
		{name: "http status", err: errors.New("status 404 not_found"), want: true},
		{name: "other error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFoundErr(tt.err); got != tt.want {
				t.Errorf("isNotFoundErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDriverError_Wrap(t *testing.T) {
	d := &MeilisearchDriver{}

	err := d.wrap("Search", errors.New("index_not_found"))
	var de *DriverError
	if !errors.As(err, &de) {
		t.Fatalf("wrap() = %T, want *DriverError", err)
	}
	if !de.NotFound {
		t.Error("NotFound = false for index_not_found")
	}
	if de.Op != "Search" {
		t.Errorf("Op = %q", de.Op)
	}
}

func TestBuildRequest(t *testing.T) {
	d := &MeilisearchDriver{}

	req := d.buildRequest(SearchQueryDriver{
		Index:          "article",
		Text:           "go",
		Filter:         `tags_filter = "go"`,
		FacetAttribute: "category_filter",
		Ranking:        []string{"title", "body"},
		Limit:          50,
	})

	if req.Limit != 50 {
		t.Errorf("Limit = %d", req.Limit)
	}
	if !req.ShowRankingScore {
		t.Error("ShowRankingScore must be set; hit scores feed search_rank")
	}
	if len(req.AttributesToRetrieve) != 1 || req.AttributesToRetrieve[0] != "id" {
		t.Errorf("AttributesToRetrieve = %v, want only id", req.AttributesToRetrieve)
	}
	if req.Filter != `tags_filter = "go"` {
		t.Errorf("Filter = %v", req.Filter)
	}
	if len(req.AttributesToSearchOn) != 2 {
		t.Errorf("AttributesToSearchOn = %v", req.AttributesToSearchOn)
	}
	if len(req.Facets) != 1 || req.Facets[0] != "category_filter" {
		t.Errorf("Facets = %v", req.Facets)
	}

	// Optional pieces left out when unset.
	bare := d.buildRequest(SearchQueryDriver{Index: "article", Limit: 10})
	if bare.Filter != nil {
		t.Errorf("bare Filter = %v, want nil", bare.Filter)
	}
	if bare.AttributesToSearchOn != nil || bare.Facets != nil {
		t.Error("bare request must not set search-on or facets")
	}
}

func TestConvertResponse(t *testing.T) {
	d := &MeilisearchDriver{}

	resp := &meilisearch.SearchResponse{
		Hits: meilisearch.Hits{
			{"id": json.RawMessage(`"a1"`), "_rankingScore": json.RawMessage(`0.87`)},
			{"id": json.RawMessage(`42`), "_rankingScore": json.RawMessage(`0.5`)},
			{"no_id": json.RawMessage(`true`)},
			{"id": json.RawMessage(`true`)},
		},
		FacetDistribution: json.RawMessage(`{"category_filter":{"engineering":3,"news":1}}`),
	}

	result := d.convertResponse("article", "category_filter", resp)

	if result.Index != "article" {
		t.Errorf("Index = %q", result.Index)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("Hits = %d, want malformed hits skipped", len(result.Hits))
	}
	if result.Hits[0].ID != "a1" || result.Hits[0].Score != 0.87 {
		t.Errorf("hit[0] = %+v", result.Hits[0])
	}
	if result.Hits[1].ID != "42" {
		t.Errorf("numeric id = %q, want stringified", result.Hits[1].ID)
	}
	if result.FacetCounts["engineering"] != 3 || result.FacetCounts["news"] != 1 {
		t.Errorf("FacetCounts = %v", result.FacetCounts)
	}
}

func TestConvertResponse_NoFacetRequested(t *testing.T) {
	d := &MeilisearchDriver{}

	resp := &meilisearch.SearchResponse{
		Hits:              meilisearch.Hits{{"id": json.RawMessage(`"a1"`)}},
		FacetDistribution: json.RawMessage(`{"category_filter":{"engineering":3}}`),
	}

	result := d.convertResponse("article", "", resp)
	if result.FacetCounts != nil {
		t.Errorf("FacetCounts = %v, want nil when no facet requested", result.FacetCounts)
	}
	if result.Hits[0].Score != 0 {
		t.Errorf("missing score = %f, want 0", result.Hits[0].Score)
	}
}

func TestFacetCounts_MalformedDistribution(t *testing.T) {
	if got := facetCounts(nil, "category_filter"); got != nil {
		t.Errorf("facetCounts(nil) = %v, want nil", got)
	}
	if got := facetCounts(json.RawMessage(`"oops"`), "category_filter"); got != nil {
		t.Errorf("facetCounts(non-object) = %v, want nil", got)
	}
	if got := facetCounts(json.RawMessage(`{"other":{"x":1}}`), "category_filter"); got != nil {
		t.Errorf("facetCounts(missing attribute) = %v, want nil", got)
	}
}

func TestTaskCompletionError(t *testing.T) {
	var failed meilisearch.Task
	raw := `{"status":"failed","error":{"message":"document has no id field"}}`
	if err := json.Unmarshal([]byte(raw), &failed); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}

	err := taskCompletionError("AddDocuments", &failed)
	var de *DriverError
	if !errors.As(err, &de) {
		t.Fatalf("taskCompletionError() = %T, want *DriverError", err)
	}
	if de.Op != "AddDocuments" {
		t.Errorf("Op = %q", de.Op)
	}
	if !strings.Contains(de.Err, "failed") || !strings.Contains(de.Err, "document has no id field") {
		t.Errorf("Err = %q, want task status and engine message", de.Err)
	}

	ok := &meilisearch.Task{Status: meilisearch.TaskStatusSucceeded}
	if err := taskCompletionError("AddDocuments", ok); err != nil {
		t.Errorf("succeeded task error = %v, want nil", err)
	}
}
