package driver

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"
)

// taskPollInterval is the polling interval while waiting on engine tasks.
const taskPollInterval = 500 * time.Millisecond

// NewMeilisearchClient builds the engine client.
func NewMeilisearchClient(host string, apiKey string) meilisearch.ServiceManager {
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}

// MeilisearchDriver talks to the engine. One driver serves every index; the
// index is named per call.
type MeilisearchDriver struct {
	client meilisearch.ServiceManager
}

func NewMeilisearchDriver(client meilisearch.ServiceManager) *MeilisearchDriver {
	return &MeilisearchDriver{client: client}
}

// Health probes the engine.
func (d *MeilisearchDriver) Health(ctx context.Context) error {
	if _, err := d.client.Health(); err != nil {
		return &DriverError{Op: "Health", Err: err.Error()}
	}
	return nil
}

// IndexExists probes whether an index exists. A missing index is not an
// error here; the caller caches the boolean.
func (d *MeilisearchDriver) IndexExists(ctx context.Context, index string) (bool, error) {
	_, err := d.client.Index(index).FetchInfo()
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, &DriverError{Op: "IndexExists", Err: err.Error()}
	}
	return true, nil
}

// CreateIndex creates an index with "id" as primary key and waits for the
// task to finish so a following settings push sees the index.
func (d *MeilisearchDriver) CreateIndex(ctx context.Context, index string) error {
	task, err := d.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        index,
		PrimaryKey: "id",
	})
	if err != nil {
		return &DriverError{Op: "CreateIndex", Err: err.Error()}
	}
	return d.awaitTask(ctx, "CreateIndex", task.TaskUID)
}

// ApplySettings pushes ranking order, filterable attributes, stop words,
// ranking rules and the pagination cap onto an index.
func (d *MeilisearchDriver) ApplySettings(ctx context.Context, index string, searchable, filterable, stopWords, rankingRules []string, maxTotalHits int64) error {
	settings := &meilisearch.Settings{
		SearchableAttributes: searchable,
		FilterableAttributes: filterable,
	}
	if len(stopWords) > 0 {
		settings.StopWords = stopWords
	}
	if len(rankingRules) > 0 {
		settings.RankingRules = rankingRules
	}
	if maxTotalHits > 0 {
		settings.Pagination = &meilisearch.Pagination{MaxTotalHits: maxTotalHits}
	}

	task, err := d.client.Index(index).UpdateSettings(settings)
	if err != nil {
		return &DriverError{Op: "ApplySettings", Err: err.Error()}
	}
	return d.awaitTask(ctx, "ApplySettings", task.TaskUID)
}

// UpsertDocuments add-or-updates a document batch.
func (d *MeilisearchDriver) UpsertDocuments(ctx context.Context, index string, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	task, err := d.client.Index(index).UpdateDocuments(docs, nil)
	if err != nil {
		return d.wrap("UpsertDocuments", err)
	}
	return d.awaitTask(ctx, "UpsertDocuments", task.TaskUID)
}

// AddDocuments adds a document batch, replacing documents with the same id.
func (d *MeilisearchDriver) AddDocuments(ctx context.Context, index string, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	task, err := d.client.Index(index).AddDocuments(docs, nil)
	if err != nil {
		return d.wrap("AddDocuments", err)
	}
	return d.awaitTask(ctx, "AddDocuments", task.TaskUID)
}

// DeleteAllDocuments clears an index without deleting the index itself, so
// its settings survive a hard rebuild.
func (d *MeilisearchDriver) DeleteAllDocuments(ctx context.Context, index string) error {
	task, err := d.client.Index(index).DeleteAllDocuments(nil)
	if err != nil {
		return d.wrap("DeleteAllDocuments", err)
	}
	return d.awaitTask(ctx, "DeleteAllDocuments", task.TaskUID)
}

// DeleteDocument removes one document by id.
func (d *MeilisearchDriver) DeleteDocument(ctx context.Context, index string, id string) error {
	task, err := d.client.Index(index).DeleteDocument(id, nil)
	if err != nil {
		return d.wrap("DeleteDocument", err)
	}
	return d.awaitTask(ctx, "DeleteDocument", task.TaskUID)
}

// Search issues one single-index request.
func (d *MeilisearchDriver) Search(ctx context.Context, q SearchQueryDriver) (SearchResultDriver, error) {
	resp, err := d.client.Index(q.Index).Search(q.Text, d.buildRequest(q))
	if err != nil {
		return SearchResultDriver{}, d.wrap("Search", err)
	}
	return d.convertResponse(q.Index, q.FacetAttribute, resp), nil
}

// MultiSearch issues a batched multi-index call, one remote round trip for
// all requests.
func (d *MeilisearchDriver) MultiSearch(ctx context.Context, qs []SearchQueryDriver) ([]SearchResultDriver, error) {
	queries := make([]*meilisearch.SearchRequest, 0, len(qs))
	facets := make(map[string]string, len(qs))
	for _, q := range qs {
		req := d.buildRequest(q)
		req.IndexUID = q.Index
		req.Query = q.Text
		queries = append(queries, req)
		facets[q.Index] = q.FacetAttribute
	}

	resp, err := d.client.MultiSearch(&meilisearch.MultiSearchRequest{Queries: queries})
	if err != nil {
		return nil, d.wrap("MultiSearch", err)
	}

	results := make([]SearchResultDriver, 0, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		results = append(results, d.convertResponse(r.IndexUID, facets[r.IndexUID], r))
	}
	return results, nil
}

// IndexStats returns the engine's document count for an index.
func (d *MeilisearchDriver) IndexStats(ctx context.Context, index string) (int64, error) {
	stats, err := d.client.Index(index).GetStats()
	if err != nil {
		return 0, d.wrap("IndexStats", err)
	}
	return stats.NumberOfDocuments, nil
}

func (d *MeilisearchDriver) buildRequest(q SearchQueryDriver) *meilisearch.SearchRequest {
	req := &meilisearch.SearchRequest{
		Limit:                q.Limit,
		AttributesToRetrieve: []string{"id"},
		ShowRankingScore:     true,
	}
	if q.Filter != "" {
		req.Filter = q.Filter
	}
	if len(q.Ranking) > 0 {
		req.AttributesToSearchOn = q.Ranking
	}
	if q.FacetAttribute != "" {
		req.Facets = []string{q.FacetAttribute}
	}
	return req
}

func (d *MeilisearchDriver) convertResponse(index, facetAttribute string, resp *meilisearch.SearchResponse) SearchResultDriver {
	result := SearchResultDriver{Index: index}

	for _, hit := range resp.Hits {
		id := hitString(hit, "id")
		if id == "" {
			continue
		}
		result.Hits = append(result.Hits, EngineHitDriver{
			ID:    id,
			Score: hitFloat(hit, "_rankingScore"),
		})
	}

	if facetAttribute != "" {
		result.FacetCounts = facetCounts(resp.FacetDistribution, facetAttribute)
	}
	return result
}

// awaitTask blocks until the engine finishes a task. A task that completes
// with a failed status is surfaced as an error, not swallowed as success.
func (d *MeilisearchDriver) awaitTask(ctx context.Context, op string, taskUID int64) error {
	task, err := d.client.WaitForTaskWithContext(ctx, taskUID, taskPollInterval)
	if err != nil {
		return &DriverError{Op: op, Err: "failed to wait for task: " + err.Error()}
	}
	return taskCompletionError(op, task)
}

func taskCompletionError(op string, task *meilisearch.Task) error {
	if task.Status != meilisearch.TaskStatusSucceeded {
		return &DriverError{Op: op, Err: "task " + string(task.Status) + ": " + task.Error.Message}
	}
	return nil
}

func (d *MeilisearchDriver) wrap(op string, err error) error {
	return &DriverError{Op: op, Err: err.Error(), NotFound: isNotFoundErr(err)}
}

func isNotFoundErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index_not_found") ||
		strings.Contains(msg, "index not found") ||
		strings.Contains(msg, "not_found")
}

// hitString reads one raw hit field as a string, printing numeric ids the
// way the engine would.
func hitString(hit meilisearch.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func hitFloat(hit meilisearch.Hit, key string) float64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}

func facetCounts(distribution json.RawMessage, attribute string) map[string]int {
	if len(distribution) == 0 {
		return nil
	}
	var dist map[string]map[string]int
	if err := json.Unmarshal(distribution, &dist); err != nil {
		return nil
	}
	return dist[attribute]
}
