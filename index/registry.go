// Package index owns the mapping from content types to remote engine
// indexes: lazy creation, cached existence probes, skip-list handling and
// the application of update decisions.
package index

import (
	"context"
	"log/slog"
	"sync"

	"search-backend/domain"
	"search-backend/port"
)

// documentBatchSize bounds one add/update call to respect the engine's
// request-size limits.
const documentBatchSize = 100

// Handle is one content type's live index.
type Handle struct {
	ContentType string
	Name        string
	Schema      *domain.ContentTypeSchema
}

// Options parametrize a Registry.
type Options struct {
	// SkipTypes are content types excluded from sync and query.
	SkipTypes []string
	StopWords []string
	// RankingRules overrides the engine defaults when non-empty.
	RankingRules []string
	// QueryLimit caps maxTotalHits on each index.
	QueryLimit int64
	Logger     *slog.Logger
}

// Registry maps content types to engine indexes. The existence of each index
// is probed at most once per process lifetime; the cache is mutex-guarded so
// callers may parallelize sync passes across content types.
type Registry struct {
	engine  port.SearchEngine
	schemas *domain.SchemaRegistry
	opts    Options
	logger  *slog.Logger

	mu     sync.Mutex
	exists map[string]bool
}

func NewRegistry(engine port.SearchEngine, schemas *domain.SchemaRegistry, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engine:  engine,
		schemas: schemas,
		opts:    opts,
		logger:  logger,
		exists:  make(map[string]bool),
	}
}

// IndexName returns the engine index name for a content type.
func (r *Registry) IndexName(typeKey string) string {
	return typeKey
}

// Skipped reports whether a content type is on the skip list.
func (r *Registry) Skipped(typeKey string) bool {
	for _, key := range r.opts.SkipTypes {
		if key == typeKey {
			return true
		}
	}
	return false
}

// GetOrCreate resolves the index handle for a content type, creating the
// remote index and pushing its schema-derived settings on first miss.
func (r *Registry) GetOrCreate(ctx context.Context, typeKey string) (Handle, error) {
	schema, err := r.schemas.SchemaFor(typeKey)
	if err != nil {
		return Handle{}, err
	}
	name := r.IndexName(typeKey)

	exists, err := r.checkExists(ctx, name)
	if err != nil {
		return Handle{}, err
	}

	if !exists {
		if err := r.createIndex(ctx, name, schema); err != nil {
			return Handle{}, err
		}
	}

	return Handle{ContentType: typeKey, Name: name, Schema: schema}, nil
}

func (r *Registry) createIndex(ctx context.Context, name string, schema *domain.ContentTypeSchema) error {
	if err := r.engine.CreateIndex(ctx, name); err != nil {
		return err
	}
	settings := port.IndexSettings{
		RankingOrder: schema.RankingOrder(),
		Filterable:   schema.FilterableAttributes(),
		StopWords:    r.opts.StopWords,
		RankingRules: r.opts.RankingRules,
		MaxTotalHits: r.opts.QueryLimit,
	}
	if err := r.engine.ApplySettings(ctx, name, settings); err != nil {
		return err
	}

	r.mu.Lock()
	r.exists[name] = true
	r.mu.Unlock()

	r.logger.Info("index created", "index", name)
	return nil
}

// checkExists probes the engine at most once per index and caches the
// answer. A negative answer is cached too; creation updates the cache.
func (r *Registry) checkExists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	if exists, ok := r.exists[name]; ok {
		r.mu.Unlock()
		return exists, nil
	}
	r.mu.Unlock()

	exists, err := r.engine.IndexExists(ctx, name)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	r.exists[name] = exists
	r.mu.Unlock()
	return exists, nil
}

// Forget drops the cached existence for a content type, forcing the next
// reference to re-probe. Used after the engine reports the index missing.
func (r *Registry) Forget(typeKey string) {
	r.mu.Lock()
	delete(r.exists, r.IndexName(typeKey))
	r.mu.Unlock()
}

// ActiveIndexes returns the handles of the requested content types whose
// index is confirmed to exist and which are not skip-listed. A batched
// multi-index query must never reference a nonexistent index, or the whole
// call fails; probe errors therefore exclude the type rather than fail the
// query.
func (r *Registry) ActiveIndexes(ctx context.Context, typeKeys []string) []Handle {
	handles := make([]Handle, 0, len(typeKeys))
	for _, key := range typeKeys {
		if r.Skipped(key) {
			continue
		}
		schema, err := r.schemas.SchemaFor(key)
		if err != nil {
			r.logger.Warn("skipping content type with bad schema", "content_type", key, "err", err)
			continue
		}
		name := r.IndexName(key)
		exists, err := r.checkExists(ctx, name)
		if err != nil {
			r.logger.Warn("existence probe failed, excluding index from query", "index", name, "err", err)
			continue
		}
		if !exists {
			continue
		}
		handles = append(handles, Handle{ContentType: key, Name: name, Schema: schema})
	}
	return handles
}

// Apply executes one update decision against a content type's index. Skip
// decisions make no remote call at all. ReplaceAll issues delete-all then
// add as two sequential calls; a crash between them leaves the index empty
// until retried, the documented risk of the hard strategy.
func (r *Registry) Apply(ctx context.Context, typeKey string, decision domain.UpdateDecision) error {
	if decision.Kind == domain.DecisionSkip {
		return nil
	}

	handle, err := r.GetOrCreate(ctx, typeKey)
	if err != nil {
		return err
	}

	switch decision.Kind {
	case domain.DecisionUpsert:
		return r.pushBatches(ctx, handle.Name, decision.Documents, r.engine.UpsertDocuments)
	case domain.DecisionReplaceAll:
		if err := r.engine.DeleteAllDocuments(ctx, handle.Name); err != nil {
			return err
		}
		return r.pushBatches(ctx, handle.Name, decision.Documents, r.engine.AddDocuments)
	default:
		return nil
	}
}

// DeleteDocument removes one document. No-op for skipped types.
func (r *Registry) DeleteDocument(ctx context.Context, typeKey string, id string) error {
	if r.Skipped(typeKey) {
		return nil
	}
	handle, err := r.GetOrCreate(ctx, typeKey)
	if err != nil {
		return err
	}
	return r.engine.DeleteDocument(ctx, handle.Name, id)
}

// Status reports existence and document counts for the given content types.
func (r *Registry) Status(ctx context.Context, typeKeys []string) []IndexStatus {
	statuses := make([]IndexStatus, 0, len(typeKeys))
	for _, key := range typeKeys {
		status := IndexStatus{ContentType: key, Index: r.IndexName(key), Skipped: r.Skipped(key)}
		if !status.Skipped {
			exists, err := r.checkExists(ctx, status.Index)
			if err != nil {
				status.Err = err.Error()
			} else if exists {
				status.Exists = true
				stats, err := r.engine.IndexStats(ctx, status.Index)
				if err != nil {
					status.Err = err.Error()
				} else {
					status.Documents = stats.Documents
				}
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// IndexStatus is one row of a status report.
type IndexStatus struct {
	ContentType string `json:"content_type"`
	Index       string `json:"index"`
	Exists      bool   `json:"exists"`
	Skipped     bool   `json:"skipped"`
	Documents   int64  `json:"documents"`
	Err         string `json:"error,omitempty"`
}

func (r *Registry) pushBatches(ctx context.Context, name string, docs []domain.Document, push func(context.Context, string, []domain.Document) error) error {
	for start := 0; start < len(docs); start += documentBatchSize {
		end := start + documentBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := push(ctx, name, docs[start:end]); err != nil {
			return err
		}
	}
	return nil
}
