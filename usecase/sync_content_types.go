package usecase

import (
	"context"
	"log/slog"

	"search-backend/domain"
	"search-backend/index"
	"search-backend/port"
)

const defaultSyncBatchSize = 200

// TypeStatus is the outcome of one content type's sync.
type TypeStatus string

const (
	StatusIndexed TypeStatus = "indexed"
	StatusSkipped TypeStatus = "skipped"
	StatusFailed  TypeStatus = "failed"
)

// TypeResult summarizes one content type in a sync report.
type TypeResult struct {
	ContentType string     `json:"content_type"`
	Status      TypeStatus `json:"status"`
	Documents   int        `json:"documents"`
	Dropped     int        `json:"dropped,omitempty"`
	Failed      int        `json:"failed,omitempty"`
	Err         string     `json:"error,omitempty"`
}

// SyncReport aggregates per-type results of one sync pass. Failure of one
// content type never aborts its siblings.
type SyncReport struct {
	Results []TypeResult `json:"results"`
}

// Failed reports whether any content type failed.
func (r SyncReport) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return true
		}
	}
	return false
}

// SyncUsecase drives sync passes: full passes across all content types,
// single-type passes, and single-record increments from the event consumer.
type SyncUsecase struct {
	source    port.RecordSource
	strategy  *domain.StrategyEngine
	registry  *index.Registry
	schemas   *domain.SchemaRegistry
	batchSize int
	logger    *slog.Logger
}

func NewSyncUsecase(source port.RecordSource, strategy *domain.StrategyEngine, registry *index.Registry, schemas *domain.SchemaRegistry, batchSize int, logger *slog.Logger) *SyncUsecase {
	if batchSize <= 0 {
		batchSize = defaultSyncBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncUsecase{
		source:    source,
		strategy:  strategy,
		registry:  registry,
		schemas:   schemas,
		batchSize: batchSize,
		logger:    logger,
	}
}

// SyncAll runs one sync pass over every registered content type, isolating
// per-type failures into the report.
func (u *SyncUsecase) SyncAll(ctx context.Context) SyncReport {
	report := SyncReport{}
	for _, key := range u.schemas.Keys() {
		report.Results = append(report.Results, u.SyncType(ctx, key))
	}
	return report
}

// SyncType syncs one content type under the configured strategy. The hard
// strategy replaces the index with the full current record set in a single
// decision so exactly one delete-all precedes the adds; the other
// strategies decide and apply batch by batch.
func (u *SyncUsecase) SyncType(ctx context.Context, key string) TypeResult {
	result := TypeResult{ContentType: key, Status: StatusIndexed}

	if u.strategy.Skipped(key) {
		u.logger.Info("skipping content type", "content_type", key)
		result.Status = StatusSkipped
		return result
	}

	if u.strategy.Mode() == domain.StrategyHard {
		return u.syncTypeHard(ctx, key)
	}

	cursor := ""
	for {
		records, next, err := u.source.ListBatch(ctx, key, cursor, u.batchSize)
		if err != nil {
			return failResult(key, err)
		}
		if len(records) == 0 {
			break
		}

		decision, err := u.strategy.Decide(key, records)
		if err != nil {
			return failResult(key, err)
		}
		if err := u.registry.Apply(ctx, key, decision); err != nil {
			return failResult(key, err)
		}

		result.Documents += len(decision.Documents)
		result.Dropped += decision.Dropped
		result.Failed += len(decision.Failures)
		u.logFailures(key, decision.Failures)

		cursor = next
	}

	u.logger.Info("content type synced",
		"content_type", key,
		"strategy", string(u.strategy.Mode()),
		"documents", result.Documents,
		"dropped", result.Dropped,
	)
	return result
}

func (u *SyncUsecase) syncTypeHard(ctx context.Context, key string) TypeResult {
	var all []domain.Record
	cursor := ""
	for {
		records, next, err := u.source.ListBatch(ctx, key, cursor, u.batchSize)
		if err != nil {
			return failResult(key, err)
		}
		if len(records) == 0 {
			break
		}
		all = append(all, records...)
		cursor = next
	}

	decision, err := u.strategy.Decide(key, all)
	if err != nil {
		return failResult(key, err)
	}
	if err := u.registry.Apply(ctx, key, decision); err != nil {
		return failResult(key, err)
	}

	u.logFailures(key, decision.Failures)
	u.logger.Info("content type rebuilt", "content_type", key, "documents", len(decision.Documents))
	return TypeResult{
		ContentType: key,
		Status:      StatusIndexed,
		Documents:   len(decision.Documents),
		Failed:      len(decision.Failures),
	}
}

// SyncRecord pushes one record through the strategy engine, the incremental
// path used by the event consumer.
func (u *SyncUsecase) SyncRecord(ctx context.Context, key string, id string) error {
	if u.strategy.Skipped(key) {
		return nil
	}

	rec, err := u.source.LoadByID(ctx, key, id)
	if err != nil {
		return err
	}

	decision, err := u.strategy.Decide(key, []domain.Record{rec})
	if err != nil {
		return err
	}
	// A single-record pass must never wipe the index; hard mode degrades
	// to an upsert here.
	if decision.Kind == domain.DecisionReplaceAll {
		decision.Kind = domain.DecisionUpsert
	}
	if len(decision.Failures) > 0 {
		return decision.Failures[0].Err
	}
	return u.registry.Apply(ctx, key, decision)
}

// DeleteRecord removes one record's document from its index.
func (u *SyncUsecase) DeleteRecord(ctx context.Context, key string, id string) error {
	if u.strategy.Skipped(key) {
		return nil
	}
	return u.registry.DeleteDocument(ctx, key, id)
}

func (u *SyncUsecase) logFailures(key string, failures []domain.RecordFailure) {
	for _, f := range failures {
		u.logger.Warn("record not serialized", "content_type", key, "id", f.RecordID, "err", f.Err)
	}
}

func failResult(key string, err error) TypeResult {
	return TypeResult{ContentType: key, Status: StatusFailed, Err: err.Error()}
}
