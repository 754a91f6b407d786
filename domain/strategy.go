package domain

import (
	"time"
)

// UpdateStrategy selects how a sync pass pushes records into an index.
type UpdateStrategy string

const (
	// StrategySoft upserts every record in the batch; stale fields of
	// previously indexed documents survive.
	StrategySoft UpdateStrategy = "soft"
	// StrategyHard clears the index and rebuilds it from the full current
	// record set.
	StrategyHard UpdateStrategy = "hard"
	// StrategyDelta upserts only records touched inside the configured
	// time window.
	StrategyDelta UpdateStrategy = "delta"
)

// ParseUpdateStrategy validates a configured strategy name.
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	switch UpdateStrategy(s) {
	case StrategySoft, StrategyHard, StrategyDelta:
		return UpdateStrategy(s), nil
	case "":
		return StrategySoft, nil
	default:
		return "", &ConfigError{Setting: "UPDATE_STRATEGY", Reason: "unknown strategy " + s}
	}
}

// CalendarDelta is a calendar offset applied to "now" for the delta
// strategy's time window. A usable delta shifts now into the past.
type CalendarDelta struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// DefaultUpdateDelta is one week back.
var DefaultUpdateDelta = CalendarDelta{Weeks: -1}

// IsZero reports whether no offset is configured.
func (d CalendarDelta) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Weeks == 0 && d.Days == 0
}

// Shift applies the offset to t.
func (d CalendarDelta) Shift(t time.Time) time.Time {
	return t.AddDate(d.Years, d.Months, d.Weeks*7+d.Days)
}

// Negative reports whether the offset moves a reference time strictly into
// the past.
func (d CalendarDelta) Negative() bool {
	ref := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	return d.Shift(ref).Before(ref)
}

// The timestamp attributes the delta window inspects, in the order they
// are checked.
var deltaAttributes = []string{
	"first_published_at",
	"last_published_at",
	"created_at",
	"updated_at",
}

// DecisionKind tags an UpdateDecision.
type DecisionKind int

const (
	DecisionSkip DecisionKind = iota
	DecisionUpsert
	DecisionReplaceAll
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionUpsert:
		return "upsert"
	case DecisionReplaceAll:
		return "replace-all"
	default:
		return "skip"
	}
}

// RecordFailure records one record that could not be serialized. The batch
// continues without it.
type RecordFailure struct {
	RecordID string
	Err      error
}

// UpdateDecision is what a sync pass should do for one (content type, batch)
// pair. Consumed exactly once by the index registry.
type UpdateDecision struct {
	Kind      DecisionKind
	Documents []Document
	// Dropped counts records excluded by the delta window.
	Dropped int
	// Failures holds per-record serialization errors.
	Failures []RecordFailure
}

// StrategyEngineOption configures a StrategyEngine.
type StrategyEngineOption func(*StrategyEngine)

// WithClock overrides the engine's notion of now, for tests.
func WithClock(now func() time.Time) StrategyEngineOption {
	return func(e *StrategyEngine) { e.now = now }
}

// StrategyEngine decides, per content type and batch, which documents get
// pushed to the index and how.
type StrategyEngine struct {
	mode    UpdateStrategy
	delta   CalendarDelta
	skip    map[string]struct{}
	schemas *SchemaRegistry
	now     func() time.Time
}

// NewStrategyEngine validates the configured mode and delta. A delta
// strategy with a non-negative offset would skip nothing or skip future
// records, so it fails with ConfigError at construction.
func NewStrategyEngine(mode UpdateStrategy, delta CalendarDelta, skipTypes []string, schemas *SchemaRegistry, opts ...StrategyEngineOption) (*StrategyEngine, error) {
	if mode == StrategyDelta {
		if delta.IsZero() {
			delta = DefaultUpdateDelta
		}
		if !delta.Negative() {
			return nil, &ConfigError{Setting: "UPDATE_DELTA", Reason: "delta must be a negative offset"}
		}
	}

	skip := make(map[string]struct{}, len(skipTypes))
	for _, key := range skipTypes {
		skip[key] = struct{}{}
	}

	e := &StrategyEngine{
		mode:    mode,
		delta:   delta,
		skip:    skip,
		schemas: schemas,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Mode returns the configured update strategy.
func (e *StrategyEngine) Mode() UpdateStrategy {
	return e.mode
}

// Skipped reports whether a content type is on the skip list. Skipped types
// are never synced and never queried.
func (e *StrategyEngine) Skipped(key string) bool {
	_, ok := e.skip[key]
	return ok
}

// SkippedTypes returns the configured skip list.
func (e *StrategyEngine) SkippedTypes() []string {
	keys := make([]string, 0, len(e.skip))
	for key := range e.skip {
		keys = append(keys, key)
	}
	return keys
}

// Decide produces the update decision for one batch of records of a content
// type. Serialization failures are collected per record and do not abort
// the batch.
func (e *StrategyEngine) Decide(key string, records []Record) (UpdateDecision, error) {
	if e.Skipped(key) {
		return UpdateDecision{Kind: DecisionSkip}, nil
	}

	schema, err := e.schemas.SchemaFor(key)
	if err != nil {
		return UpdateDecision{}, err
	}

	dropped := 0
	if e.mode == StrategyDelta {
		records, dropped = e.filterDelta(records)
	}

	decision := UpdateDecision{
		Kind:    DecisionUpsert,
		Dropped: dropped,
	}
	if e.mode == StrategyHard {
		decision.Kind = DecisionReplaceAll
	}

	for _, rec := range records {
		doc, err := Serialize(rec, schema)
		if err != nil {
			decision.Failures = append(decision.Failures, RecordFailure{
				RecordID: rec.PrimaryKey(),
				Err:      err,
			})
			continue
		}
		decision.Documents = append(decision.Documents, doc)
	}

	if e.mode == StrategyDelta && len(decision.Documents) == 0 && len(decision.Failures) == 0 {
		// The whole batch fell outside the window.
		return UpdateDecision{Kind: DecisionSkip, Dropped: dropped}, nil
	}

	return decision, nil
}

// filterDelta keeps records with at least one timestamp attribute inside the
// window; the rest are dropped from the batch, neither upserted nor deleted.
func (e *StrategyEngine) filterDelta(records []Record) ([]Record, int) {
	since := e.delta.Shift(e.now())

	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if recordTouchedSince(rec, since) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

func recordTouchedSince(rec Record, since time.Time) bool {
	for _, attr := range deltaAttributes {
		value, ok := rec.FieldValue(attr)
		if !ok || value == nil {
			continue
		}
		var ts time.Time
		switch v := value.(type) {
		case time.Time:
			ts = v
		case *time.Time:
			if v == nil {
				continue
			}
			ts = *v
		default:
			continue
		}
		if !ts.Before(since) {
			return true
		}
	}
	return false
}
