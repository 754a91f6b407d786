// Package results reattaches engine hits to source records and produces the
// ordered, paginated result sequence.
package results

import (
	"context"
	"log/slog"
	"sort"

	"search-backend/domain"
	"search-backend/port"
)

// Mapper loads source records for engine hits and annotates them with their
// relevance score.
type Mapper struct {
	source port.RecordSource
	logger *slog.Logger
}

func NewMapper(source port.RecordSource, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{source: source, logger: logger}
}

// MergeHits flattens the per-type groups into one sequence ordered by
// descending score. Ties preserve the input order: group order first, then
// each type's internal engine rank order.
func MergeHits(groups []domain.HitGroup) []domain.SearchHit {
	var merged []domain.SearchHit
	for _, g := range groups {
		merged = append(merged, g.Hits...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}

// Materialize loads the records behind an outcome's hits, one batched lookup
// per content type, and returns them in merged rank order together with the
// total hit count. The total derives from the same execution as the list;
// it is never a second remote call.
func (m *Mapper) Materialize(ctx context.Context, outcome domain.QueryOutcome) ([]domain.RankedResult, int, error) {
	merged := MergeHits(outcome.Groups)
	total := outcome.TotalHits()

	records := make(map[string]map[string]domain.Record, len(outcome.Groups))
	for _, g := range outcome.Groups {
		if len(g.Hits) == 0 {
			continue
		}
		ids := make([]string, 0, len(g.Hits))
		for _, hit := range g.Hits {
			ids = append(ids, hit.DocumentID)
		}
		loaded, err := m.source.LoadByIDs(ctx, g.ContentType, ids)
		if err != nil {
			return nil, 0, err
		}
		byID := make(map[string]domain.Record, len(loaded))
		for _, rec := range loaded {
			byID[rec.PrimaryKey()] = rec
		}
		records[g.ContentType] = byID
	}

	ranked := make([]domain.RankedResult, 0, len(merged))
	for _, hit := range merged {
		rec, ok := records[hit.ContentType][hit.DocumentID]
		if !ok {
			// The index is eventually consistent with the source; a hit
			// whose record is gone is dropped from the page.
			m.logger.Debug("hit without source record", "content_type", hit.ContentType, "id", hit.DocumentID)
			continue
		}
		ranked = append(ranked, domain.RankedResult{
			ContentType: hit.ContentType,
			Record:      rec,
			SearchRank:  hit.Score,
		})
	}

	return ranked, total, nil
}

// Window slices a materialized result sequence for pagination.
func Window(results []domain.RankedResult, offset, limit int) []domain.RankedResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return nil
	}
	end := len(results)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return results[offset:end]
}
