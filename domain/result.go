package domain

import "sort"

// Operator joins multiple filter pairs in a query.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// ParseOperator defaults to AND.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OperatorAnd, OperatorOr:
		return Operator(s), nil
	case "":
		return OperatorAnd, nil
	default:
		return "", &ConfigError{Setting: "operator", Reason: "must be AND or OR"}
	}
}

// FilterPair is one (attribute, value) query filter.
type FilterPair struct {
	Attribute string
	Value     string
}

// SearchHit is one raw engine hit, already scoped to a content type.
type SearchHit struct {
	DocumentID  string
	ContentType string
	// Score is the engine's normalized ranking score in [0,1].
	Score float64
}

// HitGroup holds one content type's hits in engine rank order, plus the
// facet distribution the engine returned for that index.
type HitGroup struct {
	ContentType string
	Hits        []SearchHit
	// FacetCounts maps facet value to count for the requested facet
	// attribute; nil when no facet was requested.
	FacetCounts map[string]int
}

// QueryOutcome is the result of one query execution. The hit list, the
// total and the facet distributions all derive from this single execution;
// there is no separate counting call to race against.
type QueryOutcome struct {
	Groups []HitGroup
	// Partial is set when the query degraded by dropping an index that
	// could not serve it.
	Partial bool
}

// TotalHits is the sum of per-type hit counts from this execution.
func (o QueryOutcome) TotalHits() int {
	total := 0
	for _, g := range o.Groups {
		total += len(g.Hits)
	}
	return total
}

// FacetCount is one value of a merged facet table.
type FacetCount struct {
	Value string
	Count int
}

// MergeFacets sums facet counts for identical values across content types
// and orders the table by descending count, ties by value.
func MergeFacets(groups []HitGroup) []FacetCount {
	merged := make(map[string]int)
	for _, g := range groups {
		for value, count := range g.FacetCounts {
			merged[value] += count
		}
	}

	table := make([]FacetCount, 0, len(merged))
	for value, count := range merged {
		table = append(table, FacetCount{Value: value, Count: count})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Count != table[j].Count {
			return table[i].Count > table[j].Count
		}
		return table[i].Value < table[j].Value
	})
	return table
}

// RankedResult is a source record annotated with its engine relevance.
type RankedResult struct {
	ContentType string
	Record      Record
	// SearchRank is the engine score, always in [0,1].
	SearchRank float64
}
