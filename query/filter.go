package query

import (
	"fmt"
	"strings"

	"search-backend/domain"
)

// escapeFilterValue escapes characters with meaning in engine filter
// expressions.
func escapeFilterValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return value
}

// buildFilterExpression renders the filter pairs that are in the schema's
// filterable set into one engine filter expression. Unknown attributes are
// dropped silently: content types share a filter vocabulary only partially.
func buildFilterExpression(schema *domain.ContentTypeSchema, filters []domain.FilterPair, operator domain.Operator) string {
	if len(filters) == 0 {
		return ""
	}

	clauses := make([]string, 0, len(filters))
	for _, pair := range filters {
		attr, ok := schema.FilterAttribute(pair.Attribute)
		if !ok {
			continue
		}
		value := escapeFilterValue(strings.ToLower(strings.TrimSpace(pair.Value)))
		clauses = append(clauses, fmt.Sprintf("%s = \"%s\"", attr, value))
	}

	return strings.Join(clauses, " "+string(operator)+" ")
}
