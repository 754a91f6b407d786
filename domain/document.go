package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document is the engine representation of one record. Ephemeral: built per
// sync operation and discarded after transmission.
type Document struct {
	ID     string
	Fields map[string]any
}

// Payload returns the flat engine document including the primary key and the
// implicit content-type discriminator.
func (d Document) Payload() map[string]any {
	payload := make(map[string]any, len(d.Fields)+1)
	for name, value := range d.Fields {
		payload[name] = value
	}
	payload["id"] = d.ID
	return payload
}

// Serialize converts a record into its engine document. Missing and nil
// values are omitted rather than sent as null. Free-text values pass through
// verbatim; filter values are normalized for exact matching.
func Serialize(rec Record, schema *ContentTypeSchema) (Document, error) {
	id := rec.PrimaryKey()
	if id == "" {
		return Document{}, &SerializationError{
			ContentType: schema.Key,
			Reason:      "record has no primary key",
		}
	}

	doc := Document{
		ID:     id,
		Fields: map[string]any{ContentTypeAttr: schema.Key},
	}

	for _, f := range schema.Fields {
		value, ok := rec.FieldValue(f.Name)
		if !ok || value == nil {
			continue
		}
		if f.Kind == KindFilter {
			doc.Fields[MappedAttribute(f)] = normalizeFilterValue(value)
			continue
		}
		doc.Fields[MappedAttribute(f)] = prepareValue(value)
	}

	return doc, nil
}

// prepareValue flattens a field value into something the engine indexes.
// Strings pass through untouched; ranking is the engine's job.
func prepareValue(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(prepareValue(item)))
		}
		return strings.Join(parts, ", ")
	case time.Time:
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// normalizeFilterValue lowercases filter attributes so exact-match filtering
// is case-insensitive. Lists keep one normalized entry per element.
func normalizeFilterValue(value any) any {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, strings.ToLower(strings.TrimSpace(item)))
		}
		return out
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	}
}
