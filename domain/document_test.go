package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// stubRecord exposes a fixed primary key and field map.
type stubRecord struct {
	pk     string
	fields map[string]any
}

func (r stubRecord) PrimaryKey() string { return r.pk }

func (r stubRecord) FieldValue(name string) (any, bool) {
	value, ok := r.fields[name]
	return value, ok
}

func articleSchema(t *testing.T) *ContentTypeSchema {
	t.Helper()
	schema, err := buildSchema(ArticleType{})
	if err != nil {
		t.Fatalf("buildSchema() error = %v", err)
	}
	return schema
}

func TestSerialize(t *testing.T) {
	schema := articleSchema(t)

	rec := stubRecord{pk: "42", fields: map[string]any{
		"title":    "Go Concurrency Patterns",
		"tags":     []string{"Go", " Concurrency "},
		"category": "Engineering",
	}}

	doc, err := Serialize(rec, schema)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	if doc.ID != "42" {
		t.Errorf("doc.ID = %q, want 42", doc.ID)
	}
	if got := doc.Fields[ContentTypeAttr]; got != "article" {
		t.Errorf("content type discriminator = %v, want article", got)
	}
	if got := doc.Fields["title"]; got != "Go Concurrency Patterns" {
		t.Errorf("title = %v, want verbatim text", got)
	}
	if got := doc.Fields["title_autocomplete"]; got != "Go Concurrency Patterns" {
		t.Errorf("title_autocomplete = %v, want verbatim text", got)
	}
	wantTags := []string{"go", "concurrency"}
	if got := doc.Fields["tags_filter"]; !reflect.DeepEqual(got, wantTags) {
		t.Errorf("tags_filter = %v, want %v", got, wantTags)
	}
	if got := doc.Fields["category_filter"]; got != "engineering" {
		t.Errorf("category_filter = %v, want engineering", got)
	}
}

func TestSerialize_OmitsMissingValues(t *testing.T) {
	schema := articleSchema(t)

	rec := stubRecord{pk: "7", fields: map[string]any{
		"title": "Untagged",
	}}

	doc, err := Serialize(rec, schema)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, ok := doc.Fields["tags_filter"]; ok {
		t.Error("missing tags should be omitted, not sent as null")
	}
	if _, ok := doc.Fields["category_filter"]; ok {
		t.Error("missing category should be omitted, not sent as null")
	}
}

func TestSerialize_EmptyPrimaryKey(t *testing.T) {
	schema := articleSchema(t)

	_, err := Serialize(stubRecord{pk: ""}, schema)
	if err == nil {
		t.Fatal("Serialize() expected error for empty primary key")
	}
	var serErr *SerializationError
	if !errors.As(err, &serErr) {
		t.Fatalf("Serialize() error = %T, want *SerializationError", err)
	}
}

func TestDocument_Payload(t *testing.T) {
	doc := Document{ID: "9", Fields: map[string]any{"title": "Nine"}}

	payload := doc.Payload()
	if payload["id"] != "9" {
		t.Errorf("payload id = %v, want 9", payload["id"])
	}
	if payload["title"] != "Nine" {
		t.Errorf("payload title = %v, want Nine", payload["title"])
	}
	// Mutating the payload must not leak back into the document.
	payload["title"] = "changed"
	if doc.Fields["title"] != "Nine" {
		t.Error("Payload() must copy the field map")
	}
}

func TestPrepareValue(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{name: "string verbatim", value: "Hello World", want: "Hello World"},
		{name: "string slice joined", value: []string{"a", "b"}, want: "a, b"},
		{name: "any slice joined", value: []any{"a", 1}, want: "a, 1"},
		{name: "time formatted", value: ts, want: "2026-03-01T12:00:00Z"},
		{name: "int printed", value: 3, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prepareValue(tt.value); got != tt.want {
				t.Errorf("prepareValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
