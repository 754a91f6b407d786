package domain

import (
	"sort"
	"sync"
)

// Reserved engine attribute names a declaration may not use.
var reservedAttributes = map[string]struct{}{
	"id":               {},
	"content_type":     {},
	ContentTypeAttr:    {},
	"_rankingScore":    {},
	"_matchesPosition": {},
}

// RankedAttribute is one entry of a content type's ranking order.
type RankedAttribute struct {
	Name  string
	Boost float64
	Kind  FieldKind
}

// ContentTypeSchema is the document schema derived from a content type's
// declared search fields. Built once per content type per process lifetime
// and read-only to every consumer afterwards.
type ContentTypeSchema struct {
	Key        string
	Fields     []FieldSpec
	Ranking    []RankedAttribute
	Filterable map[string]struct{}
}

// RankingOrder returns the engine attribute names of all text and
// autocomplete fields, ordered descending by boost.
func (s *ContentTypeSchema) RankingOrder() []string {
	names := make([]string, 0, len(s.Ranking))
	for _, r := range s.Ranking {
		names = append(names, r.Name)
	}
	return names
}

// AutocompleteOrder returns the ranking order restricted to autocomplete
// attributes.
func (s *ContentTypeSchema) AutocompleteOrder() []string {
	var names []string
	for _, r := range s.Ranking {
		if r.Kind == KindAutocomplete {
			names = append(names, r.Name)
		}
	}
	return names
}

// FilterableAttributes returns the filterable attribute names sorted for
// stable engine settings payloads. The implicit content-type discriminator
// is always present.
func (s *ContentTypeSchema) FilterableAttributes() []string {
	names := make([]string, 0, len(s.Filterable))
	for name := range s.Filterable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterAttribute maps a caller-facing attribute name to its engine filter
// attribute. The second return is false when the attribute is not in the
// content type's filterable set.
func (s *ContentTypeSchema) FilterAttribute(name string) (string, bool) {
	mapped := name + FilterSuffix
	if _, ok := s.Filterable[mapped]; ok {
		return mapped, true
	}
	return "", false
}

func buildSchema(p SchemaProvider) (*ContentTypeSchema, error) {
	key := p.Key()
	fields := p.SearchFields()

	schema := &ContentTypeSchema{
		Key:        key,
		Fields:     fields,
		Filterable: map[string]struct{}{ContentTypeAttr: {}},
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, &SchemaError{ContentType: key, Reason: "field with empty name"}
		}
		mapped := MappedAttribute(f)
		if _, reserved := reservedAttributes[f.Name]; reserved {
			return nil, &SchemaError{ContentType: key, Field: f.Name, Reason: "collides with reserved attribute"}
		}
		if _, reserved := reservedAttributes[mapped]; reserved {
			return nil, &SchemaError{ContentType: key, Field: f.Name, Reason: "mapped attribute collides with reserved attribute"}
		}
		if f.Boost < 0 {
			return nil, &SchemaError{ContentType: key, Field: f.Name, Reason: "negative boost"}
		}

		switch f.Kind {
		case KindFilter:
			schema.Filterable[mapped] = struct{}{}
		default:
			schema.Ranking = append(schema.Ranking, RankedAttribute{
				Name:  mapped,
				Boost: f.Boost,
				Kind:  f.Kind,
			})
		}
	}

	if len(schema.Ranking) == 0 {
		return nil, &SchemaError{ContentType: key, Reason: "no searchable fields declared"}
	}

	// Descending by boost, declaration order breaks ties.
	sort.SliceStable(schema.Ranking, func(i, j int) bool {
		return schema.Ranking[i].Boost > schema.Ranking[j].Boost
	})

	return schema, nil
}

// SchemaRegistry memoizes one schema per registered content type. It is the
// process-wide replacement for ad-hoc module-level caches and is safe for
// concurrent use.
type SchemaRegistry struct {
	mu        sync.RWMutex
	providers map[string]SchemaProvider
	schemas   map[string]*ContentTypeSchema
	order     []string
}

func NewSchemaRegistry(providers ...SchemaProvider) *SchemaRegistry {
	r := &SchemaRegistry{
		providers: make(map[string]SchemaProvider),
		schemas:   make(map[string]*ContentTypeSchema),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a content-type declaration. Re-registering a key replaces
// the declaration and drops its memoized schema.
func (r *SchemaRegistry) Register(p SchemaProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := p.Key()
	if _, exists := r.providers[key]; !exists {
		r.order = append(r.order, key)
	}
	r.providers[key] = p
	delete(r.schemas, key)
}

// Keys returns the registered content-type keys in registration order.
func (r *SchemaRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// SchemaFor builds, memoizes and returns the schema for a content type.
func (r *SchemaRegistry) SchemaFor(key string) (*ContentTypeSchema, error) {
	r.mu.RLock()
	schema, ok := r.schemas[key]
	r.mu.RUnlock()
	if ok {
		return schema, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if schema, ok := r.schemas[key]; ok {
		return schema, nil
	}
	provider, ok := r.providers[key]
	if !ok {
		return nil, &SchemaError{ContentType: key, Reason: "unknown content type"}
	}
	schema, err := buildSchema(provider)
	if err != nil {
		return nil, err
	}
	r.schemas[key] = schema
	return schema, nil
}

// Reload drops the memoized schema for a content type so the next SchemaFor
// rebuilds it from the declaration.
func (r *SchemaRegistry) Reload(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schemas, key)
}
