package domain

// FieldKind distinguishes the three declarable search field kinds.
type FieldKind int

const (
	KindText FieldKind = iota
	KindAutocomplete
	KindFilter
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAutocomplete:
		return "autocomplete"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// FieldSpec is one declared search field of a content type.
type FieldSpec struct {
	Name  string
	Kind  FieldKind
	Boost float64
}

// Attribute suffixes mirror the engine-side naming so that filter and
// autocomplete variants of a field never collide with its text attribute.
const (
	FilterSuffix       = "_filter"
	AutocompleteSuffix = "_autocomplete"
)

// ContentTypeAttr is the implicit filter attribute every index carries so
// that queries can discriminate documents by content type.
const ContentTypeAttr = "content_type" + FilterSuffix

// MappedAttribute returns the engine attribute name for a field spec.
func MappedAttribute(f FieldSpec) string {
	switch f.Kind {
	case KindFilter:
		return f.Name + FilterSuffix
	case KindAutocomplete:
		return f.Name + AutocompleteSuffix
	default:
		return f.Name
	}
}

// SchemaProvider is implemented by each content-type declaration. The field
// mapper depends only on this interface, never on concrete record types.
type SchemaProvider interface {
	// Key returns the content-type identifier, e.g. "article".
	Key() string
	// SearchFields returns the declared search fields in declaration order.
	SearchFields() []FieldSpec
}

// Record is a single source-of-truth record that can be serialized into an
// engine document.
type Record interface {
	// PrimaryKey returns the stable identifier of the record.
	PrimaryKey() string
	// FieldValue returns the value for a declared field name. The second
	// return is false when the record has no value for the field.
	FieldValue(name string) (any, bool)
}
