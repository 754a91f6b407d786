package domain

import "errors"

// SchemaError reports a malformed content-type field declaration. It is
// fatal for any operation that needs the schema.
type SchemaError struct {
	ContentType string
	Field       string
	Reason      string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema " + e.ContentType + ": " + e.Reason
	}
	return "schema " + e.ContentType + "." + e.Field + ": " + e.Reason
}

// SerializationError reports a record that could not be converted into an
// engine document. It is recorded per record and never aborts a batch.
type SerializationError struct {
	ContentType string
	RecordID    string
	Reason      string
}

func (e *SerializationError) Error() string {
	return "serialize " + e.ContentType + " " + e.RecordID + ": " + e.Reason
}

// ConfigError reports an invalid sync or query configuration value.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return "config " + e.Setting + ": " + e.Reason
}

// EngineErrorKind classifies engine failures. The core only distinguishes
// "index not found" from everything else.
type EngineErrorKind int

const (
	EngineOther EngineErrorKind = iota
	EngineIndexNotFound
)

// EngineError represents a failed remote call to the search engine.
type EngineError struct {
	Op    string
	Index string
	Kind  EngineErrorKind
	Err   string
}

func (e *EngineError) Error() string {
	if e.Index == "" {
		return e.Op + ": " + e.Err
	}
	return e.Op + " " + e.Index + ": " + e.Err
}

// IsIndexNotFound reports whether err is an EngineError for a missing index.
func IsIndexNotFound(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == EngineIndexNotFound
}

// RepositoryError represents an error from the record-source layer.
type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}
