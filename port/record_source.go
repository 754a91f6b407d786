package port

import (
	"context"

	"search-backend/domain"
)

// RecordSource is the outbound capability to the source of truth. Listing is
// keyset-paginated so full reindexes never load a whole table at once.
type RecordSource interface {
	// ListBatch returns up to limit records of a content type with primary
	// keys greater than afterPK, plus the new cursor. An empty batch means
	// the type is exhausted.
	ListBatch(ctx context.Context, typeKey string, afterPK string, limit int) ([]domain.Record, string, error)
	// LoadByIDs returns the records for the given primary keys. Missing ids
	// are omitted, not errors.
	LoadByIDs(ctx context.Context, typeKey string, ids []string) ([]domain.Record, error)
	// LoadByID returns one record.
	LoadByID(ctx context.Context, typeKey string, id string) (domain.Record, error)
}
