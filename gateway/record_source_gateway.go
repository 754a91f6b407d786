package gateway

import (
	"context"

	"search-backend/domain"
	"search-backend/driver"
	"search-backend/port"
)

// RecordDriver is what the gateway needs from the database driver.
type RecordDriver interface {
	ListArticles(ctx context.Context, afterID string, limit int) ([]*driver.ArticleRow, error)
	LoadArticlesByIDs(ctx context.Context, ids []string) ([]*driver.ArticleRow, error)
	ListPages(ctx context.Context, afterID string, limit int) ([]*driver.PageRow, error)
	LoadPagesByIDs(ctx context.Context, ids []string) ([]*driver.PageRow, error)
}

// RecordSourceGateway adapts the database driver to the RecordSource port
// and converts rows into domain records.
type RecordSourceGateway struct {
	driver RecordDriver
}

var _ port.RecordSource = (*RecordSourceGateway)(nil)

func NewRecordSourceGateway(driver RecordDriver) *RecordSourceGateway {
	return &RecordSourceGateway{driver: driver}
}

func (g *RecordSourceGateway) ListBatch(ctx context.Context, typeKey string, afterPK string, limit int) ([]domain.Record, string, error) {
	switch typeKey {
	case domain.ArticleTypeKey:
		rows, err := g.driver.ListArticles(ctx, afterPK, limit)
		if err != nil {
			return nil, "", &domain.RepositoryError{Op: "ListBatch " + typeKey, Err: err.Error()}
		}
		records, err := articleRecords(rows)
		if err != nil {
			return nil, "", err
		}
		return records, lastCursor(records, afterPK), nil
	case domain.PageTypeKey:
		rows, err := g.driver.ListPages(ctx, afterPK, limit)
		if err != nil {
			return nil, "", &domain.RepositoryError{Op: "ListBatch " + typeKey, Err: err.Error()}
		}
		records, err := pageRecords(rows)
		if err != nil {
			return nil, "", err
		}
		return records, lastCursor(records, afterPK), nil
	default:
		return nil, "", &domain.RepositoryError{Op: "ListBatch", Err: "unknown content type " + typeKey}
	}
}

func (g *RecordSourceGateway) LoadByIDs(ctx context.Context, typeKey string, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	switch typeKey {
	case domain.ArticleTypeKey:
		rows, err := g.driver.LoadArticlesByIDs(ctx, ids)
		if err != nil {
			return nil, &domain.RepositoryError{Op: "LoadByIDs " + typeKey, Err: err.Error()}
		}
		return articleRecords(rows)
	case domain.PageTypeKey:
		rows, err := g.driver.LoadPagesByIDs(ctx, ids)
		if err != nil {
			return nil, &domain.RepositoryError{Op: "LoadByIDs " + typeKey, Err: err.Error()}
		}
		return pageRecords(rows)
	default:
		return nil, &domain.RepositoryError{Op: "LoadByIDs", Err: "unknown content type " + typeKey}
	}
}

func (g *RecordSourceGateway) LoadByID(ctx context.Context, typeKey string, id string) (domain.Record, error) {
	records, err := g.LoadByIDs(ctx, typeKey, []string{id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &domain.RepositoryError{Op: "LoadByID " + typeKey, Err: "record " + id + " not found"}
	}
	return records[0], nil
}

func articleRecords(rows []*driver.ArticleRow) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		article, err := domain.NewArticle(
			row.ID, row.Title, row.Body, row.Tags, row.Category,
			row.CreatedAt, row.UpdatedAt, row.FirstPublishedAt, row.LastPublishedAt,
		)
		if err != nil {
			return nil, &domain.RepositoryError{
				Op:  "articleRecords",
				Err: "failed to convert article to domain: id=" + row.ID + ", " + err.Error(),
			}
		}
		records = append(records, article)
	}
	return records, nil
}

func pageRecords(rows []*driver.PageRow) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		page, err := domain.NewPage(
			row.ID, row.Title, row.Body, row.Path, row.Category,
			row.CreatedAt, row.UpdatedAt, row.FirstPublishedAt, row.LastPublishedAt,
		)
		if err != nil {
			return nil, &domain.RepositoryError{
				Op:  "pageRecords",
				Err: "failed to convert page to domain: id=" + row.ID + ", " + err.Error(),
			}
		}
		records = append(records, page)
	}
	return records, nil
}

// lastCursor returns the keyset cursor for the next batch: the last record's
// primary key, or the previous cursor when the batch was empty.
func lastCursor(records []domain.Record, previous string) string {
	if len(records) == 0 {
		return previous
	}
	return records[len(records)-1].PrimaryKey()
}
