package driver

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseDriver reads source-of-truth records from Postgres.
type DatabaseDriver struct {
	pool *pgxpool.Pool
}

func NewDatabaseDriver(pool *pgxpool.Pool) *DatabaseDriver {
	return &DatabaseDriver{pool: pool}
}

// NewDatabaseDriverFromConfig builds the driver from DATABASE_URL or the
// individual DB_* environment variables.
func NewDatabaseDriverFromConfig(ctx context.Context) (*DatabaseDriver, error) {
	pool, err := initDatabasePool(ctx)
	if err != nil {
		return nil, err
	}
	return &DatabaseDriver{pool: pool}, nil
}

func initDatabasePool(ctx context.Context) (*pgxpool.Pool, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		dbName := os.Getenv("DB_NAME")
		dbUser := os.Getenv("SEARCH_BACKEND_DB_USER")
		dbPassword := os.Getenv("SEARCH_BACKEND_DB_PASSWORD")

		if dbHost == "" || dbPort == "" || dbName == "" || dbUser == "" || dbPassword == "" {
			return nil, &DriverError{
				Op:  "initDatabasePool",
				Err: "database connection parameters are not set. Required: DB_HOST, DB_PORT, DB_NAME, SEARCH_BACKEND_DB_USER, SEARCH_BACKEND_DB_PASSWORD",
			}
		}

		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=prefer", dbUser, dbPassword, dbHost, dbPort, dbName)
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, &DriverError{Op: "initDatabasePool", Err: "failed to parse database URL: " + err.Error()}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, &DriverError{Op: "initDatabasePool", Err: "failed to create database pool: " + err.Error()}
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, &DriverError{Op: "initDatabasePool", Err: "failed to ping database: " + err.Error()}
	}

	return pool, nil
}

// Close closes the database connection pool.
func (d *DatabaseDriver) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

const articleColumns = `id, title, body, tags, category,
	created_at, updated_at, first_published_at, last_published_at`

// ListArticles returns up to limit articles with id greater than afterID,
// keyset-paginated in id order.
func (d *DatabaseDriver) ListArticles(ctx context.Context, afterID string, limit int) ([]*ArticleRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id > $1 ORDER BY id LIMIT $2`, articleColumns)
	rows, err := d.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, &DriverError{Op: "ListArticles", Err: err.Error()}
	}
	defer rows.Close()
	return scanArticles(rows)
}

// LoadArticlesByIDs returns the articles for the given ids; missing ids are
// omitted.
func (d *DatabaseDriver) LoadArticlesByIDs(ctx context.Context, ids []string) ([]*ArticleRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id = ANY($1)`, articleColumns)
	rows, err := d.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, &DriverError{Op: "LoadArticlesByIDs", Err: err.Error()}
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows pgx.Rows) ([]*ArticleRow, error) {
	var articles []*ArticleRow
	for rows.Next() {
		row := &ArticleRow{}
		if err := rows.Scan(
			&row.ID, &row.Title, &row.Body, &row.Tags, &row.Category,
			&row.CreatedAt, &row.UpdatedAt, &row.FirstPublishedAt, &row.LastPublishedAt,
		); err != nil {
			return nil, &DriverError{Op: "scanArticles", Err: err.Error()}
		}
		articles = append(articles, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "scanArticles", Err: err.Error()}
	}
	return articles, nil
}

const pageColumns = `id, title, body, path, category,
	created_at, updated_at, first_published_at, last_published_at`

// ListPages returns up to limit pages with id greater than afterID.
func (d *DatabaseDriver) ListPages(ctx context.Context, afterID string, limit int) ([]*PageRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM pages WHERE id > $1 ORDER BY id LIMIT $2`, pageColumns)
	rows, err := d.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, &DriverError{Op: "ListPages", Err: err.Error()}
	}
	defer rows.Close()
	return scanPages(rows)
}

// LoadPagesByIDs returns the pages for the given ids; missing ids are
// omitted.
func (d *DatabaseDriver) LoadPagesByIDs(ctx context.Context, ids []string) ([]*PageRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM pages WHERE id = ANY($1)`, pageColumns)
	rows, err := d.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, &DriverError{Op: "LoadPagesByIDs", Err: err.Error()}
	}
	defer rows.Close()
	return scanPages(rows)
}

func scanPages(rows pgx.Rows) ([]*PageRow, error) {
	var pages []*PageRow
	for rows.Next() {
		row := &PageRow{}
		if err := rows.Scan(
			&row.ID, &row.Title, &row.Body, &row.Path, &row.Category,
			&row.CreatedAt, &row.UpdatedAt, &row.FirstPublishedAt, &row.LastPublishedAt,
		); err != nil {
			return nil, &DriverError{Op: "scanPages", Err: err.Error()}
		}
		pages = append(pages, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "scanPages", Err: err.Error()}
	}
	return pages, nil
}
