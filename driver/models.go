package driver

import "time"

// ArticleRow is an article row from the database.
type ArticleRow struct {
	ID               string
	Title            string
	Body             string
	Tags             []string
	Category         string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
	FirstPublishedAt *time.Time
	LastPublishedAt  *time.Time
}

// PageRow is a page row from the database.
type PageRow struct {
	ID               string
	Title            string
	Body             string
	Path             string
	Category         string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
	FirstPublishedAt *time.Time
	LastPublishedAt  *time.Time
}

// SearchQueryDriver is one engine request at the driver boundary.
type SearchQueryDriver struct {
	Index          string
	Text           string
	Filter         string
	FacetAttribute string
	Ranking        []string
	Limit          int64
}

// EngineHitDriver is one raw hit from the engine.
type EngineHitDriver struct {
	ID    string
	Score float64
}

// SearchResultDriver is one index's search response.
type SearchResultDriver struct {
	Index       string
	Hits        []EngineHitDriver
	FacetCounts map[string]int
}

// DriverError represents an error from the driver layer. NotFound is set
// when the engine reported a missing index.
type DriverError struct {
	Op       string
	Err      string
	NotFound bool
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}
