package domain

import (
	"errors"
	"time"
)

// PageTypeKey identifies the page content type.
const PageTypeKey = "page"

// Page is a structural CMS record from the source of truth.
type Page struct {
	id               string
	title            string
	body             string
	path             string
	category         string
	createdAt        *time.Time
	updatedAt        *time.Time
	firstPublishedAt *time.Time
	lastPublishedAt  *time.Time
}

func NewPage(id, title, body, path, category string, createdAt, updatedAt, firstPublishedAt, lastPublishedAt *time.Time) (*Page, error) {
	if id == "" {
		return nil, errors.New("page ID cannot be empty")
	}
	if title == "" {
		return nil, errors.New("page title cannot be empty")
	}

	return &Page{
		id:               id,
		title:            title,
		body:             body,
		path:             path,
		category:         category,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		firstPublishedAt: firstPublishedAt,
		lastPublishedAt:  lastPublishedAt,
	}, nil
}

func (p *Page) PrimaryKey() string { return p.id }
func (p *Page) Title() string      { return p.title }
func (p *Page) Body() string       { return p.body }
func (p *Page) Path() string       { return p.path }
func (p *Page) Category() string   { return p.category }

func (p *Page) FieldValue(name string) (any, bool) {
	switch name {
	case "title":
		return p.title, true
	case "body":
		if p.body == "" {
			return nil, false
		}
		return p.body, true
	case "path":
		if p.path == "" {
			return nil, false
		}
		return p.path, true
	case "category":
		if p.category == "" {
			return nil, false
		}
		return p.category, true
	case "created_at":
		return timestampValue(p.createdAt)
	case "updated_at":
		return timestampValue(p.updatedAt)
	case "first_published_at":
		return timestampValue(p.firstPublishedAt)
	case "last_published_at":
		return timestampValue(p.lastPublishedAt)
	default:
		return nil, false
	}
}

// PageType declares the page search fields. The body stays in the ranking
// order with boost 0 so it is searched after the title.
type PageType struct{}

func (PageType) Key() string { return PageTypeKey }

func (PageType) SearchFields() []FieldSpec {
	return []FieldSpec{
		{Name: "title", Kind: KindText, Boost: 5},
		{Name: "body", Kind: KindText, Boost: 0},
		{Name: "title", Kind: KindAutocomplete},
		{Name: "path", Kind: KindFilter},
		{Name: "category", Kind: KindFilter},
	}
}
