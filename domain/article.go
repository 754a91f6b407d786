package domain

import (
	"errors"
	"time"
)

// ArticleTypeKey identifies the article content type.
const ArticleTypeKey = "article"

// Article is an editorial record from the source of truth.
type Article struct {
	id               string
	title            string
	body             string
	tags             []string
	category         string
	createdAt        *time.Time
	updatedAt        *time.Time
	firstPublishedAt *time.Time
	lastPublishedAt  *time.Time
}

func NewArticle(id, title, body string, tags []string, category string, createdAt, updatedAt, firstPublishedAt, lastPublishedAt *time.Time) (*Article, error) {
	if id == "" {
		return nil, errors.New("article ID cannot be empty")
	}
	if title == "" {
		return nil, errors.New("article title cannot be empty")
	}

	return &Article{
		id:               id,
		title:            title,
		body:             body,
		tags:             tags,
		category:         category,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		firstPublishedAt: firstPublishedAt,
		lastPublishedAt:  lastPublishedAt,
	}, nil
}

func (a *Article) PrimaryKey() string { return a.id }
func (a *Article) Title() string      { return a.title }
func (a *Article) Body() string       { return a.body }
func (a *Article) Tags() []string     { return a.tags }
func (a *Article) Category() string   { return a.category }

func (a *Article) FieldValue(name string) (any, bool) {
	switch name {
	case "title":
		return a.title, true
	case "body":
		return a.body, true
	case "tags":
		if len(a.tags) == 0 {
			return nil, false
		}
		return a.tags, true
	case "category":
		if a.category == "" {
			return nil, false
		}
		return a.category, true
	case "created_at":
		return timestampValue(a.createdAt)
	case "updated_at":
		return timestampValue(a.updatedAt)
	case "first_published_at":
		return timestampValue(a.firstPublishedAt)
	case "last_published_at":
		return timestampValue(a.lastPublishedAt)
	default:
		return nil, false
	}
}

func timestampValue(t *time.Time) (any, bool) {
	if t == nil {
		return nil, false
	}
	return *t, true
}

// ArticleType declares the article search fields: the title dominates
// ranking, tags and category are filterable, and the title doubles as the
// autocomplete source.
type ArticleType struct{}

func (ArticleType) Key() string { return ArticleTypeKey }

func (ArticleType) SearchFields() []FieldSpec {
	return []FieldSpec{
		{Name: "title", Kind: KindText, Boost: 10},
		{Name: "body", Kind: KindText},
		{Name: "title", Kind: KindAutocomplete},
		{Name: "tags", Kind: KindFilter},
		{Name: "category", Kind: KindFilter},
	}
}
