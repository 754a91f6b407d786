// Package rest exposes the query-facing and admin HTTP surface.
package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"search-backend/domain"
	"search-backend/index"
	"search-backend/usecase"
)

// Handler contains the HTTP handlers of the service.
type Handler struct {
	search     *usecase.SearchUsecase
	reindex    *usecase.ReindexUsecase
	registry   *index.Registry
	schemas    *domain.SchemaRegistry
	adminToken string
	logger     *slog.Logger
}

func NewHandler(search *usecase.SearchUsecase, reindex *usecase.ReindexUsecase, registry *index.Registry, schemas *domain.SchemaRegistry, adminToken string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		search:     search,
		reindex:    reindex,
		registry:   registry,
		schemas:    schemas,
		adminToken: adminToken,
		logger:     logger,
	}
}

// Register mounts all routes.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/v1/health", h.Health)
	e.GET("/v1/search", h.Search)
	e.GET("/v1/facets", h.Facets)
	e.GET("/v1/status", h.Status)
	e.POST("/v1/reindex", h.Reindex)
}

type searchHit struct {
	ID          string  `json:"id"`
	ContentType string  `json:"content_type"`
	Title       string  `json:"title"`
	SearchRank  float64 `json:"search_rank"`
}

type searchResponse struct {
	Query   string       `json:"query"`
	Hits    []searchHit  `json:"hits"`
	Total   int          `json:"total"`
	Partial bool         `json:"partial,omitempty"`
	Facets  []facetCount `json:"facets,omitempty"`
}

type facetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs a full-text or match-all query. Filters come as repeated
// "filter=attribute:value" parameters.
func (h *Handler) Search(c echo.Context) error {
	params, err := h.searchParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.search.Execute(c.Request().Context(), params)
	if err != nil {
		var ce *domain.ConfigError
		if errors.As(err, &ce) {
			return echo.NewHTTPError(http.StatusBadRequest, ce.Error())
		}
		h.logger.Error("search failed", "query", params.Text, "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search failed")
	}

	resp := searchResponse{
		Query:   params.Text,
		Hits:    make([]searchHit, 0, len(page.Results)),
		Total:   page.Total,
		Partial: page.Partial,
	}
	for _, r := range page.Results {
		resp.Hits = append(resp.Hits, searchHit{
			ID:          r.Record.PrimaryKey(),
			ContentType: r.ContentType,
			Title:       recordTitle(r.Record),
			SearchRank:  r.SearchRank,
		})
	}
	for _, f := range page.Facets {
		resp.Facets = append(resp.Facets, facetCount{Value: f.Value, Count: f.Count})
	}

	return c.JSON(http.StatusOK, resp)
}

// Facets returns the merged facet table for one attribute.
func (h *Handler) Facets(c echo.Context) error {
	attribute := c.QueryParam("attribute")
	if attribute == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "attribute is required")
	}

	table, err := h.search.Facet(
		c.Request().Context(),
		c.QueryParam("q"),
		h.contentTypes(c),
		attribute,
	)
	if err != nil {
		h.logger.Error("facet query failed", "attribute", attribute, "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, "facet query failed")
	}

	counts := make([]facetCount, 0, len(table))
	for _, f := range table {
		counts = append(counts, facetCount{Value: f.Value, Count: f.Count})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"attribute": attribute,
		"values":    counts,
	})
}

// Reindex triggers a full reindex of all content types. Guarded by the
// admin token when one is configured.
func (h *Handler) Reindex(c echo.Context) error {
	if h.adminToken != "" && c.Request().Header.Get("X-Admin-Token") != h.adminToken {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin token")
	}

	report := h.reindex.Execute(c.Request().Context())
	status := http.StatusOK
	for _, r := range report.Results {
		if r.Status == usecase.StatusFailed {
			status = http.StatusMultiStatus
			break
		}
	}
	return c.JSON(status, report)
}

// Status reports per-index existence and document counts.
func (h *Handler) Status(c echo.Context) error {
	statuses := h.registry.Status(c.Request().Context(), h.schemas.Keys())
	return c.JSON(http.StatusOK, map[string]any{"indexes": statuses})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) searchParams(c echo.Context) (usecase.SearchParams, error) {
	params := usecase.SearchParams{
		Text:           c.QueryParam("q"),
		ContentTypes:   h.contentTypes(c),
		FacetAttribute: c.QueryParam("facet"),
		Autocomplete:   c.QueryParam("autocomplete") == "true",
		Limit:          20,
	}

	operator, err := domain.ParseOperator(strings.ToUpper(c.QueryParam("operator")))
	if err != nil {
		return params, err
	}
	params.Operator = operator

	for _, raw := range c.QueryParams()["filter"] {
		attribute, value, found := strings.Cut(raw, ":")
		if !found || attribute == "" {
			return params, &domain.ConfigError{Setting: "filter", Reason: "expected attribute:value"}
		}
		params.Filters = append(params.Filters, domain.FilterPair{Attribute: attribute, Value: value})
	}

	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return params, &domain.ConfigError{Setting: "offset", Reason: "must be a non-negative integer"}
		}
		params.Offset = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return params, &domain.ConfigError{Setting: "limit", Reason: "must be a positive integer"}
		}
		params.Limit = n
	}

	return params, nil
}

// contentTypes returns the requested types, defaulting to every registered
// type.
func (h *Handler) contentTypes(c echo.Context) []string {
	raw := c.QueryParam("types")
	if raw == "" {
		return h.schemas.Keys()
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	return types
}

func recordTitle(rec domain.Record) string {
	if value, ok := rec.FieldValue("title"); ok {
		if title, ok := value.(string); ok {
			return title
		}
	}
	return ""
}
