package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"search-backend/config"
	"search-backend/domain"
	"search-backend/index"
	"search-backend/logger"
	"search-backend/rest"
	"search-backend/usecase"
)

// newHTTPServer creates the REST HTTP server.
func newHTTPServer(cfg *config.Config, search *usecase.SearchUsecase, reindex *usecase.ReindexUsecase, registry *index.Registry, schemas *domain.SchemaRegistry) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	handler := rest.NewHandler(search, reindex, registry, schemas, cfg.HTTP.AdminToken, logger.Logger)
	handler.Register(e)

	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           e,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}
}
