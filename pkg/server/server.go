package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/catalog"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/metrics"
	"github.com/locallibrary/catalog/pkg/mutation"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// Stores builds the SQLite-backed stores for every catalog kind.
func Stores(db *bun.DB) mutation.Stores {
	return mutation.Stores{
		Authors:       authors.NewService(db),
		Genres:        genres.NewService(db),
		Books:         books.NewService(db),
		BookInstances: bookinstances.NewService(db),
	}
}

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := NewEcho(cfg, Stores(db), metrics.New())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// NewEcho wires middleware and routes around the given stores.
func NewEcho(cfg *config.Config, stores mutation.Stores, m *metrics.Metrics) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())

	health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/catalog")
	})

	limited := newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	catalog.RegisterRoutes(e, b, stores, m, limited.Middleware())

	e.RouteNotFound("/*", notFoundHandler)
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(_ echo.Context) error {
	return errcodes.NotFound("Page")
}
