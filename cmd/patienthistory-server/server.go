package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mediscreen/patienthistory/internal/config"
	"github.com/mediscreen/patienthistory/internal/domain/note"
	"github.com/mediscreen/patienthistory/internal/platform/auth"
	"github.com/mediscreen/patienthistory/internal/platform/db"
	"github.com/mediscreen/patienthistory/internal/platform/middleware"
	"github.com/mediscreen/patienthistory/internal/platform/web"
)

// noteStore is the repository chosen by STORE_DRIVER plus what the server
// needs around it.
type noteStore struct {
	repo     note.Repository
	dbHealth echo.HandlerFunc
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*noteStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &noteStore{
			repo:     note.NewNoteRepoPG(pool),
			dbHealth: db.PoolHealthHandler(pool),
			close:    pool.Close,
		}, nil

	case config.DriverBolt:
		repo, closeFn, err := note.OpenNoteRepoBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return &noteStore{
			repo: repo,
			close: func() {
				if err := closeFn(); err != nil {
					logger.Error().Err(err).Msg("close bolt store")
				}
			},
		}, nil

	case config.DriverMemory:
		return &noteStore{repo: note.NewNoteRepoMemory(), close: func() {}}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

type alwaysUp struct{}

func (alwaysUp) Ping(context.Context) error { return nil }

// newServer wires middleware, the note pages and API, and health routes.
func newServer(cfg *config.Config, st *noteStore, index note.PatientIndexSource, logger zerolog.Logger) (*echo.Echo, error) {
	renderer, err := web.NewRenderer(note.Templates, note.TemplatePattern)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", db.HealthHandler(cfg.StoreDriver, alwaysUp{}, nil))
	if st.dbHealth != nil {
		e.GET("/health/db", st.dbHealth)
	}

	svc := note.NewService(st.repo, note.DefaultPrefix)
	h := note.NewHandler(svc, index, logger)

	// Pages and API share one authenticator; the pages read the token from
	// a cookie when no Authorization header is sent.
	authn := auth.DevAuthMiddleware()
	if cfg.AuthEnabled() {
		authn = auth.JWTMiddleware(cfg.JWT())
	}

	pages := e.Group("/"+svc.Prefix(), authn)
	api := pages.Group("/api", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	h.RegisterRoutes(pages, api)

	return e, nil
}
