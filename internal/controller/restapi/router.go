package restapi

import (
	"context"
	"net/http"
	"path"
	"path/filepath"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/controller/restapi/uploads"
	v1 "github.com/andreyxaxa/Image-Cache/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	tr usecase.TransformUseCase,
	ss usecase.SrcsetUseCase,
	inv usecase.InvalidationUseCase,
	health HealthChecker,
	l logger.Interface,
) {
	// Health, metrics
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		if err := health.Health(ctx.UserContext()); err != nil {
			l.Error(err, "restapi - healthz")
			return ctx.SendStatus(http.StatusServiceUnavailable)
		}
		return ctx.SendStatus(http.StatusOK)
	})

	// API
	apiV1Group := app.Group("/v1")
	{
		v1.NewRoutes(apiV1Group, ss, inv, cfg.Admin.Token, l)
	}

	// Uploads: transform first, then the original file
	prefix := path.Clean("/" + cfg.App.UploadsPrefix)
	app.Use(prefix, uploads.NewTransformMiddleware(tr, l))
	app.Static(prefix, filepath.Join(cfg.App.ContentPath, filepath.FromSlash(prefix)), fiber.Static{
		MaxAge: int(cfg.App.StaticMaxAge.Seconds()),
	})
}
