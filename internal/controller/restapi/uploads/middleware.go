package uploads

import (
	"net/http"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

const HeaderCache = "X-Image-Cache"

// NewTransformMiddleware serves transformed uploads. Anything the pipeline
// declines is passed to the next handler, normally the static file server.
func NewTransformMiddleware(tr usecase.TransformUseCase, l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Method() != fiber.MethodGet {
			return ctx.Next()
		}

		uri := ctx.Request().URI()
		out := tr.Handle(ctx.UserContext(), entity.TransformRequest{
			Path:     string(uri.PathOriginal()),
			RawQuery: string(uri.QueryString()),
		})

		switch out.Status {
		case entity.Forbidden:
			metrics.PipelineRequestsTotal.WithLabelValues(string(out.Status), "").Inc()

			return ctx.SendStatus(http.StatusForbidden)
		case entity.Served:
			cache := "MISS"
			if out.CacheHit {
				cache = "HIT"
			}
			metrics.PipelineRequestsTotal.WithLabelValues(string(out.Status), cache).Inc()

			ctx.Set(fiber.HeaderContentType, out.ContentType)
			ctx.Set(HeaderCache, cache)

			return ctx.SendStream(out.Body, out.Size)
		default:
			metrics.PipelineRequestsTotal.WithLabelValues(string(out.Status), "").Inc()
			metrics.PipelineFallthroughTotal.WithLabelValues(string(out.Reason)).Inc()
			if out.Reason != entity.NotTransform {
				l.Debug("uploads - TransformMiddleware - fallthrough %s: %s", ctx.Path(), out.Reason)
			}

			return ctx.Next()
		}
	}
}
