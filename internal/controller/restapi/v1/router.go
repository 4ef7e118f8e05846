package v1

import (
	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewRoutes(apiV1Group fiber.Router, ss usecase.SrcsetUseCase, inv usecase.InvalidationUseCase, adminToken string, l logger.Interface) {
	r := &V1{srcset: ss, inv: inv, adminToken: adminToken, logger: l}

	{
		// content render helpers, a signature authorizes a transform
		apiV1Group.Post("/srcset", r.requireAdmin, r.injectSrcset)
		apiV1Group.Post("/sign", r.requireAdmin, r.signURL)

		// upload deletion hook
		apiV1Group.Delete("/cache", r.requireAdmin, r.invalidateCache)
	}
}
