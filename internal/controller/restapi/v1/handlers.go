package v1

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/andreyxaxa/Image-Cache/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/Image-Cache/internal/controller/restapi/v1/response"
	"github.com/gofiber/fiber/v2"
)

const headerAdminToken = "X-Admin-Token"

// injectSrcset rewrites rendered post HTML, adding srcset to managed uploads.
func (r *V1) injectSrcset(ctx *fiber.Ctx) error {
	body := ctx.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "html body is required")
	}

	out, err := r.srcset.InjectSrcset(ctx.UserContext(), string(body))
	if err != nil {
		r.logger.Error(err, "restapi - v1 - injectSrcset")

		return errorResponse(ctx, http.StatusInternalServerError, "upload lookup problems")
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return ctx.SendString(out)
}

func (r *V1) signURL(ctx *fiber.Ctx) error {
	var req request.SignURL
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.URL == "" {
		return errorResponse(ctx, http.StatusBadRequest, "url is required")
	}

	signed, err := r.srcset.GenerateURL(req.URL, req.Params)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid url")
	}

	return ctx.Status(http.StatusOK).JSON(response.SignURL{URL: signed})
}

// invalidateCache never reports purge failures, the upload is already gone.
func (r *V1) invalidateCache(ctx *fiber.Ctx) error {
	path := ctx.Query("path")
	if path == "" {
		return errorResponse(ctx, http.StatusBadRequest, "path is required")
	}

	r.inv.InvalidateCacheFor(ctx.UserContext(), path, "http")

	return ctx.SendStatus(http.StatusNoContent)
}

func (r *V1) requireAdmin(ctx *fiber.Ctx) error {
	if r.adminToken == "" {
		return ctx.Next()
	}

	given := ctx.Get(headerAdminToken)
	if subtle.ConstantTimeCompare([]byte(given), []byte(r.adminToken)) != 1 {
		return errorResponse(ctx, http.StatusUnauthorized, "invalid admin token")
	}

	return ctx.Next()
}
