package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/quicklinkhq/quicklink/internal/service"
)

// Resolver resolves a live alias to its long URL.
type Resolver interface {
	Resolve(ctx context.Context, alias string) (string, error)
}

// RedirectHandler serves the public short-link routes: the redirect itself
// and the QR image for an alias.
type RedirectHandler struct {
	service Resolver
	baseURL string
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(svc Resolver, baseURL string) *RedirectHandler {
	return &RedirectHandler{service: svc, baseURL: baseURL}
}

// Redirect handles GET /:alias requests. Live records redirect with 302;
// expired or unknown aliases are 404.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	alias := c.Params("alias")

	longURL, err := h.service.Resolve(c.Context(), alias)
	if err != nil {
		if errors.Is(err, service.ErrURLNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "url not found"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("alias", alias).Msg("failed to resolve alias")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Redirect(longURL, fiber.StatusFound)
}

// QR handles GET /:alias/qr requests, returning a PNG encoding the short
// link. Query parameters: size (128-1024, default 256) and level
// (low|medium|high|highest, default medium).
func (h *RedirectHandler) QR(c *fiber.Ctx) error {
	alias := c.Params("alias")

	// Only live aliases get a QR code.
	if _, err := h.service.Resolve(c.Context(), alias); err != nil {
		if errors.Is(err, service.ErrURLNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "url not found"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("alias", alias).Msg("failed to resolve alias for qr")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	size := 256
	if sizeStr := c.Query("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil || parsed < 128 || parsed > 1024 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "size must be a number between 128 and 1024"})
		}
		size = parsed
	}

	level := qrcode.Medium
	switch c.Query("level", "medium") {
	case "low":
		level = qrcode.Low
	case "medium":
		level = qrcode.Medium
	case "high":
		level = qrcode.High
	case "highest":
		level = qrcode.Highest
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "level must be: low, medium, high, or highest"})
	}

	png, err := qrcode.Encode(h.baseURL+"/"+alias, level, size)
	if err != nil {
		log.Error().Err(err).Str("alias", alias).Msg("failed to generate qr code")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(png)
}
