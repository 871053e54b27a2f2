package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
)

// ShortenerServiceInterface defines the interface for short-link business logic.
type ShortenerServiceInterface interface {
	Shorten(ctx context.Context, req *model.CreateURLRequest) (*model.ShortenedURL, error)
	ListByUser(ctx context.Context, userID string) ([]model.ShortenedURL, error)
	ExtendExpiry(ctx context.Context, req *model.ExtendExpiryRequest) error
	Delete(ctx context.Context, id, actorUserID string, isAdmin bool) error
}

// URLHandler handles HTTP requests for short-link operations.
type URLHandler struct {
	service    ShortenerServiceInterface
	validator  *validator.Validate
	adminToken string
}

// NewURLHandler creates a new URLHandler with the given service and validator.
func NewURLHandler(svc ShortenerServiceInterface, v *validator.Validate, adminToken string) *URLHandler {
	return &URLHandler{service: svc, validator: v, adminToken: adminToken}
}

// CreateURL handles POST /api/urls requests to shorten a link.
func (h *URLHandler) CreateURL(c *fiber.Ctx) error {
	var req model.CreateURLRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	u, err := h.service.Shorten(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAliasTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "alias taken"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("alias", req.Alias).Msg("failed to shorten url")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("alias", u.Alias).
		Bool("custom_alias", req.Alias != "").
		Msg("short link created")
	return c.Status(fiber.StatusCreated).JSON(u)
}

// ListURLs handles GET /api/urls?userId= requests to list a user's links.
func (h *URLHandler) ListURLs(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: userId is required",
		})
	}

	urls, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list urls")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(urls)
}

// ExtendExpiry handles PUT /api/urls requests for bulk expiry extension.
// The operation is idempotent.
func (h *URLHandler) ExtendExpiry(c *fiber.Ctx) error {
	var req model.ExtendExpiryRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.ExtendExpiry(c.Context(), &req); err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Int("url_count", len(req.URLIDs)).Msg("failed to extend expiry")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteURL handles DELETE /api/urls/:id. The acting user must own the link
// unless the request carries the admin token.
func (h *URLHandler) DeleteURL(c *fiber.Ctx) error {
	id := c.Params("id")
	actor := c.Query("userId")

	err := h.service.Delete(c.Context(), id, actor, isAdmin(c, h.adminToken))
	if err != nil {
		if errors.Is(err, service.ErrURLNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "url not found"})
		}
		if errors.Is(err, service.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		log.Error().Err(err).Str("url_id", id).Msg("failed to delete url")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"success": true})
}
