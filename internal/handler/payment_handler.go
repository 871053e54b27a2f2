package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/gateway"
	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
)

// OrderCreatorInterface defines order creation against a payment provider.
type OrderCreatorInterface interface {
	CreateOrder(ctx context.Context, provider string, req *model.CreateOrderRequest) (*gateway.Order, error)
}

// PaymentHandler handles HTTP requests for payment order creation.
type PaymentHandler struct {
	service   OrderCreatorInterface
	validator *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler with the given service and validator.
func NewPaymentHandler(svc OrderCreatorInterface, v *validator.Validate) *PaymentHandler {
	return &PaymentHandler{service: svc, validator: v}
}

// CreateOrder handles POST /api/payments/orders?provider= requests.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	provider := c.Query("provider")
	if provider != gateway.ProviderRazorpay && provider != gateway.ProviderCashfree {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "provider must be razorpay or cashfree"})
	}

	var req model.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	order, err := h.service.CreateOrder(c.Context(), provider, &req)
	if err != nil {
		if errors.Is(err, service.ErrGatewayUnavailable) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment provider not configured"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		// Gateway failures surface as 500 with no retry; the client
		// retries manually.
		log.Error().Err(err).Str("provider", provider).Msg("failed to create payment order")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(order)
}
