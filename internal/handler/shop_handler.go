package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
)

// CouponVerifierInterface defines read-only coupon evaluation.
type CouponVerifierInterface interface {
	Verify(ctx context.Context, code, userID string, baseAmount float64) (*model.VerifyResult, error)
}

// ProductListerInterface defines the shop catalog read.
type ProductListerInterface interface {
	ListActive(ctx context.Context) ([]model.Product, error)
}

// FulfillerInterface defines the purchase fulfillment entry point.
type FulfillerInterface interface {
	Fulfill(ctx context.Context, req *model.FulfillRequest) error
}

// ShopHandler handles HTTP requests for the shop: catalog, coupon
// verification, and purchase fulfillment.
type ShopHandler struct {
	coupons   CouponVerifierInterface
	products  ProductListerInterface
	fulfiller FulfillerInterface
	validator *validator.Validate
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(coupons CouponVerifierInterface, products ProductListerInterface, fulfiller FulfillerInterface, v *validator.Validate) *ShopHandler {
	return &ShopHandler{coupons: coupons, products: products, fulfiller: fulfiller, validator: v}
}

// ListProducts handles GET /api/shop/products requests.
func (h *ShopHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.products.ListActive(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(products)
}

// VerifyCoupon handles GET /api/shop/coupons/verify requests. An invalid
// coupon is a 200 with isValid=false, not an error status: the evaluation
// result is the payload.
func (h *ShopHandler) VerifyCoupon(c *fiber.Ctx) error {
	code := c.Query("code")
	userID := c.Query("userId")
	basePriceStr := c.Query("basePrice")

	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}
	basePrice, err := strconv.ParseFloat(basePriceStr, 64)
	if err != nil || basePrice < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: basePrice must be a non-negative number"})
	}

	result, err := h.coupons.Verify(c.Context(), code, userID, basePrice)
	if err != nil {
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to verify coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(result)
}

// Fulfill handles POST /api/shop/fulfill requests to apply a completed
// purchase.
func (h *ShopHandler) Fulfill(c *fiber.Ctx) error {
	var req model.FulfillRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.fulfiller.Fulfill(c.Context(), &req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		if errors.Is(err, service.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("user_id", req.UserID).
			Str("product_id", req.ProductID).
			Str("payment_id", req.PaymentID).
			Msg("failed to fulfill purchase")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("user_id", req.UserID).
		Str("product_id", req.ProductID).
		Str("payment_id", req.PaymentID).
		Msg("purchase fulfilled successfully")
	return c.JSON(fiber.Map{"success": true})
}
