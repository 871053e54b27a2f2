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

// CouponAdminInterface defines admin coupon management.
type CouponAdminInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, id string) error
}

// ProductAdminInterface defines admin product management.
type ProductAdminInterface interface {
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// PaymentListerInterface defines the audit-trail read.
type PaymentListerInterface interface {
	ListAll(ctx context.Context) ([]model.PaymentRecord, error)
}

// AdminHandler handles the token-guarded admin routes: coupon and product
// management plus the payment audit trail.
type AdminHandler struct {
	coupons   CouponAdminInterface
	products  ProductAdminInterface
	payments  PaymentListerInterface
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(coupons CouponAdminInterface, products ProductAdminInterface, payments PaymentListerInterface, v *validator.Validate) *AdminHandler {
	return &AdminHandler{coupons: coupons, products: products, payments: payments, validator: v}
}

// CreateCoupon handles POST /api/admin/coupons requests.
func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.coupons.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("coupon_code", coupon.Code).Msg("coupon created")
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// DeleteCoupon handles DELETE /api/admin/coupons/:id requests.
func (h *AdminHandler) DeleteCoupon(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.coupons.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to delete coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// CreateProduct handles POST /api/admin/products requests.
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.CreateProductRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	product, err := h.products.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("product_name", req.Name).Msg("failed to create product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("product_id", product.ID).Str("product_name", product.Name).Msg("product created")
	return c.Status(fiber.StatusCreated).JSON(product)
}

// DeleteProduct handles DELETE /api/admin/products/:id requests.
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.products.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListPayments handles GET /api/admin/payments requests.
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	records, err := h.payments.ListAll(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list payments")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(records)
}
