package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/quicklinkhq/quicklink/internal/model"
)

// ProductCatalog defines the product data access used outside fulfillment.
type ProductCatalog interface {
	Insert(ctx context.Context, p *model.Product) error
	ListActive(ctx context.Context) ([]model.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductService provides the shop catalog and its admin management.
type ProductService struct {
	products ProductCatalog
}

// NewProductService creates a new ProductService with the given repository.
func NewProductService(products ProductCatalog) *ProductService {
	return &ProductService{products: products}
}

// ListActive returns purchasable products for the shop page.
func (s *ProductService) ListActive(ctx context.Context) ([]model.Product, error) {
	return s.products.ListActive(ctx)
}

// Create creates a product from the admin request.
func (s *ProductService) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req == nil || req.Price == nil || req.BenefitValue == nil {
		return nil, ErrInvalidRequest
	}
	if req.LimitQuantity && req.Stock == nil {
		return nil, ErrInvalidRequest
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	product := &model.Product{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Price:          *req.Price,
		BenefitType:    req.BenefitType,
		BenefitValue:   *req.BenefitValue,
		LimitQuantity:  req.LimitQuantity,
		Stock:          req.Stock,
		AvailableUntil: req.AvailableUntil,
		IsActive:       active,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by id.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidRequest
	}
	return s.products.Delete(ctx, id)
}
