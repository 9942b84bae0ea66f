package catalog

import (
	"context"
	"errors"
	"slices"
)

// Service coordinates catalog reads and the volume-lock rule.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) ListVariants(ctx context.Context) ([]VariantWithProduct, error) {
	return s.repo.ListVariants(ctx)
}

func (s *Service) GetVariant(ctx context.Context, id int64) (VariantWithProduct, error) {
	if id <= 0 {
		return VariantWithProduct{}, errors.New("invalid variant ID")
	}
	return s.repo.GetVariant(ctx, id)
}

// CreateVariant adds a container volume for a product. The volume must
// be one the product is locked to, anything else is rejected before any
// write happens.
func (s *Service) CreateVariant(ctx context.Context, variant Variant) (Variant, error) {
	if err := s.validate(variant); err != nil {
		return Variant{}, err
	}
	product, err := s.repo.GetProduct(ctx, variant.ProductID)
	if err != nil {
		return Variant{}, err
	}
	if !slices.Contains(product.AllowedSizes, variant.SizeL) {
		return Variant{}, ErrInvalidProductVolume
	}
	return s.repo.CreateVariant(ctx, variant)
}
