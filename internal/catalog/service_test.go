package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
)

type memoryRepo struct {
	products map[int64]Product
	variants map[int64]VariantWithProduct
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: map[int64]Product{
			1: {ID: 1, Name: "Coreff Blonde", AllowedSizes: []int{20, 30}},
			2: {ID: 2, Name: "Coreff Rousse", AllowedSizes: []int{20}},
			3: {ID: 3, Name: "Coreff Ambrée", AllowedSizes: []int{22}},
		},
		variants: map[int64]VariantWithProduct{},
	}
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]Product, error) {
	result := []Product{}
	for _, p := range r.products {
		result = append(result, p)
	}
	return result, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListVariants(ctx context.Context) ([]VariantWithProduct, error) {
	result := []VariantWithProduct{}
	for _, v := range r.variants {
		result = append(result, v)
	}
	return result, nil
}

func (r *memoryRepo) GetVariant(ctx context.Context, id int64) (VariantWithProduct, error) {
	v, ok := r.variants[id]
	if !ok {
		return VariantWithProduct{}, shared.ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) CreateVariant(ctx context.Context, variant Variant) (Variant, error) {
	for _, existing := range r.variants {
		if existing.ProductID == variant.ProductID && existing.SizeL == variant.SizeL {
			return Variant{}, ErrVariantExists
		}
	}
	r.nextID++
	variant.ID = r.nextID
	r.variants[variant.ID] = VariantWithProduct{Variant: variant, ProductName: r.products[variant.ProductID].Name}
	return variant, nil
}

func TestCreateVariantHonoursVolumeLock(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	// L'Ambrée only ships in 22 L kegs.
	_, err := svc.CreateVariant(ctx, Variant{ProductID: 3, SizeL: 20, PriceTTC: decimal.RequireFromString("96.00")})
	require.ErrorIs(t, err, ErrInvalidProductVolume)

	created, err := svc.CreateVariant(ctx, Variant{ProductID: 3, SizeL: 22, PriceTTC: decimal.RequireFromString("96.00")})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// La Rousse refuses anything but 20 L.
	_, err = svc.CreateVariant(ctx, Variant{ProductID: 2, SizeL: 30, PriceTTC: decimal.RequireFromString("88.00")})
	require.ErrorIs(t, err, ErrInvalidProductVolume)
}

func TestCreateVariantValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateVariant(ctx, Variant{ProductID: 0, SizeL: 20})
	require.Error(t, err)

	_, err = svc.CreateVariant(ctx, Variant{ProductID: 1, SizeL: -20})
	require.Error(t, err)

	_, err = svc.CreateVariant(ctx, Variant{ProductID: 1, SizeL: 20, PriceTTC: decimal.NewFromInt(-1)})
	require.Error(t, err)

	_, err = svc.CreateVariant(ctx, Variant{ProductID: 99, SizeL: 20})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateVariantRejectsDuplicate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateVariant(ctx, Variant{ProductID: 1, SizeL: 20, PriceTTC: decimal.RequireFromString("78.00")})
	require.NoError(t, err)
	_, err = svc.CreateVariant(ctx, Variant{ProductID: 1, SizeL: 20, PriceTTC: decimal.RequireFromString("80.00")})
	require.ErrorIs(t, err, ErrVariantExists)
}

func TestVariantLabel(t *testing.T) {
	v := VariantWithProduct{Variant: Variant{SizeL: 30}, ProductName: "Coreff Blonde"}
	require.Equal(t, "Coreff Blonde 30L", v.Label())
}
