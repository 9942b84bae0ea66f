package catalog

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a beer (or cider) sold in kegs.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	// AllowedSizes lists the only container volumes the brewery fills
	// for this product. Coreff Ambrée only ever ships in 22 L kegs,
	// Coreff Rousse in 20 L.
	AllowedSizes []int     `json:"allowed_sizes_l"`
	CreatedAt    time.Time `json:"created_at"`
}

// Variant is a product in a given container volume, with its pricing.
type Variant struct {
	ID         int64               `json:"id"`
	ProductID  int64               `json:"product_id"`
	SizeL      int                 `json:"size_l"`
	PriceTTC   decimal.Decimal     `json:"price_ttc"`
	DepositEUR decimal.NullDecimal `json:"deposit_eur"`
	CreatedAt  time.Time           `json:"created_at"`
}

// VariantWithProduct joins the product name for display.
type VariantWithProduct struct {
	Variant
	ProductName string `json:"product_name"`
}

// Label renders the usual short form, e.g. "Coreff Blonde 20L".
func (v VariantWithProduct) Label() string {
	return v.ProductName + " " + strconv.Itoa(v.SizeL) + "L"
}

// ErrInvalidProductVolume indicates a container volume the product is
// not permitted in.
var ErrInvalidProductVolume = errors.New("catalog: volume not permitted for product")
