package depot

import "time"

// StockRow is one variant's depot stock against its reorder threshold.
type StockRow struct {
	VariantID   int64     `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SizeL       int       `json:"size_l"`
	Qty         int       `json:"qty"`
	MinQty      int       `json:"min_qty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BelowMin reports whether the row needs reordering.
func (r StockRow) BelowMin() bool {
	return r.MinQty > 0 && r.Qty < r.MinQty
}

// ReorderRule keeps a minimum depot quantity per variant.
type ReorderRule struct {
	VariantID int64 `json:"variant_id"`
	MinQty    int   `json:"min_qty"`
}
