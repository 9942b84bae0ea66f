package depot

import (
	"context"
	"errors"
)

// Service exposes depot stock reads and reorder rule maintenance.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListStock(ctx context.Context) ([]StockRow, error) {
	return s.repo.ListStock(ctx)
}

// ListBelowMin returns variants under their reorder threshold, the
// input of the reorder alert job.
func (s *Service) ListBelowMin(ctx context.Context) ([]StockRow, error) {
	return s.repo.ListBelowMin(ctx)
}

func (s *Service) SetReorderRule(ctx context.Context, rule ReorderRule) error {
	if rule.VariantID <= 0 {
		return errors.New("variant is required")
	}
	if rule.MinQty < 0 {
		return errors.New("minimum quantity must not be negative")
	}
	return s.repo.UpsertReorderRule(ctx, rule)
}
