package ledger

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByClient(ctx context.Context, clientID int64) ([]MovementDetail, error)
	ListAll(ctx context.Context) ([]MovementDetail, error)
}

// ClientDirectory is the slice of the clients module the ledger needs.
type ClientDirectory interface {
	List(ctx context.Context) ([]clients.Client, error)
	Get(ctx context.Context, id int64) (clients.Client, error)
}

// VariantCatalog resolves variants for movement validation.
type VariantCatalog interface {
	GetVariant(ctx context.Context, id int64) (catalog.VariantWithProduct, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MovementObserver counts recorded movements, typically Prometheus.
type MovementObserver interface {
	ObserveMovement(movementType string)
}

// Service coordinates the movement ledger.
type Service struct {
	repo           RepositoryPort
	directory      ClientDirectory
	catalog        VariantCatalog
	audit          AuditPort
	idempotency    *shared.IdempotencyStore
	cache          *Cache
	defaultDeposit decimal.Decimal
	observer       MovementObserver
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// DefaultDeposit applies when neither movement nor variant carries
	// a per-keg deposit.
	DefaultDeposit decimal.Decimal
	// Observer receives a tick per recorded movement. May be nil.
	Observer MovementObserver
}

// NewService builds Service.
func NewService(repo RepositoryPort, directory ClientDirectory, cat VariantCatalog, audit AuditPort, idem *shared.IdempotencyStore, cache *Cache, cfg ServiceConfig) *Service {
	return &Service{
		repo:           repo,
		directory:      directory,
		catalog:        cat,
		audit:          audit,
		idempotency:    idem,
		cache:          cache,
		defaultDeposit: cfg.DefaultDeposit,
		observer:       cfg.Observer,
	}
}

// Record appends a movement to the ledger. For return types the
// resulting kegs-held is checked inside the transaction; on a violation
// nothing is written and ErrInsufficientStock is returned.
func (s *Service) Record(ctx context.Context, input RecordInput) (int64, error) {
	if !input.Type.IsValid() {
		return 0, ErrInvalidMovementType
	}
	if input.Qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	if input.UnitPriceTTC.Valid && input.UnitPriceTTC.Decimal.IsNegative() {
		return 0, ErrInvalidQuantity
	}
	if input.DepositPerKeg.Valid && input.DepositPerKeg.Decimal.IsNegative() {
		return 0, ErrInvalidQuantity
	}

	if _, err := s.directory.Get(ctx, input.ClientID); err != nil {
		return 0, err
	}
	variant, err := s.catalog.GetVariant(ctx, input.VariantID)
	if err != nil {
		return 0, err
	}

	if input.Code != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.Code, "LEDGER"); err != nil {
			return 0, err
		}
	}

	var movementID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.Type.IsReturn() {
			if err := tx.LockClient(ctx, input.ClientID); err != nil {
				return err
			}
			held, err := tx.KegsHeld(ctx, input.ClientID, input.VariantID)
			if err != nil {
				return err
			}
			if held-input.Qty < 0 {
				return ErrInsufficientStock
			}
		}
		id, err := tx.InsertMovement(ctx, Movement{
			ClientID:      input.ClientID,
			VariantID:     input.VariantID,
			Type:          input.Type,
			Qty:           input.Qty,
			UnitPriceTTC:  input.UnitPriceTTC,
			DepositPerKeg: input.DepositPerKeg,
			Notes:         input.Notes,
		})
		if err != nil {
			return err
		}
		movementID = id
		return tx.AdjustDepot(ctx, input.VariantID, depotDelta(input.Type, input.Qty))
	})
	if err != nil {
		if input.Code != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, input.Code)
		}
		return 0, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "ledger.record",
			Entity:   "movement",
			EntityID: strconv.FormatInt(movementID, 10),
			Meta: map[string]any{
				"client_id":  input.ClientID,
				"variant_id": input.VariantID,
				"type":       string(input.Type),
				"qty":        input.Qty,
				"variant":    variant.Label(),
			},
		})
	}
	if s.observer != nil {
		s.observer.ObserveMovement(string(input.Type))
	}
	_ = s.cache.Bump(ctx)

	return movementID, nil
}

// depotDelta maps a client movement onto depot stock: a sortie leaves
// the depot, a reprise brings the empty keg back. Defective and full
// returns go back to the brewery, not into depot stock.
func depotDelta(t MovementType, qty int) int {
	switch t {
	case MovementOut:
		return -qty
	case MovementIn:
		return qty
	default:
		return 0
	}
}

// History returns a client's movements newest first, for the detail page.
func (s *Service) History(ctx context.Context, clientID int64) ([]MovementDetail, error) {
	moves, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(moves)-1; i < j; i, j = i+1, j-1 {
		moves[i], moves[j] = moves[j], moves[i]
	}
	return moves, nil
}

// Summary folds a client's full movement history into kegs held,
// deposit balance and beer total. Pure read.
func (s *Service) Summary(ctx context.Context, clientID int64) (ClientSummary, error) {
	client, err := s.directory.Get(ctx, clientID)
	if err != nil {
		return ClientSummary{}, err
	}
	moves, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return ClientSummary{}, err
	}
	return s.fold(client, moves), nil
}
