package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
)

// visibilityRepo mimics how PostgreSQL exposes rows to a movement
// transaction: a transaction starts with a view of committed rows, the
// client row lock is held until commit, and taking the lock refreshes
// the view with whatever the previous holder committed. Without the
// lock two transactions keep their begin-time views and can both pass
// the non-negativity check.
type visibilityRepo struct {
	mu        sync.Mutex
	committed []MovementDetail
	nextID    int64

	clientMu sync.Mutex

	variants map[int64]catalog.VariantWithProduct
	begun    sync.WaitGroup
}

func newVisibilityRepo(variants map[int64]catalog.VariantWithProduct) *visibilityRepo {
	return &visibilityRepo{variants: variants}
}

func (r *visibilityRepo) snapshot() []MovementDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	view := make([]MovementDetail, len(r.committed))
	copy(view, r.committed)
	return view
}

func (r *visibilityRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &visibilityTx{repo: r, view: r.snapshot()}
	r.begun.Done()
	r.begun.Wait()
	defer func() {
		if tx.locked {
			r.clientMu.Unlock()
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.mu.Lock()
	r.committed = append(r.committed, tx.staged...)
	r.mu.Unlock()
	return nil
}

func (r *visibilityRepo) ListByClient(ctx context.Context, clientID int64) ([]MovementDetail, error) {
	result := []MovementDetail{}
	for _, m := range r.snapshot() {
		if m.ClientID == clientID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *visibilityRepo) ListAll(ctx context.Context) ([]MovementDetail, error) {
	return r.snapshot(), nil
}

type visibilityTx struct {
	repo   *visibilityRepo
	view   []MovementDetail
	staged []MovementDetail
	locked bool
}

func (tx *visibilityTx) LockClient(ctx context.Context, clientID int64) error {
	tx.repo.clientMu.Lock()
	tx.locked = true
	tx.view = tx.repo.snapshot()
	return nil
}

func (tx *visibilityTx) KegsHeld(ctx context.Context, clientID, variantID int64) (int, error) {
	held := 0
	for _, m := range tx.view {
		if m.ClientID != clientID || m.VariantID != variantID {
			continue
		}
		if m.Type == MovementOut {
			held += m.Qty
		} else {
			held -= m.Qty
		}
	}
	return held, nil
}

func (tx *visibilityTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.repo.mu.Lock()
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.mu.Unlock()
	variant := tx.repo.variants[m.VariantID]
	tx.staged = append(tx.staged, MovementDetail{
		Movement:          m,
		ProductName:       variant.ProductName,
		SizeL:             variant.SizeL,
		VariantPriceTTC:   decimal.NullDecimal{Decimal: variant.PriceTTC, Valid: true},
		VariantDepositEUR: variant.DepositEUR,
	})
	return m.ID, nil
}

func (tx *visibilityTx) AdjustDepot(ctx context.Context, variantID int64, delta int) error {
	return nil
}

// Two reprises race for the last keg a client holds. Exactly one may
// win; the loser must see the refreshed count and be rejected, never
// leaving the fold below zero.
func TestRecordConcurrentReturnsCannotOverdraw(t *testing.T) {
	variants := testVariants()
	repo := newVisibilityRepo(variants)
	variant := variants[1]
	repo.committed = append(repo.committed, MovementDetail{
		Movement:    Movement{ID: 1, ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 1},
		ProductName: variant.ProductName,
		SizeL:       variant.SizeL,
	})
	repo.nextID = 1

	directory := &stubDirectory{byID: map[int64]clients.Client{
		1: {ID: 1, Name: "Maison Michel"},
	}}
	svc := NewService(repo, directory, &stubCatalog{byID: variants}, nil, nil, nil, ServiceConfig{
		DefaultDeposit: decimal.NewFromInt(30),
	})

	repo.begun.Add(2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Record(context.Background(), RecordInput{
				ClientID: 1, VariantID: 1, Type: MovementDefect, Qty: 1,
			})
			errs <- err
		}()
	}

	accepted, rejected := 0, 0
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, ErrInsufficientStock)
			rejected++
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, 1, rejected)

	held := 0
	for _, m := range repo.snapshot() {
		if m.Type == MovementOut {
			held += m.Qty
		} else {
			held -= m.Qty
		}
	}
	require.Equal(t, 0, held)
}
