package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
)

func TestOverviewTotalsAndOrder(t *testing.T) {
	variants := testVariants()
	repo := newMemoryRepo(variants)
	directory := &stubDirectory{byID: map[int64]clients.Client{
		1: {ID: 1, Name: "Maison Michel"},
		2: {ID: 2, Name: "Écurie de Pencran"},
		3: {ID: 3, Name: "Landerneau Football Club"},
	}}
	svc := NewService(repo, directory, &stubCatalog{byID: variants}, nil, nil, nil, ServiceConfig{
		DefaultDeposit: decimal.NewFromInt(30),
	})
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 2})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordInput{ClientID: 3, VariantID: 2, Type: MovementOut, Qty: 5})
	require.NoError(t, err)

	overview, err := svc.GetOverview(ctx)
	require.NoError(t, err)
	require.Len(t, overview.Cards, 3)

	// French collation: É sorts with E, between the other two names.
	require.Equal(t, "Écurie de Pencran", overview.Cards[0].ClientName)
	require.Equal(t, "Landerneau Football Club", overview.Cards[1].ClientName)
	require.Equal(t, "Maison Michel", overview.Cards[2].ClientName)

	require.Equal(t, 7, overview.Totals.Kegs)
	require.True(t, overview.Totals.BeerEUR.Equal(decimal.RequireFromString("701.00")), "beer %s", overview.Totals.BeerEUR)
	require.True(t, overview.Totals.DepositEUR.Equal(decimal.RequireFromString("210.00")), "deposit %s", overview.Totals.DepositEUR)
}

func TestFoldPositionsKeepFirstSeenOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 2, Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 3})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 2, Type: MovementIn, Qty: 1})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summary.Positions, 2)
	require.Equal(t, int64(2), summary.Positions[0].VariantID)
	require.Equal(t, 0, summary.Positions[0].Kegs)
	require.Equal(t, int64(1), summary.Positions[1].VariantID)
	require.Equal(t, 3, summary.Positions[1].Kegs)
}

func TestFoldUnrelatedPairsDoNotInteract(t *testing.T) {
	ctx := context.Background()

	run := func(inputs []RecordInput) ClientSummary {
		svc, _ := newTestService(t)
		for _, in := range inputs {
			_, err := svc.Record(ctx, in)
			require.NoError(t, err)
		}
		summary, err := svc.Summary(ctx, 1)
		require.NoError(t, err)
		return summary
	}

	a := run([]RecordInput{
		{ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 4},
		{ClientID: 1, VariantID: 2, Type: MovementOut, Qty: 2},
		{ClientID: 1, VariantID: 1, Type: MovementIn, Qty: 1},
	})
	b := run([]RecordInput{
		{ClientID: 1, VariantID: 2, Type: MovementOut, Qty: 2},
		{ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 4},
		{ClientID: 1, VariantID: 1, Type: MovementIn, Qty: 1},
	})

	require.Equal(t, a.Kegs, b.Kegs)
	require.True(t, a.BeerEUR.Equal(b.BeerEUR))
	require.True(t, a.DepositEUR.Equal(b.DepositEUR))
}

func TestEffectiveDepositFallbacks(t *testing.T) {
	variants := map[int64]catalog.VariantWithProduct{
		1: {Variant: catalog.Variant{ID: 1, ProductID: 1, SizeL: 20, PriceTTC: decimal.RequireFromString("88.00")}, ProductName: "Coreff Rousse"},
		2: {
			Variant: catalog.Variant{
				ID: 2, ProductID: 2, SizeL: 30,
				PriceTTC:   decimal.RequireFromString("105.00"),
				DepositEUR: decimal.NullDecimal{Decimal: decimal.RequireFromString("45.00"), Valid: true},
			},
			ProductName: "Coreff Blonde",
		},
	}
	repo := newMemoryRepo(variants)
	directory := &stubDirectory{byID: map[int64]clients.Client{1: {ID: 1, Name: "Maison Michel"}}}
	svc := NewService(repo, directory, &stubCatalog{byID: variants}, nil, nil, nil, ServiceConfig{
		DefaultDeposit: decimal.NewFromInt(30),
	})
	ctx := context.Background()

	// Variant 1 has no deposit of its own: the configured default applies.
	_, err := svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	// Variant 2 carries its own deposit.
	_, err = svc.Record(ctx, RecordInput{ClientID: 1, VariantID: 2, Type: MovementOut, Qty: 1})
	require.NoError(t, err)
	// A movement-level deposit beats both.
	_, err = svc.Record(ctx, RecordInput{
		ClientID: 1, VariantID: 2, Type: MovementOut, Qty: 1,
		DepositPerKeg: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.00"), Valid: true},
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	require.True(t, summary.DepositEUR.Equal(decimal.RequireFromString("85.00")), "deposit %s", summary.DepositEUR)
}

func TestFoldRoundsPositionDeposits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{
		ClientID: 1, VariantID: 1, Type: MovementOut, Qty: 3,
		DepositPerKeg: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.333"), Valid: true},
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summary.Positions, 1)
	// Positions render next to the card total: both carry the same
	// two-decimal rounding.
	require.True(t, summary.Positions[0].DepositEUR.Equal(decimal.RequireFromString("31.00")), "position deposit %s", summary.Positions[0].DepositEUR)
	require.True(t, summary.DepositEUR.Equal(summary.Positions[0].DepositEUR), "card %s position %s", summary.DepositEUR, summary.Positions[0].DepositEUR)
}
