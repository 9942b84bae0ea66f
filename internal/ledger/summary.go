package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
)

// GetOverview builds the landing page cards, one per client, served
// from the Redis cache when fresh.
func (s *Service) GetOverview(ctx context.Context) (Overview, error) {
	var overview Overview
	err := s.cache.FetchJSON(ctx, "overview", &overview, func(ctx context.Context) (any, error) {
		return s.buildOverview(ctx)
	})
	return overview, err
}

func (s *Service) buildOverview(ctx context.Context) (Overview, error) {
	clientList, err := s.directory.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	moves, err := s.repo.ListAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	byClient := make(map[int64][]MovementDetail, len(clientList))
	for _, m := range moves {
		byClient[m.ClientID] = append(byClient[m.ClientID], m)
	}

	overview := Overview{Cards: make([]ClientSummary, 0, len(clientList))}
	overview.Totals.BeerEUR = decimal.Zero
	overview.Totals.DepositEUR = decimal.Zero
	for _, c := range clientList {
		card := s.fold(c, byClient[c.ID])
		overview.Cards = append(overview.Cards, card)
		overview.Totals.Kegs += card.Kegs
		overview.Totals.BeerEUR = overview.Totals.BeerEUR.Add(card.BeerEUR)
		overview.Totals.DepositEUR = overview.Totals.DepositEUR.Add(card.DepositEUR)
		overview.Totals.Equipment.Add(card.Equipment, 1)
	}

	// Breton client names carry accents, plain byte order misplaces them.
	coll := collate.New(language.French)
	sort.SliceStable(overview.Cards, func(i, j int) bool {
		return coll.CompareString(overview.Cards[i].ClientName, overview.Cards[j].ClientName) < 0
	})

	return overview, nil
}

// fold replays a client's movements in timestamp order. Final keg and
// deposit totals are independent of how unrelated pairs interleave.
func (s *Service) fold(client clients.Client, moves []MovementDetail) ClientSummary {
	summary := ClientSummary{
		ClientID:   client.ID,
		ClientName: client.Name,
		BeerEUR:    decimal.Zero,
		DepositEUR: decimal.Zero,
	}

	type positionKey struct{ variantID int64 }
	positions := make(map[positionKey]*VariantPosition)
	order := []positionKey{}

	for _, m := range moves {
		key := positionKey{variantID: m.VariantID}
		pos, ok := positions[key]
		if !ok {
			pos = &VariantPosition{
				VariantID:   m.VariantID,
				ProductName: m.ProductName,
				SizeL:       m.SizeL,
				DepositEUR:  decimal.Zero,
			}
			positions[key] = pos
			order = append(order, key)
		}

		qty := decimal.NewFromInt(int64(m.Qty))
		price := effectivePrice(m)
		deposit := s.effectiveDeposit(m)
		gear := ParseEquipment(m.Notes)

		switch {
		case m.Type == MovementOut:
			summary.Kegs += m.Qty
			pos.Kegs += m.Qty
			summary.BeerEUR = summary.BeerEUR.Add(qty.Mul(price))
			summary.DepositEUR = summary.DepositEUR.Add(qty.Mul(deposit))
			pos.DepositEUR = pos.DepositEUR.Add(qty.Mul(deposit))
			summary.Equipment.Add(gear, 1)
		case m.Type.IsReturn():
			summary.Kegs -= m.Qty
			pos.Kegs -= m.Qty
			summary.DepositEUR = summary.DepositEUR.Sub(qty.Mul(deposit))
			pos.DepositEUR = pos.DepositEUR.Sub(qty.Mul(deposit))
			summary.Equipment.Add(gear, -1)
		}
	}

	summary.Positions = make([]VariantPosition, 0, len(order))
	for _, key := range order {
		pos := *positions[key]
		pos.DepositEUR = pos.DepositEUR.Round(2)
		summary.Positions = append(summary.Positions, pos)
	}
	summary.BeerEUR = summary.BeerEUR.Round(2)
	summary.DepositEUR = summary.DepositEUR.Round(2)
	return summary
}

// effectivePrice prefers the price captured on the movement, falling
// back to the variant's list price.
func effectivePrice(m MovementDetail) decimal.Decimal {
	if m.UnitPriceTTC.Valid {
		return m.UnitPriceTTC.Decimal
	}
	if m.VariantPriceTTC.Valid {
		return m.VariantPriceTTC.Decimal
	}
	return decimal.Zero
}

// effectiveDeposit prefers the deposit captured on the movement, then
// the variant's, then the configured default.
func (s *Service) effectiveDeposit(m MovementDetail) decimal.Decimal {
	if m.DepositPerKeg.Valid {
		return m.DepositPerKeg.Decimal
	}
	if m.VariantDepositEUR.Valid {
		return m.VariantDepositEUR.Decimal
	}
	return s.defaultDeposit
}
