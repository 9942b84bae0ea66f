package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates supported keg movements.
type MovementType string

const (
	// MovementOut is a sortie: kegs delivered to the client.
	MovementOut MovementType = "OUT"
	// MovementIn is a reprise: empty kegs taken back from the client.
	MovementIn MovementType = "IN"
	// MovementDefect is a defective keg returned, refunded like a reprise.
	MovementDefect MovementType = "DEFECT"
	// MovementFull is a full keg returned untapped.
	MovementFull MovementType = "FULL"
)

// IsValid checks whether the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementOut, MovementIn, MovementDefect, MovementFull:
		return true
	default:
		return false
	}
}

// IsReturn reports whether the movement reduces the kegs a client holds.
func (t MovementType) IsReturn() bool {
	return t == MovementIn || t == MovementDefect || t == MovementFull
}

// Movement is one immutable ledger entry. Entries are append-only,
// never edited or deleted; all balances derive from folding them.
type Movement struct {
	ID            int64
	ClientID      int64
	VariantID     int64
	Type          MovementType
	Qty           int
	UnitPriceTTC  decimal.NullDecimal
	DepositPerKeg decimal.NullDecimal
	Notes         string
	CreatedAt     time.Time
}

// MovementDetail carries the variant context needed to price an entry.
type MovementDetail struct {
	Movement
	ProductName       string
	SizeL             int
	VariantPriceTTC   decimal.NullDecimal
	VariantDepositEUR decimal.NullDecimal
}

// RecordInput describes a request to append a movement.
type RecordInput struct {
	ClientID      int64
	VariantID     int64
	Type          MovementType
	Qty           int
	UnitPriceTTC  decimal.NullDecimal
	DepositPerKeg decimal.NullDecimal
	Notes         string
	// Code is an optional form nonce guarding against double submission.
	Code string
}

// VariantPosition is the derived state for one (client, variant) pair.
type VariantPosition struct {
	VariantID   int64           `json:"variant_id"`
	ProductName string          `json:"product_name"`
	SizeL       int             `json:"size_l"`
	Kegs        int             `json:"kegs"`
	DepositEUR  decimal.Decimal `json:"deposit_eur"`
}

// ClientSummary aggregates a client's outstanding kegs and money.
type ClientSummary struct {
	ClientID   int64             `json:"client_id"`
	ClientName string            `json:"client_name"`
	Kegs       int               `json:"kegs"`
	BeerEUR    decimal.Decimal   `json:"beer_eur"`
	DepositEUR decimal.Decimal   `json:"deposit_eur"`
	Equipment  Equipment         `json:"equipment"`
	Positions  []VariantPosition `json:"positions"`
}

// Totals sums the summaries shown on the overview page.
type Totals struct {
	Kegs       int             `json:"kegs"`
	BeerEUR    decimal.Decimal `json:"beer_eur"`
	DepositEUR decimal.Decimal `json:"deposit_eur"`
	Equipment  Equipment       `json:"equipment"`
}

// Overview is the landing page payload, one card per client.
type Overview struct {
	Cards  []ClientSummary `json:"cards"`
	Totals Totals          `json:"totals"`
}

// ErrInsufficientStock is returned when a reprise would drive the kegs a
// client holds below zero. The movement is not recorded.
var ErrInsufficientStock = errors.New("ledger: return exceeds kegs held")

// ErrInvalidQuantity indicates a non-positive keg count.
var ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

// ErrInvalidMovementType indicates an unknown movement type.
var ErrInvalidMovementType = errors.New("ledger: invalid movement type")
