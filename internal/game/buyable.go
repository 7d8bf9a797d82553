package game

import "github.com/shopspring/decimal"

// Buyable is anything the player can spend atoms on.
type Buyable interface {
	ID() string
	Cost() decimal.Decimal
	Affordable(atoms decimal.Decimal) bool
	// Pristine reports whether the instance still matches its definition,
	// which lets a save refer to it by catalog position alone.
	Pristine() bool
}

var (
	_ Buyable = (*Building)(nil)
	_ Buyable = (*Upgrade)(nil)
)
