package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultGrowth is the price multiplier applied per owned unit when a
// building does not set its own.
const DefaultGrowth = 1.2

// outputPlaces is the precision building output is truncated to.
const outputPlaces = 3

// BuildingSpec is the immutable definition of a building.
type BuildingSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Rate        float64 `json:"rate"`   // atoms per second per owned unit
	Price       float64 `json:"price"`  // price of the first unit
	Growth      float64 `json:"growth"` // price multiplier per owned unit
}

// Validate checks the definition is usable.
func (s BuildingSpec) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("building: empty name")
	case !(s.Price > 0) || math.IsInf(s.Price, 0):
		return fmt.Errorf("building %q: price must be positive, got %v", s.Name, s.Price)
	case s.Rate < 0 || math.IsNaN(s.Rate) || math.IsInf(s.Rate, 0):
		return fmt.Errorf("building %q: invalid rate %v", s.Name, s.Rate)
	case s.Growth < 1 || math.IsInf(s.Growth, 0):
		return fmt.Errorf("building %q: growth must be >= 1, got %v", s.Name, s.Growth)
	}
	return nil
}

// Building is a live production source.
type Building struct {
	BuildingSpec
	Owned int     // units bought
	Boost float64 // accumulated multiplier from upgrades, starts at 1
}

// NewBuilding creates an unowned building from its definition.
func NewBuilding(spec BuildingSpec) *Building {
	if spec.Growth == 0 {
		spec.Growth = DefaultGrowth
	}
	return &Building{BuildingSpec: spec, Boost: 1}
}

// ID returns the building name.
func (b *Building) ID() string { return b.Name }

// Cost returns the price of the next unit: round(price × growth^owned).
func (b *Building) Cost() decimal.Decimal {
	return PriceAt(b.BuildingSpec, b.Owned)
}

// PriceAt returns the price of the unit bought when owned units are held.
func PriceAt(spec BuildingSpec, owned int) decimal.Decimal {
	growth := spec.Growth
	if growth == 0 {
		growth = DefaultGrowth
	}
	p := decimal.NewFromFloat(spec.Price)
	if owned > 0 {
		p = p.Mul(decimal.NewFromFloat(growth).Pow(decimal.NewFromInt(int64(owned))))
	}
	return p.Round(0)
}

// Affordable reports whether atoms cover the next unit.
func (b *Building) Affordable(atoms decimal.Decimal) bool {
	return atoms.GreaterThanOrEqual(b.Cost())
}

// Pristine reports whether the building still has its default mutable state.
func (b *Building) Pristine() bool {
	return b.Owned == 0 && b.Boost == 1
}

// Output returns rate × owned × boost × global, truncated to 3 places.
func (b *Building) Output(global float64) decimal.Decimal {
	if b.Owned == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(b.Rate).
		Mul(decimal.NewFromInt(int64(b.Owned))).
		Mul(decimal.NewFromFloat(b.Boost)).
		Mul(decimal.NewFromFloat(global)).
		Truncate(outputPlaces)
}

// UnitOutput returns the output of a single unit including its own boost.
func (b *Building) UnitOutput() float64 {
	return b.Rate * b.Boost
}
