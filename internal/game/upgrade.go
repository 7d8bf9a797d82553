package game

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// UpgradeSpec is the immutable definition of an upgrade.
type UpgradeSpec struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Effect      Effect
	Condition   *Condition // nil means unlocked from the start
}

// Validate checks the definition is usable.
func (s UpgradeSpec) Validate() error {
	if s.Name == "" {
		return errors.New("upgrade: empty name")
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("upgrade %q: negative price", s.Name)
	}
	if err := s.Effect.Validate(); err != nil {
		return fmt.Errorf("upgrade %q: %w", s.Name, err)
	}
	if s.Condition != nil {
		if err := s.Condition.Validate(); err != nil {
			return fmt.Errorf("upgrade %q: %w", s.Name, err)
		}
	}
	return nil
}

// Upgrade is a one-time purchase. Owned and Unlocked only ever go from
// false to true.
type Upgrade struct {
	UpgradeSpec
	Owned    bool
	Unlocked bool
}

// NewUpgrade creates an unowned upgrade, unlocked when it has no condition.
func NewUpgrade(spec UpgradeSpec) *Upgrade {
	return &Upgrade{UpgradeSpec: spec, Unlocked: spec.Condition == nil}
}

// ID returns the upgrade name.
func (u *Upgrade) ID() string { return u.Name }

// Cost returns the upgrade price.
func (u *Upgrade) Cost() decimal.Decimal { return u.Price }

// Affordable reports whether atoms cover the price. It ignores lock state.
func (u *Upgrade) Affordable(atoms decimal.Decimal) bool {
	return atoms.GreaterThanOrEqual(u.Price)
}

// Purchasable reports whether the upgrade can be bought with atoms right now.
func (u *Upgrade) Purchasable(atoms decimal.Decimal) bool {
	return u.Unlocked && !u.Owned && u.Affordable(atoms)
}

// Pristine reports whether the upgrade still has its default mutable state.
func (u *Upgrade) Pristine() bool {
	return !u.Owned && u.Unlocked == (u.Condition == nil)
}
