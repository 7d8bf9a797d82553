package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// clickPlaces is the precision a click yield is rounded up to.
const clickPlaces = 2

// State holds all numeric progress of one game. Derived values (APS) are
// rebuilt from stored fields; nothing is cached beyond that.
type State struct {
	Atoms         decimal.Decimal // spendable, never negative
	TotalProduced decimal.Decimal // lifetime production, never decremented
	TotalClicks   int64
	ClickYield    decimal.Decimal // atoms per click before the APS share
	ClickAPSBonus float64         // share of APS added to each click
	APS           decimal.Decimal // atoms per second, derived
	APSBonus      decimal.Decimal // flat APS from upgrades
	GlobalBoost   float64         // multiplier on every building

	Clock float64 // seconds of game time advanced by Tick

	Buildings []*Building
	Upgrades  []*Upgrade

	active []activeBoost
}

// NewEmpty returns a state with default ledger values and no buyables.
func NewEmpty() *State {
	return &State{
		Atoms:         decimal.Zero,
		TotalProduced: decimal.Zero,
		ClickYield:    decimal.NewFromInt(1),
		APS:           decimal.Zero,
		APSBonus:      decimal.Zero,
		GlobalBoost:   1,
	}
}

// New returns a fresh state holding one instance per definition.
func New(buildings []BuildingSpec, upgrades []UpgradeSpec) (*State, error) {
	s := NewEmpty()
	for _, spec := range buildings {
		if err := s.AddBuilding(NewBuilding(spec)); err != nil {
			return nil, err
		}
	}
	for _, spec := range upgrades {
		if err := s.AddUpgrade(NewUpgrade(spec)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddBuilding appends b. Names must be unique.
func (s *State) AddBuilding(b *Building) error {
	if s.Building(b.Name) != nil {
		return fmt.Errorf("duplicate building %q", b.Name)
	}
	s.Buildings = append(s.Buildings, b)
	s.recompute()
	return nil
}

// AddUpgrade appends u. Names must be unique.
func (s *State) AddUpgrade(u *Upgrade) error {
	if s.Upgrade(u.Name) != nil {
		return fmt.Errorf("duplicate upgrade %q", u.Name)
	}
	s.Upgrades = append(s.Upgrades, u)
	return nil
}

// Building returns the building with the given name, or nil.
func (s *State) Building(name string) *Building {
	for _, b := range s.Buildings {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Upgrade returns the upgrade with the given name, or nil.
func (s *State) Upgrade(name string) *Upgrade {
	for _, u := range s.Upgrades {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// TotalOwned sums owned units across all buildings.
func (s *State) TotalOwned() int {
	n := 0
	for _, b := range s.Buildings {
		n += b.Owned
	}
	return n
}

// Tick advances the game by elapsed seconds. Non-finite or negative
// elapsed values advance nothing.
func (s *State) Tick(elapsed float64) {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		elapsed = 0
	}
	s.Clock += elapsed
	s.expireBoosts()
	s.recompute()

	if elapsed == 0 || s.APS.IsZero() {
		return
	}
	gain := s.APS.Mul(decimal.NewFromFloat(elapsed))
	s.Atoms = s.Atoms.Add(gain)
	s.TotalProduced = s.TotalProduced.Add(gain)
}

// recompute rebuilds APS from buildings and the flat bonus.
func (s *State) recompute() {
	total := decimal.Zero
	for _, b := range s.Buildings {
		total = total.Add(b.Output(s.GlobalBoost))
	}
	total = total.Add(s.APSBonus)
	s.APS = clampZero(total)
}

// ClickValue is the yield the next click would grant:
// clickYield + APS × clickAPSBonus, rounded up to 2 places.
func (s *State) ClickValue() decimal.Decimal {
	v := s.ClickYield.Add(s.APS.Mul(decimal.NewFromFloat(s.ClickAPSBonus)))
	return clampZero(v.RoundCeil(clickPlaces))
}

// Click grants one click yield and returns it.
func (s *State) Click() decimal.Decimal {
	v := s.ClickValue()
	s.Atoms = s.Atoms.Add(v)
	s.TotalProduced = s.TotalProduced.Add(v)
	s.TotalClicks++
	return v
}

// PurchaseBuilding buys one unit of b, or as many as affordable when bulk
// is set. It returns the number bought; zero means rejected and nothing
// changed.
func (s *State) PurchaseBuilding(b *Building, bulk bool) int {
	if b == nil || s.Building(b.Name) != b {
		return 0
	}
	n := 0
	for {
		price := b.Cost()
		if s.Atoms.LessThan(price) {
			break
		}
		s.Atoms = s.Atoms.Sub(price)
		b.Owned++
		n++
		if !bulk || price.Sign() <= 0 {
			break
		}
	}
	if n > 0 {
		s.recompute()
	}
	return n
}

// PurchaseUpgrade buys u if it is unlocked, not owned and affordable. The
// price is deducted and the effect applied together or not at all. An
// error means the effect refers to a building this state does not hold.
func (s *State) PurchaseUpgrade(u *Upgrade) (bool, error) {
	if u == nil || s.Upgrade(u.Name) != u || !u.Purchasable(s.Atoms) {
		return false, nil
	}
	if u.Effect.Target == TargetBuilding && s.Building(u.Effect.Building) == nil {
		return false, fmt.Errorf("upgrade %q: %w: %q", u.Name, ErrUnknownBuilding, u.Effect.Building)
	}
	s.Atoms = s.Atoms.Sub(u.Price)
	u.Owned = true
	if err := ApplyEffect(u.Effect, s); err != nil {
		return true, fmt.Errorf("upgrade %q: %w", u.Name, err)
	}
	return true, nil
}

// Purchase dispatches to PurchaseBuilding or PurchaseUpgrade and returns
// the number of items bought.
func (s *State) Purchase(item Buyable, bulk bool) (int, error) {
	switch v := item.(type) {
	case *Building:
		return s.PurchaseBuilding(v, bulk), nil
	case *Upgrade:
		ok, err := s.PurchaseUpgrade(v)
		if ok {
			return 1, err
		}
		return 0, err
	}
	return 0, fmt.Errorf("purchase: unsupported buyable %T", item)
}

// ReevaluateUnlocks unlocks every locked upgrade whose condition now holds
// and returns them. Unlocks are permanent.
func (s *State) ReevaluateUnlocks() []*Upgrade {
	var unlocked []*Upgrade
	for _, u := range s.Upgrades {
		if u.Unlocked {
			continue
		}
		if u.Condition == nil || u.Condition.Met(s) {
			u.Unlocked = true
			unlocked = append(unlocked, u)
		}
	}
	return unlocked
}

// Clone returns a deep copy of s. Definitions are immutable and shared.
func (s *State) Clone() *State {
	c := *s
	c.Buildings = make([]*Building, len(s.Buildings))
	for i, b := range s.Buildings {
		cp := *b
		c.Buildings[i] = &cp
	}
	c.Upgrades = make([]*Upgrade, len(s.Upgrades))
	for i, u := range s.Upgrades {
		cp := *u
		c.Upgrades[i] = &cp
	}
	c.active = append([]activeBoost(nil), s.active...)
	return &c
}
