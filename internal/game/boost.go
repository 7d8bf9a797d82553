package game

import (
	"errors"
	"fmt"
)

// BoostSpec is a temporary bonus that appears at random. Clicking it
// applies Effect; after Duration seconds of game time the inverse effect
// is applied for targets that hold a stored multiplier.
type BoostSpec struct {
	Name      string
	Effect    Effect
	Condition *Condition
	Duration  float64 // seconds; 0 keeps the effect
}

// Validate checks the definition is usable.
func (b BoostSpec) Validate() error {
	if b.Name == "" {
		return errors.New("boost: empty name")
	}
	if b.Duration < 0 {
		return fmt.Errorf("boost %q: negative duration", b.Name)
	}
	if err := b.Effect.Validate(); err != nil {
		return fmt.Errorf("boost %q: %w", b.Name, err)
	}
	if b.Condition != nil {
		if err := b.Condition.Validate(); err != nil {
			return fmt.Errorf("boost %q: %w", b.Name, err)
		}
	}
	return nil
}

// Eligible reports whether the boost may appear for s.
func (b BoostSpec) Eligible(s *State) bool {
	return b.Condition == nil || b.Condition.Met(s)
}

// ActiveBoost is a running boost waiting to be reverted.
type ActiveBoost struct {
	Name      string  `json:"name"`
	ExpiresAt float64 `json:"expires_at"` // game clock seconds
	Remaining float64 `json:"remaining"`
}

type activeBoost struct {
	name    string
	effect  Effect
	expires float64
}

// reversible lists targets whose boost is undone on expiry.
func reversible(t Target) bool {
	switch t {
	case TargetBuilding, TargetBuildingGlobal, TargetClicks, TargetClickAPS:
		return true
	}
	return false
}

// ActivateBoost applies the boost effect and schedules its reversal.
func (s *State) ActivateBoost(b BoostSpec) error {
	if err := ApplyEffect(b.Effect, s); err != nil {
		return fmt.Errorf("boost %q: %w", b.Name, err)
	}
	if b.Duration <= 0 || !reversible(b.Effect.Target) {
		return nil
	}
	s.active = append(s.active, activeBoost{name: b.Name, effect: b.Effect, expires: s.Clock + b.Duration})
	return nil
}

// ActiveBoosts lists running boosts.
func (s *State) ActiveBoosts() []ActiveBoost {
	out := make([]ActiveBoost, 0, len(s.active))
	for _, a := range s.active {
		out = append(out, ActiveBoost{Name: a.name, ExpiresAt: a.expires, Remaining: a.expires - s.Clock})
	}
	return out
}

// RevertBoosts ends every running boost now.
func (s *State) RevertBoosts() {
	for _, a := range s.active {
		a.effect.undo(s)
	}
	s.active = nil
}

func (s *State) expireBoosts() {
	if len(s.active) == 0 {
		return
	}
	kept := s.active[:0]
	for _, a := range s.active {
		if a.expires <= s.Clock {
			a.effect.undo(s)
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
}
