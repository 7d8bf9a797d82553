package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrUnknownBuilding means an effect or condition names a building the
// state does not hold. It indicates malformed static data, not a user action.
var ErrUnknownBuilding = errors.New("unknown building")

// Effect is a permanent (or, for boosts, temporary) change to one quantity
// of the game state. Value is the multiplier in ModeMultiply and the
// addend in ModeAdd.
type Effect struct {
	Target   Target
	Building string // only for TargetBuilding
	Mode     Mode
	Value    float64
}

// Multiply builds a multiply-form effect.
func Multiply(t Target, factor float64) Effect {
	return Effect{Target: t, Mode: ModeMultiply, Value: factor}
}

// Add builds an add-form effect.
func Add(t Target, amount float64) Effect {
	return Effect{Target: t, Mode: ModeAdd, Value: amount}
}

// BuildingEffect builds an effect on one named building's boost.
func BuildingEffect(name string, mode Mode, value float64) Effect {
	return Effect{Target: TargetBuilding, Building: name, Mode: mode, Value: value}
}

// Validate checks the effect is well formed. It does not check that the
// referenced building exists; that needs a building list.
func (e Effect) Validate() error {
	if int(e.Target) >= len(targetNames) {
		return fmt.Errorf("effect: unknown target %d", uint8(e.Target))
	}
	if e.Mode > ModeAdd {
		return fmt.Errorf("effect: unknown mode %d", uint8(e.Mode))
	}
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("effect: value %v is not finite", e.Value)
	}
	if e.Mode == ModeMultiply && e.Value < 0 {
		return fmt.Errorf("effect: negative multiplier %v", e.Value)
	}
	if e.Target == TargetBuilding && e.Building == "" {
		return errors.New("effect: building target without a building name")
	}
	return nil
}

// undo reverses a previously applied effect on s. Multipliers are divided
// out rather than multiplied by their reciprocal so decimal targets return
// to their exact prior value. A zero multiplier cannot be undone. A building
// missing from s has nothing to revert.
func (e Effect) undo(s *State) {
	if e.Mode == ModeMultiply && e.Value == 0 {
		return
	}
	switch e.Target {
	case TargetBuilding:
		if b := s.Building(e.Building); b != nil {
			b.Boost = e.revert(b.Boost)
		}
	case TargetClicks:
		s.ClickYield = clampZero(e.revertDecimal(s.ClickYield))
	case TargetBuildingGlobal:
		s.GlobalBoost = e.revert(s.GlobalBoost)
	case TargetClickAPS:
		s.ClickAPSBonus = e.revert(s.ClickAPSBonus)
	}
	s.recompute()
}

func (e Effect) revert(v float64) float64 {
	if e.Mode == ModeMultiply {
		return v / e.Value
	}
	return v - e.Value
}

func (e Effect) revertDecimal(v decimal.Decimal) decimal.Decimal {
	if e.Mode == ModeMultiply {
		return v.Div(decimal.NewFromFloat(e.Value))
	}
	return v.Sub(decimal.NewFromFloat(e.Value))
}

func (e Effect) apply(v float64) float64 {
	if e.Mode == ModeMultiply {
		return v * e.Value
	}
	return v + e.Value
}

func (e Effect) applyDecimal(v decimal.Decimal) decimal.Decimal {
	if e.Mode == ModeMultiply {
		return v.Mul(decimal.NewFromFloat(e.Value))
	}
	return v.Add(decimal.NewFromFloat(e.Value))
}

// ApplyEffect applies e to s. A building effect naming a building that s does
// not hold returns ErrUnknownBuilding and leaves s untouched.
func ApplyEffect(e Effect, s *State) error {
	switch e.Target {
	case TargetBuilding:
		b := s.Building(e.Building)
		if b == nil {
			return fmt.Errorf("%w: %q", ErrUnknownBuilding, e.Building)
		}
		b.Boost = e.apply(b.Boost)
	case TargetClicks:
		s.ClickYield = clampZero(e.applyDecimal(s.ClickYield))
	case TargetBuildingGlobal:
		s.GlobalBoost = e.apply(s.GlobalBoost)
	case TargetClickAPS:
		s.ClickAPSBonus = e.apply(s.ClickAPSBonus)
	case TargetAPS:
		// The rate is rebuilt from buildings every tick, so a multiplier is
		// folded into the additive bonus at the current rate.
		if e.Mode == ModeMultiply {
			s.APSBonus = s.APSBonus.Add(s.APS.Mul(decimal.NewFromFloat(e.Value - 1)))
		} else {
			s.APSBonus = s.APSBonus.Add(decimal.NewFromFloat(e.Value))
		}
	case TargetAtoms:
		s.Atoms = clampZero(e.applyDecimal(s.Atoms))
	default:
		return fmt.Errorf("apply effect: unknown target %v", e.Target)
	}
	s.recompute()
	return nil
}

// Describe renders the effect as a sentence for the UI.
func (e Effect) Describe() string {
	pct := formatFloat(e.Value * 100)
	val := formatFloat(e.Value)
	mul := e.Mode == ModeMultiply

	switch e.Target {
	case TargetBuilding:
		if mul {
			return fmt.Sprintf("Multiply %s by %s%%.", e.Building, pct)
		}
		return fmt.Sprintf("Add %s to %s boost.", val, e.Building)
	case TargetClicks:
		if mul {
			return fmt.Sprintf("Multiply clicks by %s%%.", pct)
		}
		return fmt.Sprintf("Add %s atoms per click.", val)
	case TargetBuildingGlobal:
		if mul {
			return fmt.Sprintf("Multiply buildings by %s%%.", pct)
		}
		return fmt.Sprintf("Add %s%% to buildings.", pct)
	case TargetClickAPS:
		if mul {
			return fmt.Sprintf("Multiply the boost of APS to clicks by %s%%.", pct)
		}
		return fmt.Sprintf("Add %s%% of APS to clicks.", pct)
	case TargetAPS:
		if mul {
			return fmt.Sprintf("Multiply atoms per second by %s%%.", pct)
		}
		return fmt.Sprintf("Add %s atoms per second.", val)
	case TargetAtoms:
		if mul {
			return fmt.Sprintf("Multiply atoms by %s%%.", pct)
		}
		return fmt.Sprintf("Add %s atoms.", val)
	}
	return ""
}

// effectJSON is the persisted shape. Multiplier and Addition are pointers so
// documents written before Mode existed can still be read.
type effectJSON struct {
	Kind       Target   `json:"kind"`
	Building   string   `json:"building,omitempty"`
	Mode       *Mode    `json:"mode,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
	Addition   *float64 `json:"addition,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Effect) MarshalJSON() ([]byte, error) {
	mode := e.Mode
	v := e.Value
	out := effectJSON{Kind: e.Target, Building: e.Building, Mode: &mode}
	if e.Mode == ModeMultiply {
		out.Multiplier = &v
	} else {
		out.Addition = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Without an explicit mode a
// non-zero multiplier selects multiply, anything else selects add.
func (e *Effect) UnmarshalJSON(b []byte) error {
	var in effectJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	out := Effect{Target: in.Kind, Building: in.Building}

	switch {
	case in.Mode != nil && *in.Mode == ModeMultiply:
		if in.Multiplier == nil {
			return errors.New("effect: multiply mode without multiplier")
		}
		out.Mode, out.Value = ModeMultiply, *in.Multiplier
	case in.Mode != nil:
		if in.Addition == nil {
			return errors.New("effect: add mode without addition")
		}
		out.Mode, out.Value = ModeAdd, *in.Addition
	case in.Multiplier != nil && *in.Multiplier != 0:
		out.Mode, out.Value = ModeMultiply, *in.Multiplier
	case in.Addition != nil:
		out.Mode, out.Value = ModeAdd, *in.Addition
	default:
		return errors.New("effect: neither multiplier nor addition")
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*e = out
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
