// Package game provides the atom ledger, buildings, upgrades, and the rules
// that tie them together: production ticks, clicks, purchases, effects and
// unlock conditions. Everything here is pure arithmetic over State; no I/O.
package game

import (
	"fmt"
)

// Target names the quantity an Effect modifies or a Condition measures.
type Target uint8

const (
	TargetBuilding       Target = iota // one named building's boost / owned count
	TargetClicks                       // click yield / total clicks
	TargetBuildingGlobal               // global building boost / total owned buildings
	TargetClickAPS                     // share of APS added to clicks / click yield
	TargetAPS                          // atoms per second bonus / atoms per second
	TargetAtoms                        // spendable atoms / total atoms produced
)

var targetNames = [...]string{
	TargetBuilding:       "building",
	TargetClicks:         "clicks",
	TargetBuildingGlobal: "buildingGlobal",
	TargetClickAPS:       "clickAPS",
	TargetAPS:            "aps",
	TargetAtoms:          "atoms",
}

// String returns the wire name of the target.
func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// ParseTarget resolves a wire name into a Target.
func ParseTarget(name string) (Target, error) {
	for i, n := range targetNames {
		if n == name {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("unknown target %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	if int(t) >= len(targetNames) {
		return nil, fmt.Errorf("unknown target %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Mode selects how an Effect combines with its target.
type Mode uint8

const (
	ModeMultiply Mode = iota
	ModeAdd
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMultiply:
		return "multiply"
	case ModeAdd:
		return "add"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode resolves "multiply" or "add".
func ParseMode(name string) (Mode, error) {
	switch name {
	case "multiply":
		return ModeMultiply, nil
	case "add":
		return ModeAdd, nil
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m > ModeAdd {
		return nil, fmt.Errorf("unknown mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
