package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Condition is an unlock predicate: the metric selected by Target must be at
// least Count.
//
//	building       owned count of Building
//	clicks         total clicks
//	buildingGlobal owned count summed over all buildings
//	clickAPS       click yield
//	atoms          total atoms produced
//	aps            atoms per second
type Condition struct {
	Target   Target  `json:"kind"`
	Building string  `json:"building,omitempty"`
	Count    float64 `json:"count"`
}

// Validate checks the condition is well formed.
func (c Condition) Validate() error {
	if int(c.Target) >= len(targetNames) {
		return fmt.Errorf("condition: unknown target %d", uint8(c.Target))
	}
	if math.IsNaN(c.Count) || math.IsInf(c.Count, 0) {
		return fmt.Errorf("condition: count %v is not finite", c.Count)
	}
	if c.Target == TargetBuilding && c.Building == "" {
		return errors.New("condition: building target without a building name")
	}
	return nil
}

// Met reports whether the condition holds for s. It has no side effects.
func (c Condition) Met(s *State) bool {
	count := decimal.NewFromFloat(c.Count)

	switch c.Target {
	case TargetBuilding:
		b := s.Building(c.Building)
		return b != nil && float64(b.Owned) >= c.Count
	case TargetClicks:
		return float64(s.TotalClicks) >= c.Count
	case TargetBuildingGlobal:
		return float64(s.TotalOwned()) >= c.Count
	case TargetClickAPS:
		return s.ClickYield.GreaterThanOrEqual(count)
	case TargetAtoms:
		return s.TotalProduced.GreaterThanOrEqual(count)
	case TargetAPS:
		return s.APS.GreaterThanOrEqual(count)
	}
	return false
}

// Describe renders the condition for the UI.
func (c Condition) Describe() string {
	n := formatFloat(c.Count)
	switch c.Target {
	case TargetBuilding:
		return fmt.Sprintf("Own %s %s.", n, c.Building)
	case TargetClicks:
		return fmt.Sprintf("Click %s times.", n)
	case TargetBuildingGlobal:
		return fmt.Sprintf("Own %s buildings.", n)
	case TargetClickAPS:
		return fmt.Sprintf("Reach %s atoms per click.", n)
	case TargetAtoms:
		return fmt.Sprintf("Produce %s atoms.", n)
	case TargetAPS:
		return fmt.Sprintf("Reach %s atoms per second.", n)
	}
	return ""
}
