package engine

import (
	"github.com/talgya/atom-clicker/internal/game"
	"github.com/talgya/atom-clicker/internal/numfmt"
)

// View is a read-only picture of the game for the UI. Exact quantities are
// decimal strings; the *Short fields are formatted for display.
type View struct {
	Atoms         string  `json:"atoms"`
	AtomsShort    string  `json:"atoms_short"`
	APS           string  `json:"aps"`
	APSShort      string  `json:"aps_short"`
	ClickValue    string  `json:"click_value"`
	TotalProduced string  `json:"total_produced"`
	TotalClicks   int64   `json:"total_clicks"`
	ClickAPSBonus string  `json:"click_aps_bonus"`
	GlobalBoost   float64 `json:"global_boost"`
	Clock         float64 `json:"clock"`

	Buildings     []BuildingView     `json:"buildings"`
	Upgrades      []UpgradeView      `json:"upgrades"`
	ActiveBoosts  []game.ActiveBoost `json:"active_boosts"`
	SpawnedBoosts []SpawnedBoost     `json:"spawned_boosts"`
}

// BuildingView describes one building.
type BuildingView struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Owned       int     `json:"owned"`
	Price       string  `json:"price"`
	PriceShort  string  `json:"price_short"`
	Affordable  bool    `json:"affordable"`
	Rate        float64 `json:"rate"` // per unit, boosts included
	Output      string  `json:"output"`
	OutputShort string  `json:"output_short"`
	Boost       float64 `json:"boost"`
	Wait        string  `json:"wait"`
}

// UpgradeView describes one upgrade.
type UpgradeView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Effect      string `json:"effect"`
	Condition   string `json:"condition,omitempty"`
	Price       string `json:"price"`
	PriceShort  string `json:"price_short"`
	Unlocked    bool   `json:"unlocked"`
	Owned       bool   `json:"owned"`
	Affordable  bool   `json:"affordable"`
	Wait        string `json:"wait,omitempty"`
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state

	v := View{
		Atoms:         st.Atoms.String(),
		AtomsShort:    numfmt.Short(st.Atoms),
		APS:           st.APS.String(),
		APSShort:      numfmt.Short(st.APS),
		ClickValue:    st.ClickValue().String(),
		TotalProduced: st.TotalProduced.String(),
		TotalClicks:   st.TotalClicks,
		ClickAPSBonus: numfmt.Percent(st.ClickAPSBonus),
		GlobalBoost:   st.GlobalBoost,
		Clock:         st.Clock,
		Buildings:     make([]BuildingView, 0, len(st.Buildings)),
		Upgrades:      make([]UpgradeView, 0, len(st.Upgrades)),
		ActiveBoosts:  st.ActiveBoosts(),
		SpawnedBoosts: s.spawner.Spawned(),
	}

	for _, b := range st.Buildings {
		price := b.Cost()
		out := b.Output(st.GlobalBoost)
		v.Buildings = append(v.Buildings, BuildingView{
			Name:        b.Name,
			Description: b.Description,
			Owned:       b.Owned,
			Price:       price.String(),
			PriceShort:  numfmt.Short(price),
			Affordable:  b.Affordable(st.Atoms),
			Rate:        b.UnitOutput() * st.GlobalBoost,
			Output:      out.String(),
			OutputShort: numfmt.Short(out),
			Boost:       b.Boost,
			Wait:        numfmt.Wait(st.WaitTime(price)),
		})
	}

	for _, u := range st.Upgrades {
		uv := UpgradeView{
			Name:        u.Name,
			Description: u.Description,
			Effect:      u.Effect.Describe(),
			Price:       u.Price.String(),
			PriceShort:  numfmt.Short(u.Price),
			Unlocked:    u.Unlocked,
			Owned:       u.Owned,
			Affordable:  u.Affordable(st.Atoms),
		}
		if u.Condition != nil {
			uv.Condition = u.Condition.Describe()
		}
		if u.Unlocked && !u.Owned {
			uv.Wait = numfmt.Wait(st.WaitTime(u.Price))
		}
		v.Upgrades = append(v.Upgrades, uv)
	}
	return v
}
