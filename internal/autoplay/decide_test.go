package autoplay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/atom-clicker/internal/engine"
)

func view() engine.View {
	return engine.View{
		Atoms:      "150",
		APS:        "0",
		ClickValue: "1",
		Buildings: []engine.BuildingView{
			{Name: "Electron", Price: "15", PriceShort: "15", Rate: 0.1},
			{Name: "Proton", Price: "100", PriceShort: "100", Rate: 1},
			{Name: "Neutron", Price: "1100", PriceShort: "1,100", Rate: 8},
		},
		Upgrades: []engine.UpgradeView{
			{Name: "Owned", Price: "1", Unlocked: true, Owned: true},
			{Name: "Locked", Price: "2", Unlocked: false},
			{Name: "Pricey", Price: "500", Unlocked: true},
			{Name: "Cheap", Price: "120", Unlocked: true, Effect: "Multiply clicks by 200%."},
		},
	}
}

func decide(v engine.View, opts Options) Decision {
	snap := &Snapshot{State: v}
	return Decide(snap, Triage(snap), opts)
}

func TestDecide_PrefersBoost(t *testing.T) {
	v := view()
	v.SpawnedBoosts = []engine.SpawnedBoost{{ID: "b1", Name: "Click Frenzy"}}

	d := decide(v, Options{})
	assert.Equal(t, ActionClickBoost, d.Action)
	assert.Equal(t, "b1", d.Target)
}

func TestDecide_CheapestAffordableUpgrade(t *testing.T) {
	d := decide(view(), Options{})
	assert.Equal(t, ActionBuyUpgrade, d.Action)
	assert.Equal(t, "Cheap", d.Target)
	assert.Contains(t, d.Rationale, "Multiply clicks")
}

func TestDecide_BestBuildingPerAtom(t *testing.T) {
	v := view()
	v.Upgrades = nil

	d := decide(v, Options{Bulk: true})
	assert.Equal(t, ActionBuyBuilding, d.Action)
	// 1/100 beats 0.1/15; Neutron is unaffordable.
	assert.Equal(t, "Proton", d.Target)
	assert.False(t, d.Bulk, "bulk only once idle")
}

func TestDecide_ClickWhenBroke(t *testing.T) {
	v := view()
	v.Atoms = "3"

	d := decide(v, Options{ClicksPerCycle: 25})
	assert.Equal(t, ActionClick, d.Action)
	assert.Equal(t, 25, d.Clicks)

	d = decide(v, Options{})
	assert.Equal(t, 1, d.Clicks)
}

func TestDecide_WaitWhenIdle(t *testing.T) {
	v := view()
	v.Atoms = "3"
	v.APS = "1000"

	d := decide(v, Options{})
	assert.Equal(t, ActionWait, d.Action)
}

func TestTriage(t *testing.T) {
	v := view()
	v.Buildings[0].Owned = 3
	v.Buildings[1].Owned = 2

	p := Triage(&Snapshot{State: v})
	assert.Equal(t, 5, p.Owned)
	assert.Equal(t, 1, p.Upgrades)
	assert.Equal(t, PhaseClicking, p.Phase)
	assert.Equal(t, "150", p.Atoms.String())

	v.APS = "10"
	assert.Equal(t, PhaseBuilding, Triage(&Snapshot{State: v}).Phase)
	v.APS = "51"
	assert.Equal(t, PhaseIdle, Triage(&Snapshot{State: v}).Phase)

	v.Atoms = "garbage"
	assert.True(t, Triage(&Snapshot{State: v}).Atoms.IsZero())
}
