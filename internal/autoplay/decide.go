package autoplay

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/atom-clicker/internal/engine"
)

// Actions the bot can take.
const (
	ActionClickBoost  = "click_boost"
	ActionBuyUpgrade  = "buy_upgrade"
	ActionBuyBuilding = "buy_building"
	ActionClick       = "click"
	ActionWait        = "wait"
)

// Decision is one action with the reason it was chosen.
type Decision struct {
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"` // building/upgrade name or boost ID
	Bulk      bool   `json:"bulk,omitempty"`
	Clicks    int    `json:"clicks,omitempty"`
	Rationale string `json:"rationale"`
}

// Options tune Decide.
type Options struct {
	ClicksPerCycle int  // clicks sent when clicking is the best move
	Bulk           bool // buy buildings in bulk once idle
}

// Decide picks the next action, in priority order: a boost on screen, the
// cheapest affordable upgrade, the affordable building with the best
// output per atom spent, then clicking (or waiting once clicks no longer
// matter).
func Decide(snap *Snapshot, p *Progress, opts Options) Decision {
	v := snap.State

	if len(v.SpawnedBoosts) > 0 {
		b := v.SpawnedBoosts[0]
		return Decision{Action: ActionClickBoost, Target: b.ID, Rationale: b.Name + " is on screen"}
	}

	if u, ok := cheapestUpgrade(v, p.Atoms); ok {
		return Decision{
			Action:    ActionBuyUpgrade,
			Target:    u.Name,
			Rationale: fmt.Sprintf("affordable upgrade at %s: %s", u.PriceShort, u.Effect),
		}
	}

	if b, ok := bestBuilding(v, p.Atoms); ok {
		return Decision{
			Action:    ActionBuyBuilding,
			Target:    b.Name,
			Bulk:      opts.Bulk && p.Phase == PhaseIdle,
			Rationale: fmt.Sprintf("best output per atom at %s", b.PriceShort),
		}
	}

	if p.Phase == PhaseIdle {
		return Decision{Action: ActionWait, Rationale: "production outpaces clicking"}
	}
	n := opts.ClicksPerCycle
	if n <= 0 {
		n = 1
	}
	return Decision{Action: ActionClick, Clicks: n, Rationale: "nothing affordable"}
}

func cheapestUpgrade(v engine.View, atoms decimal.Decimal) (engine.UpgradeView, bool) {
	var best engine.UpgradeView
	var bestPrice decimal.Decimal
	found := false
	for _, u := range upgradeCandidates(v) {
		price := parseDecimal(u.Price)
		if price.GreaterThan(atoms) {
			continue
		}
		if !found || price.LessThan(bestPrice) {
			best, bestPrice, found = u, price, true
		}
	}
	return best, found
}

// bestBuilding ranks affordable buildings by per-unit output over price.
func bestBuilding(v engine.View, atoms decimal.Decimal) (engine.BuildingView, bool) {
	var best engine.BuildingView
	var bestScore decimal.Decimal
	found := false
	for _, b := range v.Buildings {
		price := parseDecimal(b.Price)
		if !price.IsPositive() || price.GreaterThan(atoms) {
			continue
		}
		score := decimal.NewFromFloat(b.Rate).Div(price)
		if !found || score.GreaterThan(bestScore) {
			best, bestScore, found = b, score, true
		}
	}
	return best, found
}
