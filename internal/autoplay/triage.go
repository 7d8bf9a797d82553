package autoplay

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/atom-clicker/internal/engine"
)

// Phase is how far along the game is, which decides whether clicking is
// still worth the requests.
type Phase string

const (
	PhaseClicking Phase = "clicking" // nothing produces yet
	PhaseBuilding Phase = "building" // clicks still matter
	PhaseIdle     Phase = "idle"     // production dwarfs clicks
)

// idleRatio is how many clicks' worth of APS makes clicking pointless.
const idleRatio = 50

// Progress holds signals derived from a snapshot.
type Progress struct {
	Atoms      decimal.Decimal
	APS        decimal.Decimal
	ClickValue decimal.Decimal
	Owned      int // buildings owned in total
	Upgrades   int // upgrades owned
	Phase      Phase
}

// Triage computes Progress from the snapshot.
func Triage(snap *Snapshot) *Progress {
	v := snap.State
	p := &Progress{
		Atoms:      parseDecimal(v.Atoms),
		APS:        parseDecimal(v.APS),
		ClickValue: parseDecimal(v.ClickValue),
	}
	for _, b := range v.Buildings {
		p.Owned += b.Owned
	}
	for _, u := range v.Upgrades {
		if u.Owned {
			p.Upgrades++
		}
	}

	switch {
	case p.APS.IsZero():
		p.Phase = PhaseClicking
	case p.APS.GreaterThan(p.ClickValue.Mul(decimal.NewFromInt(idleRatio))):
		p.Phase = PhaseIdle
	default:
		p.Phase = PhaseBuilding
	}
	return p
}

// parseDecimal reads a decimal string from the API; garbage reads as zero.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// upgradeCandidates returns unlocked, unowned upgrades.
func upgradeCandidates(v engine.View) []engine.UpgradeView {
	var out []engine.UpgradeView
	for _, u := range v.Upgrades {
		if u.Unlocked && !u.Owned {
			out = append(out, u)
		}
	}
	return out
}
