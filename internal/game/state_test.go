package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := New(
		[]BuildingSpec{
			{Name: "Electron", Rate: 0.1, Price: 10, Growth: 1.2},
			{Name: "Proton", Rate: 1, Price: 100, Growth: 1.2},
		},
		[]UpgradeSpec{
			{Name: "Double Tap", Price: dec("50"), Effect: Multiply(TargetClicks, 2)},
			{
				Name:      "Hundred Clicks",
				Price:     dec("10"),
				Effect:    Add(TargetClicks, 1),
				Condition: &Condition{Target: TargetClicks, Count: 100},
			},
		},
	)
	require.NoError(t, err)
	return s
}

func TestNew_Defaults(t *testing.T) {
	s := newTestState(t)

	assert.True(t, s.Atoms.IsZero())
	assert.True(t, s.TotalProduced.IsZero())
	assert.Equal(t, "1", s.ClickYield.String())
	assert.Equal(t, 1.0, s.GlobalBoost)
	assert.Equal(t, 0.0, s.ClickAPSBonus)
	assert.True(t, s.APS.IsZero())
	assert.Len(t, s.Buildings, 2)
	assert.Len(t, s.Upgrades, 2)

	assert.True(t, s.Upgrade("Double Tap").Unlocked)
	assert.False(t, s.Upgrade("Hundred Clicks").Unlocked)
}

func TestNew_DuplicateNames(t *testing.T) {
	_, err := New([]BuildingSpec{{Name: "A", Price: 1}, {Name: "A", Price: 2}}, nil)
	require.Error(t, err)

	_, err = New(nil, []UpgradeSpec{{Name: "U"}, {Name: "U"}})
	require.Error(t, err)
}

func TestPurchaseBuilding_FirstUnit(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("10")
	b := s.Building("Electron")

	n := s.PurchaseBuilding(b, false)

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, b.Owned)
	assert.True(t, s.Atoms.IsZero())
	assert.Equal(t, "12", b.Cost().String())
}

func TestPurchaseBuilding_RejectedLeavesStateUnchanged(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("9.99")
	before := s.Clone()

	n := s.PurchaseBuilding(s.Building("Electron"), false)

	assert.Zero(t, n)
	assert.True(t, before.Atoms.Equal(s.Atoms))
	assert.Equal(t, 0, s.Building("Electron").Owned)
}

func TestPurchaseBuilding_ForeignInstance(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("1000")
	other := NewBuilding(BuildingSpec{Name: "Electron", Rate: 1, Price: 1})

	assert.Zero(t, s.PurchaseBuilding(other, false))
	assert.Zero(t, s.PurchaseBuilding(nil, true))
	assert.Equal(t, "1000", s.Atoms.String())
}

func TestPurchaseBuilding_Bulk(t *testing.T) {
	s := newTestState(t)
	// 10 + 12 + 14 + 17 = 53
	s.Atoms = dec("60")
	b := s.Building("Electron")

	n := s.PurchaseBuilding(b, true)

	assert.Equal(t, 4, n)
	assert.Equal(t, 4, b.Owned)
	assert.Equal(t, "7", s.Atoms.String())
	assert.False(t, b.Affordable(s.Atoms))
}

func TestPurchaseBuilding_RecomputesAPS(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("110")

	require.Equal(t, 1, s.PurchaseBuilding(s.Building("Proton"), false))
	require.Equal(t, 1, s.PurchaseBuilding(s.Building("Electron"), false))

	assert.Equal(t, "1.1", s.APS.String())
}

func TestPurchaseUpgrade_ClickMultiplier(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("50")
	u := s.Upgrade("Double Tap")

	ok, err := s.PurchaseUpgrade(u)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, u.Owned)
	assert.True(t, s.Atoms.IsZero())

	got := s.Click()
	assert.Equal(t, "2", got.String())
	assert.Equal(t, "2", s.Atoms.String())
	assert.Equal(t, int64(1), s.TotalClicks)
}

func TestPurchaseUpgrade_Rejections(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("1000")

	locked := s.Upgrade("Hundred Clicks")
	ok, err := s.PurchaseUpgrade(locked)
	require.NoError(t, err)
	assert.False(t, ok, "locked upgrade must not sell")

	u := s.Upgrade("Double Tap")
	ok, err = s.PurchaseUpgrade(u)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.PurchaseUpgrade(u)
	require.NoError(t, err)
	assert.False(t, ok, "owned upgrade must not sell twice")
	assert.Equal(t, "950", s.Atoms.String())
	assert.Equal(t, "2", s.ClickYield.String())

	poor := newTestState(t)
	poor.Atoms = dec("49")
	ok, err = poor.PurchaseUpgrade(poor.Upgrade("Double Tap"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "49", poor.Atoms.String())
}

func TestPurchaseUpgrade_UnknownBuilding(t *testing.T) {
	s, err := New(nil, []UpgradeSpec{
		{Name: "Ghost Boost", Price: dec("5"), Effect: BuildingEffect("Ghost", ModeMultiply, 2)},
	})
	require.NoError(t, err)
	s.Atoms = dec("5")

	ok, err := s.PurchaseUpgrade(s.Upgrade("Ghost Boost"))

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
	assert.Equal(t, "5", s.Atoms.String())
	assert.False(t, s.Upgrade("Ghost Boost").Owned)
}

func TestPurchase_Dispatch(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("60")

	n, err := s.Purchase(s.Building("Electron"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Purchase(s.Upgrade("Double Tap"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Purchase(s.Upgrade("Double Tap"), false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReevaluateUnlocks_ClickThreshold(t *testing.T) {
	s := newTestState(t)
	u := s.Upgrade("Hundred Clicks")

	for i := 0; i < 99; i++ {
		s.Click()
	}
	assert.Empty(t, s.ReevaluateUnlocks())
	assert.False(t, u.Unlocked)

	s.Click()
	unlocked := s.ReevaluateUnlocks()
	require.Len(t, unlocked, 1)
	assert.Same(t, u, unlocked[0])
	assert.True(t, u.Unlocked)

	// Permanent and idempotent.
	s.TotalClicks = 0
	assert.Empty(t, s.ReevaluateUnlocks())
	assert.True(t, u.Unlocked)
}

func TestTick_Accrues(t *testing.T) {
	s := newTestState(t)
	s.Building("Proton").Owned = 2
	s.Tick(0.5)

	assert.Equal(t, "2", s.APS.String())
	assert.Equal(t, "1", s.Atoms.String())
	assert.Equal(t, "1", s.TotalProduced.String())
	assert.Equal(t, 0.5, s.Clock)
}

func TestTick_IgnoresBadElapsed(t *testing.T) {
	s := newTestState(t)
	s.Building("Proton").Owned = 1

	s.Tick(-3)
	s.Tick(0)
	assert.True(t, s.Atoms.IsZero())
	assert.Equal(t, 0.0, s.Clock)
}

func TestTotalProduced_NeverDecreases(t *testing.T) {
	s := newTestState(t)
	s.Atoms = dec("200")
	s.TotalProduced = dec("200")

	s.PurchaseBuilding(s.Building("Proton"), true)
	s.PurchaseUpgrade(s.Upgrade("Double Tap"))

	assert.Equal(t, "200", s.TotalProduced.String())
	assert.True(t, s.Atoms.GreaterThanOrEqual(decimal.Zero))
}

func TestClickValue_APSShare(t *testing.T) {
	s := newTestState(t)
	s.Building("Proton").Owned = 3
	s.Tick(0)

	s.ClickAPSBonus = 0.1234
	// 1 + 3 * 0.1234 = 1.3702, rounded up to two places.
	assert.Equal(t, "1.38", s.ClickValue().String())

	s.ClickAPSBonus = 0
	assert.Equal(t, "1", s.ClickValue().String())
}

func TestClone_Independent(t *testing.T) {
	s := newTestState(t)
	c := s.Clone()

	c.Building("Electron").Owned = 5
	c.Upgrade("Double Tap").Owned = true
	c.Atoms = dec("3")

	assert.Equal(t, 0, s.Building("Electron").Owned)
	assert.False(t, s.Upgrade("Double Tap").Owned)
	assert.True(t, s.Atoms.IsZero())
}

func TestWaitTime(t *testing.T) {
	s := newTestState(t)

	_, ok := s.WaitTime(dec("10"))
	assert.False(t, ok, "no production means no estimate")

	s.Atoms = dec("10")
	d, ok := s.WaitTime(dec("10"))
	assert.True(t, ok)
	assert.Zero(t, d)

	s.Building("Proton").Owned = 2
	s.Tick(0)
	d, ok = s.WaitTime(dec("15"))
	assert.True(t, ok)
	assert.Equal(t, "3s", d.String())
}
