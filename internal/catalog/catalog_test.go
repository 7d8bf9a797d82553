package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/atom-clicker/internal/game"
)

func TestDefault_Shape(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Buildings, 8)
	// 7 static, 8×12 building milestones, 6 click, 9 produced, 99 rare atoms.
	assert.Len(t, c.Upgrades, 7+96+6+9+99)
	assert.Len(t, c.Boosts, 4)

	i, ok := c.BuildingIndex("Proton")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, game.DefaultGrowth, c.Buildings[i].Growth)
	assert.Equal(t, 1.15, c.Buildings[7].Growth)
}

func TestDefault_GeneratedMilestones(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	i, ok := c.UpgradeIndex("15 Electron")
	require.True(t, ok)
	u := c.Upgrades[i]
	// round(15 × 1.2^15 × ln(120)) = 1106
	assert.Equal(t, "1106", u.Price.String())
	assert.Equal(t, game.BuildingEffect("Electron", game.ModeMultiply, 1.5), u.Effect)
	require.NotNil(t, u.Condition)
	assert.Equal(t, game.Condition{Target: game.TargetBuilding, Building: "Electron", Count: 15}, *u.Condition)

	i, ok = c.UpgradeIndex("1,000 clicks")
	require.True(t, ok)
	assert.Equal(t, game.Multiply(game.TargetClicks, 3), c.Upgrades[i].Effect)
	assert.Equal(t, "10000", c.Upgrades[i].Price.String())

	_, ok = c.UpgradeIndex("100,000,000 clicks")
	assert.False(t, ok, "range stops below its bound")

	i, ok = c.UpgradeIndex("1,000,000,000 atoms generated")
	require.True(t, ok)
	assert.Equal(t, game.Multiply(game.TargetBuildingGlobal, 3), c.Upgrades[i].Effect)

	i, ok = c.UpgradeIndex("Rare Atom 3")
	require.True(t, ok)
	rare := c.Upgrades[i]
	assert.Equal(t, "1000", rare.Price.String())
	assert.Equal(t, game.Add(game.TargetClickAPS, 0.01), rare.Effect)
	assert.Equal(t, 100.0, rare.Condition.Count)

	_, ok = c.UpgradeIndex("Rare Atom 99")
	assert.True(t, ok)
}

func TestNewGame(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	s := c.NewGame()
	require.Len(t, s.Buildings, len(c.Buildings))
	require.Len(t, s.Upgrades, len(c.Upgrades))
	assert.True(t, s.Upgrade("Sharper Cursor").Unlocked)
	assert.False(t, s.Upgrade("15 Electron").Unlocked)

	// Instances are independent of the definitions.
	s.Buildings[0].Owned = 3
	assert.Equal(t, 0, c.NewGame().Buildings[0].Owned)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml": "buildings: [",
		"duplicate building": `
buildings:
  - {name: A, rate: 1, price: 10}
  - {name: A, rate: 2, price: 20}
`,
		"zero price": `
buildings:
  - {name: A, rate: 1, price: 0}
`,
		"unknown effect building": `
buildings:
  - {name: A, rate: 1, price: 10}
upgrades:
  - {name: U, price: 5, effect: {kind: building, building: B, value: 2}}
`,
		"unknown condition building": `
buildings:
  - {name: A, rate: 1, price: 10}
upgrades:
  - name: U
    price: 5
    effect: {kind: clicks, value: 2}
    condition: {kind: building, building: B, count: 1}
`,
		"unknown kind": `
upgrades:
  - {name: U, price: 5, effect: {kind: lasers, value: 2}}
`,
		"bad expression": `
generators:
  - name: '"x" +'
    levels: [1]
    price: '1'
    effect: {kind: clicks, value: '2'}
`,
		"unbounded range": `
generators:
  - name: '"x" + Fmt(Level)'
    range: {from: 1, below: 10}
    price: '1'
    effect: {kind: clicks, value: '2'}
`,
		"non-finite price": `
generators:
  - name: '"x" + Fmt(Level)'
    levels: [0]
    price: 'Ln(Level)'
    effect: {kind: clicks, value: '2'}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
buildings:
  - {name: Quark, rate: 0.5, price: 20, growth: 1.1}
upgrades:
  - {name: Up Quark, price: 50, effect: {kind: building, building: Quark, value: 2}}
generators:
  - name: '"Quark x" + Fmt(Level)'
    for_each_building: true
    levels: [10]
    price: 'Building.Price * Level'
    effect: {kind: building, mode: add, value: '1'}
    condition: {kind: building, count: 'Level'}
boosts:
  - {name: Spin, effect: {kind: clicks, value: 2}, duration: 10}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Upgrades, 2)
	assert.Equal(t, "Quark x10", c.Upgrades[1].Name)
	assert.Equal(t, "200", c.Upgrades[1].Price.String())
	assert.Equal(t, game.BuildingEffect("Quark", game.ModeAdd, 1), c.Upgrades[1].Effect)

	b, ok := c.Boost("Spin")
	require.True(t, ok)
	assert.Equal(t, 10.0, b.Duration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
