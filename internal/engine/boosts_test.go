package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/atom-clicker/internal/game"
)

var frenzy = game.BoostSpec{Name: "Frenzy", Effect: game.Multiply(game.TargetClicks, 7), Duration: 30}

func TestSpawner_SpawnsAndExpires(t *testing.T) {
	sp := NewSpawner(42)
	st := game.NewEmpty()
	st.Clock = 100

	// Ten minutes of rolls make a spawn all but certain.
	b, expired := sp.Advance(600, st, []game.BoostSpec{frenzy})
	require.NotNil(t, b)
	assert.Empty(t, expired)
	assert.Equal(t, "Frenzy", b.Name)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, 125.0, b.ExpiresAt)
	assert.GreaterOrEqual(t, b.X, 0.0)
	assert.LessOrEqual(t, b.X, 1.0)
	assert.GreaterOrEqual(t, b.Y, 0.0)
	assert.LessOrEqual(t, b.Y, 1.0)

	again, _ := sp.Advance(600, st, []game.BoostSpec{frenzy})
	assert.Nil(t, again, "one copy per boost on screen")
	assert.Len(t, sp.Spawned(), 1)

	st.Clock = 125
	_, expired = sp.Advance(0, st, nil)
	require.Len(t, expired, 1)
	assert.Equal(t, b.ID, expired[0].ID)
	assert.Empty(t, sp.Spawned())
}

func TestSpawner_IneligibleNeverSpawns(t *testing.T) {
	sp := NewSpawner(1)
	st := game.NewEmpty()
	locked := game.BoostSpec{
		Name:      "Locked",
		Effect:    game.Add(game.TargetAtoms, 10),
		Condition: &game.Condition{Target: game.TargetClicks, Count: 100},
	}

	for i := 0; i < 10; i++ {
		b, _ := sp.Advance(600, st, []game.BoostSpec{locked})
		assert.Nil(t, b)
	}
}

func TestSpawner_NoTimeNoSpawn(t *testing.T) {
	sp := NewSpawner(7)
	st := game.NewEmpty()

	b, _ := sp.Advance(0, st, []game.BoostSpec{frenzy})
	assert.Nil(t, b)
	b, _ = sp.Advance(-5, st, []game.BoostSpec{frenzy})
	assert.Nil(t, b)
}

func TestSpawner_TakeForceClear(t *testing.T) {
	sp := NewSpawner(3)
	st := game.NewEmpty()

	b := sp.Force("Frenzy", st)
	assert.Equal(t, DefaultLifetime, b.ExpiresAt)

	got, ok := sp.Take(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = sp.Take(b.ID)
	assert.False(t, ok)

	sp.Force("Frenzy", st)
	sp.Clear()
	assert.Empty(t, sp.Spawned())
}

func TestSpawnProbability(t *testing.T) {
	assert.InDelta(t, spawnChance, spawnProbability(1), 1e-12)
	assert.InDelta(t, 1-(1-spawnChance)*(1-spawnChance), spawnProbability(2), 1e-12)
	assert.InDelta(t, 0.18, spawnProbability(60), 0.01, "one game second")
	assert.Equal(t, 1.0, spawnProbability(1e9))
}

func TestSpawner_HugeStepRollsOnce(t *testing.T) {
	sp := NewSpawner(5)
	st := game.NewEmpty()

	b, _ := sp.Advance(1e9, st, []game.BoostSpec{frenzy})
	require.NotNil(t, b)
	assert.GreaterOrEqual(t, sp.acc, 0.0)
	assert.Less(t, sp.acc, spawnSlice)
}

func TestSpawner_PartialSliceCarries(t *testing.T) {
	sp := NewSpawner(9)
	st := game.NewEmpty()

	b, _ := sp.Advance(spawnSlice/2, st, []game.BoostSpec{frenzy})
	assert.Nil(t, b)
	assert.InDelta(t, spawnSlice/2, sp.acc, 1e-12)
}
