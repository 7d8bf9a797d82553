package engine

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/atom-clicker/internal/game"
)

// Spawn timing: one roll per 1/60 s of game time, each with a 1/300 chance.
const (
	spawnSlice      = 1.0 / 60
	spawnChance     = 1.0 / 300
	DefaultLifetime = 25.0 // seconds a spawned boost stays clickable

	driftScale = 0.01 // noise units per game second
)

// SpawnedBoost is a boost waiting on screen to be clicked.
type SpawnedBoost struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`          // normalized 0..1
	Y         float64 `json:"y"`          // normalized 0..1
	ExpiresAt float64 `json:"expires_at"` // game clock seconds
}

// Spawner places boosts from a catalog at random times.
type Spawner struct {
	Lifetime float64

	rng     *rand.Rand
	noiseX  opensimplex.Noise
	noiseY  opensimplex.Noise
	acc     float64
	spawned []SpawnedBoost
}

// NewSpawner creates a deterministic spawner for the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		Lifetime: DefaultLifetime,
		rng:      rand.New(rand.NewSource(seed)),
		noiseX:   opensimplex.NewNormalized(seed),
		noiseY:   opensimplex.NewNormalized(seed + 1),
	}
}

// Advance rolls for spawns over dt game seconds and drops boosts that were
// not clicked in time. At most one boost spawns per call.
func (sp *Spawner) Advance(dt float64, s *game.State, boosts []game.BoostSpec) (spawned *SpawnedBoost, expired []SpawnedBoost) {
	kept := sp.spawned[:0]
	for _, b := range sp.spawned {
		if b.ExpiresAt <= s.Clock {
			expired = append(expired, b)
			continue
		}
		kept = append(kept, b)
	}
	sp.spawned = kept

	if dt > 0 {
		sp.acc += dt
	}
	n := math.Floor(sp.acc / spawnSlice)
	if n < 1 {
		return nil, expired
	}
	sp.acc = max(sp.acc-n*spawnSlice, 0)
	if sp.rng.Float64() >= spawnProbability(n) {
		return nil, expired
	}

	candidates := sp.candidates(s, boosts)
	if len(candidates) == 0 {
		return nil, expired
	}
	spec := candidates[sp.rng.Intn(len(candidates))]
	t := s.Clock * driftScale
	b := SpawnedBoost{
		ID:        uuid.NewString(),
		Name:      spec.Name,
		X:         sp.noiseX.Eval2(t, 0),
		Y:         sp.noiseY.Eval2(0, t),
		ExpiresAt: s.Clock + sp.Lifetime,
	}
	sp.spawned = append(sp.spawned, b)
	return &b, expired
}

// spawnProbability is the chance of at least one hit in n slices.
func spawnProbability(n float64) float64 {
	return 1 - math.Pow(1-spawnChance, n)
}

// candidates lists eligible boosts not already on screen.
func (sp *Spawner) candidates(s *game.State, boosts []game.BoostSpec) []game.BoostSpec {
	var out []game.BoostSpec
	for _, b := range boosts {
		if !b.Eligible(s) || sp.onScreen(b.Name) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (sp *Spawner) onScreen(name string) bool {
	for _, b := range sp.spawned {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Take removes and returns the spawned boost with the given ID.
func (sp *Spawner) Take(id string) (SpawnedBoost, bool) {
	for i, b := range sp.spawned {
		if b.ID == id {
			sp.spawned = append(sp.spawned[:i], sp.spawned[i+1:]...)
			return b, true
		}
	}
	return SpawnedBoost{}, false
}

// Spawned lists boosts currently on screen.
func (sp *Spawner) Spawned() []SpawnedBoost {
	return append([]SpawnedBoost(nil), sp.spawned...)
}

// Clear drops every spawned boost.
func (sp *Spawner) Clear() {
	sp.spawned = nil
	sp.acc = 0
}

// Force spawns the named boost now regardless of chance or eligibility.
func (sp *Spawner) Force(name string, s *game.State) SpawnedBoost {
	b := SpawnedBoost{ID: uuid.NewString(), Name: name, X: 0.5, Y: 0.5, ExpiresAt: s.Clock + sp.Lifetime}
	sp.spawned = append(sp.spawned, b)
	return b
}
