// Package catalog holds the immutable default definitions of buildings,
// upgrades and boosts. One Catalog is built at startup and shared by the
// fresh-game path and the save decoder.
package catalog

import (
	"errors"
	"fmt"

	"github.com/talgya/atom-clicker/internal/game"
)

// ErrInvalid wraps every catalog validation failure.
var ErrInvalid = errors.New("invalid catalog")

// Catalog is an ordered set of definitions. Positions are stable for the
// life of a catalog file and are what compact saves refer to.
type Catalog struct {
	Buildings []game.BuildingSpec
	Upgrades  []game.UpgradeSpec
	Boosts    []game.BoostSpec

	buildingIdx map[string]int
	upgradeIdx  map[string]int
	boostIdx    map[string]int
}

// New validates the definitions and indexes them by name.
func New(buildings []game.BuildingSpec, upgrades []game.UpgradeSpec, boosts []game.BoostSpec) (*Catalog, error) {
	c := &Catalog{
		Buildings:   append([]game.BuildingSpec(nil), buildings...),
		Upgrades:    append([]game.UpgradeSpec(nil), upgrades...),
		Boosts:      append([]game.BoostSpec(nil), boosts...),
		buildingIdx: make(map[string]int, len(buildings)),
		upgradeIdx:  make(map[string]int, len(upgrades)),
		boostIdx:    make(map[string]int, len(boosts)),
	}

	for i, b := range buildings {
		if b.Growth == 0 {
			c.Buildings[i].Growth = game.DefaultGrowth
		}
		if err := c.Buildings[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, dup := c.buildingIdx[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate building %q", ErrInvalid, b.Name)
		}
		c.buildingIdx[b.Name] = i
	}
	for i, u := range upgrades {
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, dup := c.upgradeIdx[u.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate upgrade %q", ErrInvalid, u.Name)
		}
		if err := c.checkRefs(u.Name, u.Effect, u.Condition); err != nil {
			return nil, err
		}
		c.upgradeIdx[u.Name] = i
	}
	for i, b := range boosts {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, dup := c.boostIdx[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate boost %q", ErrInvalid, b.Name)
		}
		if err := c.checkRefs(b.Name, b.Effect, b.Condition); err != nil {
			return nil, err
		}
		c.boostIdx[b.Name] = i
	}
	return c, nil
}

// checkRefs makes sure building names used by an effect or condition exist.
// A missing one is a configuration error, caught here rather than on the
// first purchase.
func (c *Catalog) checkRefs(owner string, e game.Effect, cond *game.Condition) error {
	if e.Target == game.TargetBuilding {
		if _, ok := c.buildingIdx[e.Building]; !ok {
			return fmt.Errorf("%w: %q: effect: %w: %q", ErrInvalid, owner, game.ErrUnknownBuilding, e.Building)
		}
	}
	if cond != nil && cond.Target == game.TargetBuilding {
		if _, ok := c.buildingIdx[cond.Building]; !ok {
			return fmt.Errorf("%w: %q: condition: %w: %q", ErrInvalid, owner, game.ErrUnknownBuilding, cond.Building)
		}
	}
	return nil
}

// BuildingIndex returns the position of the named building.
func (c *Catalog) BuildingIndex(name string) (int, bool) {
	i, ok := c.buildingIdx[name]
	return i, ok
}

// UpgradeIndex returns the position of the named upgrade.
func (c *Catalog) UpgradeIndex(name string) (int, bool) {
	i, ok := c.upgradeIdx[name]
	return i, ok
}

// Boost returns the named boost definition.
func (c *Catalog) Boost(name string) (game.BoostSpec, bool) {
	i, ok := c.boostIdx[name]
	if !ok {
		return game.BoostSpec{}, false
	}
	return c.Boosts[i], true
}

// NewGame returns a fresh state seeded from every definition, with
// conditionless upgrades already unlocked.
func (c *Catalog) NewGame() *game.State {
	s, err := game.New(c.Buildings, c.Upgrades)
	if err != nil {
		// Names were checked for uniqueness in New.
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return s
}
