package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/talgya/atom-clicker/internal/game"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the YAML layout of a catalog.
type File struct {
	Buildings  []BuildingDef  `yaml:"buildings"`
	Upgrades   []UpgradeDef   `yaml:"upgrades"`
	Generators []GeneratorDef `yaml:"generators"`
	Boosts     []BoostDef     `yaml:"boosts"`
}

type BuildingDef struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Rate        float64 `yaml:"rate"`
	Price       float64 `yaml:"price"`
	Growth      float64 `yaml:"growth"`
}

type EffectDef struct {
	Kind     string  `yaml:"kind"`
	Building string  `yaml:"building"`
	Mode     string  `yaml:"mode"` // multiply (default) or add
	Value    float64 `yaml:"value"`
}

type ConditionDef struct {
	Kind     string  `yaml:"kind"`
	Building string  `yaml:"building"`
	Count    float64 `yaml:"count"`
}

type UpgradeDef struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Price       float64       `yaml:"price"`
	Effect      EffectDef     `yaml:"effect"`
	Condition   *ConditionDef `yaml:"condition"`
}

type BoostDef struct {
	Name      string        `yaml:"name"`
	Effect    EffectDef     `yaml:"effect"`
	Condition *ConditionDef `yaml:"condition"`
	Duration  float64       `yaml:"duration"` // seconds
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, expands generators and validates the result.
// Generated upgrades follow the static ones.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return f.Build()
}

// Build converts the file into a validated Catalog.
func (f File) Build() (*Catalog, error) {
	buildings := make([]game.BuildingSpec, 0, len(f.Buildings))
	for _, b := range f.Buildings {
		buildings = append(buildings, game.BuildingSpec{
			Name:        b.Name,
			Description: b.Description,
			Rate:        b.Rate,
			Price:       b.Price,
			Growth:      b.Growth,
		})
	}

	upgrades := make([]game.UpgradeSpec, 0, len(f.Upgrades))
	for _, u := range f.Upgrades {
		spec, err := u.spec()
		if err != nil {
			return nil, err
		}
		upgrades = append(upgrades, spec)
	}
	for _, g := range f.Generators {
		gen, err := g.expand(buildings)
		if err != nil {
			return nil, fmt.Errorf("%w: generator %q: %v", ErrInvalid, g.Name, err)
		}
		upgrades = append(upgrades, gen...)
	}

	boosts := make([]game.BoostSpec, 0, len(f.Boosts))
	for _, b := range f.Boosts {
		e, err := b.Effect.effect()
		if err != nil {
			return nil, fmt.Errorf("%w: boost %q: %v", ErrInvalid, b.Name, err)
		}
		c, err := b.Condition.condition()
		if err != nil {
			return nil, fmt.Errorf("%w: boost %q: %v", ErrInvalid, b.Name, err)
		}
		boosts = append(boosts, game.BoostSpec{Name: b.Name, Effect: e, Condition: c, Duration: b.Duration})
	}

	return New(buildings, upgrades, boosts)
}

func (u UpgradeDef) spec() (game.UpgradeSpec, error) {
	e, err := u.Effect.effect()
	if err != nil {
		return game.UpgradeSpec{}, fmt.Errorf("%w: upgrade %q: %v", ErrInvalid, u.Name, err)
	}
	c, err := u.Condition.condition()
	if err != nil {
		return game.UpgradeSpec{}, fmt.Errorf("%w: upgrade %q: %v", ErrInvalid, u.Name, err)
	}
	return game.UpgradeSpec{
		Name:        u.Name,
		Description: u.Description,
		Price:       decimal.NewFromFloat(u.Price).Round(0),
		Effect:      e,
		Condition:   c,
	}, nil
}

func (d EffectDef) effect() (game.Effect, error) {
	t, err := game.ParseTarget(d.Kind)
	if err != nil {
		return game.Effect{}, err
	}
	m := game.ModeMultiply
	if d.Mode != "" {
		if m, err = game.ParseMode(d.Mode); err != nil {
			return game.Effect{}, err
		}
	}
	return game.Effect{Target: t, Building: d.Building, Mode: m, Value: d.Value}, nil
}

func (d *ConditionDef) condition() (*game.Condition, error) {
	if d == nil {
		return nil, nil
	}
	t, err := game.ParseTarget(d.Kind)
	if err != nil {
		return nil, err
	}
	return &game.Condition{Target: t, Building: d.Building, Count: d.Count}, nil
}
