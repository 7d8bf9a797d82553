package catalog

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"

	"github.com/talgya/atom-clicker/internal/game"
)

// maxGenerated bounds a single range so a bad factor cannot spin forever.
const maxGenerated = 10000

// GeneratorDef produces a family of milestone upgrades. Name, Description,
// Price, Effect.Value and Condition.Count are expr expressions evaluated
// against Env once per level (and per building when ForEachBuilding is set).
type GeneratorDef struct {
	Name            string           `yaml:"name"`
	Description     string           `yaml:"description"`
	ForEachBuilding bool             `yaml:"for_each_building"`
	Levels          []float64        `yaml:"levels"`
	Range           *RangeDef        `yaml:"range"`
	Price           string           `yaml:"price"`
	Effect          GenEffectDef     `yaml:"effect"`
	Condition       *GenConditionDef `yaml:"condition"`
}

// RangeDef walks levels from From while below Below, either multiplying
// by Factor or adding Step.
type RangeDef struct {
	From   float64 `yaml:"from"`
	Below  float64 `yaml:"below"`
	Step   float64 `yaml:"step"`
	Factor float64 `yaml:"factor"`
}

type GenEffectDef struct {
	Kind     string `yaml:"kind"`
	Building string `yaml:"building"` // defaults to the current building
	Mode     string `yaml:"mode"`
	Value    string `yaml:"value"`
}

type GenConditionDef struct {
	Kind     string `yaml:"kind"`
	Building string `yaml:"building"`
	Count    string `yaml:"count"`
}

// Env is what generator expressions see.
type Env struct {
	Level    float64
	Building BuildingEnv
}

type BuildingEnv struct {
	Name   string
	Rate   float64
	Price  float64
	Growth float64
}

func (Env) Ln(x float64) float64     { return math.Log(x) }
func (Env) Log10(x float64) float64  { return math.Log10(x) }
func (Env) Pow(x, y float64) float64 { return math.Pow(x, y) }
func (Env) Ceil(x float64) float64   { return math.Ceil(x) }
func (Env) Floor(x float64) float64  { return math.Floor(x) }
func (Env) Round(x float64) float64  { return math.Round(x) }
func (Env) Fmt(x float64) string     { return humanize.Commaf(x) }
func (Env) Max(x, y float64) float64 { return math.Max(x, y) }
func (Env) Min(x, y float64) float64 { return math.Min(x, y) }

type compiledGenerator struct {
	def         GeneratorDef
	name        *vm.Program
	description *vm.Program
	price       *vm.Program
	value       *vm.Program
	count       *vm.Program
}

func compileNumber(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsFloat64())
}

func compileString(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsKind(reflect.String))
}

func (g GeneratorDef) compile() (*compiledGenerator, error) {
	c := &compiledGenerator{def: g}
	var err error

	if g.Name == "" {
		return nil, errors.New("name expression is required")
	}
	if c.name, err = compileString(g.Name); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if g.Description != "" {
		if c.description, err = compileString(g.Description); err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
	}
	if c.price, err = compileNumber(g.Price); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if c.value, err = compileNumber(g.Effect.Value); err != nil {
		return nil, fmt.Errorf("effect value: %w", err)
	}
	if g.Condition != nil {
		if c.count, err = compileNumber(g.Condition.Count); err != nil {
			return nil, fmt.Errorf("condition count: %w", err)
		}
	}
	return c, nil
}

// levels lists the level values the generator visits.
func (g GeneratorDef) levels() ([]float64, error) {
	if len(g.Levels) > 0 {
		return g.Levels, nil
	}
	r := g.Range
	if r == nil {
		return nil, errors.New("either levels or range is required")
	}

	next := func(v float64) float64 { return v + r.Step }
	switch {
	case r.Factor > 1:
		if r.From <= 0 {
			return nil, errors.New("range: geometric range must start above zero")
		}
		next = func(v float64) float64 { return v * r.Factor }
	case r.Factor != 0:
		return nil, fmt.Errorf("range: factor %v must be above 1", r.Factor)
	case r.Step <= 0:
		return nil, errors.New("range: step or factor is required")
	}

	var out []float64
	for v := r.From; v < r.Below; v = next(v) {
		if len(out) == maxGenerated {
			return nil, fmt.Errorf("range: more than %d levels", maxGenerated)
		}
		out = append(out, v)
	}
	return out, nil
}

// expand evaluates the generator against the given buildings.
func (g GeneratorDef) expand(buildings []game.BuildingSpec) ([]game.UpgradeSpec, error) {
	c, err := g.compile()
	if err != nil {
		return nil, err
	}
	levels, err := g.levels()
	if err != nil {
		return nil, err
	}

	var out []game.UpgradeSpec
	if !g.ForEachBuilding {
		for _, lvl := range levels {
			u, err := c.upgrade(Env{Level: lvl})
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return out, nil
	}

	for _, b := range buildings {
		growth := b.Growth
		if growth == 0 {
			growth = game.DefaultGrowth
		}
		be := BuildingEnv{Name: b.Name, Rate: b.Rate, Price: b.Price, Growth: growth}
		for _, lvl := range levels {
			u, err := c.upgrade(Env{Level: lvl, Building: be})
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
	}
	return out, nil
}

func (c *compiledGenerator) upgrade(env Env) (game.UpgradeSpec, error) {
	var u game.UpgradeSpec

	name, err := runString(c.name, env)
	if err != nil {
		return u, err
	}
	u.Name = name
	if c.description != nil {
		if u.Description, err = runString(c.description, env); err != nil {
			return u, err
		}
	}

	price, err := runNumber(c.price, env)
	if err != nil {
		return u, fmt.Errorf("%s: price: %w", name, err)
	}
	u.Price = decimal.NewFromFloat(price).Round(0)

	e, err := c.effect(env)
	if err != nil {
		return u, fmt.Errorf("%s: %w", name, err)
	}
	u.Effect = e

	if c.def.Condition != nil {
		cond, err := c.condition(env)
		if err != nil {
			return u, fmt.Errorf("%s: %w", name, err)
		}
		u.Condition = cond
	}
	return u, nil
}

func (c *compiledGenerator) effect(env Env) (game.Effect, error) {
	d := c.def.Effect
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
	v, err := runNumber(c.value, env)
	if err != nil {
		return game.Effect{}, fmt.Errorf("effect value: %w", err)
	}
	e := game.Effect{Target: t, Building: d.Building, Mode: m, Value: v}
	if t == game.TargetBuilding && e.Building == "" {
		e.Building = env.Building.Name
	}
	return e, nil
}

func (c *compiledGenerator) condition(env Env) (*game.Condition, error) {
	d := c.def.Condition
	t, err := game.ParseTarget(d.Kind)
	if err != nil {
		return nil, err
	}
	n, err := runNumber(c.count, env)
	if err != nil {
		return nil, fmt.Errorf("condition count: %w", err)
	}
	cond := &game.Condition{Target: t, Building: d.Building, Count: n}
	if t == game.TargetBuilding && cond.Building == "" {
		cond.Building = env.Building.Name
	}
	return cond, nil
}

func runNumber(p *vm.Program, env Env) (float64, error) {
	out, err := expr.Run(p, env)
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result %v is not finite", v)
	}
	return v, nil
}

func runString(p *vm.Program, env Env) (string, error) {
	out, err := expr.Run(p, env)
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", out)
	}
	return s, nil
}
