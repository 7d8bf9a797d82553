// Package save turns a game state into compact save text and back.
//
// The text is base64 over a JSON document whose property names are short
// unquoted keys. Catalog buildings and upgrades at their default values are
// written as bare positions; only deltas and non-catalog definitions are
// spelled out.
package save

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/atom-clicker/internal/catalog"
	"github.com/talgya/atom-clicker/internal/game"
)

// ErrCorrupt wraps every decode failure.
var ErrCorrupt = errors.New("corrupt save")

// Codec encodes and decodes saves against one catalog.
type Codec struct {
	catalog *catalog.Catalog
}

// NewCodec returns a codec resolving references against c.
func NewCodec(c *catalog.Catalog) *Codec {
	return &Codec{catalog: c}
}

// Encode serializes s. Running boosts are reverted on a copy first so the
// saved values are the permanent ones.
func (c *Codec) Encode(s *game.State) (string, error) {
	doc := c.Document(s)
	js, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode save: %w", err)
	}
	return base64.StdEncoding.EncodeToString(compact(js)), nil
}

// Document builds the save document for s without touching s.
func (c *Codec) Document(s *game.State) Document {
	st := s.Clone()
	st.RevertBoosts()

	doc := Document{
		Buildings: make([]BuildingEntry, 0, len(st.Buildings)),
		Upgrades:  make([]UpgradeEntry, 0, len(st.Upgrades)),
	}

	for _, b := range st.Buildings {
		boost := boostField(b.Boost)
		idx, ok := c.catalog.BuildingIndex(b.Name)
		if !ok {
			doc.CustomBuildings = append(doc.CustomBuildings, CustomBuilding{
				Name:        b.Name,
				Description: b.Description,
				Rate:        b.Rate,
				Price:       b.Price,
				Growth:      b.Growth,
				Owned:       b.Owned,
				Boost:       boost,
			})
			continue
		}
		doc.Buildings = append(doc.Buildings, BuildingEntry{Ref: Ref{Index: idx}, Owned: b.Owned, Boost: boost})
	}

	for _, u := range st.Upgrades {
		// Conditionless upgrades are unlocked by default and need no flag.
		unlocked := u.Unlocked && u.Condition != nil
		idx, ok := c.catalog.UpgradeIndex(u.Name)
		if !ok {
			doc.CustomUpgrades = append(doc.CustomUpgrades, CustomUpgrade{
				Name:        u.Name,
				Description: u.Description,
				Price:       u.Price.String(),
				Effect:      u.Effect,
				Condition:   u.Condition,
				Owned:       u.Owned,
				Unlocked:    unlocked,
			})
			continue
		}
		doc.Upgrades = append(doc.Upgrades, UpgradeEntry{Ref: Ref{Index: idx}, Owned: u.Owned, Unlocked: unlocked})
	}

	if !st.Atoms.IsZero() {
		doc.Atoms = st.Atoms.String()
	}
	if !st.TotalProduced.IsZero() {
		doc.TotalProduced = st.TotalProduced.String()
	}
	doc.TotalClicks = st.TotalClicks
	if !st.ClickYield.Equal(decimal.NewFromInt(1)) {
		doc.ClickYield = st.ClickYield.String()
	}
	doc.ClickAPSBonus = st.ClickAPSBonus
	if !st.APSBonus.IsZero() {
		doc.APSBonus = st.APSBonus.String()
	}
	if st.GlobalBoost != 1 {
		g := st.GlobalBoost
		doc.GlobalBoost = &g
	}
	return doc
}

func boostField(v float64) *float64 {
	if v == 1 {
		return nil
	}
	return &v
}

// Decode parses save text into a new state. On any failure it returns an
// error wrapping ErrCorrupt and no state; callers keep their current one.
func (c *Codec) Decode(text string) (*game.State, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	js, err := expand(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var doc Document
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return c.FromDocument(doc)
}

// FromDocument builds a state from doc. Catalog entries missing from doc
// are appended at their defaults, after the ones doc lists and before any
// custom entries.
func (c *Codec) FromDocument(doc Document) (*game.State, error) {
	s, err := c.fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

func (c *Codec) fromDocument(doc Document) (*game.State, error) {
	s := game.NewEmpty()
	cat := c.catalog

	seen := make(map[int]bool, len(doc.Buildings))
	for _, e := range doc.Buildings {
		idx, err := c.resolveBuilding(e.Ref)
		if err != nil {
			return nil, err
		}
		if seen[idx] {
			return nil, fmt.Errorf("building %q listed twice", cat.Buildings[idx].Name)
		}
		seen[idx] = true

		b := game.NewBuilding(cat.Buildings[idx])
		if err := restoreBuilding(b, e.Owned, e.Boost); err != nil {
			return nil, err
		}
		if err := s.AddBuilding(b); err != nil {
			return nil, err
		}
	}
	for i, spec := range cat.Buildings {
		if !seen[i] {
			if err := s.AddBuilding(game.NewBuilding(spec)); err != nil {
				return nil, err
			}
		}
	}
	for _, cb := range doc.CustomBuildings {
		spec := game.BuildingSpec{
			Name:        cb.Name,
			Description: cb.Description,
			Rate:        cb.Rate,
			Price:       cb.Price,
			Growth:      cb.Growth,
		}
		if spec.Growth == 0 {
			spec.Growth = game.DefaultGrowth
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		b := game.NewBuilding(spec)
		if err := restoreBuilding(b, cb.Owned, cb.Boost); err != nil {
			return nil, err
		}
		if err := s.AddBuilding(b); err != nil {
			return nil, err
		}
	}

	seen = make(map[int]bool, len(doc.Upgrades))
	for _, e := range doc.Upgrades {
		idx, err := c.resolveUpgrade(e.Ref)
		if err != nil {
			return nil, err
		}
		if seen[idx] {
			return nil, fmt.Errorf("upgrade %q listed twice", cat.Upgrades[idx].Name)
		}
		seen[idx] = true

		u := game.NewUpgrade(cat.Upgrades[idx])
		restoreUpgrade(u, e.Owned, e.Unlocked)
		if err := s.AddUpgrade(u); err != nil {
			return nil, err
		}
	}
	for i, spec := range cat.Upgrades {
		if !seen[i] {
			if err := s.AddUpgrade(game.NewUpgrade(spec)); err != nil {
				return nil, err
			}
		}
	}
	for _, cu := range doc.CustomUpgrades {
		price, err := decimal.NewFromString(cu.Price)
		if err != nil {
			return nil, fmt.Errorf("upgrade %q: price: %w", cu.Name, err)
		}
		spec := game.UpgradeSpec{
			Name:        cu.Name,
			Description: cu.Description,
			Price:       price,
			Effect:      cu.Effect,
			Condition:   cu.Condition,
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		u := game.NewUpgrade(spec)
		restoreUpgrade(u, cu.Owned, cu.Unlocked)
		if err := s.AddUpgrade(u); err != nil {
			return nil, err
		}
	}

	// Building references are checked once every building is in place.
	for _, u := range s.Upgrades {
		if u.Effect.Target == game.TargetBuilding && s.Building(u.Effect.Building) == nil {
			return nil, fmt.Errorf("upgrade %q: %w: %q", u.Name, game.ErrUnknownBuilding, u.Effect.Building)
		}
		if u.Condition != nil && u.Condition.Target == game.TargetBuilding && s.Building(u.Condition.Building) == nil {
			return nil, fmt.Errorf("upgrade %q: %w: %q", u.Name, game.ErrUnknownBuilding, u.Condition.Building)
		}
	}

	if err := restoreLedger(s, doc); err != nil {
		return nil, err
	}
	s.Tick(0)
	return s, nil
}

func (c *Codec) resolveBuilding(r Ref) (int, error) {
	if r.Name != "" {
		idx, ok := c.catalog.BuildingIndex(r.Name)
		if !ok {
			return 0, fmt.Errorf("unknown building %q", r.Name)
		}
		return idx, nil
	}
	if r.Index < 0 || r.Index >= len(c.catalog.Buildings) {
		return 0, fmt.Errorf("building position %d out of range", r.Index)
	}
	return r.Index, nil
}

func (c *Codec) resolveUpgrade(r Ref) (int, error) {
	if r.Name != "" {
		idx, ok := c.catalog.UpgradeIndex(r.Name)
		if !ok {
			return 0, fmt.Errorf("unknown upgrade %q", r.Name)
		}
		return idx, nil
	}
	if r.Index < 0 || r.Index >= len(c.catalog.Upgrades) {
		return 0, fmt.Errorf("upgrade position %d out of range", r.Index)
	}
	return r.Index, nil
}

func restoreBuilding(b *game.Building, owned int, boost *float64) error {
	if owned < 0 {
		return fmt.Errorf("building %q: negative owned count %d", b.Name, owned)
	}
	b.Owned = owned
	if boost != nil {
		if !validFactor(*boost) {
			return fmt.Errorf("building %q: invalid boost %v", b.Name, *boost)
		}
		b.Boost = *boost
	}
	return nil
}

// restoreUpgrade applies saved flags. An owned upgrade was necessarily
// unlocked.
func restoreUpgrade(u *game.Upgrade, owned, unlocked bool) {
	u.Owned = owned
	u.Unlocked = u.Unlocked || unlocked || owned
}

func restoreLedger(s *game.State, doc Document) error {
	var err error
	if s.Atoms, err = nonNegative("atoms", doc.Atoms, decimal.Zero); err != nil {
		return err
	}
	if s.TotalProduced, err = nonNegative("total produced", doc.TotalProduced, decimal.Zero); err != nil {
		return err
	}
	if s.ClickYield, err = nonNegative("click yield", doc.ClickYield, decimal.NewFromInt(1)); err != nil {
		return err
	}
	if doc.APSBonus != "" {
		if s.APSBonus, err = decimal.NewFromString(doc.APSBonus); err != nil {
			return fmt.Errorf("aps bonus: %w", err)
		}
	}
	if doc.TotalClicks < 0 {
		return fmt.Errorf("negative click count %d", doc.TotalClicks)
	}
	s.TotalClicks = doc.TotalClicks

	if math.IsNaN(doc.ClickAPSBonus) || math.IsInf(doc.ClickAPSBonus, 0) {
		return fmt.Errorf("invalid click APS bonus %v", doc.ClickAPSBonus)
	}
	s.ClickAPSBonus = doc.ClickAPSBonus
	if doc.GlobalBoost != nil {
		if !validFactor(*doc.GlobalBoost) {
			return fmt.Errorf("invalid global boost %v", *doc.GlobalBoost)
		}
		s.GlobalBoost = *doc.GlobalBoost
	}
	return nil
}

func nonNegative(field, v string, def decimal.Decimal) (decimal.Decimal, error) {
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: negative value %s", field, v)
	}
	return d, nil
}

func validFactor(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0)
}
