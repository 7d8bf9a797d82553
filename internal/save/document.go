package save

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talgya/atom-clicker/internal/game"
)

// Document is the decoded save. JSON keys are the one and two letter
// abbreviations that end up unquoted in the saved text.
type Document struct {
	Buildings       []BuildingEntry  `json:"b"`
	CustomBuildings []CustomBuilding `json:"cb,omitempty"`
	Upgrades        []UpgradeEntry   `json:"u"`
	CustomUpgrades  []CustomUpgrade  `json:"cu,omitempty"`

	Atoms         string   `json:"c,omitempty"`  // decimal
	TotalProduced string   `json:"ta,omitempty"` // decimal
	TotalClicks   int64    `json:"t,omitempty"`
	ClickYield    string   `json:"ac,omitempty"` // decimal, omitted at 1
	ClickAPSBonus float64  `json:"acb,omitempty"`
	APSBonus      string   `json:"asb,omitempty"` // decimal
	GlobalBoost   *float64 `json:"bb,omitempty"`  // omitted at 1
}

// Ref points at a catalog entry by position or, when Name is set, by name.
type Ref struct {
	Index int
	Name  string
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Name != "" {
		return json.Marshal(r.Name)
	}
	return json.Marshal(r.Index)
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*r = Ref{Index: n}
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("reference %s is neither a position nor a name", b)
	}
	if name == "" {
		return errors.New("empty reference name")
	}
	*r = Ref{Name: name}
	return nil
}

// BuildingEntry is a catalog building. With no deltas it encodes as a bare
// reference.
type BuildingEntry struct {
	Ref   Ref
	Owned int
	Boost *float64 // nil means 1
}

type buildingObject struct {
	Ref   *Ref     `json:"i"`
	Owned int      `json:"o,omitempty"`
	Boost *float64 `json:"b,omitempty"`
}

func (e BuildingEntry) bare() bool {
	return e.Owned == 0 && e.Boost == nil
}

func (e BuildingEntry) MarshalJSON() ([]byte, error) {
	if e.bare() {
		return json.Marshal(e.Ref)
	}
	ref := e.Ref
	return json.Marshal(buildingObject{Ref: &ref, Owned: e.Owned, Boost: e.Boost})
}

func (e *BuildingEntry) UnmarshalJSON(b []byte) error {
	if !isObject(b) {
		var r Ref
		if err := r.UnmarshalJSON(b); err != nil {
			return err
		}
		*e = BuildingEntry{Ref: r}
		return nil
	}
	var o buildingObject
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	if o.Ref == nil {
		return errors.New("building entry without a reference")
	}
	*e = BuildingEntry{Ref: *o.Ref, Owned: o.Owned, Boost: o.Boost}
	return nil
}

// UpgradeEntry is a catalog upgrade. Unlocked is only written for upgrades
// that start locked.
type UpgradeEntry struct {
	Ref      Ref
	Owned    bool
	Unlocked bool
}

type upgradeObject struct {
	Ref      *Ref `json:"i"`
	Owned    bool `json:"o,omitempty"`
	Unlocked bool `json:"u,omitempty"`
}

func (e UpgradeEntry) MarshalJSON() ([]byte, error) {
	if !e.Owned && !e.Unlocked {
		return json.Marshal(e.Ref)
	}
	ref := e.Ref
	return json.Marshal(upgradeObject{Ref: &ref, Owned: e.Owned, Unlocked: e.Unlocked})
}

func (e *UpgradeEntry) UnmarshalJSON(b []byte) error {
	if !isObject(b) {
		var r Ref
		if err := r.UnmarshalJSON(b); err != nil {
			return err
		}
		*e = UpgradeEntry{Ref: r}
		return nil
	}
	var o upgradeObject
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	if o.Ref == nil {
		return errors.New("upgrade entry without a reference")
	}
	*e = UpgradeEntry{Ref: *o.Ref, Owned: o.Owned, Unlocked: o.Unlocked}
	return nil
}

// CustomBuilding embeds a building the catalog does not know.
type CustomBuilding struct {
	Name        string   `json:"n"`
	Description string   `json:"d,omitempty"`
	Rate        float64  `json:"a"`
	Price       float64  `json:"s"`
	Growth      float64  `json:"p,omitempty"`
	Owned       int      `json:"o,omitempty"`
	Boost       *float64 `json:"b,omitempty"`
}

// CustomUpgrade embeds an upgrade the catalog does not know.
type CustomUpgrade struct {
	Name        string          `json:"n"`
	Description string          `json:"d,omitempty"`
	Price       string          `json:"p"`
	Effect      game.Effect     `json:"e"`
	Condition   *game.Condition `json:"c,omitempty"`
	Owned       bool            `json:"o,omitempty"`
	Unlocked    bool            `json:"u,omitempty"`
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
