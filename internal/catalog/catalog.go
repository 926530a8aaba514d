// Package catalog holds the session-scoped id→name lookup tables shared by the
// parser and the encounter engine.
package catalog

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/atikulmunna/esoloom/internal/model"
)

// Catalog maps ability, item and item-set ids to display names. Entries are
// append-only: the first definition of an id is kept for the session.
// A Catalog is not safe for concurrent use; it is owned by the single
// goroutine that processes log lines.
type Catalog struct {
	abilities map[int]model.AbilityInfo
	items     map[int]string
	sets      map[int]string
}

// New returns an empty Catalog.
func New() *Catalog {
	c := &Catalog{}
	c.Reset()
	return c
}

// Reset drops every entry, including seeded ones.
func (c *Catalog) Reset() {
	c.abilities = make(map[int]model.AbilityInfo)
	c.items = make(map[int]string)
	c.sets = make(map[int]string)
}

// AddAbility records an ability definition. It returns false if the id was
// already known, in which case the existing entry is kept.
func (c *Catalog) AddAbility(info model.AbilityInfo) bool {
	if _, ok := c.abilities[info.ID]; ok {
		return false
	}
	c.abilities[info.ID] = info
	return true
}

// Ability returns the definition for id.
func (c *Catalog) Ability(id int) (model.AbilityInfo, bool) {
	info, ok := c.abilities[id]
	return info, ok
}

// AbilityName returns the display name for id, or "unknown(<id>)".
func (c *Catalog) AbilityName(id int) string {
	if info, ok := c.abilities[id]; ok && info.DisplayName != "" {
		return info.DisplayName
	}
	return unknown(id)
}

// AddItem records an item name unless the id is already known.
func (c *Catalog) AddItem(id int, name string) bool {
	if _, ok := c.items[id]; ok {
		return false
	}
	c.items[id] = name
	return true
}

// ItemName returns the item name for id, or "unknown(<id>)".
func (c *Catalog) ItemName(id int) string {
	if name, ok := c.items[id]; ok {
		return name
	}
	return unknown(id)
}

// AddSet records an item-set name unless the id is already known.
func (c *Catalog) AddSet(id int, name string) bool {
	if _, ok := c.sets[id]; ok {
		return false
	}
	c.sets[id] = name
	return true
}

// SetName returns the set name for id. Id 0 means "no set".
func (c *Catalog) SetName(id int) string {
	if id == 0 {
		return ""
	}
	if name, ok := c.sets[id]; ok {
		return name
	}
	return unknown(id)
}

// Len returns the number of abilities, items and sets known.
func (c *Catalog) Len() (abilities, items, sets int) {
	return len(c.abilities), len(c.items), len(c.sets)
}

func unknown(id int) string {
	return "unknown(" + strconv.Itoa(id) + ")"
}

// ---------------------------------------------------------------------------
// Static database seed
// ---------------------------------------------------------------------------

// seedFile is the on-disk YAML layout of the static name database.
type seedFile struct {
	Abilities []model.AbilityInfo `yaml:"abilities"`
	Items     map[int]string      `yaml:"items"`
	Sets      map[int]string      `yaml:"sets"`
}

// Seed loads a static name database from a YAML file. Entries already present
// in the catalog are not overwritten.
func (c *Catalog) Seed(path string) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-provided path is expected
	if err != nil {
		return fmt.Errorf("reading catalog seed: %w", err)
	}
	return c.SeedYAML(raw)
}

// SeedYAML loads a static name database from YAML bytes.
func (c *Catalog) SeedYAML(raw []byte) error {
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return fmt.Errorf("parsing catalog seed: %w", err)
	}
	for _, a := range sf.Abilities {
		if a.ID == 0 {
			return fmt.Errorf("parsing catalog seed: ability %q has no id", a.DisplayName)
		}
		c.AddAbility(a)
	}
	for id, name := range sf.Items {
		c.AddItem(id, name)
	}
	for id, name := range sf.Sets {
		c.AddSet(id, name)
	}
	return nil
}
