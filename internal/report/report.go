// Package report renders finalized encounters as plain text lines.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/atikulmunna/esoloom/internal/encounter"
)

// Section markers. Renderers may style lines starting with them.
const (
	HeaderPrefix  = "=== "
	SectionPrefix = "--- "
)

var classNames = map[int]string{
	1:   "Dragonknight",
	2:   "Sorcerer",
	3:   "Nightblade",
	4:   "Warden",
	5:   "Necromancer",
	6:   "Templar",
	117: "Arcanist",
}

// ClassName returns the display name of a class id.
func ClassName(id int) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return "unknown"
}

// Formatter renders an encounter. It implements encounter.Formatter.
type Formatter struct {
	// TopAbilities caps the per-player ability list; 0 shows none.
	TopAbilities int
	// Gear includes each player's equipped items.
	Gear bool
}

// New returns a Formatter with the default layout.
func New() *Formatter {
	return &Formatter{TopAbilities: 5, Gear: true}
}

// Format implements encounter.Formatter.
func (f *Formatter) Format(e *encounter.Encounter) []string {
	s := e.Summary()
	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	add("%s%s ===", HeaderPrefix, zoneTitle(s.Zone))
	if s.Map != "" {
		add("Map: %s", s.Map)
	}
	add("Duration: %s  Damage: %s  DPS: %s",
		e.Duration().String(), humanize.Comma(s.TotalDamage), humanize.Commaf(math.Round(s.DPS)))
	add("Health pool damaged: %s across %d %s",
		humanize.Comma(s.HealthPoolDamaged), s.EnemiesDamaged, plural(s.EnemiesDamaged, "enemy", "enemies"))
	if s.Deaths > 0 || s.ZoneDeaths > 0 {
		add("Deaths: %d (zone total %d)", s.Deaths, s.ZoneDeaths)
	}

	if len(s.Players) > 0 {
		add("%sPlayers ---", SectionPrefix)
	}
	for _, p := range s.Players {
		out = append(out, f.player(p)...)
	}

	if len(s.GroupBuffs) > 0 {
		add("%sGroup buffs ---", SectionPrefix)
		for _, b := range s.GroupBuffs {
			add("%-24s %5.1f%%", b.Name, b.Uptime)
		}
	}

	if enemies := damagedEnemies(e); len(enemies) > 0 {
		add("%sEnemies ---", SectionPrefix)
		for _, en := range enemies {
			name := placeholder(en.Name, "unknown")
			if en.IsBoss {
				name += " [boss]"
			}
			add("%s  %s HP  %s damage taken",
				name, humanize.Comma(en.MaxHealth), humanize.Comma(e.EnemyDamage(en.UnitID)))
		}
	}
	return out
}

func (f *Formatter) player(p encounter.PlayerSummary) []string {
	out := []string{fmt.Sprintf("%s (%s) %s  %s damage  %s DPS  %.1f%%",
		placeholder(p.Name, "unknown"), placeholder(p.Handle, "anon"), ClassName(p.ClassID),
		humanize.Comma(p.Damage), humanize.Commaf(math.Round(p.DPS)), p.Share)}

	if p.MaxHealth > 0 || p.MaxMagicka > 0 || p.MaxStamina > 0 {
		out = append(out, fmt.Sprintf("  Health %s  Magicka %s  Stamina %s",
			humanize.Comma(p.MaxHealth), humanize.Comma(p.MaxMagicka), humanize.Comma(p.MaxStamina)))
	}

	if n := min(f.TopAbilities, len(p.Abilities)); n > 0 {
		parts := make([]string, 0, n)
		for _, a := range p.Abilities[:n] {
			part := fmt.Sprintf("%s %s", a.Name, humanize.Comma(a.Damage))
			if a.Casts > 0 {
				part += fmt.Sprintf(" (%d %s)", a.Casts, plural(a.Casts, "cast", "casts"))
			}
			parts = append(parts, part)
		}
		out = append(out, "  Top: "+strings.Join(parts, ", "))
	}

	if len(p.FrontBar) > 0 {
		out = append(out, "  Front: "+strings.Join(p.FrontBar, " / "))
	}
	if len(p.BackBar) > 0 {
		out = append(out, "  Back: "+strings.Join(p.BackBar, " / "))
	}
	if f.Gear {
		for _, g := range p.Gear {
			line := fmt.Sprintf("  %-10s %s", g.Slot, g.Item)
			if g.Set != "" {
				line += " [" + g.Set + "]"
			}
			line += fmt.Sprintf(" %s %s", g.Quality, g.Trait)
			out = append(out, line)
		}
	}
	if len(p.Buffs) > 0 {
		parts := make([]string, 0, len(p.Buffs))
		for _, b := range p.Buffs {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", b.Name, b.Uptime))
		}
		out = append(out, "  Buffs: "+strings.Join(parts, ", "))
	}
	return out
}

// damagedEnemies returns enemies hit in the encounter, most damaged first.
func damagedEnemies(e *encounter.Encounter) []*encounter.Enemy {
	var out []*encounter.Enemy
	for _, en := range e.Registry().Enemies() {
		if e.Damaged(en.UnitID) {
			out = append(out, en)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return e.EnemyDamage(out[i].UnitID) > e.EnemyDamage(out[j].UnitID)
	})
	return out
}

func zoneTitle(z encounter.ZoneInfo) string {
	name := placeholder(z.Name, "unknown zone")
	if z.Difficulty == "" || z.Difficulty == "NONE" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, z.Difficulty)
}

func placeholder(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
