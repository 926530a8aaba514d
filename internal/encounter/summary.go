package encounter

import "sort"

// Summary is a structured snapshot of an encounter for JSON consumers.
type Summary struct {
	ID                string          `json:"id"`
	State             string          `json:"state"`
	Zone              ZoneInfo        `json:"zone"`
	Map               string          `json:"map,omitempty"`
	StartMs           int64           `json:"start_ms"`
	EndMs             int64           `json:"end_ms"`
	DurationSeconds   float64         `json:"duration_seconds"`
	TotalDamage       int64           `json:"total_damage"`
	DPS               float64         `json:"dps"`
	HealthPoolDamaged int64           `json:"health_pool_damaged"`
	Deaths            int             `json:"deaths"`
	ZoneDeaths        int             `json:"zone_deaths"`
	EnemiesDamaged    int             `json:"enemies_damaged"`
	Players           []PlayerSummary `json:"players"`
	GroupBuffs        []BuffUptime    `json:"group_buffs,omitempty"`
}

// PlayerSummary is one player's share of an encounter.
type PlayerSummary struct {
	UnitID     string          `json:"unit_id"`
	Name       string          `json:"name"`
	Handle     string          `json:"handle"`
	ClassID    int             `json:"class_id"`
	Damage     int64           `json:"damage"`
	DPS        float64         `json:"dps"`
	Share      float64         `json:"share"`
	MaxHealth  int64           `json:"max_health"`
	MaxMagicka int64           `json:"max_magicka"`
	MaxStamina int64           `json:"max_stamina"`
	Abilities  []AbilityDamage `json:"abilities,omitempty"`
	Buffs      []BuffUptime    `json:"buffs,omitempty"`
	FrontBar   []string        `json:"front_bar,omitempty"`
	BackBar    []string        `json:"back_bar,omitempty"`
	Gear       []GearSlot      `json:"gear,omitempty"`
}

// AbilityDamage is damage and casts for one ability.
type AbilityDamage struct {
	Name   string `json:"name"`
	Damage int64  `json:"damage"`
	Casts  int    `json:"casts"`
}

// BuffUptime is an uptime percentage for one buff.
type BuffUptime struct {
	Name   string  `json:"name"`
	Uptime float64 `json:"uptime"`
}

// Summary builds a snapshot of the encounter. Players are ordered by damage.
func (e *Encounter) Summary() Summary {
	s := Summary{
		ID:                e.ID.String(),
		State:             e.state.String(),
		Zone:              e.Zone,
		Map:               e.MapName,
		StartMs:           e.StartTime,
		EndMs:             e.End(),
		DurationSeconds:   e.Duration().Seconds(),
		TotalDamage:       e.TotalDamage,
		DPS:               e.DPS(),
		HealthPoolDamaged: e.HealthPoolDamaged,
		Deaths:            e.Deaths,
		ZoneDeaths:        e.ZoneDeaths,
		EnemiesDamaged:    len(e.damaged),
	}

	for _, p := range e.reg.Roster() {
		ps := PlayerSummary{
			UnitID:     p.ShortID,
			Name:       p.Name,
			Handle:     p.Handle,
			ClassID:    p.ClassID,
			Damage:     e.playerDamage[p.ShortID],
			DPS:        e.PlayerDPS(p.ShortID),
			MaxHealth:  p.MaxHealth,
			MaxMagicka: p.MaxMagicka,
			MaxStamina: p.MaxStamina,
			Abilities:  e.abilityBreakdown(p.ShortID),
			FrontBar:   p.FrontBar,
			BackBar:    p.BackBar,
			Gear:       p.Gear,
		}
		if e.TotalDamage > 0 {
			ps.Share = float64(ps.Damage) / float64(e.TotalDamage) * 100
		}
		for _, buff := range e.trackedBuffs {
			if up := e.Uptime(p.ShortID, buff); up > 0 {
				ps.Buffs = append(ps.Buffs, BuffUptime{Name: buff, Uptime: up})
			}
		}
		s.Players = append(s.Players, ps)
	}
	sort.SliceStable(s.Players, func(i, j int) bool { return s.Players[i].Damage > s.Players[j].Damage })

	if e.GroupBuffsShown() {
		for _, buff := range e.trackedBuffs {
			s.GroupBuffs = append(s.GroupBuffs, BuffUptime{Name: buff, Uptime: e.GroupUptime(buff)})
		}
	}
	return s
}

// abilityBreakdown merges damage and cast counts, highest damage first.
func (e *Encounter) abilityBreakdown(id string) []AbilityDamage {
	byName := make(map[string]*AbilityDamage)
	get := func(name string) *AbilityDamage {
		a, ok := byName[name]
		if !ok {
			a = &AbilityDamage{Name: name}
			byName[name] = a
		}
		return a
	}
	for name, dmg := range e.abilityDamage[id] {
		get(name).Damage = dmg
	}
	for name, n := range e.casts[id] {
		get(name).Casts = n
	}

	out := make([]AbilityDamage, 0, len(byName))
	for _, a := range byName {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Damage != out[j].Damage {
			return out[i].Damage > out[j].Damage
		}
		if out[i].Casts != out[j].Casts {
			return out[i].Casts > out[j].Casts
		}
		return out[i].Name < out[j].Name
	})
	return out
}
