// Package encounter folds decoded log events into per-encounter combat state:
// who is fighting whom, with what gear and abilities, for how long, and with
// which group buffs active.
package encounter

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of the current encounter.
type State int

const (
	StateNone State = iota
	StateIdle
	StateInCombat
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInCombat:
		return "in_combat"
	case StateFinalized:
		return "finalized"
	default:
		return "none"
	}
}

// Encounter is one tracked combat region. It may span several
// BEGIN_COMBAT/END_COMBAT cycles until it is finalized or replaced.
type Encounter struct {
	ID      uuid.UUID
	Zone    ZoneInfo
	MapName string

	StartTime int64
	EndTime   int64
	lastTime  int64

	state    State
	reported bool

	reg   *Registry
	buffs *BuffTracker

	TotalDamage       int64
	HealthPoolDamaged int64
	Deaths            int
	ZoneDeaths        int

	playerDamage  map[string]int64
	enemyDamage   map[string]int64
	abilityDamage map[string]map[string]int64
	casts         map[string]map[string]int
	damaged       map[string]struct{}

	trackedBuffs    []string
	groupMinPlayers int
}

func newEncounter(start int64, zone ZoneInfo, tracked []string, groupMin int) *Encounter {
	return &Encounter{
		ID:              uuid.New(),
		Zone:            zone,
		StartTime:       start,
		lastTime:        start,
		state:           StateIdle,
		reg:             newRegistry(),
		buffs:           NewBuffTracker(),
		playerDamage:    make(map[string]int64),
		enemyDamage:     make(map[string]int64),
		abilityDamage:   make(map[string]map[string]int64),
		casts:           make(map[string]map[string]int),
		damaged:         make(map[string]struct{}),
		trackedBuffs:    tracked,
		groupMinPlayers: groupMin,
	}
}

func (e *Encounter) State() State { return e.state }
func (e *Encounter) InCombat() bool { return e.state == StateInCombat }
func (e *Encounter) Finalized() bool { return e.state == StateFinalized }
func (e *Encounter) Reported() bool { return e.reported }
func (e *Encounter) Registry() *Registry { return e.reg }
func (e *Encounter) Buffs() *BuffTracker { return e.buffs }

// TrackedBuffs returns the names of the group buffs followed in this encounter.
func (e *Encounter) TrackedBuffs() []string { return e.trackedBuffs }

// GroupBuffsShown reports whether the encounter has enough players for group
// buff uptime to be meaningful.
func (e *Encounter) GroupBuffsShown() bool {
	return e.reg.rosterSize() >= e.groupMinPlayers
}

// End is EndTime once finalized, otherwise the latest time observed.
func (e *Encounter) End() int64 {
	if e.state == StateFinalized {
		return e.EndTime
	}
	if e.lastTime < e.StartTime {
		return e.StartTime
	}
	return e.lastTime
}

// Duration is the encounter length.
func (e *Encounter) Duration() time.Duration {
	return time.Duration(e.End()-e.StartTime) * time.Millisecond
}

// DPS is the group damage per second.
func (e *Encounter) DPS() float64 {
	return perSecond(e.TotalDamage, e.Duration())
}

// PlayerDamage returns the damage attributed to the player with short id id.
func (e *Encounter) PlayerDamage(id string) int64 { return e.playerDamage[id] }

// PlayerDPS returns the player's damage per second.
func (e *Encounter) PlayerDPS(id string) float64 {
	return perSecond(e.playerDamage[id], e.Duration())
}

// EnemyDamage returns the damage dealt to an enemy.
func (e *Encounter) EnemyDamage(id string) int64 { return e.enemyDamage[id] }

// AttributedDamage is the sum of every player's damage.
func (e *Encounter) AttributedDamage() int64 {
	var sum int64
	for _, v := range e.playerDamage {
		sum += v
	}
	return sum
}

// AbilityDamage returns damage per ability name for a player.
func (e *Encounter) AbilityDamage(id string) map[string]int64 { return e.abilityDamage[id] }

// Casts returns cast counts per ability name for a player.
func (e *Encounter) Casts(id string) map[string]int { return e.casts[id] }

// Damaged reports whether the enemy took damage or died in this encounter.
func (e *Encounter) Damaged(id string) bool {
	_, ok := e.damaged[id]
	return ok
}

// Uptime returns a player's uptime percentage for a tracked buff.
func (e *Encounter) Uptime(playerID, buff string) float64 {
	return e.buffs.Uptime(playerID, buff, e.StartTime, e.End())
}

// GroupUptime returns the merged uptime percentage for a tracked buff.
func (e *Encounter) GroupUptime(buff string) float64 {
	return e.buffs.GroupUptime(buff, e.StartTime, e.End())
}

func (e *Encounter) touch(t int64) {
	if t > e.lastTime {
		e.lastTime = t
	}
}

// markDamaged adds the enemy's health pool the first time it is hit or dies.
func (e *Encounter) markDamaged(en *Enemy) {
	if _, ok := e.damaged[en.UnitID]; ok {
		return
	}
	e.damaged[en.UnitID] = struct{}{}
	e.HealthPoolDamaged += en.MaxHealth
}

// addDamage records one damaging hit. Damage from sources that resolve to no
// player still counts towards TotalDamage.
func (e *Encounter) addDamage(sourceID, targetID, ability string, value int64) {
	e.TotalDamage += value

	if p, ok := e.reg.Attacker(sourceID); ok {
		e.playerDamage[p.ShortID] += value
		byAbility := e.abilityDamage[p.ShortID]
		if byAbility == nil {
			byAbility = make(map[string]int64)
			e.abilityDamage[p.ShortID] = byAbility
		}
		byAbility[ability] += value
	}

	if en, ok := e.reg.Enemy(targetID); ok {
		e.enemyDamage[en.UnitID] += value
		e.markDamaged(en)
	}
}

func (e *Encounter) addCast(playerID, ability string) {
	byAbility := e.casts[playerID]
	if byAbility == nil {
		byAbility = make(map[string]int)
		e.casts[playerID] = byAbility
	}
	byAbility[ability]++
}

// finalize closes the encounter at t. It is a no-op once finalized.
func (e *Encounter) finalize(t int64) {
	if e.state == StateFinalized {
		return
	}
	if t < e.StartTime {
		t = e.StartTime
	}
	e.EndTime = t
	e.touch(t)
	e.buffs.CloseAll(t)
	e.state = StateFinalized
}

func perSecond(v int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(v) / d.Seconds()
}
