package model

// Kind names the record type found in the second field of every log line.
type Kind string

const (
	KindBeginLog      Kind = "BEGIN_LOG"
	KindEndLog        Kind = "END_LOG"
	KindZoneChanged   Kind = "ZONE_CHANGED"
	KindMapChanged    Kind = "MAP_CHANGED"
	KindUnitAdded     Kind = "UNIT_ADDED"
	KindUnitChanged   Kind = "UNIT_CHANGED"
	KindUnitRemoved   Kind = "UNIT_REMOVED"
	KindAbilityInfo   Kind = "ABILITY_INFO"
	KindEffectInfo    Kind = "EFFECT_INFO"
	KindPlayerInfo    Kind = "PLAYER_INFO"
	KindBeginCombat   Kind = "BEGIN_COMBAT"
	KindEndCombat     Kind = "END_COMBAT"
	KindBeginCast     Kind = "BEGIN_CAST"
	KindEndCast       Kind = "END_CAST"
	KindEffectChanged Kind = "EFFECT_CHANGED"
	KindCombatEvent   Kind = "COMBAT_EVENT"
	KindHealthRegen   Kind = "HEALTH_REGEN"
)

// Event is one decoded log line. Payload is chosen once by the classifier;
// consumers switch on its concrete type.
type Event struct {
	Ordinal int64    `json:"ordinal"` // elapsed ms, or the line counter for kinds without reliable time
	Kind    Kind     `json:"kind"`
	Fields  []string `json:"fields"`
	Raw     string   `json:"raw"`
	Payload Payload  `json:"-"`
}

// Payload is the closed set of decoded event bodies.
type Payload interface {
	payload()
}

type BeginLog struct {
	UnixMs   int64
	Version  int
	Server   string
	Language string
	Build    string
}

type EndLog struct{}

type ZoneChanged struct {
	ZoneID     int
	Name       string
	Difficulty string
}

type MapChanged struct {
	MapID   int
	Name    string
	Texture string
}

// Unit types and reactions used by UNIT_ADDED / UNIT_CHANGED.
const (
	UnitPlayer  = "PLAYER"
	UnitMonster = "MONSTER"
	UnitNPC     = "NPC"

	ReactionHostile = "HOSTILE"
)

type UnitAdded struct {
	UnitID        string
	UnitType      string
	IsLocalPlayer bool
	MonsterID     int
	IsBoss        bool
	ClassID       int
	RaceID        int
	Name          string
	Handle        string
	LongUnitID    string
	Level         int
	ChampionLevel int
	OwnerUnitID   string
	Reaction      string
	IsGrouped     bool
}

// Hostile reports whether the unit was added with a hostile reaction.
func (u UnitAdded) Hostile() bool { return u.Reaction == ReactionHostile }

type UnitChanged struct {
	UnitID      string
	ClassID     int
	RaceID      int
	Name        string
	Handle      string
	LongUnitID  string
	Level       int
	OwnerUnitID string
	Reaction    string
	IsGrouped   bool
}

func (u UnitChanged) Hostile() bool { return u.Reaction == ReactionHostile }

type BeginCombat struct{}

type EndCombat struct{}

type BeginCast struct {
	DurationMs  int64
	Channeled   bool
	CastTrackID string
	AbilityID   int
	Source      UnitState
	Target      UnitState
}

// Effect change types.
const (
	EffectGained  = "GAINED"
	EffectFaded   = "FADED"
	EffectUpdated = "UPDATED"
)

type EffectChanged struct {
	Change       string
	TargetID     string
	SourceID     string
	AbilityID    int
	Stacks       int
	TargetLongID string
	// TargetHealth is the first "cur/max" field following the fixed payload.
	TargetHealth Resource
}

// Combat results the engine reacts to.
const (
	ResultDamage          = "DAMAGE"
	ResultCriticalDamage  = "CRITICAL_DAMAGE"
	ResultDotTick         = "DOT_TICK"
	ResultDotTickCritical = "DOT_TICK_CRITICAL"
	ResultDiedXP          = "DIED_XP"
)

type CombatEvent struct {
	Result      string
	DamageType  string
	PowerType   string
	HitValue    int64
	Overflow    int64
	CastTrackID string
	AbilityID   int
	Source      UnitState
	Target      UnitState
}

// IsDamage reports whether the result deals damage to the target.
func (c CombatEvent) IsDamage() bool {
	switch c.Result {
	case ResultDamage, ResultCriticalDamage, ResultDotTick, ResultDotTickCritical:
		return true
	}
	return false
}

// AbilityInfo is the decoded ABILITY_INFO record.
type AbilityInfo struct {
	ID          int    `json:"id" yaml:"id"`
	DisplayName string `json:"name" yaml:"name"`
	IconPath    string `json:"icon,omitempty" yaml:"icon,omitempty"`
	IsPassive   bool   `json:"passive,omitempty" yaml:"passive,omitempty"`
	IsUltimate  bool   `json:"ultimate,omitempty" yaml:"ultimate,omitempty"`
}

// Generic carries kinds that have no specialized decoder; Event.Fields holds the data.
type Generic struct{}

func (BeginLog) payload()      {}
func (EndLog) payload()        {}
func (ZoneChanged) payload()   {}
func (MapChanged) payload()    {}
func (UnitAdded) payload()     {}
func (UnitChanged) payload()   {}
func (BeginCombat) payload()   {}
func (EndCombat) payload()     {}
func (BeginCast) payload()     {}
func (EffectChanged) payload() {}
func (CombatEvent) payload()   {}
func (AbilityInfo) payload()   {}
func (PlayerLoadout) payload() {}
func (Generic) payload()       {}
