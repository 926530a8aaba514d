package encounter

import (
	"io"
	"log"
	"sort"
	"time"

	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/parser"
)

// Options configures an Engine.
type Options struct {
	// TrackedBuffs maps effect ability ids to the group buff names followed.
	TrackedBuffs map[int]string
	// GroupBuffMinPlayers is the player count from which group uptime is reported.
	GroupBuffMinPlayers int
	// ZoneHistory is the number of recent zones remembered.
	ZoneHistory int

	Formatter Formatter
	Sink      ReportSink
	Splitter  Splitter
	Logger    *log.Logger
}

// loadout is a player's gear and abilities, remembered across zones by identity.
type loadout struct {
	classID   int
	abilities map[string]struct{}
	frontBar  []string
	backBar   []string
	gear      []GearSlot
}

// Engine is the encounter state machine. Events must be delivered in file
// order from a single goroutine; Process never blocks and never fails.
type Engine struct {
	catalog *catalog.Catalog
	opts    Options
	log     *log.Logger

	tracked      map[int]string
	trackedNames []string

	current    *Encounter
	zone       *ZoneInfo
	zones      *zoneRing
	zoneDeaths int
	logStartMs int64

	loadouts map[string]*loadout
}

// NewEngine creates an Engine that resolves names through cat.
func NewEngine(cat *catalog.Catalog, opts Options) *Engine {
	if opts.GroupBuffMinPlayers <= 0 {
		opts.GroupBuffMinPlayers = 3
	}
	if opts.ZoneHistory <= 0 {
		opts.ZoneHistory = 8
	}
	if opts.Splitter == nil {
		opts.Splitter = NopSplitter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	e := &Engine{
		catalog:  cat,
		opts:     opts,
		log:      logger,
		tracked:  make(map[int]string, len(opts.TrackedBuffs)),
		zones:    newZoneRing(opts.ZoneHistory),
		loadouts: make(map[string]*loadout),
	}
	seen := make(map[string]bool)
	for id, name := range opts.TrackedBuffs {
		e.tracked[id] = name
		if !seen[name] {
			seen[name] = true
			e.trackedNames = append(e.trackedNames, name)
		}
	}
	sort.Strings(e.trackedNames)
	return e
}

// SetSink replaces the report sink.
func (e *Engine) SetSink(s ReportSink) { e.opts.Sink = s }

// Current returns the current encounter, or nil.
func (e *Engine) Current() *Encounter { return e.current }

// State returns the lifecycle state of the current encounter.
func (e *Engine) State() State {
	if e.current == nil {
		return StateNone
	}
	return e.current.state
}

// Zone returns the zone the log is currently in.
func (e *Engine) Zone() (ZoneInfo, bool) {
	if e.zone == nil {
		return ZoneInfo{}, false
	}
	return *e.zone, true
}

// ZoneHistory returns recently entered zones, newest first.
func (e *Engine) ZoneHistory() []ZoneInfo { return e.zones.recent() }

// ZoneDeaths returns the number of player deaths since the last zone change.
func (e *Engine) ZoneDeaths() int { return e.zoneDeaths }

// Process folds one event into the state.
func (e *Engine) Process(ev model.Event) {
	t := ev.Ordinal
	timed := parser.HasElapsedTime(ev.Kind)
	if timed && e.current != nil {
		e.current.touch(t)
	}

	switch p := ev.Payload.(type) {
	case model.BeginLog:
		e.beginLog(p)
	case model.EndLog:
		e.endLog(t)
	case model.ZoneChanged:
		e.zoneChanged(p, t)
	case model.MapChanged:
		if e.current != nil {
			e.current.MapName = p.Name
		}
	case model.BeginCombat:
		e.beginCombat(t)
	case model.EndCombat:
		e.endCombat(t)
	case model.UnitAdded:
		e.unitAdded(p)
	case model.UnitChanged:
		e.unitChanged(p)
	case model.PlayerLoadout:
		e.playerInfo(p)
	case model.BeginCast:
		e.ensure(t)
		e.beginCast(p)
	case model.CombatEvent:
		e.ensure(t)
		e.combatEvent(p)
	case model.EffectChanged:
		e.ensure(t)
		e.effectChanged(p, t)
	}
}

// Flush finalizes an encounter left in combat at the end of input and emits
// any report still pending.
func (e *Engine) Flush() {
	cur := e.current
	if cur == nil {
		return
	}
	if cur.state != StateFinalized && cur.reg.rosterSize() > 0 && cur.TotalDamage > 0 {
		cur.finalize(cur.lastTime)
		cur.ZoneDeaths = e.zoneDeaths
	}
	e.emitPending()
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (e *Engine) beginLog(p model.BeginLog) {
	e.emitPending()
	e.current = nil
	e.zone = nil
	e.zoneDeaths = 0
	e.logStartMs = p.UnixMs
	e.opts.Splitter.LogBegin(p.UnixMs)
}

func (e *Engine) endLog(t int64) {
	if cur := e.current; cur != nil && cur.state == StateInCombat && cur.reg.rosterSize() > 0 {
		e.finalize(t)
	}
}

func (e *Engine) zoneChanged(p model.ZoneChanged, t int64) {
	e.emitPending()

	zone := ZoneInfo{ID: p.ZoneID, Name: p.Name, Difficulty: p.Difficulty}
	e.zone = &zone
	e.zones.push(zone)
	e.zoneDeaths = 0
	e.current = newEncounter(t, zone, e.trackedNames, e.opts.GroupBuffMinPlayers)
	e.opts.Splitter.ZoneChanged(p.Name, p.Difficulty)
}

func (e *Engine) beginCombat(t int64) {
	prev := e.current
	if prev == nil || prev.state == StateFinalized {
		e.emitPending()
		next := e.newEncounter(t)
		if prev != nil {
			next.reg = prev.reg.handoff()
			next.MapName = prev.MapName
		}
		e.current = next
	}

	cur := e.current
	cur.reg.resetHighWater()
	cur.state = StateInCombat
	cur.StartTime = t
	cur.lastTime = t
	e.opts.Splitter.CombatBegin()
}

func (e *Engine) endCombat(t int64) {
	cur := e.current
	if cur == nil || cur.state == StateFinalized {
		return
	}
	if cur.reg.rosterSize() == 0 {
		cur.state = StateIdle
		return
	}
	e.finalize(t)
}

func (e *Engine) finalize(t int64) {
	cur := e.current
	cur.finalize(t)
	cur.ZoneDeaths = e.zoneDeaths
	e.emit(cur)
}

// ensure creates an encounter for combat-bearing events that arrive before
// any zone or combat boundary, replaying the last remembered zone if needed.
func (e *Engine) ensure(t int64) {
	if e.current != nil {
		return
	}
	if e.zone == nil {
		if z, ok := e.zones.last(); ok {
			e.log.Printf("encounter: no current zone, replaying %q", z.Name)
			e.zone = &z
		}
	}
	e.current = e.newEncounter(t)
}

func (e *Engine) newEncounter(t int64) *Encounter {
	var zone ZoneInfo
	if e.zone != nil {
		zone = *e.zone
	}
	return newEncounter(t, zone, e.trackedNames, e.opts.GroupBuffMinPlayers)
}

// emitPending reports the current encounter if it was finalized but its
// report has not been delivered yet.
func (e *Engine) emitPending() {
	if cur := e.current; cur != nil && cur.state == StateFinalized && !cur.reported {
		e.emit(cur)
	}
}

func (e *Engine) emit(cur *Encounter) {
	if e.opts.Sink == nil {
		return
	}
	r := Report{
		ID:         cur.ID,
		Zone:       cur.Zone.Name,
		Difficulty: cur.Zone.Difficulty,
		Summary:    cur.Summary(),
	}
	if e.logStartMs > 0 {
		r.Start = time.UnixMilli(e.logStartMs + cur.StartTime)
	}
	if e.opts.Formatter != nil {
		r.Lines = e.opts.Formatter.Format(cur)
	}
	if err := e.opts.Sink.Report(r); err != nil {
		e.log.Printf("encounter: report for %s not delivered: %v", cur.Zone.Name, err)
		return
	}
	cur.reported = true
}

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

func (e *Engine) unitAdded(p model.UnitAdded) {
	cur := e.current
	if cur == nil {
		return
	}
	reg := cur.reg

	if p.UnitType == model.UnitPlayer {
		pl, created := reg.addPlayer(p.UnitID, p.Name, p.Handle)
		if p.ClassID != 0 {
			pl.ClassID = p.ClassID
		}
		reg.Alias(p.LongUnitID, pl.ShortID)
		if created {
			e.restoreLoadout(pl)
		}
		return
	}

	reg.dropAlias(p.UnitID)
	reg.depart(p.UnitID)
	reg.dropOwner(p.UnitID)
	if p.OwnerUnitID != "" && p.OwnerUnitID != "0" {
		reg.SetOwner(p.UnitID, p.OwnerUnitID)
		return
	}
	if p.UnitType != model.UnitMonster && p.UnitType != model.UnitNPC {
		return
	}
	en := reg.upsertEnemy(p.UnitID)
	en.Name = p.Name
	en.UnitType = p.UnitType
	en.IsBoss = en.IsBoss || p.IsBoss
	en.markHostile(p.Hostile())
}

func (e *Engine) unitChanged(p model.UnitChanged) {
	cur := e.current
	if cur == nil {
		return
	}
	reg := cur.reg

	if pl, ok := reg.Player(p.UnitID); ok {
		if p.Name != "" {
			pl.Name = p.Name
		}
		if p.Handle != "" {
			pl.Handle = p.Handle
		}
		return
	}
	en, ok := reg.Enemy(p.UnitID)
	if !ok {
		if _, owned := reg.Owner(p.UnitID); owned || !p.Hostile() {
			return
		}
		en = reg.upsertEnemy(p.UnitID)
		en.UnitType = model.UnitMonster
	}
	if p.Name != "" {
		en.Name = p.Name
	}
	en.markHostile(p.Hostile())
}

func (e *Engine) playerInfo(p model.PlayerLoadout) {
	cur := e.current
	if cur == nil {
		return
	}
	pl, ok := cur.reg.Player(p.UnitID)
	if !ok {
		return
	}

	pl.EquippedAbilities = make(map[string]struct{}, len(p.AbilityIDs))
	for _, id := range p.AbilityIDs {
		pl.EquippedAbilities[e.catalog.AbilityName(id)] = struct{}{}
	}
	pl.FrontBar = e.abilityNames(p.FrontBarAbilityIDs)
	pl.BackBar = e.abilityNames(p.BackBarAbilityIDs)
	pl.Gear = make([]GearSlot, 0, len(p.Gear))
	for _, g := range p.Gear {
		pl.Gear = append(pl.Gear, GearSlot{
			Slot:    g.Slot,
			Item:    e.catalog.ItemName(g.ItemID),
			Set:     e.catalog.SetName(g.SetID),
			Level:   g.Level,
			Trait:   g.Trait,
			Quality: g.Quality,
			Enchant: g.Enchant,
		})
	}
	e.saveLoadout(pl)
}

func (e *Engine) abilityNames(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.catalog.AbilityName(id))
	}
	return out
}

func (e *Engine) saveLoadout(pl *Player) {
	if pl.Handle == "" && pl.Name == "" {
		return
	}
	e.loadouts[pl.identity()] = &loadout{
		classID:   pl.ClassID,
		abilities: pl.EquippedAbilities,
		frontBar:  pl.FrontBar,
		backBar:   pl.BackBar,
		gear:      pl.Gear,
	}
}

func (e *Engine) restoreLoadout(pl *Player) {
	l, ok := e.loadouts[pl.identity()]
	if !ok {
		return
	}
	if pl.ClassID == 0 {
		pl.ClassID = l.classID
	}
	pl.EquippedAbilities = make(map[string]struct{}, len(l.abilities))
	for name := range l.abilities {
		pl.EquippedAbilities[name] = struct{}{}
	}
	pl.FrontBar = append([]string(nil), l.frontBar...)
	pl.BackBar = append([]string(nil), l.backBar...)
	pl.Gear = append([]GearSlot(nil), l.gear...)
}

// observe updates resource marks and enemy health from a unit state block.
func (e *Engine) observe(u model.UnitState) {
	if u.Empty() {
		return
	}
	reg := e.current.reg
	if pl, ok := reg.Player(u.UnitID); ok {
		pl.observe(u)
		return
	}
	if en, ok := reg.Enemy(u.UnitID); ok {
		en.observeHealth(u.Health)
	}
}

// ---------------------------------------------------------------------------
// Combat
// ---------------------------------------------------------------------------

func (e *Engine) beginCast(p model.BeginCast) {
	cur := e.current
	e.observe(p.Source)
	e.observe(p.Target)
	if cur.state == StateFinalized {
		return
	}
	if pl, ok := cur.reg.Attacker(p.Source.UnitID); ok {
		cur.addCast(pl.ShortID, e.catalog.AbilityName(p.AbilityID))
	}
}

func (e *Engine) combatEvent(p model.CombatEvent) {
	cur := e.current
	reg := cur.reg
	e.observe(p.Source)
	e.observe(p.Target)

	if p.Result == model.ResultDiedXP {
		if _, ok := reg.Player(p.Target.UnitID); ok {
			e.zoneDeaths++
			if cur.state != StateFinalized {
				cur.Deaths++
			}
			return
		}
		if en, ok := reg.Enemy(p.Target.UnitID); ok && en.Hostile && cur.state != StateFinalized {
			cur.markDamaged(en)
		}
		return
	}

	if !p.IsDamage() || cur.state == StateFinalized {
		return
	}
	if _, ok := reg.Player(p.Target.UnitID); ok {
		return
	}
	if en, ok := reg.Enemy(p.Source.UnitID); ok && en.Hostile {
		return
	}
	cur.addDamage(p.Source.UnitID, p.Target.UnitID, e.catalog.AbilityName(p.AbilityID), p.HitValue)
}

func (e *Engine) effectChanged(p model.EffectChanged, t int64) {
	cur := e.current
	reg := cur.reg

	target, targetIsPlayer := reg.Player(p.TargetID)
	if targetIsPlayer && p.TargetLongID != "" {
		reg.Alias(p.TargetLongID, target.ShortID)
	}

	if source, ok := reg.Player(p.SourceID); ok && !targetIsPlayer && p.TargetID != p.SourceID {
		if _, isEnemy := reg.Enemy(p.TargetID); !isEnemy {
			if reg.SetOwner(p.TargetID, source.ShortID) {
				e.log.Printf("encounter: unit %s owned by player %s", p.TargetID, source.ShortID)
			}
		}
	}

	if buff, ok := e.tracked[p.AbilityID]; ok && targetIsPlayer && cur.state != StateFinalized {
		cur.buffs.Track(target.ShortID, buff, p.Change, t)
	}

	if p.TargetHealth.Known {
		if en, ok := reg.Enemy(p.TargetID); ok {
			en.observeHealth(p.TargetHealth)
		}
	}
}
