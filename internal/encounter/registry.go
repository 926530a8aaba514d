package encounter

import (
	"sort"
	"strconv"

	"github.com/atikulmunna/esoloom/internal/model"
)

// GearSlot is an equipped item with names resolved at PLAYER_INFO time.
type GearSlot struct {
	Slot    string `json:"slot"`
	Item    string `json:"item"`
	Set     string `json:"set,omitempty"`
	Level   int    `json:"level"`
	Trait   string `json:"trait"`
	Quality string `json:"quality"`
	Enchant string `json:"enchant"`
}

// Player is a group member seen in the current zone.
type Player struct {
	ShortID string
	// LongIDs holds every other id known to refer to this player.
	LongIDs map[string]struct{}
	Name    string
	Handle  string
	ClassID int

	EquippedAbilities map[string]struct{}
	FrontBar          []string
	BackBar           []string
	Gear              []GearSlot

	MaxHealth  int64
	MaxMagicka int64
	MaxStamina int64
}

func newPlayer(shortID string) *Player {
	return &Player{
		ShortID:           shortID,
		LongIDs:           make(map[string]struct{}),
		EquippedAbilities: make(map[string]struct{}),
	}
}

// HasUnitID reports whether id is the player's short id or one of its aliases.
func (p *Player) HasUnitID(id string) bool {
	if id == p.ShortID {
		return true
	}
	_, ok := p.LongIDs[id]
	return ok
}

// identity is the key players are recognized by across zones.
func (p *Player) identity() string {
	return p.Handle + "/" + p.Name
}

// observe raises the resource high-water marks from a unit state sample.
func (p *Player) observe(u model.UnitState) {
	if u.Health.Known && u.Health.Max > p.MaxHealth {
		p.MaxHealth = u.Health.Max
	}
	if u.Magicka.Known && u.Magicka.Max > p.MaxMagicka {
		p.MaxMagicka = u.Magicka.Max
	}
	if u.Stamina.Known && u.Stamina.Max > p.MaxStamina {
		p.MaxStamina = u.Stamina.Max
	}
}

func (p *Player) resetHighWater() {
	p.MaxHealth, p.MaxMagicka, p.MaxStamina = 0, 0, 0
}

// Enemy is a non-player unit. Hostility is only ever learned, never revoked,
// and MaxHealth never decreases.
type Enemy struct {
	UnitID        string
	Name          string
	UnitType      string
	IsBoss        bool
	MaxHealth     int64
	CurrentHealth int64
	Hostile       bool
}

func (e *Enemy) observeHealth(r model.Resource) {
	if !r.Known {
		return
	}
	e.CurrentHealth = r.Current
	if r.Max > e.MaxHealth {
		e.MaxHealth = r.Max
	}
}

func (e *Enemy) markHostile(hostile bool) {
	if hostile {
		e.Hostile = true
	}
}

// Registry holds the players, enemies and pet ownership of one encounter.
type Registry struct {
	players map[string]*Player
	// departed players lost their short id to another unit; they stay in
	// the roster for reporting but no longer resolve by id.
	departed map[string]*Player
	ids      map[string]string // alias id -> player short id
	enemies map[string]*Enemy
	owners  map[string]string // pet unit id -> owner unit id
}

func newRegistry() *Registry {
	return &Registry{
		players:  make(map[string]*Player),
		departed: make(map[string]*Player),
		ids:      make(map[string]string),
		enemies:  make(map[string]*Enemy),
		owners:   make(map[string]string),
	}
}

// handoff moves every entity into a new Registry and leaves r empty, so the
// previous encounter can no longer reach or mutate them.
func (r *Registry) handoff() *Registry {
	next := &Registry{
		players:  r.players,
		departed: make(map[string]*Player),
		ids:      r.ids,
		enemies:  r.enemies,
		owners:   r.owners,
	}
	*r = *newRegistry()
	return next
}

// Player resolves a short or long unit id to a player.
func (r *Registry) Player(id string) (*Player, bool) {
	if p, ok := r.players[id]; ok {
		return p, true
	}
	if short, ok := r.ids[id]; ok {
		p, ok := r.players[short]
		return p, ok
	}
	return nil, false
}

// playerByIdentity finds a player with the same handle and name.
func (r *Registry) playerByIdentity(key string) (*Player, bool) {
	for _, p := range r.players {
		if p.identity() == key {
			return p, true
		}
	}
	return nil, false
}

// addPlayer inserts a player under shortID, or returns the existing one.
// A player re-added under a new short id keeps its original entry and gains
// the new id as an alias.
func (r *Registry) addPlayer(shortID, name, handle string) (p *Player, created bool) {
	if p, ok := r.Player(shortID); ok {
		return p, false
	}
	if handle != "" || name != "" {
		if p, ok := r.playerByIdentity(handle + "/" + name); ok {
			r.Alias(shortID, p.ShortID)
			return p, false
		}
	}
	delete(r.enemies, shortID)
	delete(r.owners, shortID)
	if p, ok := r.departed[shortID]; ok {
		delete(r.departed, shortID)
		if p.identity() == handle+"/"+name {
			r.players[shortID] = p
			return p, false
		}
	}
	p = newPlayer(shortID)
	p.Name, p.Handle = name, handle
	r.players[shortID] = p
	return p, true
}

// Alias records id as another name for the player with short id shortID.
// The last association wins; the id is removed from any previous owner so
// alias sets stay disjoint.
func (r *Registry) Alias(id, shortID string) bool {
	if id == "" || id == "0" || id == shortID {
		return false
	}
	p, ok := r.players[shortID]
	if !ok {
		return false
	}
	if prev, ok := r.ids[id]; ok {
		if prev == shortID {
			return false
		}
		if old, ok := r.players[prev]; ok {
			delete(old.LongIDs, id)
		}
	}
	r.ids[id] = shortID
	p.LongIDs[id] = struct{}{}
	return true
}

// dropAlias forgets id as a player alias, used when a short id is reused by
// another unit.
func (r *Registry) dropAlias(id string) {
	if short, ok := r.ids[id]; ok {
		if p, ok := r.players[short]; ok {
			delete(p.LongIDs, id)
		}
		delete(r.ids, id)
	}
}

// depart retires the player holding short id id, if any, because another
// unit now uses that id.
func (r *Registry) depart(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.players, id)
	for alias := range p.LongIDs {
		delete(r.ids, alias)
	}
	p.LongIDs = make(map[string]struct{})
	r.departed[id] = p
}

// dropOwner forgets any pet ownership recorded for unit.
func (r *Registry) dropOwner(unit string) {
	delete(r.owners, unit)
}

// Enemy returns the enemy with unit id id.
func (r *Registry) Enemy(id string) (*Enemy, bool) {
	e, ok := r.enemies[id]
	return e, ok
}

func (r *Registry) upsertEnemy(id string) *Enemy {
	e, ok := r.enemies[id]
	if !ok {
		e = &Enemy{UnitID: id}
		r.enemies[id] = e
	}
	return e
}

// SetOwner records owner as the controller of unit. The first owner seen wins.
func (r *Registry) SetOwner(unit, owner string) bool {
	if unit == "" || unit == "0" || owner == "" || owner == "0" {
		return false
	}
	if _, ok := r.owners[unit]; ok {
		return false
	}
	r.owners[unit] = owner
	return true
}

// Owner returns the unit id recorded as controlling unit.
func (r *Registry) Owner(unit string) (string, bool) {
	o, ok := r.owners[unit]
	return o, ok
}

// Attacker resolves the player responsible for an action by unit id: the
// player itself, or the owner of a pet.
func (r *Registry) Attacker(id string) (*Player, bool) {
	if p, ok := r.Player(id); ok {
		return p, true
	}
	if owner, ok := r.owners[id]; ok {
		return r.Player(owner)
	}
	return nil, false
}

func (r *Registry) resetHighWater() {
	for _, p := range r.players {
		p.resetHighWater()
	}
}

// Players returns the active players ordered by short id.
func (r *Registry) Players() []*Player {
	return sortedPlayers(r.players)
}

// Roster returns active and departed players ordered by short id.
func (r *Registry) Roster() []*Player {
	return sortedPlayers(r.players, r.departed)
}

func (r *Registry) rosterSize() int {
	return len(r.players) + len(r.departed)
}

func sortedPlayers(sets ...map[string]*Player) []*Player {
	var out []*Player
	for _, set := range sets {
		for _, p := range set {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ShortID, out[j].ShortID) })
	return out
}

// Enemies returns the enemies ordered by unit id.
func (r *Registry) Enemies() []*Enemy {
	out := make([]*Enemy, 0, len(r.enemies))
	for _, e := range r.enemies {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].UnitID, out[j].UnitID) })
	return out
}

// idLess orders numeric ids numerically and everything else lexically.
func idLess(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
