// Package parser turns raw encounter-log lines into typed model.Event values.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/model"
)

var (
	// ErrUnparsable means the line lacks the ordinal,kind prefix.
	ErrUnparsable = errors.New("unparsable line")
	// ErrMalformed means the kind was recognized but its payload could not be decoded.
	ErrMalformed = errors.New("malformed payload")
)

// decoder decodes the payload fields (everything after ordinal and kind).
// raw is the full line, for decoders that cannot work from flat fields.
type decoder struct {
	decode func(p *Parser, f []string, raw string) (model.Payload, error)
	// required decoders drop the event on failure; others fall back to Generic.
	required bool
}

var decoders = map[model.Kind]decoder{
	model.KindBeginLog:      {decode: decodeBeginLog},
	model.KindEndLog:        {decode: func(*Parser, []string, string) (model.Payload, error) { return model.EndLog{}, nil }},
	model.KindBeginCombat:   {decode: func(*Parser, []string, string) (model.Payload, error) { return model.BeginCombat{}, nil }},
	model.KindEndCombat:     {decode: func(*Parser, []string, string) (model.Payload, error) { return model.EndCombat{}, nil }},
	model.KindZoneChanged:   {decode: decodeZoneChanged, required: true},
	model.KindMapChanged:    {decode: decodeMapChanged},
	model.KindUnitAdded:     {decode: decodeUnitAdded, required: true},
	model.KindUnitChanged:   {decode: decodeUnitChanged},
	model.KindAbilityInfo:   {decode: decodeAbilityInfo, required: true},
	model.KindPlayerInfo:    {decode: decodePlayerInfo, required: true},
	model.KindBeginCast:     {decode: decodeBeginCast, required: true},
	model.KindEffectChanged: {decode: decodeEffectChanged, required: true},
	model.KindCombatEvent:   {decode: decodeCombatEvent, required: true},
}

// Parser classifies and decodes lines. It keeps a running line count for
// kinds whose ordinal is a line counter, and writes ABILITY_INFO names into
// the shared catalog. A Parser is used from a single goroutine.
type Parser struct {
	catalog *catalog.Catalog
	lines   int64
}

// New creates a Parser that memoizes ability names into cat.
func New(cat *catalog.Catalog) *Parser {
	return &Parser{catalog: cat}
}

// Lines returns the number of lines handed to Parse so far.
func (p *Parser) Lines() int64 { return p.lines }

// Parse decodes one line. On ErrUnparsable or ErrMalformed the returned event
// must be discarded; no catalog entry is written for a failed decode.
func (p *Parser) Parse(raw string) (model.Event, error) {
	p.lines++

	fields, err := Tokenize(raw)
	if err != nil {
		return model.Event{}, err
	}

	kind := model.Kind(strings.TrimSpace(fields[1]))
	ev := model.Event{
		Kind:   kind,
		Fields: fields,
		Raw:    raw,
	}
	if OrdinalSourceFor(kind) == LineCounter {
		ev.Ordinal = p.lines
	} else {
		ev.Ordinal, _ = strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	}

	dec, ok := decoders[kind]
	if !ok {
		ev.Payload = model.Generic{}
		return ev, nil
	}

	payload, err := dec.decode(p, fields[2:], raw)
	if err != nil {
		if dec.required {
			return model.Event{}, fmt.Errorf("%s: %w", kind, err)
		}
		payload = model.Generic{}
	}
	ev.Payload = payload
	return ev, nil
}

// ---------------------------------------------------------------------------
// Decoders
// ---------------------------------------------------------------------------

func decodeBeginLog(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(1)
	out := model.BeginLog{
		UnixMs:   r.int64(0),
		Version:  r.optInt(1),
		Server:   r.str(2),
		Language: r.str(3),
		Build:    r.str(4),
	}
	return out, r.err
}

func decodeZoneChanged(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(2)
	out := model.ZoneChanged{
		ZoneID:     r.int(0),
		Name:       r.str(1),
		Difficulty: r.str(2),
	}
	if out.Difficulty == "" {
		out.Difficulty = "NONE"
	}
	return out, r.err
}

func decodeMapChanged(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(2)
	out := model.MapChanged{
		MapID:   r.int(0),
		Name:    r.str(1),
		Texture: r.str(2),
	}
	return out, r.err
}

func decodeUnitAdded(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(15)
	out := model.UnitAdded{
		UnitID:        r.str(0),
		UnitType:      r.str(1),
		IsLocalPlayer: r.flag(2),
		MonsterID:     r.optInt(4),
		IsBoss:        r.flag(5),
		ClassID:       r.optInt(6),
		RaceID:        r.optInt(7),
		Name:          r.str(8),
		Handle:        r.str(9),
		LongUnitID:    r.str(10),
		Level:         r.optInt(11),
		ChampionLevel: r.optInt(12),
		OwnerUnitID:   r.str(13),
		Reaction:      r.str(14),
		IsGrouped:     r.flag(15),
	}
	if out.UnitID == "" {
		r.fail("empty unit id")
	}
	return out, r.err
}

func decodeUnitChanged(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(10)
	out := model.UnitChanged{
		UnitID:      r.str(0),
		ClassID:     r.optInt(1),
		RaceID:      r.optInt(2),
		Name:        r.str(3),
		Handle:      r.str(4),
		LongUnitID:  r.str(5),
		Level:       r.optInt(6),
		OwnerUnitID: r.str(8),
		Reaction:    r.str(9),
		IsGrouped:   r.flag(10),
	}
	return out, r.err
}

func decodeAbilityInfo(p *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(2)
	out := model.AbilityInfo{
		ID:          r.int(0),
		DisplayName: r.str(1),
		IconPath:    r.str(2),
		IsPassive:   r.flag(3),
		IsUltimate:  r.flag(4),
	}
	if r.err != nil {
		return nil, r.err
	}
	p.catalog.AddAbility(out)
	return out, nil
}

func decodeBeginCast(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(5)
	out := model.BeginCast{
		DurationMs:  r.int64(0),
		Channeled:   r.flag(1),
		CastTrackID: r.str(2),
		AbilityID:   r.int(3),
	}
	if r.err != nil {
		return nil, r.err
	}
	out.Source, out.Target = unitBlocks(f, 4)
	return out, nil
}

func decodeEffectChanged(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(5)
	out := model.EffectChanged{
		Change:    r.str(0),
		TargetID:  r.str(1),
		SourceID:  r.str(2),
		AbilityID: r.int(3),
		Stacks:    r.optInt(4),
	}
	if r.err != nil {
		return nil, r.err
	}
	for i := 5; i < len(f); i++ {
		if res := parseResource(f[i]); res.Known {
			out.TargetHealth = res
			break
		}
		if i == 5 && f[i] != "" && f[i] != "0" {
			out.TargetLongID = f[i]
		}
	}
	return out, nil
}

func decodeCombatEvent(_ *Parser, f []string, _ string) (model.Payload, error) {
	r := reader{f: f}
	r.need(8)
	out := model.CombatEvent{
		Result:      r.str(0),
		DamageType:  r.str(1),
		PowerType:   r.str(2),
		HitValue:    r.int64(3),
		Overflow:    r.optInt64(4),
		CastTrackID: r.str(5),
		AbilityID:   r.int(6),
	}
	if r.err != nil {
		return nil, r.err
	}
	out.Source, out.Target = unitBlocks(f, 7)
	return out, nil
}

// ---------------------------------------------------------------------------
// Unit state blocks
// ---------------------------------------------------------------------------

// unitBlockWidth is unitId, health, magicka, stamina, ultimate, werewolf,
// shield, x, y, heading.
const unitBlockWidth = 10

// unitBlocks decodes the source block at f[at:] and the target block that
// follows it. A target block of "*" repeats the source.
func unitBlocks(f []string, at int) (source, target model.UnitState) {
	source = unitBlock(f, at)
	next := at + unitBlockWidth
	if next >= len(f) {
		return source, target
	}
	if strings.TrimSpace(f[next]) == "*" {
		return source, source
	}
	return source, unitBlock(f, next)
}

func unitBlock(f []string, at int) model.UnitState {
	var u model.UnitState
	if at >= len(f) {
		return u
	}
	u.UnitID = strings.TrimSpace(f[at])
	if at+1 < len(f) {
		u.Health = parseResource(f[at+1])
	}
	if at+2 < len(f) {
		u.Magicka = parseResource(f[at+2])
	}
	if at+3 < len(f) {
		u.Stamina = parseResource(f[at+3])
	}
	return u
}

// parseResource reads a "current/max" field.
func parseResource(s string) model.Resource {
	cur, mx, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return model.Resource{}
	}
	c, err1 := strconv.ParseInt(cur, 10, 64)
	m, err2 := strconv.ParseInt(mx, 10, 64)
	if err1 != nil || err2 != nil {
		return model.Resource{}
	}
	return model.Resource{Current: c, Max: m, Known: true}
}

// ---------------------------------------------------------------------------
// Field reader
// ---------------------------------------------------------------------------

// reader pulls typed values out of a field slice and remembers the first error.
type reader struct {
	f   []string
	err error
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format+": %w", append(args, ErrMalformed)...)
	}
}

func (r *reader) need(n int) {
	if len(r.f) < n {
		r.fail("expected at least %d fields, got %d", n, len(r.f))
	}
}

func (r *reader) str(i int) string {
	if i >= len(r.f) {
		return ""
	}
	return r.f[i]
}

func (r *reader) int64(i int) int64 {
	if i >= len(r.f) {
		r.fail("field %d missing", i)
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(r.f[i]), 10, 64)
	if err != nil {
		r.fail("field %d %q is not an integer", i, r.f[i])
	}
	return v
}

func (r *reader) int(i int) int { return int(r.int64(i)) }

// optInt64 returns 0 for missing or non-numeric fields.
func (r *reader) optInt64(i int) int64 {
	if i >= len(r.f) {
		return 0
	}
	v, _ := strconv.ParseInt(strings.TrimSpace(r.f[i]), 10, 64)
	return v
}

func (r *reader) optInt(i int) int { return int(r.optInt64(i)) }

// flag reads a T/F field; anything but "T" is false.
func (r *reader) flag(i int) bool {
	return i < len(r.f) && strings.TrimSpace(r.f[i]) == "T"
}
