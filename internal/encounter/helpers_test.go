package encounter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/parser"
)

const courageID = 109966

type harness struct {
	t        *testing.T
	cat      *catalog.Catalog
	parser   *parser.Parser
	engine   *Engine
	reports  []Report
	failNext int
	splits   []string
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, cat: catalog.New()}
	h.parser = parser.New(h.cat)
	h.engine = NewEngine(h.cat, Options{
		TrackedBuffs: map[int]string{courageID: "Major Courage"},
		Formatter: FormatterFunc(func(e *Encounter) []string {
			return []string{fmt.Sprintf("%s %d", e.Zone.Name, e.TotalDamage)}
		}),
		Sink: ReportSinkFunc(func(r Report) error {
			if h.failNext > 0 {
				h.failNext--
				return errors.New("sink unavailable")
			}
			h.reports = append(h.reports, r)
			return nil
		}),
		Splitter: recordingSplitter{h},
	})
	return h
}

// feed parses and processes lines, failing the test on parse errors.
func (h *harness) feed(lines ...string) {
	h.t.Helper()
	for _, line := range lines {
		ev, err := h.parser.Parse(line)
		require.NoError(h.t, err, line)
		h.engine.Process(ev)
	}
}

// feedRaw processes lines the way the hub does: parse failures are skipped.
func (h *harness) feedRaw(lines ...string) {
	for _, line := range lines {
		if ev, err := h.parser.Parse(line); err == nil {
			h.engine.Process(ev)
		}
	}
}

type recordingSplitter struct{ h *harness }

func (s recordingSplitter) LogBegin(ms int64) {
	s.h.splits = append(s.h.splits, fmt.Sprintf("log:%d", ms))
}

func (s recordingSplitter) ZoneChanged(zone, difficulty string) {
	s.h.splits = append(s.h.splits, "zone:"+zone+":"+difficulty)
}

func (s recordingSplitter) CombatBegin() {
	s.h.splits = append(s.h.splits, "combat")
}

// ---------------------------------------------------------------------------
// Line builders
// ---------------------------------------------------------------------------

func zoneLine(t int64, name string) string {
	return fmt.Sprintf(`%d,ZONE_CHANGED,1000,"%s",VETERAN`, t, name)
}

func playerLine(id, name, handle, longID string) string {
	return fmt.Sprintf(`0,UNIT_ADDED,%s,PLAYER,F,1,0,F,117,3,"%s","%s",%s,50,1800,0,PLAYER_ALLY,T`, id, name, handle, longID)
}

func monsterLine(id, name string, hostile bool) string {
	reaction := "FRIENDLY"
	if hostile {
		reaction = "HOSTILE"
	}
	return fmt.Sprintf(`0,UNIT_ADDED,%s,MONSTER,F,0,9001,F,0,0,"%s","",0,50,0,0,%s,F`, id, name, reaction)
}

func petLine(id, owner string) string {
	return fmt.Sprintf(`0,UNIT_ADDED,%s,MONSTER,F,0,77,F,0,0,"Twilight","",0,50,0,%s,PLAYER_ALLY,F`, id, owner)
}

func unitBlock(id string, hp, max int64) string {
	return fmt.Sprintf("%s,%d/%d,10000/12000,15000/16000,0/500,0/1000,0,0.5,0.5,1.0", id, hp, max)
}

func damageLine(t int64, source, target string, value, targetHP, targetMax int64) string {
	return fmt.Sprintf("%d,COMBAT_EVENT,DAMAGE,PHYSICAL,STAMINA,%d,0,1,38901,%s,%s",
		t, value, unitBlock(source, 20000, 25000), unitBlock(target, targetHP, targetMax))
}

func diedLine(t int64, killer, target string) string {
	return fmt.Sprintf("%d,COMBAT_EVENT,DIED_XP,GENERIC,INVALID,0,0,2,0,%s,%s",
		t, unitBlock(killer, 1, 1), unitBlock(target, 0, 10000))
}

func effectLine(t int64, change, target, source string, ability int) string {
	return fmt.Sprintf("%d,EFFECT_CHANGED,%s,%s,%s,%d,1", t, change, target, source, ability)
}
