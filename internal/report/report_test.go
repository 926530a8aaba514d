package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/parser"
)

const block = "20000/25000,12000/12000,16000/16000,0/500,0/1000,0,0,0,0"

func run(t *testing.T, lines ...string) *encounter.Encounter {
	t.Helper()
	cat := catalog.New()
	cat.AddSet(232, "Relequen")
	cat.AddItem(94779, "Helm of Relequen")
	p := parser.New(cat)
	eng := encounter.NewEngine(cat, encounter.Options{
		TrackedBuffs:        map[int]string{109966: "Major Courage"},
		GroupBuffMinPlayers: 2,
	})
	for _, line := range lines {
		ev, err := p.Parse(line)
		require.NoError(t, err, line)
		eng.Process(ev)
	}
	require.NotNil(t, eng.Current())
	return eng.Current()
}

var fightLines = []string{
	`1,ABILITY_INFO,38901,"Quick Cloak","/icon.dds",F,F`,
	`0,ZONE_CHANGED,1051,"Sunspire",VETERAN`,
	`0,MAP_CHANGED,1502,"Sunspire Temple","sunspire_base"`,
	`0,UNIT_ADDED,1,PLAYER,T,1,0,F,117,3,"Bob","@bob",0,50,1800,0,PLAYER_ALLY,T`,
	`0,UNIT_ADDED,2,PLAYER,F,2,0,F,0,3,"","",0,50,1800,0,PLAYER_ALLY,T`,
	`0,UNIT_ADDED,50,MONSTER,F,0,9001,T,0,0,"Lokkestiiz","",0,50,0,0,HOSTILE,F`,
	`2,PLAYER_INFO,1,[38901],[1],[[HEAD,94779,T,16,ARMOR_DIVINES,LEGENDARY,232,INVALID,F,0,NORMAL]],[38901],[]`,
	`1000,BEGIN_COMBAT`,
	`1000,EFFECT_CHANGED,GAINED,1,1,109966,1`,
	`1200,BEGIN_CAST,0,F,7,38901,1,` + block + `,*`,
	`1500,COMBAT_EVENT,DAMAGE,PHYSICAL,STAMINA,1500,0,7,38901,1,` + block + `,50,9000000/10000000,0/0,0/0,0/0,0/0,0,0,0,0`,
	`2500,COMBAT_EVENT,DAMAGE,PHYSICAL,STAMINA,500,0,8,38901,2,` + block + `,50,8999500/10000000,0/0,0/0,0/0,0/0,0,0,0,0`,
	`3000,END_COMBAT`,
}

func TestFormatSections(t *testing.T) {
	lines := New().Format(run(t, fightLines...))
	text := strings.Join(lines, "\n")

	require.NotEmpty(t, lines)
	assert.Equal(t, "=== Sunspire (VETERAN) ===", lines[0])
	assert.Contains(t, text, "Map: Sunspire Temple")
	assert.Contains(t, text, "Duration: 2s  Damage: 2,000  DPS: 1,000")
	assert.Contains(t, text, "Health pool damaged: 10,000,000 across 1 enemy")
	assert.Contains(t, text, "--- Players ---")
	assert.Contains(t, text, "Bob (@bob) Arcanist  1,500 damage  750 DPS  75.0%")
	assert.Contains(t, text, "unknown (anon) unknown  500 damage")
	assert.Contains(t, text, "  Top: Quick Cloak 1,500 (1 cast)")
	assert.Contains(t, text, "  Front: Quick Cloak")
	assert.Contains(t, text, "Helm of Relequen [Relequen] LEGENDARY ARMOR_DIVINES")
	assert.Contains(t, text, "  Buffs: Major Courage 100.0%")
	assert.Contains(t, text, "--- Group buffs ---")
	assert.Contains(t, text, "Lokkestiiz [boss]  10,000,000 HP  2,000 damage taken")
	assert.NotContains(t, text, "Deaths:")
}

func TestFormatOrdersPlayersByDamage(t *testing.T) {
	lines := New().Format(run(t, fightLines...))
	var bob, anon int
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "Bob "):
			bob = i
		case strings.HasPrefix(l, "unknown (anon)"):
			anon = i
		}
	}
	assert.Less(t, bob, anon)
}

func TestFormatWithoutGearOrAbilities(t *testing.T) {
	f := &Formatter{}
	text := strings.Join(f.Format(run(t, fightLines...)), "\n")
	assert.NotContains(t, text, "Top:")
	assert.NotContains(t, text, "Helm of Relequen")
}

func TestFormatUnknownZone(t *testing.T) {
	lines := New().Format(run(t, `100,EFFECT_CHANGED,GAINED,1,2,5,1`))
	require.NotEmpty(t, lines)
	assert.Equal(t, "=== unknown zone ===", lines[0])
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Dragonknight", ClassName(1))
	assert.Equal(t, "Arcanist", ClassName(117))
	assert.Equal(t, "unknown", ClassName(42))
}
