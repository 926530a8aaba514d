package encounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/esoloom/internal/model"
)

func TestAliasIdempotent(t *testing.T) {
	r := newRegistry()
	p, created := r.addPlayer("1", "Bob", "@bob")
	require.True(t, created)

	assert.True(t, r.Alias("4400", "1"))
	assert.False(t, r.Alias("4400", "1"))
	assert.Len(t, p.LongIDs, 1)
	assert.True(t, p.HasUnitID("1"))
	assert.True(t, p.HasUnitID("4400"))
	assert.False(t, p.HasUnitID("4401"))
}

func TestAliasRejectsPlaceholders(t *testing.T) {
	r := newRegistry()
	r.addPlayer("1", "Bob", "@bob")
	assert.False(t, r.Alias("", "1"))
	assert.False(t, r.Alias("0", "1"))
	assert.False(t, r.Alias("1", "1"))
	assert.False(t, r.Alias("4400", "2"))
}

func TestAliasSetsStayDisjoint(t *testing.T) {
	r := newRegistry()
	bob, _ := r.addPlayer("1", "Bob", "@bob")
	sue, _ := r.addPlayer("2", "Sue", "@sue")

	r.Alias("4400", "1")
	r.Alias("4400", "2")

	assert.NotContains(t, bob.LongIDs, "4400")
	assert.Contains(t, sue.LongIDs, "4400")
	p, ok := r.Player("4400")
	require.True(t, ok)
	assert.Equal(t, "2", p.ShortID)
}

func TestDropAlias(t *testing.T) {
	r := newRegistry()
	bob, _ := r.addPlayer("1", "Bob", "@bob")
	r.Alias("30", "1")
	r.dropAlias("30")

	_, ok := r.Player("30")
	assert.False(t, ok)
	assert.Empty(t, bob.LongIDs)
}

func TestAddPlayerReplacesEnemy(t *testing.T) {
	r := newRegistry()
	r.upsertEnemy("5")
	r.addPlayer("5", "Bob", "@bob")
	_, ok := r.Enemy("5")
	assert.False(t, ok)
}

func TestAnonymousPlayersNotMerged(t *testing.T) {
	r := newRegistry()
	r.addPlayer("1", "", "")
	_, created := r.addPlayer("2", "", "")
	assert.True(t, created)
	assert.Len(t, r.Players(), 2)
}

func TestAttackerResolvesPets(t *testing.T) {
	r := newRegistry()
	r.addPlayer("1", "Bob", "@bob")
	assert.True(t, r.SetOwner("77", "1"))
	assert.False(t, r.SetOwner("77", "2"))

	p, ok := r.Attacker("77")
	require.True(t, ok)
	assert.Equal(t, "1", p.ShortID)

	_, ok = r.Attacker("78")
	assert.False(t, ok)
}

func TestHandoffEmptiesSource(t *testing.T) {
	r := newRegistry()
	r.addPlayer("1", "Bob", "@bob")
	r.upsertEnemy("50")
	r.SetOwner("77", "1")

	next := r.handoff()
	assert.Empty(t, r.Players())
	assert.Empty(t, r.Enemies())
	_, ok := r.Owner("77")
	assert.False(t, ok)

	assert.Len(t, next.Players(), 1)
	assert.Len(t, next.Enemies(), 1)
	owner, ok := next.Owner("77")
	assert.True(t, ok)
	assert.Equal(t, "1", owner)
}

func TestEnemyHealthMonotonic(t *testing.T) {
	en := &Enemy{UnitID: "50"}
	en.observeHealth(model.Resource{Current: 900, Max: 1000, Known: true})
	en.observeHealth(model.Resource{Current: 10, Max: 100, Known: true})
	en.observeHealth(model.Resource{})

	assert.Equal(t, int64(1000), en.MaxHealth)
	assert.Equal(t, int64(10), en.CurrentHealth)
}

func TestPlayersSortedNumerically(t *testing.T) {
	r := newRegistry()
	r.addPlayer("10", "A", "@a")
	r.addPlayer("9", "B", "@b")
	r.addPlayer("100", "C", "@c")

	var ids []string
	for _, p := range r.Players() {
		ids = append(ids, p.ShortID)
	}
	assert.Equal(t, []string{"9", "10", "100"}, ids)
}

func TestDepartedPlayerStaysInRoster(t *testing.T) {
	r := newRegistry()
	r.addPlayer("5", "Al", "@al")
	r.Alias("4405", "5")

	r.depart("5")
	_, ok := r.Player("5")
	assert.False(t, ok)
	_, ok = r.Player("4405")
	assert.False(t, ok)
	assert.Empty(t, r.Players())
	require.Len(t, r.Roster(), 1)
	assert.Equal(t, 1, r.rosterSize())
}

func TestDepartedPlayerRevivedBySameIdentity(t *testing.T) {
	r := newRegistry()
	al, _ := r.addPlayer("5", "Al", "@al")
	r.depart("5")
	r.upsertEnemy("5")

	p, created := r.addPlayer("5", "Al", "@al")
	assert.False(t, created)
	assert.Same(t, al, p)
	_, ok := r.Enemy("5")
	assert.False(t, ok)
	assert.Len(t, r.Roster(), 1)
}

func TestDepartedPlayerReplacedByStranger(t *testing.T) {
	r := newRegistry()
	r.addPlayer("5", "Al", "@al")
	r.depart("5")

	p, created := r.addPlayer("5", "Cy", "@cy")
	assert.True(t, created)
	assert.Equal(t, "Cy", p.Name)
	assert.Len(t, r.Roster(), 1)
}
