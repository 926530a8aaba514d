package encounter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atikulmunna/esoloom/internal/model"
)

func TestUptimeSingleInterval(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Major Slayer", model.EffectGained, 2000)
	b.Track("1", "Major Slayer", model.EffectFaded, 7000)

	assert.InDelta(t, 50.0, b.Uptime("1", "Major Slayer", 0, 10000), 1e-9)
	assert.InDelta(t, 50.0, b.GroupUptime("Major Slayer", 0, 10000), 1e-9)
	assert.Zero(t, b.Uptime("2", "Major Slayer", 0, 10000))
}

func TestUptimeZeroDuration(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Major Slayer", model.EffectGained, 0)
	assert.Zero(t, b.Uptime("1", "Major Slayer", 100, 100))
	assert.Zero(t, b.GroupUptime("Major Slayer", 100, 50))
}

func TestOrphanFadeIgnored(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Minor Berserk", model.EffectFaded, 500)
	assert.Empty(t, b.Holders("Minor Berserk"))
	assert.Zero(t, b.Uptime("1", "Minor Berserk", 0, 1000))
}

func TestRepeatedGainRestartsInterval(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Minor Berserk", model.EffectGained, 0)
	b.Track("1", "Minor Berserk", model.EffectGained, 600)
	b.Track("1", "Minor Berserk", model.EffectFaded, 1000)
	assert.InDelta(t, 40.0, b.Uptime("1", "Minor Berserk", 0, 1000), 1e-9)
}

func TestOpenIntervalExtendsToEnd(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Major Courage", model.EffectGained, 500)
	assert.True(t, b.IsOpen("1", "Major Courage"))
	assert.InDelta(t, 50.0, b.Uptime("1", "Major Courage", 0, 1000), 1e-9)

	b.CloseAll(800)
	assert.False(t, b.IsOpen("1", "Major Courage"))
	assert.InDelta(t, 30.0, b.Uptime("1", "Major Courage", 0, 1000), 1e-9)
}

func TestUptimeClampedToWindow(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Major Courage", model.EffectGained, -5000)
	b.Track("1", "Major Courage", model.EffectFaded, 5000)
	assert.InDelta(t, 100.0, b.Uptime("1", "Major Courage", 0, 1000), 1e-9)
}

func TestGroupUptimeDisjointHolders(t *testing.T) {
	b := NewBuffTracker()
	b.Track("1", "Major Courage", model.EffectGained, 0)
	b.Track("1", "Major Courage", model.EffectFaded, 2000)
	b.Track("2", "Major Courage", model.EffectGained, 6000)
	b.Track("2", "Major Courage", model.EffectFaded, 8000)

	assert.InDelta(t, 40.0, b.GroupUptime("Major Courage", 0, 10000), 1e-9)
	assert.Equal(t, []string{"1", "2"}, b.Holders("Major Courage"))
}

func TestGroupUptimeNeverExceedsHundred(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := NewBuffTracker()
	players := []string{"1", "2", "3", "4", "5", "6"}
	for i := 0; i < 500; i++ {
		p := players[rng.Intn(len(players))]
		change := model.EffectGained
		if rng.Intn(2) == 0 {
			change = model.EffectFaded
		}
		b.Track(p, "Powerful Assault", change, int64(rng.Intn(20000)-2000))
	}

	group := b.GroupUptime("Powerful Assault", 0, 15000)
	assert.LessOrEqual(t, group, 100.0)
	assert.GreaterOrEqual(t, group, 0.0)
	for _, p := range players {
		u := b.Uptime(p, "Powerful Assault", 0, 15000)
		assert.LessOrEqual(t, u, 100.0, p)
	}
}

func TestMergedLength(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want int64
	}{
		{"empty", nil, 0},
		{"single", []Interval{{0, 10}}, 10},
		{"nested", []Interval{{0, 10}, {2, 5}}, 10},
		{"touching", []Interval{{0, 5}, {5, 10}}, 10},
		{"unsorted", []Interval{{20, 30}, {0, 10}, {5, 12}}, 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergedLength(tt.in))
		})
	}
}
