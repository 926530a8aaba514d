package encounter

import (
	"sort"

	"github.com/atikulmunna/esoloom/internal/model"
)

// Interval is a half-open [Start, End) span in elapsed milliseconds.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (i Interval) length() int64 { return i.End - i.Start }

type buffKey struct {
	player string
	buff   string
}

// BuffTracker keeps closed intervals per (player, buff) and at most one open
// interval for each pair.
type BuffTracker struct {
	closed map[buffKey][]Interval
	open   map[buffKey]int64
}

// NewBuffTracker returns an empty tracker.
func NewBuffTracker() *BuffTracker {
	return &BuffTracker{
		closed: make(map[buffKey][]Interval),
		open:   make(map[buffKey]int64),
	}
}

// Track applies a GAINED or FADED change at time t. A GAINED while already
// open restarts the interval at t; a FADED with nothing open is ignored.
func (b *BuffTracker) Track(player, buff, change string, t int64) {
	k := buffKey{player, buff}
	switch change {
	case model.EffectGained:
		b.open[k] = t
	case model.EffectFaded:
		start, ok := b.open[k]
		if !ok {
			return
		}
		delete(b.open, k)
		if t < start {
			t = start
		}
		b.closed[k] = append(b.closed[k], Interval{Start: start, End: t})
	}
}

// CloseAll closes every open interval at t.
func (b *BuffTracker) CloseAll(t int64) {
	for k := range b.open {
		b.Track(k.player, k.buff, model.EffectFaded, t)
	}
}

// IsOpen reports whether player currently holds buff.
func (b *BuffTracker) IsOpen(player, buff string) bool {
	_, ok := b.open[buffKey{player, buff}]
	return ok
}

// intervals returns the closed intervals plus the open one extended to end.
func (b *BuffTracker) intervals(k buffKey, end int64) []Interval {
	out := append([]Interval(nil), b.closed[k]...)
	if start, ok := b.open[k]; ok && end > start {
		out = append(out, Interval{Start: start, End: end})
	}
	return out
}

// Uptime returns the percentage of [start, end] during which player held buff.
func (b *BuffTracker) Uptime(player, buff string, start, end int64) float64 {
	duration := end - start
	if duration <= 0 {
		return 0
	}
	var total int64
	for _, iv := range b.intervals(buffKey{player, buff}, end) {
		total += clamp(iv, start, end).length()
	}
	return percent(total, duration)
}

// GroupUptime returns the percentage of [start, end] during which at least
// one player held buff. Overlapping intervals from different players are
// merged so simultaneous holders are counted once.
func (b *BuffTracker) GroupUptime(buff string, start, end int64) float64 {
	duration := end - start
	if duration <= 0 {
		return 0
	}

	var all []Interval
	for k := range b.keys(buff) {
		for _, iv := range b.intervals(k, end) {
			if c := clamp(iv, start, end); c.length() > 0 {
				all = append(all, c)
			}
		}
	}
	return percent(mergedLength(all), duration)
}

// Holders returns the players that ever held buff, sorted.
func (b *BuffTracker) Holders(buff string) []string {
	var out []string
	for k := range b.keys(buff) {
		out = append(out, k.player)
	}
	sort.Strings(out)
	return out
}

func (b *BuffTracker) keys(buff string) map[buffKey]struct{} {
	keys := make(map[buffKey]struct{})
	for k := range b.closed {
		if k.buff == buff {
			keys[k] = struct{}{}
		}
	}
	for k := range b.open {
		if k.buff == buff {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// mergedLength sorts intervals by start and sums the length of their union.
func mergedLength(ivs []Interval) int64 {
	if len(ivs) == 0 {
		return 0
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

	var total int64
	cur := ivs[0]
	for _, iv := range ivs[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		total += cur.length()
		cur = iv
	}
	return total + cur.length()
}

func clamp(iv Interval, start, end int64) Interval {
	if iv.Start < start {
		iv.Start = start
	}
	if iv.End > end {
		iv.End = end
	}
	if iv.End < iv.Start {
		iv.End = iv.Start
	}
	return iv
}

func percent(part, whole int64) float64 {
	p := float64(part) / float64(whole) * 100
	if p > 100 {
		return 100
	}
	return p
}
