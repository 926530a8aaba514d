package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/esoloom/internal/model"
)

const epsWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of the live session.
type Stats struct {
	Uptime        string           `json:"uptime"`
	TotalEvents   int64            `json:"total_events"`
	EPS           float64          `json:"eps"`
	KindCounts    map[string]int64 `json:"kind_counts"`
	Encounters    int64            `json:"encounters"`
	DroppedEvents int64            `json:"dropped_events"`
	FilesWatched  int              `json:"files_watched"`
}

// Aggregator subscribes to the Hub's event stream and computes session counters.
type Aggregator struct {
	mu          sync.RWMutex
	startTime   time.Time
	totalEvents int64
	kindCounts  map[string]int64
	encounters  int64
	window      []time.Time // arrival times for EPS calculation
	dropped     func() int64
	fileCount   func() int
	events      <-chan model.Event
}

// New creates an Aggregator that reads from the given Hub event channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher respectively.
func New(events <-chan model.Event, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:  time.Now(),
		kindCounts: make(map[string]int64),
		dropped:    droppedFn,
		fileCount:  fileCountFn,
		events:     events,
	}
}

// Snapshot returns the current counters.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.kindCounts))
	for k, v := range a.kindCounts {
		counts[k] = v
	}

	cutoff := time.Now().Add(-epsWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	return Stats{
		Uptime:        time.Since(a.startTime).Truncate(time.Second).String(),
		TotalEvents:   a.totalEvents,
		EPS:           float64(recent) / epsWindow.Seconds(),
		KindCounts:    counts,
		Encounters:    a.encounters,
		DroppedEvents: a.dropped(),
		FilesWatched:  a.fileCount(),
	}
}

// Start begins consuming events and updating counters. Blocks until the
// context is cancelled or the event channel is closed.
func (a *Aggregator) Start(ctx context.Context) {
	// Periodically prune the sliding window.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.events:
			if !ok {
				return
			}
			a.record(ev)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(ev model.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalEvents++
	a.kindCounts[string(ev.Kind)]++
	if ev.Kind == model.KindBeginCombat {
		a.encounters++
	}
	a.window = append(a.window, time.Now())
}

// prune removes arrival times older than the EPS window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-epsWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
