package hub

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/metrics"
	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/parser"
)

const (
	subscriberBuffer = 1024
	defaultRecent    = 20
)

// Config tunes a Hub. The zero value is usable.
type Config struct {
	// Metrics is optional.
	Metrics *metrics.PipelineMetrics
	// RecentReports is how many finalized reports are kept for lookup.
	RecentReports int
}

// Hub is the single serialized entry point into the encounter engine. It
// reads raw lines, parses them, drives the Engine in file order, and
// broadcasts decoded events and finalized reports to subscribers.
type Hub struct {
	parser  *parser.Parser
	engine  *encounter.Engine
	input   <-chan model.RawLine
	metrics *metrics.PipelineMetrics

	// mu serializes engine mutation against live reads.
	mu sync.RWMutex

	subMu      sync.RWMutex
	reportSubs []chan encounter.Report
	eventSubs  []chan model.Event

	recentMu  sync.RWMutex
	recent    []encounter.Report
	recentCap int

	dropped atomic.Int64
	warn    rate.Sometimes
}

// New creates a Hub that reads from input and becomes the engine's report sink.
func New(input <-chan model.RawLine, p *parser.Parser, eng *encounter.Engine, cfg Config) *Hub {
	if cfg.RecentReports <= 0 {
		cfg.RecentReports = defaultRecent
	}
	h := &Hub{
		parser:    p,
		engine:    eng,
		input:     input,
		metrics:   cfg.Metrics,
		recentCap: cfg.RecentReports,
		warn:      rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	eng.SetSink(h)
	return h
}

// Subscribe returns a buffered channel that will receive finalized reports.
func (h *Hub) Subscribe() <-chan encounter.Report {
	ch := make(chan encounter.Report, subscriberBuffer)
	h.subMu.Lock()
	h.reportSubs = append(h.reportSubs, ch)
	h.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan encounter.Report) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for i, ch := range h.reportSubs {
		if ch == sub {
			h.reportSubs = append(h.reportSubs[:i], h.reportSubs[i+1:]...)
			close(ch)
			return
		}
	}
}

// SubscribeEvents returns a buffered channel that will receive every decoded event.
func (h *Hub) SubscribeEvents() <-chan model.Event {
	ch := make(chan model.Event, subscriberBuffer)
	h.subMu.Lock()
	h.eventSubs = append(h.eventSubs, ch)
	h.subMu.Unlock()
	return ch
}

// Dropped returns the total number of broadcasts dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start begins reading from the input channel, parsing, and processing.
// Blocks until the context is cancelled or the input channel is closed; a
// closed input flushes the engine first.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				h.Flush()
				return
			}
			h.Process(raw)
		}
	}
}

// Process handles one line synchronously, including any report it triggers.
func (h *Hub) Process(raw model.RawLine) {
	if strings.TrimSpace(raw.Text) == "" {
		return
	}

	ev, err := h.parser.Parse(raw.Text)
	if err != nil {
		status := metrics.StatusMalformed
		if errors.Is(err, parser.ErrUnparsable) {
			status = metrics.StatusUnparsable
		}
		h.countLine(status, "")
		return
	}
	h.countLine(metrics.StatusParsed, string(ev.Kind))

	h.mu.Lock()
	h.engine.Process(ev)
	inCombat := h.engine.State() == encounter.StateInCombat
	h.mu.Unlock()

	if h.metrics != nil {
		if inCombat {
			h.metrics.EncounterActive.Set(1)
		} else {
			h.metrics.EncounterActive.Set(0)
		}
	}
	h.broadcastEvent(ev)
}

// Flush finalizes an encounter left open at the end of input.
func (h *Hub) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.Flush()
}

// Report implements encounter.ReportSink. It is called by the engine while
// the hub holds mu, so it must not take it.
func (h *Hub) Report(r encounter.Report) error {
	if h.metrics != nil {
		h.metrics.ReportsTotal.Inc()
	}

	h.recentMu.Lock()
	h.recent = append(h.recent, r)
	if len(h.recent) > h.recentCap {
		h.recent = h.recent[len(h.recent)-h.recentCap:]
	}
	h.recentMu.Unlock()

	h.subMu.RLock()
	defer h.subMu.RUnlock()
	for _, ch := range h.reportSubs {
		select {
		case ch <- r:
		default:
			h.drop("reports")
		}
	}
	return nil
}

// Recent returns the kept reports, newest first.
func (h *Hub) Recent() []encounter.Report {
	h.recentMu.RLock()
	defer h.recentMu.RUnlock()
	out := make([]encounter.Report, 0, len(h.recent))
	for i := len(h.recent) - 1; i >= 0; i-- {
		out = append(out, h.recent[i])
	}
	return out
}

// Find returns a kept report by id.
func (h *Hub) Find(id uuid.UUID) (encounter.Report, bool) {
	h.recentMu.RLock()
	defer h.recentMu.RUnlock()
	for _, r := range h.recent {
		if r.ID == id {
			return r, true
		}
	}
	return encounter.Report{}, false
}

// Live returns a summary of the current encounter.
func (h *Hub) Live() (encounter.Summary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cur := h.engine.Current()
	if cur == nil {
		return encounter.Summary{}, false
	}
	return cur.Summary(), true
}

// Zones returns recently entered zones, newest first.
func (h *Hub) Zones() []encounter.ZoneInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine.ZoneHistory()
}

func (h *Hub) countLine(status, kind string) {
	if h.metrics == nil {
		return
	}
	h.metrics.LinesTotal.WithLabelValues(status).Inc()
	if kind != "" {
		h.metrics.EventsTotal.WithLabelValues(kind).Inc()
	}
}

// broadcastEvent sends an event to all event subscribers.
// If a subscriber's channel is full, the event is dropped for that subscriber.
func (h *Hub) broadcastEvent(ev model.Event) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	for _, ch := range h.eventSubs {
		select {
		case ch <- ev:
		default:
			h.drop("events")
		}
	}
}

func (h *Hub) drop(stream string) {
	total := h.dropped.Add(1)
	if h.metrics != nil {
		h.metrics.DroppedTotal.WithLabelValues(stream).Inc()
	}
	h.warn.Do(func() {
		log.Printf("hub: dropped %s for slow consumer (total dropped: %d)", stream, total)
	})
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.reportSubs {
		close(ch)
	}
	for _, ch := range h.eventSubs {
		close(ch)
	}
	h.reportSubs = nil
	h.eventSubs = nil
}
