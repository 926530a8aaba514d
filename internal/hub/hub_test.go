package hub

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/metrics"
	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/parser"
)

var fight = []string{
	`0,ZONE_CHANGED,1000,"Arena",VETERAN`,
	`0,UNIT_ADDED,1,PLAYER,T,1,0,F,117,3,"Bob","@bob",0,50,1800,0,PLAYER_ALLY,T`,
	`0,UNIT_ADDED,50,MONSTER,F,0,9001,F,0,0,"Ogre","",0,50,0,0,HOSTILE,F`,
	`1000,BEGIN_COMBAT`,
	`1500,COMBAT_EVENT,DAMAGE,PHYSICAL,STAMINA,1000,0,1,38901,1,1/1,0/0,0/0,0/0,0/0,0,0,0,0,50,9000/10000,0/0,0/0,0/0,0/0,0,0,0,0`,
	`2000,END_COMBAT`,
}

func newHub(input chan model.RawLine, m *metrics.PipelineMetrics) *Hub {
	cat := catalog.New()
	eng := encounter.NewEngine(cat, encounter.Options{})
	return New(input, parser.New(cat), eng, Config{Metrics: m, RecentReports: 2})
}

func TestHubBroadcastsReports(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := newHub(input, nil)

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	for _, line := range fight {
		input <- model.RawLine{Text: line, Source: "Encounter.log"}
	}

	// Both subscribers should receive the report.
	for i, sub := range []<-chan encounter.Report{sub1, sub2} {
		select {
		case r := <-sub:
			if r.Zone != "Arena" {
				t.Errorf("sub%d: expected zone Arena, got %s", i+1, r.Zone)
			}
			if r.Summary.TotalDamage != 1000 {
				t.Errorf("sub%d: expected 1000 damage, got %d", i+1, r.Summary.TotalDamage)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}

	cancel()
}

func TestHubBroadcastsEvents(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := newHub(input, nil)
	events := h.SubscribeEvents()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- model.RawLine{Text: ""}
	input <- model.RawLine{Text: "not a record"}
	input <- model.RawLine{Text: fight[0]}

	select {
	case ev := <-events:
		if ev.Kind != model.KindZoneChanged {
			t.Errorf("expected ZONE_CHANGED, got %s", ev.Kind)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out")
	}
}

func TestHubFlushesOnClosedInput(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := newHub(input, nil)
	sub := h.Subscribe()

	// Everything but END_COMBAT: the fight is still open when input ends.
	for _, line := range fight[:len(fight)-1] {
		input <- model.RawLine{Text: line}
	}
	close(input)

	h.Start(context.Background())

	r, ok := <-sub
	if !ok {
		t.Fatal("expected a flushed report before close")
	}
	if r.Summary.DurationSeconds != 0.5 {
		t.Errorf("expected 0.5s duration, got %f", r.Summary.DurationSeconds)
	}
	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed")
	}
}

func TestHubRecentAndFind(t *testing.T) {
	h := newHub(nil, nil)
	for i := 0; i < 3; i++ {
		for _, line := range fight {
			h.Process(model.RawLine{Text: line})
		}
	}

	recent := h.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent reports, got %d", len(recent))
	}
	got, ok := h.Find(recent[0].ID)
	if !ok || got.ID != recent[0].ID {
		t.Errorf("expected to find report %s", recent[0].ID)
	}
	if recent[0].ID == recent[1].ID {
		t.Error("expected distinct report ids")
	}
}

func TestHubLive(t *testing.T) {
	h := newHub(nil, nil)
	if _, ok := h.Live(); ok {
		t.Error("expected no live encounter before any input")
	}

	for _, line := range fight[:5] {
		h.Process(model.RawLine{Text: line})
	}
	live, ok := h.Live()
	if !ok {
		t.Fatal("expected a live encounter")
	}
	if live.State != "in_combat" {
		t.Errorf("expected in_combat, got %s", live.State)
	}
	if zones := h.Zones(); len(zones) != 1 || zones[0].Name != "Arena" {
		t.Errorf("expected zone history [Arena], got %v", zones)
	}
}

func TestHubMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := newHub(nil, m)

	h.Process(model.RawLine{Text: "garbage"})
	h.Process(model.RawLine{Text: `0,ZONE_CHANGED,x,"Arena",NONE`})
	for _, line := range fight {
		h.Process(model.RawLine{Text: line})
	}

	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(metrics.StatusUnparsable)); got != 1 {
		t.Errorf("expected 1 unparsable line, got %v", got)
	}
	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(metrics.StatusMalformed)); got != 1 {
		t.Errorf("expected 1 malformed line, got %v", got)
	}
	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(metrics.StatusParsed)); got != float64(len(fight)) {
		t.Errorf("expected %d parsed lines, got %v", len(fight), got)
	}
	if got := testutil.ToFloat64(m.ReportsTotal); got != 1 {
		t.Errorf("expected 1 report, got %v", got)
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.RawLine, 10)
	h := newHub(input, nil)

	// Subscribe but never read, simulating a slow consumer.
	_ = h.SubscribeEvents()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	// Fill beyond the subscriber buffer (1024).
	for i := 0; i < subscriberBuffer+100; i++ {
		input <- model.RawLine{Text: "100,END_COMBAT", Source: "Encounter.log"}
	}

	// Give hub time to process.
	time.Sleep(500 * time.Millisecond)

	if h.Dropped() == 0 {
		t.Error("expected dropped events for slow consumer, got 0")
	}

	cancel()
}

func TestHubUnsubscribe(t *testing.T) {
	h := newHub(nil, nil)
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Error("expected unsubscribed channel to be closed")
	}
	h.Unsubscribe(sub)
	h.closeAll()
}
