package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/atikulmunna/esoloom/internal/aggregator"
	"github.com/atikulmunna/esoloom/internal/catalog"
	"github.com/atikulmunna/esoloom/internal/config"
	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/hub"
	"github.com/atikulmunna/esoloom/internal/metrics"
	"github.com/atikulmunna/esoloom/internal/model"
	"github.com/atikulmunna/esoloom/internal/output"
	"github.com/atikulmunna/esoloom/internal/parser"
	"github.com/atikulmunna/esoloom/internal/report"
	"github.com/atikulmunna/esoloom/internal/server"
)

// pipeline wires parser, engine, hub and renderer around one input stream.
type pipeline struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.PipelineMetrics
	hub      *hub.Hub
	renderer output.Renderer
}

func newPipeline(cfg *config.Config, input <-chan model.RawLine) (*pipeline, error) {
	cat := catalog.New()
	if cfg.Catalog != "" {
		if err := cat.Seed(cfg.Catalog); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	renderer, err := output.New(cfg.Output)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := encounter.Options{
		TrackedBuffs:        cfg.BuffIDs(),
		GroupBuffMinPlayers: cfg.GroupBuffMinPlayers,
		ZoneHistory:         cfg.ZoneHistory,
		Formatter:           report.New(),
	}
	if cfg.Verbose {
		logger := log.New(os.Stderr, "esoloom: ", log.LstdFlags)
		opts.Logger = logger
		opts.Splitter = logSplitter{logger}
	}
	eng := encounter.NewEngine(cat, opts)

	return &pipeline{
		cfg:      cfg,
		registry: reg,
		metrics:  m,
		hub:      hub.New(input, parser.New(cat), eng, hub.Config{Metrics: m, RecentReports: cfg.RecentReports}),
		renderer: renderer,
	}, nil
}

// run drives the hub until its input ends or ctx is cancelled, rendering
// every report. fileCount feeds the dashboard when it is enabled.
func (p *pipeline) run(ctx context.Context, dashboard bool, fileCount func() int) {
	var wg sync.WaitGroup

	reports := p.hub.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range reports {
			if err := p.renderer.Render(r); err != nil {
				log.Printf("render error: %v", err)
			}
		}
	}()

	if dashboard {
		agg := aggregator.New(p.hub.SubscribeEvents(), p.hub.Dropped, fileCount)
		go agg.Start(ctx)

		srv := server.New(p.hub, agg, p.registry, p.cfg.Dashboard.Port)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("dashboard stopped: %v", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "esoloom dashboard on http://localhost:%s\n", p.cfg.Dashboard.Port)
	}

	p.hub.Start(ctx)
	wg.Wait()
}

// logSplitter reports log boundaries instead of splitting raw capture files.
type logSplitter struct {
	log *log.Logger
}

func (s logSplitter) LogBegin(unixMs int64) {
	s.log.Printf("log started at %d", unixMs)
}

func (s logSplitter) ZoneChanged(zone, difficulty string) {
	s.log.Printf("entered %s (%s)", zone, difficulty)
}

func (s logSplitter) CombatBegin() {
	s.log.Printf("combat started")
}
