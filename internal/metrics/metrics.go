package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Line status label values.
const (
	StatusParsed     = "parsed"
	StatusUnparsable = "unparsable"
	StatusMalformed  = "malformed"
)

// PipelineMetrics holds the Prometheus metrics for the log pipeline.
type PipelineMetrics struct {
	LinesTotal      *prometheus.CounterVec
	EventsTotal     *prometheus.CounterVec
	ReportsTotal    prometheus.Counter
	DroppedTotal    *prometheus.CounterVec
	EncounterActive prometheus.Gauge
	FilesWatched    prometheus.Gauge
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) *PipelineMetrics {
	f := promauto.With(reg)
	return &PipelineMetrics{
		LinesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esoloom",
			Subsystem: "parser",
			Name:      "lines_total",
			Help:      "Total number of log lines read by parse status.",
		}, []string{"status"}), // status: parsed, unparsable, malformed
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esoloom",
			Subsystem: "parser",
			Name:      "events_total",
			Help:      "Total number of decoded events by kind.",
		}, []string{"kind"}),
		ReportsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "esoloom",
			Subsystem: "encounter",
			Name:      "reports_total",
			Help:      "Total number of finalized encounter reports emitted.",
		}),
		DroppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esoloom",
			Subsystem: "hub",
			Name:      "dropped_total",
			Help:      "Total number of broadcasts dropped for slow subscribers.",
		}, []string{"stream"}), // stream: reports, events
		EncounterActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "esoloom",
			Subsystem: "encounter",
			Name:      "in_combat",
			Help:      "1 while the current encounter is in combat, 0 otherwise.",
		}),
		FilesWatched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "esoloom",
			Subsystem: "watcher",
			Name:      "files",
			Help:      "Number of log files currently tailed.",
		}),
	}
}
