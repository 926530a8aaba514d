package encounter

import (
	"time"

	"github.com/google/uuid"
)

// Report is a rendered, finalized encounter handed to a ReportSink.
type Report struct {
	ID         uuid.UUID `json:"id"`
	Zone       string    `json:"zone,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	// Start is a best-effort wall-clock start; zero when no BEGIN_LOG was seen.
	Start   time.Time `json:"start"`
	Lines   []string  `json:"lines"`
	Summary Summary   `json:"summary"`
}

// ReportSink receives finalized reports. A non-nil error leaves the encounter
// unreported; it is offered again before the encounter is replaced.
type ReportSink interface {
	Report(r Report) error
}

// ReportSinkFunc adapts a function to ReportSink.
type ReportSinkFunc func(r Report) error

func (f ReportSinkFunc) Report(r Report) error { return f(r) }

// Formatter renders a finalized encounter into plain-text lines.
type Formatter interface {
	Format(e *Encounter) []string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(e *Encounter) []string

func (f FormatterFunc) Format(e *Encounter) []string { return f(e) }

// Splitter is notified of log boundaries so it can manage per-encounter raw
// capture files without knowing parser internals.
type Splitter interface {
	LogBegin(unixMs int64)
	ZoneChanged(zone, difficulty string)
	CombatBegin()
}

// NopSplitter ignores all boundary notifications.
type NopSplitter struct{}

func (NopSplitter) LogBegin(int64) {}
func (NopSplitter) ZoneChanged(string, string) {}
func (NopSplitter) CombatBegin() {}
