package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/report"
)

// Renderer writes finalized encounter reports to an output stream.
type Renderer interface {
	Render(r encounter.Report) error
}

// New returns the renderer for format ("text" or "json") writing to stdout.
func New(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return NewTextRenderer(os.Stdout), nil
	case "json":
		return NewJSONRenderer(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleHeader = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("24")).
			Bold(true) // white on blue
	styleSection = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // cyan
	styleDetail  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))          // gray
	styleTime    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))          // yellow
)

// TextRenderer prints report lines with headers and sections highlighted.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(rep encounter.Report) error {
	var b strings.Builder
	if !rep.Start.IsZero() {
		b.WriteString(styleTime.Render(rep.Start.Format("2006-01-02 15:04:05")))
		b.WriteByte('\n')
	}
	for _, line := range rep.Lines {
		b.WriteString(styleLine(line))
		b.WriteByte('\n')
	}
	_, err := fmt.Fprintln(r.w, b.String())
	return err
}

func styleLine(line string) string {
	switch {
	case strings.HasPrefix(line, report.HeaderPrefix):
		return styleHeader.Render(line)
	case strings.HasPrefix(line, report.SectionPrefix):
		return styleSection.Render(line)
	case strings.HasPrefix(line, "  "):
		return styleDetail.Render(line)
	default:
		return line
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each report as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(rep encounter.Report) error {
	return r.enc.Encode(rep)
}
