// Package render prints the dashboard and the change report, and writes
// them onto grid tabs.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/komsit37/ticker/pkg/ticker/portfolio"
)

// Section is one summary block of the dashboard (stocks, crypto).
type Section struct {
	Title   string
	Columns []string
	Rows    []portfolio.Holding
	Totals  portfolio.Totals
}

// DetailSection is the change report for one book. Since is the first
// date of the current window, the baseline of the "today" change; it is
// zero when the window has no dates.
type DetailSection struct {
	Title   string
	Since   time.Time
	Details []portfolio.Detail
}

// SinceLayout formats DetailSection.Since.
const SinceLayout = "2006-01-02 15:04"

// Renderer renders dashboard sections and change reports to an output writer.
type Renderer interface {
	Render(w io.Writer, sections []Section, opts Options) error
	RenderDetail(w io.Writer, sections []DetailSection, opts Options) error
}

type Options struct {
	Color      bool
	PrettyJSON bool
	// Width caps table rows; zero leaves them unbounded.
	Width int
}

// New returns the renderer for an output format.
func New(format string) (Renderer, error) {
	switch format {
	case "", "table":
		return NewTableRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "syms":
		return NewSymsRenderer(), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or syms)", format)
}
