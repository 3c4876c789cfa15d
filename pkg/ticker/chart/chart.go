// Package chart plans the dashboard's price charts: one area chart per
// price-grid row, with the value axis starting at a rounded floor.
package chart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/scale"
)

// Options describes one chart's placement and look. Row and Column are the
// 1-based anchor cell of the chart's top-left corner; sizes and offsets are
// pixels.
type Options struct {
	Title           string
	Row             int
	Column          int
	OffsetLeft      int
	OffsetTop       int
	Width           int
	Height          int
	Colors          []string
	BackgroundColor string
	TitleColor      string
	YAxisLabelColor string
	GridLineColor   string
	AxisFloor       decimal.Decimal
	// NumberFormat is applied to the source series; empty keeps cents.
	NumberFormat string
}

// Source is the data behind a chart: dates along Domain and prices along
// Series, both single rows of the same width.
type Source struct {
	Sheet  string
	Domain grid.Range
	Series grid.Range
}

type Request struct {
	Source  Source
	Options Options
}

// Host draws charts on a sheet. Render draws every request it is given in
// one pass.
type Host interface {
	Clear(ctx context.Context, sheet string) error
	Render(ctx context.Context, sheet string, reqs []Request) error
}

// Theme is shared by every chart on the dashboard.
type Theme struct {
	Width           int
	Height          int
	OffsetTop       int
	Spacing         int // rows between charts
	BackgroundColor string
	TitleColor      string
	YAxisLabelColor string
	GridLineColor   string
}

var DefaultTheme = Theme{
	Width:           280,
	Height:          180,
	OffsetTop:       5,
	Spacing:         9,
	BackgroundColor: "#434343",
	TitleColor:      "#ffffff",
	YAxisLabelColor: "#bbbbbb",
	GridLineColor:   "#666666",
}

// Group is one vertical strip of charts under a caption.
type Group struct {
	Caption       string
	CaptionColumn string
	Column        int
	OffsetLeft    int
	Color         string
}

// Dashboard strips in the order they are drawn.
var (
	StockYear  = Group{Caption: "One Year", CaptionColumn: "C", Column: 1, OffsetLeft: 5, Color: "#0075c9"}
	StockDay   = Group{Caption: "Today", CaptionColumn: "F", Column: 5, OffsetLeft: 0, Color: "#f06eaa"}
	CryptoYear = Group{Caption: "One Year", CaptionColumn: "L", Column: 10, OffsetLeft: 5, Color: "#00a6b6"}
	CryptoDay  = Group{Caption: "Today", CaptionColumn: "O", Column: 14, OffsetLeft: 5, Color: "#9157d8"}
)

// CurrencyFormat drops cents once prices reach the thousands.
const CurrencyFormat = "$#,###"

var thousand = decimal.NewFromInt(1000)

// Plan lays out one chart per row read from a price grid, starting at
// topRow and moving down by the theme spacing.
func Plan(sheet string, headerRow int, rows []grid.Row, topRow int, g Group, th Theme) []Request {
	var out []Request
	at := topRow
	for _, r := range rows {
		if len(r.Values) == 0 {
			continue
		}
		opts := Options{
			Title:           r.Symbol.String(),
			Row:             at,
			Column:          g.Column,
			OffsetLeft:      g.OffsetLeft,
			OffsetTop:       th.OffsetTop,
			Width:           th.Width,
			Height:          th.Height,
			Colors:          []string{g.Color},
			BackgroundColor: th.BackgroundColor,
			TitleColor:      th.TitleColor,
			YAxisLabelColor: th.YAxisLabelColor,
			GridLineColor:   th.GridLineColor,
		}
		if low, ok := scale.Min(r.Values); ok {
			opts.AxisFloor = scale.Cutoff(low)
		}
		if opts.AxisFloor.GreaterThanOrEqual(thousand) {
			opts.NumberFormat = CurrencyFormat
		}
		out = append(out, Request{
			Source: Source{
				Sheet:  sheet,
				Domain: grid.Range{From: grid.At(r.FirstColumn, headerRow), To: grid.At(r.LastColumn, headerRow)},
				Series: grid.Range{From: grid.At(r.FirstColumn, r.Row), To: grid.At(r.LastColumn, r.Row)},
			},
			Options: opts,
		})
		at += th.Spacing
	}
	return out
}

// Draw renders planned charts on sheet in order.
func Draw(ctx context.Context, h Host, sheet string, reqs []Request) error {
	if len(reqs) == 0 {
		return nil
	}
	if err := h.Render(ctx, sheet, reqs); err != nil {
		return fmt.Errorf("draw %d charts on %s: %w", len(reqs), sheet, err)
	}
	return nil
}

// LogHost logs charts instead of drawing them and keeps what it was asked
// to render.
type LogHost struct {
	Rendered map[string][]Request
}

func NewLogHost() *LogHost {
	return &LogHost{Rendered: make(map[string][]Request)}
}

func (h *LogHost) Clear(ctx context.Context, sheet string) error { //nolint:revive
	delete(h.Rendered, sheet)
	return nil
}

func (h *LogHost) Render(ctx context.Context, sheet string, reqs []Request) error { //nolint:revive
	for _, r := range reqs {
		log.WithFields(log.Fields{
			"sheet":  sheet,
			"title":  r.Options.Title,
			"series": r.Source.Sheet + "!" + r.Source.Series.String(),
			"at":     fmt.Sprintf("R%dC%d", r.Options.Row, r.Options.Column),
			"floor":  r.Options.AxisFloor.String(),
		}).Debug("chart")
	}
	h.Rendered[sheet] = append(h.Rendered[sheet], reqs...)
	return nil
}
