package gsheets

import (
	"context"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/sheets/v4"

	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/grid"
)

// ChartHost draws area charts on the tabs of one spreadsheet. The tab list
// read by Clear is reused by the Render that follows it.
type ChartHost struct {
	srv *sheets.Service
	id  string

	listed map[string]tab
}

func NewChartHost(srv *sheets.Service, spreadsheetID string) *ChartHost {
	return &ChartHost{srv: srv, id: spreadsheetID}
}

type tab struct {
	id     int64
	charts []int64
}

func (h *ChartHost) tabs(ctx context.Context) (map[string]tab, error) {
	ss, err := h.srv.Spreadsheets.Get(h.id).Fields("sheets(properties(sheetId,title),charts(chartId))").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	out := make(map[string]tab, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		t := tab{id: sh.Properties.SheetId}
		for _, c := range sh.Charts {
			t.charts = append(t.charts, c.ChartId)
		}
		out[sh.Properties.Title] = t
	}
	return out, nil
}

// Clear removes every chart on sheet.
func (h *ChartHost) Clear(ctx context.Context, sheet string) error {
	tabs, err := h.tabs(ctx)
	if err != nil {
		return err
	}
	h.listed = tabs
	t, ok := tabs[sheet]
	if !ok || len(t.charts) == 0 {
		return nil
	}
	reqs := make([]*sheets.Request, 0, len(t.charts))
	for _, id := range t.charts {
		reqs = append(reqs, &sheets.Request{DeleteEmbeddedObject: &sheets.DeleteEmbeddedObjectRequest{ObjectId: id}})
	}
	if _, err := h.srv.Spreadsheets.BatchUpdate(h.id, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("remove charts from %s: %w", sheet, err)
	}
	log.WithFields(log.Fields{"sheet": sheet, "charts": len(reqs)}).Debug("charts removed")
	return nil
}

// Render adds every chart in reqs with a single batch update.
func (h *ChartHost) Render(ctx context.Context, sheet string, reqs []chart.Request) error {
	tabs := h.listed
	h.listed = nil
	if tabs == nil {
		var err error
		if tabs, err = h.tabs(ctx); err != nil {
			return err
		}
	}
	dst, ok := tabs[sheet]
	if !ok {
		return fmt.Errorf("no sheet %q", sheet)
	}
	var batch []*sheets.Request
	for _, r := range reqs {
		from, ok := tabs[r.Source.Sheet]
		if !ok {
			return fmt.Errorf("no sheet %q", r.Source.Sheet)
		}
		more, err := chartRequests(dst.id, from.id, r.Source, r.Options)
		if err != nil {
			return fmt.Errorf("chart %s: %w", r.Options.Title, err)
		}
		batch = append(batch, more...)
	}
	if len(batch) == 0 {
		return nil
	}
	if _, err := h.srv.Spreadsheets.BatchUpdate(h.id, &sheets.BatchUpdateSpreadsheetRequest{Requests: batch}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add charts to %s: %w", sheet, err)
	}
	log.WithFields(log.Fields{"sheet": sheet, "charts": len(reqs)}).Debug("charts added")
	return nil
}

// chartRequests builds the optional number format change on the source
// series followed by the chart itself.
func chartRequests(dstID, srcID int64, src chart.Source, opts chart.Options) ([]*sheets.Request, error) {
	domain, err := gridRange(srcID, src.Domain)
	if err != nil {
		return nil, err
	}
	series, err := gridRange(srcID, src.Series)
	if err != nil {
		return nil, err
	}

	var reqs []*sheets.Request
	if opts.NumberFormat != "" {
		reqs = append(reqs, &sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: series,
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: opts.NumberFormat},
			}},
			Fields: "userEnteredFormat.numberFormat",
		}})
	}

	var seriesColor *sheets.Color
	if len(opts.Colors) > 0 {
		seriesColor = color(opts.Colors[0])
	}
	floor := opts.AxisFloor.InexactFloat64()
	spec := &sheets.ChartSpec{
		Title:           opts.Title,
		TitleTextFormat: &sheets.TextFormat{Bold: true, FontSize: 11, ForegroundColor: color(opts.TitleColor)},
		BackgroundColor: color(opts.BackgroundColor),
		BasicChart: &sheets.BasicChartSpec{
			ChartType:      "AREA",
			LegendPosition: "NO_LEGEND",
			Axis: []*sheets.BasicChartAxis{
				{
					Position: "LEFT_AXIS",
					Format:   &sheets.TextFormat{ForegroundColor: color(opts.YAxisLabelColor)},
					ViewWindowOptions: &sheets.ChartAxisViewWindowOptions{
						ViewWindowMode:  "EXPLICIT",
						ViewWindowMin:   floor,
						ForceSendFields: []string{"ViewWindowMin"},
					},
				},
				{Position: "BOTTOM_AXIS", Format: &sheets.TextFormat{ForegroundColor: color(opts.YAxisLabelColor)}},
			},
			Domains: []*sheets.BasicChartDomain{{
				Domain: &sheets.ChartData{SourceRange: &sheets.ChartSourceRange{Sources: []*sheets.GridRange{domain}}},
			}},
			Series: []*sheets.BasicChartSeries{{
				Series:     &sheets.ChartData{SourceRange: &sheets.ChartSourceRange{Sources: []*sheets.GridRange{series}}},
				TargetAxis: "LEFT_AXIS",
				Color:      seriesColor,
			}},
		},
	}
	reqs = append(reqs, &sheets.Request{AddChart: &sheets.AddChartRequest{Chart: &sheets.EmbeddedChart{
		Spec: spec,
		Position: &sheets.EmbeddedObjectPosition{OverlayPosition: &sheets.OverlayPosition{
			AnchorCell:    &sheets.GridCoordinate{SheetId: dstID, RowIndex: int64(opts.Row - 1), ColumnIndex: int64(opts.Column - 1)},
			OffsetXPixels: int64(opts.OffsetLeft),
			OffsetYPixels: int64(opts.OffsetTop),
			WidthPixels:   int64(opts.Width),
			HeightPixels:  int64(opts.Height),
		}},
	}}})
	return reqs, nil
}

// gridRange converts an A1 range to the API's zero-based, end-exclusive
// form.
func gridRange(sheetID int64, r grid.Range) (*sheets.GridRange, error) {
	c0, err := grid.ColumnIndex(r.From.Column)
	if err != nil {
		return nil, err
	}
	c1, err := grid.ColumnIndex(r.To.Column)
	if err != nil {
		return nil, err
	}
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(r.From.Row - 1),
		EndRowIndex:      int64(r.To.Row),
		StartColumnIndex: int64(c0 - 1),
		EndColumnIndex:   int64(c1),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}, nil
}

// color parses a hex color; empty or invalid input leaves the API default.
func color(hex string) *sheets.Color {
	if hex == "" {
		return nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		log.WithField("color", hex).Warn("invalid chart color")
		return nil
	}
	return &sheets.Color{Red: c.R, Green: c.G, Blue: c.B, Alpha: 1}
}
