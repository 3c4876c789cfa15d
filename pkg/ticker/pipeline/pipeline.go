// Package pipeline runs a refresh: price series onto the grid, ledgers
// repriced from it, holdings summarised, charts planned and changes
// reported.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/enrich"
	"github.com/komsit37/ticker/pkg/ticker/filter"
	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/ledger"
	"github.com/komsit37/ticker/pkg/ticker/market"
	"github.com/komsit37/ticker/pkg/ticker/portfolio"
	"github.com/komsit37/ticker/pkg/ticker/render"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Layout names the shared tabs and the price grid geometry.
type Layout struct {
	Dashboard string
	Detail    string
	Writer    grid.Writer
	Theme     chart.Theme
}

var DefaultLayout = Layout{
	Dashboard: "Dashboard",
	Detail:    "Detail",
	Writer:    grid.DefaultWriter,
	Theme:     chart.DefaultTheme,
}

type Runner struct {
	Store  grid.Store
	Books  []Book
	Charts chart.Host
	// Quotes serves books with LiveQuotes set; nil disables live repricing.
	Quotes        enrich.QuoteService
	Renderer      render.Renderer
	Writer        io.Writer
	Layout        Layout
	RenderOptions render.Options
}

// Options narrow a run. Filter and Columns only affect what is reported;
// the grid always holds every tracked symbol.
type Options struct {
	CurrentOnly bool
	Filter      filter.Filter
	Columns     []string
}

// Report is what one run produced.
type Report struct {
	ID       uuid.UUID
	Sections []render.Section
	Details  []render.DetailSection
	Warnings []string
}

func (r *Report) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.WithField("refresh", r.ID).Warn(msg)
	r.Warnings = append(r.Warnings, msg)
}

// Refresh fetches every book's series, rewrites the price grids, reprices
// the ledgers, then rebuilds the dashboard, its charts and the detail tab.
// Transport and auth failures abort the run; unparseable provider answers
// and unknown symbols are reported as warnings.
func (r *Runner) Refresh(ctx context.Context, opts Options) (*Report, error) {
	rep := &Report{ID: uuid.New()}
	logger := log.WithField("refresh", rep.ID)

	for _, b := range r.Books {
		logger.WithFields(log.Fields{"book": b.Class, "symbols": len(b.Symbols)}).Info("refreshing")
		if err := r.writeSeries(ctx, b, b.Current, b.CurrentSheet, rep); err != nil {
			return rep, err
		}
		if !opts.CurrentOnly {
			if err := r.writeSeries(ctx, b, b.History, b.HistorySheet, rep); err != nil {
				return rep, err
			}
		}
		sec, err := r.summarize(ctx, b, opts, rep, true)
		if err != nil {
			return rep, err
		}
		rep.Sections = append(rep.Sections, sec)
	}

	last, err := r.writeDashboard(ctx, rep.Sections)
	if err != nil {
		return rep, err
	}
	if err := r.drawCharts(ctx, last); err != nil {
		return rep, err
	}
	if rep.Details, err = r.details(ctx, opts); err != nil {
		return rep, err
	}
	if err := r.writeDetail(ctx, rep.Details); err != nil {
		return rep, err
	}

	logger.WithField("warnings", len(rep.Warnings)).Info("refresh done")
	return rep, r.render(rep.Sections)
}

// Dashboard summarises the books from what is already on the grid and
// renders it, without fetching or writing anything.
func (r *Runner) Dashboard(ctx context.Context, opts Options) (*Report, error) {
	rep := &Report{ID: uuid.New()}
	for _, b := range r.Books {
		sec, err := r.summarize(ctx, b, opts, rep, false)
		if err != nil {
			return rep, err
		}
		rep.Sections = append(rep.Sections, sec)
	}
	return rep, r.render(rep.Sections)
}

// Detail computes the change report from the grid and renders it.
func (r *Runner) Detail(ctx context.Context, opts Options) (*Report, error) {
	rep := &Report{ID: uuid.New()}
	var err error
	if rep.Details, err = r.details(ctx, opts); err != nil {
		return rep, err
	}
	if r.Renderer == nil {
		return rep, nil
	}
	return rep, r.Renderer.RenderDetail(r.Writer, rep.Details, r.RenderOptions)
}

func (r *Runner) render(sections []render.Section) error {
	if r.Renderer == nil {
		return nil
	}
	return r.Renderer.Render(r.Writer, sections, r.RenderOptions)
}

// writeSeries fetches one window for the book and lays it out on sheet.
func (r *Runner) writeSeries(ctx context.Context, b Book, w market.Window, sheet string, rep *Report) error {
	series, err := b.Client.FetchSeries(ctx, b.Symbols, w)
	var failed market.SymbolErrors
	var bad *market.UnparseableResponseError
	switch {
	case errors.As(err, &failed):
		// partial batch, warned per symbol below
	case errors.As(err, &bad):
		rep.warnf("%s %s: %v", b.Class, w, bad)
		return nil
	case err != nil:
		return fmt.Errorf("fetch %s %s: %w", b.Class, w, err)
	}
	for _, sym := range b.Symbols {
		if ferr, ok := failed[sym]; ok {
			rep.warnf("%s %s: %s: %v", b.Class, w, sym, ferr)
			continue
		}
		if len(series[sym]) == 0 {
			rep.warnf("%s %s: no data for %s", b.Class, w, sym)
		}
	}

	s, err := r.Store.Load(ctx, sheet)
	if err != nil {
		return fmt.Errorf("load %s: %w", sheet, err)
	}
	placed := r.Layout.Writer.WriteBatch(s, b.Symbols, series)
	log.WithFields(log.Fields{"sheet": sheet, "rows": len(placed)}).Debug("series written")
	if err := r.Store.Save(ctx, s); err != nil {
		return fmt.Errorf("save %s: %w", sheet, err)
	}
	return nil
}

// summarize reprices the book's ledger and aggregates it. With writeBack
// the repriced lots are written to ledgers that accept them.
func (r *Runner) summarize(ctx context.Context, b Book, opts Options, rep *Report, writeBack bool) (render.Section, error) {
	prices, err := r.latestPrices(ctx, b, rep)
	if err != nil {
		return render.Section{}, err
	}

	lots, err := b.Ledger.ReadLots(ctx, b.LotsKey)
	if err != nil {
		return render.Section{}, fmt.Errorf("%s lots: %w", b.Class, err)
	}
	var dists []types.Distribution
	if b.DistributionsKey != "" {
		if dists, err = b.Ledger.ReadDistributions(ctx, b.DistributionsKey); err != nil {
			return render.Section{}, fmt.Errorf("%s distributions: %w", b.Class, err)
		}
	}

	lots = portfolio.Reprice(lots, prices)
	if pw, ok := b.Ledger.(ledger.PriceWriter); ok && writeBack {
		if err := pw.WritePrices(ctx, b.LotsKey, lots); err != nil {
			return render.Section{}, fmt.Errorf("%s prices: %w", b.Class, err)
		}
	}

	f := opts.Filter
	if f == nil {
		f = filter.Always(true)
	}
	lots = keepLots(lots, f)
	dists = keepDistributions(dists, f)

	res := portfolio.Aggregate(lots, dists)
	return render.Section{Title: b.Title, Columns: opts.Columns, Rows: res.Rows(), Totals: res.Totals}, nil
}

// latestPrices takes each symbol's newest point from the current grid,
// falling back to the history grid. Books on live quotes ask the quote
// service first.
func (r *Runner) latestPrices(ctx context.Context, b Book, rep *Report) (map[types.Symbol]decimal.Decimal, error) {
	prices := map[types.Symbol]decimal.Decimal{}
	for _, sheet := range []string{b.HistorySheet, b.CurrentSheet} {
		if sheet == "" {
			continue
		}
		rows, err := r.rows(ctx, sheet)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if n := len(row.Values); n > 0 {
				prices[row.Symbol] = row.Values[n-1]
			}
		}
	}
	if b.LiveQuotes && r.Quotes != nil {
		live, missing := enrich.Prices(ctx, r.Quotes, b.Symbols)
		for sym, p := range live {
			prices[sym] = p
		}
		for _, sym := range missing {
			rep.warnf("%s: no live quote for %s", b.Class, sym)
		}
	}
	return prices, nil
}

func (r *Runner) rows(ctx context.Context, sheet string) ([]grid.Row, error) {
	s, err := r.Store.Load(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sheet, err)
	}
	return r.Layout.Writer.ReadBatch(s), nil
}

func (r *Runner) writeDashboard(ctx context.Context, sections []render.Section) (int, error) {
	s, err := r.Store.Load(ctx, r.Layout.Dashboard)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", r.Layout.Dashboard, err)
	}
	// the grid keeps every column regardless of what the terminal shows
	full := make([]render.Section, len(sections))
	for i, sec := range sections {
		sec.Columns = nil
		full[i] = sec
	}
	last, err := render.WriteDashboard(s, full)
	if err != nil {
		return 0, err
	}
	var groups []chart.Group
	for _, b := range r.Books {
		groups = append(groups, b.YearChart, b.DayChart)
	}
	render.WriteCaptions(s, last+2, groups)
	if err := r.Store.Save(ctx, s); err != nil {
		return 0, fmt.Errorf("save %s: %w", r.Layout.Dashboard, err)
	}
	return last, nil
}

// drawCharts replaces the dashboard charts: a one year and a today strip
// per book, starting three rows under the summaries.
func (r *Runner) drawCharts(ctx context.Context, last int) error {
	if r.Charts == nil {
		return nil
	}
	dash := r.Layout.Dashboard
	if err := r.Charts.Clear(ctx, dash); err != nil {
		return fmt.Errorf("clear charts: %w", err)
	}
	top := last + 3
	var all []chart.Request
	for _, b := range r.Books {
		for _, strip := range []struct {
			sheet string
			group chart.Group
		}{{b.HistorySheet, b.YearChart}, {b.CurrentSheet, b.DayChart}} {
			rows, err := r.rows(ctx, strip.sheet)
			if err != nil {
				return err
			}
			all = append(all, chart.Plan(strip.sheet, r.Layout.Writer.HeaderRow, rows, top, strip.group, r.Layout.Theme)...)
		}
	}
	return chart.Draw(ctx, r.Charts, dash, all)
}

// details compares each symbol's newest price with the start of its
// current window and with earlier history points.
func (r *Runner) details(ctx context.Context, opts Options) ([]render.DetailSection, error) {
	f := opts.Filter
	if f == nil {
		f = filter.Always(true)
	}
	var out []render.DetailSection
	for _, b := range r.Books {
		s, err := r.Store.Load(ctx, b.CurrentSheet)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", b.CurrentSheet, err)
		}
		current := r.Layout.Writer.ReadBatch(s)
		history, err := r.rows(ctx, b.HistorySheet)
		if err != nil {
			return nil, err
		}
		cur := valuesBySymbol(current)
		hist := valuesBySymbol(history)

		sec := render.DetailSection{Title: b.Title}
		if dates := r.Layout.Writer.Dates(s); len(dates) > 0 {
			sec.Since = dates[0]
		}
		for _, sym := range filter.Apply(f, b.Symbols) {
			if d, ok := portfolio.Changes(sym, cur[sym], hist[sym], b.Lookbacks); ok {
				sec.Details = append(sec.Details, d)
			}
		}
		out = append(out, sec)
	}
	return out, nil
}

func (r *Runner) writeDetail(ctx context.Context, sections []render.DetailSection) error {
	s, err := r.Store.Load(ctx, r.Layout.Detail)
	if err != nil {
		return fmt.Errorf("load %s: %w", r.Layout.Detail, err)
	}
	render.WriteDetail(s, sections)
	if err := r.Store.Save(ctx, s); err != nil {
		return fmt.Errorf("save %s: %w", r.Layout.Detail, err)
	}
	return nil
}

func valuesBySymbol(rows []grid.Row) map[types.Symbol][]decimal.Decimal {
	out := make(map[types.Symbol][]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Symbol] = row.Values
	}
	return out
}

func keepLots(lots []types.PurchaseLot, f filter.Filter) []types.PurchaseLot {
	out := lots[:0:0]
	for _, l := range lots {
		if f.Match(l.Symbol) {
			out = append(out, l)
		}
	}
	return out
}

func keepDistributions(dists []types.Distribution, f filter.Filter) []types.Distribution {
	out := dists[:0:0]
	for _, d := range dists {
		if f.Match(d.Symbol) {
			out = append(out, d)
		}
	}
	return out
}
