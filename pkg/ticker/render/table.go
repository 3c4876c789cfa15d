package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/ticker/pkg/ticker/columns"
	"github.com/komsit37/ticker/pkg/ticker/portfolio"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func newTable(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if !opts.Color {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateRows = false
		tw.Style().Options.SeparateColumns = false
	}
	if opts.Width > 0 {
		tw.SetAllowedRowLength(opts.Width)
	}
	return tw
}

func (r *TableRenderer) Render(w io.Writer, sections []Section, opts Options) error {
	for si, sec := range sections {
		cols, err := resolve(sec.Columns)
		if err != nil {
			return err
		}
		if strings.TrimSpace(sec.Title) != "" {
			fmt.Fprintln(w, text.Bold.Sprint(strings.ToUpper(sec.Title)))
		}

		tw := newTable(w, opts)
		hdr := make(table.Row, len(cols))
		cfgs := make([]table.ColumnConfig, 0, len(cols))
		for i, c := range cols {
			hdr[i] = c.Header
			if c.Key != "sym" {
				cfgs = append(cfgs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignRight, AlignFooter: text.AlignRight})
			}
		}
		tw.AppendHeader(hdr)
		tw.SetColumnConfigs(cfgs)

		for _, h := range sec.Rows {
			row := make(table.Row, len(cols))
			for i, c := range cols {
				row[i] = cell(c, c.Value(h), opts.Color)
			}
			tw.AppendRow(row)
		}

		footer := make(table.Row, len(cols))
		for i, c := range cols {
			footer[i] = cell(c, c.TotalValue(sec.Totals), opts.Color)
		}
		if len(cols) > 0 && cols[0].Total == nil {
			footer[0] = "Total"
		}
		tw.AppendFooter(footer)

		tw.Render()
		if si < len(sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func (r *TableRenderer) RenderDetail(w io.Writer, sections []DetailSection, opts Options) error {
	for si, sec := range sections {
		if len(sec.Details) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Title); title != "" {
			title = strings.ToUpper(title)
			if !sec.Since.IsZero() {
				title += " since " + sec.Since.Format(SinceLayout)
			}
			fmt.Fprintln(w, text.Bold.Sprint(title))
		}
		tw := newTable(w, opts)
		labels := changeLabels(sec.Details)
		hdr := table.Row{"Symbol", "Latest"}
		cfgs := []table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight}}
		for i, l := range labels {
			hdr = append(hdr, l)
			cfgs = append(cfgs, table.ColumnConfig{Number: i + 3, Align: text.AlignRight, AlignHeader: text.AlignRight})
		}
		tw.AppendHeader(hdr)
		tw.SetColumnConfigs(cfgs)

		for _, d := range sec.Details {
			row := table.Row{d.Symbol.String(), columns.Format(columns.Value{Kind: columns.Money, Num: d.Latest, Valid: true})}
			for _, ch := range d.Changes {
				row = append(row, changeCell(ch, opts.Color))
			}
			tw.AppendRow(row)
		}
		tw.Render()
		if si < len(sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func resolve(keys []string) ([]columns.Column, error) {
	if len(keys) == 0 {
		keys = columns.Default
	}
	out := make([]columns.Column, 0, len(keys))
	for _, k := range keys {
		c, ok := columns.Get(k)
		if !ok {
			return nil, &columns.UnknownColumnError{Name: k, Available: columns.Default}
		}
		out = append(out, c)
	}
	return out, nil
}

func cell(c columns.Column, v columns.Value, color bool) string {
	s := columns.Format(v)
	if !color || !c.Signed || !v.Valid || v.Blank {
		return s
	}
	return colorize(s, v.Num.Sign())
}

func colorize(s string, sign int) string {
	switch {
	case sign > 0:
		return text.Colors{text.FgGreen}.Sprint(s)
	case sign < 0:
		return text.Colors{text.FgRed}.Sprint(s)
	}
	return s
}

func changeCell(ch portfolio.Change, color bool) string {
	if !ch.Defined {
		return "n/a"
	}
	pct := columns.Format(columns.Value{Kind: columns.Percent, Num: ch.Pct, Valid: true})
	abs := columns.Format(columns.Value{Kind: columns.Money, Num: ch.Abs, Valid: true})
	if ch.Abs.IsPositive() {
		pct, abs = "+"+pct, "+"+abs
	}
	s := fmt.Sprintf("%s (%s)", pct, abs)
	if color {
		return colorize(s, ch.Abs.Sign())
	}
	return s
}

func changeLabels(details []portfolio.Detail) []string {
	var longest []portfolio.Change
	for _, d := range details {
		if len(d.Changes) > len(longest) {
			longest = d.Changes
		}
	}
	out := make([]string, len(longest))
	for i, c := range longest {
		out[i] = c.Label
	}
	return out
}
