package render

import (
	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/columns"
	"github.com/komsit37/ticker/pkg/ticker/grid"
)

// NotAvailable marks an unknown number on a tab.
const NotAvailable = "n/a"

// DashboardTop is the first row the dashboard writes; row 1 is left to the
// tab's owner.
const DashboardTop = 2

// DetailHeaderRow is the label row of the detail tab; symbols follow it.
const DetailHeaderRow = 3

const clearToRow = 1000

// WriteDashboard clears the dashboard tab and writes each section as a
// title row, a header row, one row per holding and a totals row, leaving
// one blank row between sections. It returns the last row written.
func WriteDashboard(s *grid.Sheet, sections []Section) (int, error) {
	s.Clear(grid.Range{From: grid.At("A", DashboardTop), To: grid.At("Z", max(clearToRow, s.MaxRow()))})

	row := DashboardTop
	last := row
	for i, sec := range sections {
		cols, err := resolve(sec.Columns)
		if err != nil {
			return 0, err
		}
		if i > 0 {
			row = last + 2
		}
		if sec.Title != "" {
			s.Set(grid.At("A", row), sec.Title)
			row++
		}
		for j, c := range cols {
			s.Set(at(j, row), c.Header)
		}
		row++
		for _, h := range sec.Rows {
			for j, c := range cols {
				s.Set(at(j, row), cellValue(c.Value(h)))
			}
			row++
		}
		for j, c := range cols {
			s.Set(at(j, row), cellValue(c.TotalValue(sec.Totals)))
		}
		last = row
	}
	return last, nil
}

// WriteCaptions writes each chart group's caption on row.
func WriteCaptions(s *grid.Sheet, row int, groups []chart.Group) {
	for _, g := range groups {
		s.Set(grid.At(g.CaptionColumn, row), g.Caption)
	}
}

// WriteDetail clears the detail tab and writes one row per symbol: the
// percent changes from column A and the absolute changes in a second block
// to their right, separated by one blank column.
func WriteDetail(s *grid.Sheet, sections []DetailSection) {
	s.Clear(grid.Range{From: grid.At("A", DetailHeaderRow), To: grid.At("Z", max(clearToRow, s.MaxRow()))})

	width := 0
	for _, sec := range sections {
		if l := len(changeLabels(sec.Details)); l > width {
			width = l
		}
	}
	absStart := width + 2

	header := false
	row := DetailHeaderRow + 1
	for _, sec := range sections {
		labels := changeLabels(sec.Details)
		if !header && len(labels) > 0 {
			s.Set(at(0, DetailHeaderRow), "Symbol")
			s.Set(at(absStart, DetailHeaderRow), "Symbol")
			for i, l := range labels {
				s.Set(at(i+1, DetailHeaderRow), l+" %")
				s.Set(at(absStart+i+1, DetailHeaderRow), l+" $")
			}
			header = true
		}
		for _, d := range sec.Details {
			s.Set(at(0, row), d.Symbol.String())
			s.Set(at(absStart, row), d.Symbol.String())
			for i, ch := range d.Changes {
				if !ch.Defined {
					s.Set(at(i+1, row), NotAvailable)
					s.Set(at(absStart+i+1, row), NotAvailable)
					continue
				}
				s.Set(at(i+1, row), ch.Pct)
				s.Set(at(absStart+i+1, row), ch.Abs)
			}
			row++
		}
	}
}

// at addresses the zero-based column i.
func at(i, row int) grid.Coordinate {
	label, _ := grid.ColumnLabel(i + 1)
	return grid.At(label, row)
}

func cellValue(v columns.Value) any {
	switch {
	case v.Blank:
		return nil
	case !v.Valid:
		return NotAvailable
	case v.Kind == columns.Text:
		return v.Text
	}
	return v.Num
}
