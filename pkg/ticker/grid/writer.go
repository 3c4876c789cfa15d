package grid

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Writer lays out one price series per row. The anchor column holds the
// symbol and each following column one point, oldest on the left. The
// shared date header is written once per batch.
type Writer struct {
	HeaderRow    int
	StartRow     int
	AnchorColumn string
}

// DefaultWriter matches the price tabs: dates on row 2, symbols from row 3
// in column A.
var DefaultWriter = Writer{HeaderRow: 2, StartRow: 3, AnchorColumn: "A"}

// Placement records where a symbol's series landed.
type Placement struct {
	Symbol types.Symbol
	Row    int
	Points int
}

// WriteBatch clears the previous layout and writes series for symbols in
// order. Symbols with no points are skipped without consuming a row. The
// series slices are not modified.
func (w Writer) WriteBatch(s *Sheet, symbols []types.Symbol, series map[types.Symbol][]types.PricePoint) []Placement {
	w.clear(s)

	row := w.StartRow
	headerDone := false
	var out []Placement
	for _, sym := range symbols {
		points := series[sym]
		if len(points) == 0 {
			continue
		}
		headerRow := 0
		if !headerDone {
			headerRow = w.HeaderRow
		}
		w.WriteSeries(s, Coordinate{Column: w.AnchorColumn, Row: row}, sym.String(), oldestFirst(points), headerRow)
		headerDone = true
		out = append(out, Placement{Symbol: sym, Row: row, Points: len(points)})
		row++
	}
	return out
}

// WriteSeries writes label at anchor and points to its right. When
// headerRow is non-zero the point dates are written on that row too.
func (w Writer) WriteSeries(s *Sheet, anchor Coordinate, label string, points []types.PricePoint, headerRow int) {
	s.Set(anchor, label)
	c := anchor
	for _, p := range points {
		c = c.Right()
		if headerRow > 0 {
			s.Set(Coordinate{Column: c.Column, Row: headerRow}, p.At())
		}
		s.Set(c, p.Close)
	}
}

// ReadBatch reads back the rows written by WriteBatch: symbol in the
// anchor column, close prices to its right, until the first blank symbol.
func (w Writer) ReadBatch(s *Sheet) []Row {
	var out []Row
	for row := w.StartRow; ; row++ {
		sym := Text(s.Get(Coordinate{Column: w.AnchorColumn, Row: row}))
		if sym == "" {
			return out
		}
		first := nextColumn(w.AnchorColumn)
		r := Row{Symbol: types.Symbol(sym), Row: row, FirstColumn: first}
		for _, v := range RowValues(s, first, row) {
			if d, ok := Decimal(v); ok {
				r.Values = append(r.Values, d)
			}
		}
		if end, ok := RowEnd(s, first, row); ok {
			r.LastColumn = end.Column
		} else {
			r.LastColumn = first
		}
		out = append(out, r)
	}
}

// Dates reads the shared header row.
func (w Writer) Dates(s *Sheet) []time.Time {
	var out []time.Time
	for _, v := range RowValues(s, nextColumn(w.AnchorColumn), w.HeaderRow) {
		if t, ok := v.(time.Time); ok {
			out = append(out, t)
		}
	}
	return out
}

func (w Writer) clear(s *Sheet) {
	lastRow := s.MaxRow()
	lastCol := s.MaxColumn()
	if lastRow < w.StartRow || lastCol == "" {
		return
	}
	s.Clear(Range{
		From: Coordinate{Column: nextColumn(w.AnchorColumn), Row: w.HeaderRow},
		To:   Coordinate{Column: lastCol, Row: w.HeaderRow},
	})
	s.Clear(Range{
		From: Coordinate{Column: w.AnchorColumn, Row: w.StartRow},
		To:   Coordinate{Column: lastCol, Row: lastRow},
	})
}

// Row is one series read back from a price tab, oldest value first.
type Row struct {
	Symbol      types.Symbol
	Row         int
	FirstColumn string
	LastColumn  string
	Values      []decimal.Decimal
}

func oldestFirst(points []types.PricePoint) []types.PricePoint {
	out := make([]types.PricePoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
