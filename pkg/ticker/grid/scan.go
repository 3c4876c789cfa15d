package grid

// FirstEmptyRow returns the first row at or below startRow whose cell in
// column is blank.
func FirstEmptyRow(s *Sheet, column string, startRow int) int {
	row := startRow
	for s.Get(Coordinate{Column: column, Row: row}) != nil {
		row++
	}
	return row
}

// LastValueInRow walks right from startColumn and returns the last
// non-blank value before the first blank cell.
func LastValueInRow(s *Sheet, startColumn string, row int) (any, bool) {
	var last any
	found := false
	for c := (Coordinate{Column: startColumn, Row: row}); ; c = c.Right() {
		v := s.Get(c)
		if v == nil {
			return last, found
		}
		last, found = v, true
	}
}

// RowValues returns every value from startColumn rightwards up to the first
// blank cell.
func RowValues(s *Sheet, startColumn string, row int) []any {
	var out []any
	for c := (Coordinate{Column: startColumn, Row: row}); ; c = c.Right() {
		v := s.Get(c)
		if v == nil {
			return out
		}
		out = append(out, v)
	}
}

// RowEnd returns the coordinate of the last non-blank cell walking right
// from startColumn, and false when the first cell is already blank.
func RowEnd(s *Sheet, startColumn string, row int) (Coordinate, bool) {
	c := Coordinate{Column: startColumn, Row: row}
	if s.Get(c) == nil {
		return c, false
	}
	for s.Get(c.Right()) != nil {
		c = c.Right()
	}
	return c, true
}
