// Package grid implements spreadsheet-style addressing and an in-memory
// cell grid used to lay out price series and read ledgers back.
package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColumn reports a column label that is not one or more
// uppercase letters A-Z.
var ErrInvalidColumn = errors.New("invalid column label")

// NextColumn returns the label immediately to the right of label.
//
//	NextColumn("C")  == "D"
//	NextColumn("Z")  == "AA"
//	NextColumn("AZ") == "BA"
//	NextColumn("ZZ") == "AAA"
func NextColumn(label string) (string, error) {
	if err := validColumn(label); err != nil {
		return "", err
	}
	return nextColumn(label), nil
}

func nextColumn(label string) string {
	last := label[len(label)-1]
	if last != 'Z' {
		return label[:len(label)-1] + string(last+1)
	}
	if len(label) == 1 {
		return "AA"
	}
	return nextColumn(label[:len(label)-1]) + "A"
}

// ColumnIndex converts a label to its 1-based index: A=1, Z=26, AA=27.
func ColumnIndex(label string) (int, error) {
	if err := validColumn(label); err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < len(label); i++ {
		n = n*26 + int(label[i]-'A') + 1
	}
	return n, nil
}

// ColumnLabel converts a 1-based index to its label.
func ColumnLabel(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: index %d", ErrInvalidColumn, n)
	}
	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

func validColumn(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty", ErrInvalidColumn)
	}
	for i := 0; i < len(label); i++ {
		if label[i] < 'A' || label[i] > 'Z' {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, label)
		}
	}
	return nil
}

// Coordinate addresses one cell. It has no identity beyond its fields.
type Coordinate struct {
	Column string
	Row    int
}

// At builds a coordinate, panicking on an invalid label. Intended for
// literal coordinates in layouts.
func At(column string, row int) Coordinate {
	if err := validColumn(column); err != nil || row < 1 {
		panic(fmt.Sprintf("grid: invalid coordinate %s%d", column, row))
	}
	return Coordinate{Column: column, Row: row}
}

func (c Coordinate) String() string { return c.Column + strconv.Itoa(c.Row) }

// Right returns the coordinate one column to the right.
func (c Coordinate) Right() Coordinate {
	return Coordinate{Column: nextColumn(c.Column), Row: c.Row}
}

// ParseCoordinate parses A1 notation such as "B7".
func ParseCoordinate(s string) (Coordinate, error) {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: missing column or row", s)
	}
	col := s[:i]
	if err := validColumn(col); err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: invalid row", s)
	}
	return Coordinate{Column: col, Row: row}, nil
}

// Range is a rectangular block of cells, both corners inclusive.
type Range struct {
	From Coordinate
	To   Coordinate
}

func (r Range) String() string { return r.From.String() + ":" + r.To.String() }

// Contains reports whether c lies within r.
func (r Range) Contains(c Coordinate) bool {
	ci, err := ColumnIndex(c.Column)
	if err != nil {
		return false
	}
	lo, _ := ColumnIndex(r.From.Column)
	hi, _ := ColumnIndex(r.To.Column)
	return ci >= lo && ci <= hi && c.Row >= r.From.Row && c.Row <= r.To.Row
}

// ParseRange parses A1 range notation such as "A3:CC103".
func ParseRange(s string) (Range, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, fmt.Errorf("parse range %q: missing ':'", s)
	}
	f, err := ParseCoordinate(from)
	if err != nil {
		return Range{}, err
	}
	t, err := ParseCoordinate(to)
	if err != nil {
		return Range{}, err
	}
	return Range{From: f, To: t}, nil
}
