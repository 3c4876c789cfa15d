package grid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Sheet is a named sparse grid of cell values. Values are strings,
// decimals, times, or whatever a Store loaded (float64 from remote sheets).
// Writes are tracked so a Store can persist only what changed.
type Sheet struct {
	Name string

	cells   map[Coordinate]any
	dirty   map[Coordinate]struct{}
	cleared []Range
}

// NewSheet returns an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{
		Name:  name,
		cells: make(map[Coordinate]any),
		dirty: make(map[Coordinate]struct{}),
	}
}

// Get returns the value at c, or nil when blank.
func (s *Sheet) Get(c Coordinate) any {
	return s.cells[c]
}

// Set stores v at c. A nil value or empty string blanks the cell.
func (s *Sheet) Set(c Coordinate, v any) {
	if isBlank(v) {
		delete(s.cells, c)
	} else {
		s.cells[c] = v
	}
	s.dirty[c] = struct{}{}
}

// Load sets a value without marking it dirty. Stores use it to populate a
// freshly read sheet.
func (s *Sheet) Load(c Coordinate, v any) {
	if isBlank(v) {
		return
	}
	s.cells[c] = v
}

// Clear blanks every cell in r.
func (s *Sheet) Clear(r Range) {
	for c := range s.cells {
		if r.Contains(c) {
			delete(s.cells, c)
		}
	}
	for c := range s.dirty {
		if r.Contains(c) {
			delete(s.dirty, c)
		}
	}
	s.cleared = append(s.cleared, r)
}

// Dirty returns the coordinates written since the last MarkClean, ordered
// by row then column.
func (s *Sheet) Dirty() []Coordinate {
	out := make([]Coordinate, 0, len(s.dirty))
	for c := range s.dirty {
		out = append(out, c)
	}
	sortCoordinates(out)
	return out
}

// Cleared returns the ranges cleared since the last MarkClean.
func (s *Sheet) Cleared() []Range {
	return append([]Range(nil), s.cleared...)
}

// MarkClean forgets pending writes and clears.
func (s *Sheet) MarkClean() {
	s.dirty = make(map[Coordinate]struct{})
	s.cleared = nil
}

// MaxRow returns the highest populated row, 0 for an empty sheet.
func (s *Sheet) MaxRow() int {
	last := 0
	for c := range s.cells {
		if c.Row > last {
			last = c.Row
		}
	}
	return last
}

// MaxColumn returns the label of the rightmost populated column, "" for an
// empty sheet.
func (s *Sheet) MaxColumn() string {
	last := 0
	for c := range s.cells {
		if i, err := ColumnIndex(c.Column); err == nil && i > last {
			last = i
		}
	}
	if last == 0 {
		return ""
	}
	label, _ := ColumnLabel(last)
	return label
}

func sortCoordinates(cs []Coordinate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Row != cs[j].Row {
			return cs[i].Row < cs[j].Row
		}
		a, _ := ColumnIndex(cs[i].Column)
		b, _ := ColumnIndex(cs[j].Column)
		return a < b
	})
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Decimal converts a cell value to a decimal. Strings may carry a currency
// sign and thousands separators.
func Decimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(t)
		if clean == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(clean)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Text renders a cell value as a string; blank cells render as "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Store loads and persists sheets.
type Store interface {
	Load(ctx context.Context, name string) (*Sheet, error)
	Save(ctx context.Context, s *Sheet) error
}

// MemoryStore keeps sheets in process. Loading an unknown name yields an
// empty sheet.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string]*Sheet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]*Sheet)}
}

func (m *MemoryStore) Load(ctx context.Context, name string) (*Sheet, error) { //nolint:revive
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sheets[name]; ok {
		return s, nil
	}
	s := NewSheet(name)
	m.sheets[name] = s
	return s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Sheet) error { //nolint:revive
	m.mu.Lock()
	defer m.mu.Unlock()
	s.MarkClean()
	m.sheets[s.Name] = s
	return nil
}
