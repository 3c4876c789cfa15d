package gsheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/sheets/v4"

	"github.com/komsit37/ticker/pkg/ticker/grid"
)

const (
	dateLayout = "2006-01-02 15:04:05"
	// datePattern is the number format of written date cells. It renders
	// as dateLayout.
	datePattern = "yyyy-mm-dd hh:mm:ss"
)

// Store is a grid.Store over the tabs of one spreadsheet. Tabs that do not
// exist load empty and are created on first save.
type Store struct {
	srv *sheets.Service
	id  string

	mu   sync.Mutex
	tabs map[string]int64
}

func NewStore(srv *sheets.Service, spreadsheetID string) *Store {
	return &Store{srv: srv, id: spreadsheetID}
}

// sheetID looks name up in the spreadsheet's tab list, which is read once.
func (st *Store) sheetID(ctx context.Context, name string) (int64, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.tabs == nil {
		ss, err := st.srv.Spreadsheets.Get(st.id).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
		if err != nil {
			return 0, false, fmt.Errorf("list sheets: %w", err)
		}
		st.tabs = make(map[string]int64, len(ss.Sheets))
		for _, sh := range ss.Sheets {
			if sh.Properties != nil {
				st.tabs[sh.Properties.Title] = sh.Properties.SheetId
			}
		}
	}
	id, ok := st.tabs[name]
	return id, ok, nil
}

func (st *Store) Load(ctx context.Context, name string) (*grid.Sheet, error) {
	s := grid.NewSheet(name)
	if _, ok, err := st.sheetID(ctx, name); err != nil {
		return nil, err
	} else if !ok {
		log.WithField("sheet", name).Warn("tab not found, starting empty")
		return s, nil
	}
	resp, err := st.srv.Spreadsheets.Values.Get(st.id, quote(name)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet %s: %w", name, err)
	}
	origin := grid.At("A", 1)
	if _, r, ok := strings.Cut(resp.Range, "!"); ok {
		if parsed, err := grid.ParseRange(r); err == nil {
			origin = parsed.From
		} else if c, err := grid.ParseCoordinate(r); err == nil {
			origin = c
		}
	}
	if err := loadValues(s, origin, resp.Values); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", name, err)
	}
	return s, nil
}

func (st *Store) Save(ctx context.Context, s *grid.Sheet) error {
	id, ok, err := st.sheetID(ctx, s.Name)
	if err != nil {
		return err
	}
	if !ok {
		if id, err = st.addSheet(ctx, s.Name); err != nil {
			return err
		}
	}

	if cleared := s.Cleared(); len(cleared) > 0 {
		ranges := make([]string, 0, len(cleared))
		for _, r := range cleared {
			ranges = append(ranges, a1(s.Name, r.String()))
		}
		_, err := st.srv.Spreadsheets.Values.BatchClear(st.id, &sheets.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear %s: %w", s.Name, err)
		}
	}

	if data := updates(s); len(data) > 0 {
		req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
		if _, err := st.srv.Spreadsheets.Values.BatchUpdate(st.id, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("update %s: %w", s.Name, err)
		}
		log.WithFields(log.Fields{"sheet": s.Name, "ranges": len(data)}).Debug("saved")
	}

	if formats := dateFormats(s, id); len(formats) > 0 {
		req := &sheets.BatchUpdateSpreadsheetRequest{Requests: formats}
		if _, err := st.srv.Spreadsheets.BatchUpdate(st.id, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("format dates on %s: %w", s.Name, err)
		}
	}
	s.MarkClean()
	return nil
}

func (st *Store) addSheet(ctx context.Context, name string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
	}}}
	resp, err := st.srv.Spreadsheets.BatchUpdate(st.id, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", name, err)
	}
	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	st.mu.Lock()
	st.tabs[name] = id
	st.mu.Unlock()
	log.WithFields(log.Fields{"sheet": name, "id": id}).Info("tab created")
	return id, nil
}

func loadValues(s *grid.Sheet, origin grid.Coordinate, values [][]any) error {
	first, err := grid.ColumnIndex(origin.Column)
	if err != nil {
		return err
	}
	for i, row := range values {
		for j, v := range row {
			col, err := grid.ColumnLabel(first + j)
			if err != nil {
				return err
			}
			s.Load(grid.At(col, origin.Row+i), fromCell(v))
		}
	}
	return nil
}

// fromCell turns formatted date strings back into times.
func fromCell(v any) any {
	if str, ok := v.(string); ok {
		for _, layout := range []string{dateLayout, "2006-01-02"} {
			if t, err := time.Parse(layout, str); err == nil {
				return t
			}
		}
	}
	return v
}

// dateFormats pins the number format of pending date cells, one request per
// run of adjacent dates on a row.
func dateFormats(s *grid.Sheet, sheetID int64) []*sheets.Request {
	var out []*sheets.Request
	var from, prev grid.Coordinate
	prevIdx, n := 0, 0
	flush := func() {
		if n == 0 {
			return
		}
		r, err := gridRange(sheetID, grid.Range{From: from, To: prev})
		n = 0
		if err != nil {
			return
		}
		out = append(out, &sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: r,
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				NumberFormat: &sheets.NumberFormat{Type: "DATE_TIME", Pattern: datePattern},
			}},
			Fields: "userEnteredFormat.numberFormat",
		}})
	}
	for _, c := range s.Dirty() {
		if _, ok := s.Get(c).(time.Time); !ok {
			flush()
			continue
		}
		idx, err := grid.ColumnIndex(c.Column)
		if err != nil {
			continue
		}
		if n == 0 || c.Row != prev.Row || idx != prevIdx+1 {
			flush()
			from = c
		}
		n++
		prev, prevIdx = c, idx
	}
	flush()
	return out
}

func toCell(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(dateLayout)
	}
	return v
}

// updates groups pending writes into one value range per run of adjacent
// cells on a row.
func updates(s *grid.Sheet) []*sheets.ValueRange {
	var out []*sheets.ValueRange
	var run []any
	var start, prev grid.Coordinate
	prevIdx := 0
	flush := func() {
		if len(run) == 0 {
			return
		}
		r := grid.Range{From: start, To: prev}
		out = append(out, &sheets.ValueRange{Range: a1(s.Name, r.String()), Values: [][]any{run}})
		run = nil
	}
	for _, c := range s.Dirty() {
		idx, err := grid.ColumnIndex(c.Column)
		if err != nil {
			continue
		}
		if len(run) == 0 || c.Row != prev.Row || idx != prevIdx+1 {
			flush()
			start = c
		}
		run = append(run, toCell(s.Get(c)))
		prev, prevIdx = c, idx
	}
	flush()
	return out
}
