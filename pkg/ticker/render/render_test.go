package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/portfolio"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stocks() Section {
	res := portfolio.Aggregate(
		[]types.PurchaseLot{
			{Symbol: "AAPL", Shares: d("10"), CostBasis: d("1500"), Price: decimal.NewNullDecimal(d("160")), CurrentValue: d("1600")},
			{Symbol: "XYZ", Shares: d("5"), CostBasis: d("100")},
		},
		[]types.Distribution{{Date: "2024-01-01", Symbol: "AAPL", Amount: d("50")}},
	)
	return Section{Title: "Stock Summary", Rows: res.Rows(), Totals: res.Totals}
}

func details() DetailSection {
	return DetailSection{Title: "Stocks", Details: []portfolio.Detail{{
		Symbol: "AAPL",
		Latest: d("110"),
		Changes: []portfolio.Change{
			{Label: "today", Abs: d("10"), Pct: d("0.1"), Defined: true},
			{Label: "week"},
		},
	}}}
}

func TestNew(t *testing.T) {
	for _, f := range []string{"", "table", "json", "syms"} {
		_, err := New(f)
		assert.NoError(t, err, f)
	}
	_, err := New("xml")
	assert.Error(t, err)
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, []Section{stocks()}, Options{}))
	out := buf.String()
	assert.Contains(t, out, "STOCK SUMMARY")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "$1,600.00")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "$50.00")
}

func TestTableRenderUnknownColumn(t *testing.T) {
	sec := stocks()
	sec.Columns = []string{"sym", "bogus"}
	err := NewTableRenderer().Render(&bytes.Buffer{}, []Section{sec}, Options{})
	assert.ErrorContains(t, err, "unknown column: bogus")
}

func TestTableRenderDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().RenderDetail(&buf, []DetailSection{details()}, Options{}))
	out := buf.String()
	assert.Contains(t, out, "+10.00% (+$10.00)")
	assert.Contains(t, out, "n/a")
	assert.NotContains(t, out, "since")
}

func TestDetailSince(t *testing.T) {
	sec := details()
	sec.Since = time.Date(2024, 6, 3, 13, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().RenderDetail(&buf, []DetailSection{sec}, Options{}))
	assert.Contains(t, buf.String(), "STOCKS since 2024-06-03 13:30")

	buf.Reset()
	require.NoError(t, NewJSONRenderer().RenderDetail(&buf, []DetailSection{sec}, Options{}))
	assert.Contains(t, buf.String(), `"since":"2024-06-03 13:30"`)

	buf.Reset()
	require.NoError(t, NewJSONRenderer().RenderDetail(&buf, []DetailSection{details()}, Options{}))
	assert.NotContains(t, buf.String(), "since")
}

func TestJSONRender(t *testing.T) {
	var buf bytes.Buffer
	sec := stocks()
	sec.Columns = []string{"sym", "price", "net"}
	require.NoError(t, NewJSONRenderer().Render(&buf, []Section{sec}, Options{}))

	var got []struct {
		Title   string           `json:"title"`
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Totals  map[string]any   `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"sym", "price", "net"}, got[0].Columns)
	require.Len(t, got[0].Rows, 2)
	assert.Equal(t, "AAPL", got[0].Rows[0]["sym"])
	assert.Equal(t, float64(160), got[0].Rows[0]["price"])
	assert.Nil(t, got[0].Rows[1]["price"])
	assert.Equal(t, float64(50), got[0].Totals["net"])
	assert.NotContains(t, got[0].Totals, "sym")
}

func TestJSONRenderDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().RenderDetail(&buf, []DetailSection{details()}, Options{PrettyJSON: true}))
	assert.Contains(t, buf.String(), "\n  ")

	var got []struct {
		Details []struct {
			Symbol  string `json:"symbol"`
			Changes []struct {
				Label string   `json:"label"`
				Pct   *float64 `json:"pct"`
			} `json:"changes"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	ch := got[0].Details[0].Changes
	require.Len(t, ch, 2)
	require.NotNil(t, ch[0].Pct)
	assert.InDelta(t, 0.1, *ch[0].Pct, 1e-9)
	assert.Nil(t, ch[1].Pct)
}

func TestSymsRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSymsRenderer().Render(&buf, []Section{stocks()}, Options{}))
	assert.Equal(t, "AAPL,XYZ\n", buf.String())

	buf.Reset()
	require.NoError(t, NewSymsRenderer().RenderDetail(&buf, []DetailSection{details()}, Options{}))
	assert.Equal(t, "AAPL\n", buf.String())
}

func TestWriteDashboard(t *testing.T) {
	s := grid.NewSheet("Dashboard")
	s.Set(grid.At("A", 40), "stale")

	crypto := Section{Title: "Crypto Summary"}
	last, err := WriteDashboard(s, []Section{stocks(), crypto})
	require.NoError(t, err)

	assert.Nil(t, s.Get(grid.At("A", 40)))
	assert.Equal(t, "Stock Summary", s.Get(grid.At("A", 2)))
	assert.Equal(t, "Symbol", s.Get(grid.At("A", 3)))
	assert.Equal(t, "% Net", s.Get(grid.At("H", 3)))
	assert.Equal(t, "AAPL", s.Get(grid.At("A", 4)))
	assert.True(t, d("1600").Equal(s.Get(grid.At("E", 4)).(decimal.Decimal)))
	assert.Equal(t, NotAvailable, s.Get(grid.At("C", 5)))

	// totals on row 6, columns D through H
	assert.Nil(t, s.Get(grid.At("C", 6)))
	assert.True(t, d("1600").Equal(s.Get(grid.At("D", 6)).(decimal.Decimal)))
	assert.True(t, d("50").Equal(s.Get(grid.At("G", 6)).(decimal.Decimal)))

	assert.Nil(t, s.Get(grid.At("A", 7)))
	assert.Equal(t, "Crypto Summary", s.Get(grid.At("A", 8)))
	assert.Equal(t, "Symbol", s.Get(grid.At("A", 9)))
	assert.Equal(t, 10, last)

	WriteCaptions(s, last+2, []chart.Group{chart.StockYear, chart.StockDay})
	assert.Equal(t, "One Year", s.Get(grid.At("C", 12)))
	assert.Equal(t, "Today", s.Get(grid.At("F", 12)))
}

func TestWriteDetail(t *testing.T) {
	s := grid.NewSheet("Detail")
	WriteDetail(s, []DetailSection{details()})

	assert.Equal(t, "Symbol", s.Get(grid.At("A", 3)))
	assert.Equal(t, "today %", s.Get(grid.At("B", 3)))
	assert.Nil(t, s.Get(grid.At("D", 3)))
	assert.Equal(t, "Symbol", s.Get(grid.At("E", 3)))
	assert.Equal(t, "AAPL", s.Get(grid.At("A", 4)))
	assert.True(t, d("0.1").Equal(s.Get(grid.At("B", 4)).(decimal.Decimal)))
	assert.Equal(t, NotAvailable, s.Get(grid.At("C", 4)))
	assert.Equal(t, "AAPL", s.Get(grid.At("E", 4)))
	assert.True(t, d("10").Equal(s.Get(grid.At("F", 4)).(decimal.Decimal)))
	assert.Equal(t, NotAvailable, s.Get(grid.At("G", 4)))
	assert.True(t, strings.HasSuffix(s.Get(grid.At("F", 3)).(string), "$"))
}
