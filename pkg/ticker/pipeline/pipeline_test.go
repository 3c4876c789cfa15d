package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/filter"
	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/ledger"
	"github.com/komsit37/ticker/pkg/ticker/market"
	"github.com/komsit37/ticker/pkg/ticker/render"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newest first, one day apart
func series(closes ...string) []types.PricePoint {
	out := make([]types.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = types.PricePoint{Time: int64(1_700_000_000 - i*86400), Close: d(c)}
	}
	return out
}

type fakeClient struct {
	byInterval map[market.Interval]map[types.Symbol][]types.PricePoint
	err        error
	calls      []market.Window
}

func (f *fakeClient) FetchSeries(ctx context.Context, symbols []types.Symbol, w market.Window) (map[types.Symbol][]types.PricePoint, error) { //nolint:revive
	f.calls = append(f.calls, w)
	var failed market.SymbolErrors
	switch {
	case errors.As(f.err, &failed):
		return f.byInterval[w.Interval], f.err
	case f.err != nil:
		return nil, f.err
	}
	return f.byInterval[w.Interval], nil
}

type fixture struct {
	store  *grid.MemoryStore
	charts *chart.LogHost
	stocks *fakeClient
	crypto *fakeClient
	out    *bytes.Buffer
	runner *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := grid.NewMemoryStore()

	s, _ := store.Load(ctx, "Stocks")
	s.Set(grid.At("A", 3), "AAPL")
	s.Set(grid.At("B", 3), 10.0)
	s.Set(grid.At("D", 3), 1500.0)
	s.Set(grid.At("A", 4), "MSFT")
	s.Set(grid.At("B", 4), 2.0)
	s.Set(grid.At("D", 4), 500.0)
	s.Set(grid.At("F", 4), 600.0)
	require.NoError(t, store.Save(ctx, s))

	div, _ := store.Load(ctx, "Dividends")
	div.Set(grid.At("A", 3), "2024-01-01")
	div.Set(grid.At("B", 3), "AAPL")
	div.Set(grid.At("C", 3), 50.0)
	require.NoError(t, store.Save(ctx, div))

	path := filepath.Join(t.TempDir(), "crypto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lots:
  - {symbol: BTC, shares: 0.5, cost: 10000}
distributions: []
`), 0o600))

	stocks := &fakeClient{byInterval: map[market.Interval]map[types.Symbol][]types.PricePoint{
		market.FiveMinutes: {"AAPL": series("165", "158")},
		market.Day:         {"AAPL": series("160", "150", "140", "130", "120", "100")},
	}}
	crypto := &fakeClient{byInterval: map[market.Interval]map[types.Symbol][]types.PricePoint{
		market.Minute: {"BTC": series("30000", "29000")},
		market.Day:    {"BTC": series("30000", "28000", "20000")},
	}}

	stockBook := StockBook([]types.Symbol{"AAPL", "MSFT"}, stocks, ledger.NewGridSource(store))
	cryptoBook := CryptoBook([]types.Symbol{"BTC"}, crypto, ledger.YAMLSource{})
	cryptoBook.LotsKey, cryptoBook.DistributionsKey = path, path

	charts := chart.NewLogHost()
	out := &bytes.Buffer{}
	return &fixture{
		store:  store,
		charts: charts,
		stocks: stocks,
		crypto: crypto,
		out:    out,
		runner: &Runner{
			Store:    store,
			Books:    []Book{stockBook, cryptoBook},
			Charts:   charts,
			Renderer: render.NewSymsRenderer(),
			Writer:   out,
			Layout:   DefaultLayout,
		},
	}
}

func (f *fixture) sheet(t *testing.T, name string) *grid.Sheet {
	t.Helper()
	s, err := f.store.Load(context.Background(), name)
	require.NoError(t, err)
	return s
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	rep, err := f.runner.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rep.ID)
	require.Len(t, rep.Sections, 2)

	stocks := rep.Sections[0]
	assert.Equal(t, "Stock Summary", stocks.Title)
	require.Len(t, stocks.Rows, 2)
	aapl := stocks.Rows[0]
	assert.True(t, d("165").Equal(aapl.LatestPrice.Decimal))
	assert.True(t, d("1650").Equal(aapl.MarketValue))
	assert.True(t, d("50").Equal(aapl.Distributions))
	msft := stocks.Rows[1]
	assert.False(t, msft.LatestPrice.Valid)
	assert.True(t, d("600").Equal(msft.MarketValue))
	assert.True(t, d("2250").Equal(stocks.Totals.MarketValue))

	btc := rep.Sections[1].Rows[0]
	assert.True(t, d("15000").Equal(btc.MarketValue))

	assert.Contains(t, rep.Warnings, "stock 5Min x 80: no data for MSFT")
	assert.Contains(t, rep.Warnings, "stock 1Day x 250: no data for MSFT")

	// price grids, oldest first
	today := f.sheet(t, "Stocks Today")
	assert.Equal(t, "AAPL", today.Get(grid.At("A", 3)))
	assert.Equal(t, d("158"), today.Get(grid.At("B", 3)))
	assert.Equal(t, d("165"), today.Get(grid.At("C", 3)))
	assert.Nil(t, today.Get(grid.At("A", 4)))

	// ledger written back
	ledgerTab := f.sheet(t, "Stocks")
	assert.Equal(t, d("165"), ledgerTab.Get(grid.At("E", 3)))
	assert.Equal(t, ledger.NotAvailable, ledgerTab.Get(grid.At("E", 4)))

	dash := f.sheet(t, "Dashboard")
	assert.Equal(t, "Stock Summary", dash.Get(grid.At("A", 2)))
	assert.Equal(t, "Crypto Summary", dash.Get(grid.At("A", 8)))
	// crypto totals on row 11, captions two rows under
	assert.Equal(t, "One Year", dash.Get(grid.At("C", 13)))
	assert.Equal(t, "Today", dash.Get(grid.At("O", 13)))

	drawn := f.charts.Rendered["Dashboard"]
	require.Len(t, drawn, 4)
	assert.Equal(t, "AAPL", drawn[0].Options.Title)
	assert.Equal(t, 14, drawn[0].Options.Row)
	assert.Equal(t, "Stocks History", drawn[0].Source.Sheet)
	assert.Equal(t, "Stocks Today", drawn[1].Source.Sheet)
	assert.Equal(t, chart.CryptoDay.Column, drawn[3].Options.Column)

	require.Len(t, rep.Details, 2)
	aaplDetail := rep.Details[0].Details[0]
	assert.True(t, d("7").Equal(aaplDetail.Changes[0].Abs))
	week := aaplDetail.Changes[1]
	assert.Equal(t, "week", week.Label)
	assert.True(t, week.Defined)
	assert.True(t, d("45").Equal(week.Abs)) // 165 - 120

	detail := f.sheet(t, "Detail")
	assert.Equal(t, "AAPL", detail.Get(grid.At("A", 4)))
	assert.Equal(t, "BTC", detail.Get(grid.At("A", 5)))

	assert.Equal(t, "AAPL,MSFT,BTC\n", f.out.String())
}

func TestRefreshIsRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.runner.Refresh(ctx, Options{})
	require.NoError(t, err)
	second, err := f.runner.Refresh(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Sections, second.Sections)
	assert.Equal(t, first.Details, second.Details)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.charts.Rendered["Dashboard"], 4)
}

func TestRefreshCurrentOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Refresh(context.Background(), Options{CurrentOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []market.Window{{Interval: market.FiveMinutes, Size: 80}}, f.stocks.calls)
	assert.Nil(t, f.sheet(t, "Stocks History").Get(grid.At("A", 3)))
}

func TestRefreshFilterNarrowsReport(t *testing.T) {
	f := newFixture(t)
	only, err := filter.Parse("AAPL")
	require.NoError(t, err)
	rep, err := f.runner.Refresh(context.Background(), Options{Filter: only})
	require.NoError(t, err)

	require.Len(t, rep.Sections[0].Rows, 1)
	assert.Empty(t, rep.Sections[1].Rows)
	// the ledger still gets every lot
	assert.Equal(t, ledger.NotAvailable, f.sheet(t, "Stocks").Get(grid.At("E", 4)))
}

func TestRefreshUnparseableIsWarning(t *testing.T) {
	f := newFixture(t)
	f.crypto.err = &market.UnparseableResponseError{Provider: "cryptocompare", Path: "/data/v2/histoday", Raw: "<html>"}
	rep, err := f.runner.Refresh(context.Background(), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Warnings)
	assert.False(t, rep.Sections[1].Rows[0].LatestPrice.Valid)
}

func TestRefreshWritesSymbolsThatSucceeded(t *testing.T) {
	f := newFixture(t)
	limited := &market.StatusError{Provider: "alpaca", Path: "/v2/stocks/bars", Code: 429}
	f.stocks.err = market.SymbolErrors{"MSFT": limited}
	rep, err := f.runner.Refresh(context.Background(), Options{})
	require.NoError(t, err)

	assert.Contains(t, rep.Warnings, "stock 5Min x 80: MSFT: "+limited.Error())
	assert.NotContains(t, rep.Warnings, "stock 5Min x 80: no data for MSFT")
	today := f.sheet(t, "Stocks Today")
	assert.Equal(t, "AAPL", today.Get(grid.At("A", 3)))
	assert.Equal(t, d("165"), today.Get(grid.At("C", 3)))
	assert.True(t, d("165").Equal(rep.Sections[0].Rows[0].LatestPrice.Decimal))
}

func TestRefreshTransportErrorAborts(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	f.stocks.err = boom
	_, err := f.runner.Refresh(context.Background(), Options{})
	assert.ErrorIs(t, err, boom)
}

type mockQuotes struct{ mock.Mock }

func (m *mockQuotes) Get(ctx context.Context, sym types.Symbol) (types.Quote, error) {
	args := m.Called(ctx, sym)
	return args.Get(0).(types.Quote), args.Error(1)
}

func TestDashboardUsesLiveQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.runner.Refresh(ctx, Options{})
	require.NoError(t, err)

	quotes := &mockQuotes{}
	quotes.On("Get", mock.Anything, types.Symbol("AAPL")).Return(types.Quote{Price: decimal.NewNullDecimal(d("170"))}, nil)
	quotes.On("Get", mock.Anything, types.Symbol("MSFT")).Return(types.Quote{}, errors.New("not found"))
	f.runner.Quotes = quotes
	f.runner.Books[0].LiveQuotes = true
	f.out.Reset()

	rep, err := f.runner.Dashboard(ctx, Options{})
	require.NoError(t, err)
	assert.True(t, d("1700").Equal(rep.Sections[0].Rows[0].MarketValue))
	assert.Contains(t, rep.Warnings, "stock: no live quote for MSFT")
	// dashboard never writes back
	assert.Equal(t, d("165"), f.sheet(t, "Stocks").Get(grid.At("E", 3)))
	quotes.AssertExpectations(t)
}

func TestDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.runner.Refresh(ctx, Options{})
	require.NoError(t, err)
	f.out.Reset()

	rep, err := f.runner.Detail(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, rep.Details[1].Details, 1)
	btc := rep.Details[1].Details[0]
	assert.Equal(t, types.Symbol("BTC"), btc.Symbol)
	assert.True(t, d("30000").Equal(btc.Latest))
	// the today change counts from the first date on the current tab
	assert.Equal(t, time.Unix(1_700_000_000-86400, 0).UTC(), rep.Details[0].Since)
	assert.Equal(t, "AAPL,BTC\n", f.out.String())
}
