package chart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

func values(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = decimal.RequireFromString(s)
	}
	return out
}

func TestPlan(t *testing.T) {
	rows := []grid.Row{
		{Symbol: "AAPL", Row: 3, FirstColumn: "B", LastColumn: "D", Values: values("185.2", "183.9", "190.1")},
		{Symbol: "EMPTY", Row: 4, FirstColumn: "B", LastColumn: "B"},
		{Symbol: "BRK.A", Row: 5, FirstColumn: "B", LastColumn: "C", Values: values("0", "612000", "620500")},
	}

	reqs := Plan("StockHistory", 2, rows, 20, StockYear, DefaultTheme)
	require.Len(t, reqs, 2)

	aapl := reqs[0]
	assert.Equal(t, "AAPL", aapl.Options.Title)
	assert.Equal(t, 20, aapl.Options.Row)
	assert.Equal(t, 1, aapl.Options.Column)
	assert.Equal(t, []string{"#0075c9"}, aapl.Options.Colors)
	assert.True(t, decimal.NewFromInt(180).Equal(aapl.Options.AxisFloor))
	assert.Empty(t, aapl.Options.NumberFormat)
	assert.Equal(t, "B3:D3", aapl.Source.Series.String())
	assert.Equal(t, "B2:D2", aapl.Source.Domain.String())
	assert.Equal(t, "StockHistory", aapl.Source.Sheet)

	brk := reqs[1]
	assert.Equal(t, 29, brk.Options.Row)
	// zero cells are ignored when finding the minimum
	assert.True(t, decimal.NewFromInt(600000).Equal(brk.Options.AxisFloor))
	assert.Equal(t, CurrencyFormat, brk.Options.NumberFormat)
}

func TestDrawWithLogHost(t *testing.T) {
	ctx := context.Background()
	h := NewLogHost()
	rows := []grid.Row{{Symbol: types.Symbol("BTC"), Row: 3, FirstColumn: "B", LastColumn: "C", Values: values("67000", "68000")}}

	require.NoError(t, Draw(ctx, h, "Dashboard", Plan("CryptoCurrent", 2, rows, 12, CryptoDay, DefaultTheme)))
	require.Len(t, h.Rendered["Dashboard"], 1)
	assert.Equal(t, 14, h.Rendered["Dashboard"][0].Options.Column)

	require.NoError(t, h.Clear(ctx, "Dashboard"))
	assert.Empty(t, h.Rendered["Dashboard"])
}
