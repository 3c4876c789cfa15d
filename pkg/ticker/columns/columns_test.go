package columns

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/ticker/pkg/ticker/portfolio"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"default", nil, Default},
		{"explicit order kept", []string{"net%", "sym"}, []string{"net%", "sym"}},
		{"dedupe", []string{"sym", "sym", "cost"}, []string{"sym", "cost"}},
		{"sets expand", []string{"returns", "cost"}, []string{"sym", "div", "net", "net%", "cost"}},
		{"set overlap", []string{"holding", "returns"}, []string{"sym", "shares", "price", "cost", "value", "div", "net", "net%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeUnknownColumn(t *testing.T) {
	_, err := Compute([]string{"sym", "pe"})
	var uerr *UnknownColumnError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "pe", uerr.Name)
}

func TestExpandSets(t *testing.T) {
	got, err := ExpandSets([]string{"returns", " holding "})
	require.NoError(t, err)
	assert.Equal(t, []string{"sym", "div", "net", "net%", "shares", "price", "cost", "value"}, got)

	_, err = ExpandSets([]string{"fundamentals"})
	var serr *UnknownSetError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, []string{"holding", "returns"}, serr.Available)
}

func TestValues(t *testing.T) {
	h := portfolio.Holding{
		Symbol:        "AAPL",
		Shares:        d("15"),
		CostBasis:     d("1600"),
		MarketValue:   d("2300"),
		Distributions: d("20"),
	}
	get := func(k string) string {
		c, ok := Get(k)
		require.True(t, ok, k)
		return Format(c.Value(h))
	}
	assert.Equal(t, "AAPL", get("sym"))
	assert.Equal(t, "15", get("shares"))
	assert.Equal(t, "n/a", get("price"))
	assert.Equal(t, "$1,600.00", get("cost"))
	assert.Equal(t, "$720.00", get("net"))
	assert.Equal(t, "45.00%", get("net%"))

	zero := portfolio.Holding{Symbol: "BTC", Distributions: d("5")}
	c, _ := Get("net%")
	assert.Equal(t, "n/a", Format(c.Value(zero)))

	sym, _ := Get("sym")
	assert.Equal(t, "", Format(sym.TotalValue(portfolio.Totals{})))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{num(Money, d("1234567.891")), "$1,234,567.89"},
		{num(Money, d("-42.5")), "-$42.50"},
		{num(Quantity, d("0.12345")), "0.12345"},
		{num(Quantity, d("12000")), "12,000"},
		{num(Percent, d("-0.0325")), "-3.25%"},
		{text("x"), "x"},
		{blank(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.v))
	}
}
