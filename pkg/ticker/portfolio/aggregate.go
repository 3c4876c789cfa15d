// Package portfolio aggregates purchase lots and distributions into
// per-symbol holdings and portfolio totals.
package portfolio

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// ErrZeroCostBasis reports a return computed over a zero cost basis.
var ErrZeroCostBasis = errors.New("undefined return: zero cost basis")

// Holding is the summed position for one symbol.
type Holding struct {
	Symbol        types.Symbol
	Shares        decimal.Decimal
	LatestPrice   decimal.NullDecimal
	CostBasis     decimal.Decimal
	MarketValue   decimal.Decimal
	Distributions decimal.Decimal
}

// NetGain is market value plus distributions minus cost basis.
func (h Holding) NetGain() decimal.Decimal {
	return netGain(h.MarketValue, h.Distributions, h.CostBasis)
}

// NetPercent is NetGain over cost basis as a fraction (0.45 for 45%).
func (h Holding) NetPercent() (decimal.Decimal, error) {
	return netPercent(h.NetGain(), h.CostBasis)
}

// Totals sums holdings across the portfolio.
type Totals struct {
	CostBasis     decimal.Decimal
	MarketValue   decimal.Decimal
	Distributions decimal.Decimal
}

func (t Totals) NetGain() decimal.Decimal {
	return netGain(t.MarketValue, t.Distributions, t.CostBasis)
}

func (t Totals) NetPercent() (decimal.Decimal, error) {
	return netPercent(t.NetGain(), t.CostBasis)
}

// Result is the output of one aggregation pass. Symbols lists holdings in
// the order they were first seen in the ledgers.
type Result struct {
	Symbols  []types.Symbol
	Holdings map[types.Symbol]*Holding
	Totals   Totals
}

// Rows returns holdings in display order.
func (r Result) Rows() []Holding {
	out := make([]Holding, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		out = append(out, *r.Holdings[s])
	}
	return out
}

// Aggregate scans lots then distributions once each, in ledger order, and
// returns fresh holdings. Inputs are not modified.
func Aggregate(lots []types.PurchaseLot, distributions []types.Distribution) Result {
	res := Result{Holdings: make(map[types.Symbol]*Holding)}
	get := func(sym types.Symbol) *Holding {
		h, ok := res.Holdings[sym]
		if !ok {
			h = &Holding{Symbol: sym}
			res.Holdings[sym] = h
			res.Symbols = append(res.Symbols, sym)
		}
		return h
	}

	for _, lot := range lots {
		h := get(lot.Symbol)
		h.Shares = h.Shares.Add(lot.Shares)
		h.CostBasis = h.CostBasis.Add(lot.CostBasis)
		h.MarketValue = h.MarketValue.Add(lot.CurrentValue)
		// last lot wins
		h.LatestPrice = lot.Price
	}
	for _, d := range distributions {
		h := get(d.Symbol)
		h.Distributions = h.Distributions.Add(d.Amount)
	}

	for _, sym := range res.Symbols {
		h := res.Holdings[sym]
		res.Totals.CostBasis = res.Totals.CostBasis.Add(h.CostBasis)
		res.Totals.MarketValue = res.Totals.MarketValue.Add(h.MarketValue)
		res.Totals.Distributions = res.Totals.Distributions.Add(h.Distributions)
	}
	return res
}

func netGain(value, dist, cost decimal.Decimal) decimal.Decimal {
	return value.Add(dist).Sub(cost)
}

func netPercent(gain, cost decimal.Decimal) (decimal.Decimal, error) {
	if cost.IsZero() {
		return decimal.Zero, ErrZeroCostBasis
	}
	return gain.Div(cost), nil
}
