package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Lookback names a comparison point a number of series points before the
// newest one.
type Lookback struct {
	Label  string
	Points int
}

// Trading-day offsets for daily stock bars.
var StockLookbacks = []Lookback{
	{Label: "week", Points: 4},
	{Label: "month", Points: 20},
	{Label: "3 month", Points: 63},
	{Label: "6 month", Points: 124},
	{Label: "year", Points: 249},
}

// Calendar-day offsets for daily crypto bars.
var CryptoLookbacks = []Lookback{
	{Label: "week", Points: 6},
	{Label: "month", Points: 30},
	{Label: "3 month", Points: 91},
	{Label: "6 month", Points: 150},
	{Label: "year", Points: 364},
}

// Change is the movement from a past price to the latest price.
// Defined is false when the past price is missing or zero.
type Change struct {
	Label   string
	Abs     decimal.Decimal
	Pct     decimal.Decimal
	Defined bool
}

// Detail is the change report for one symbol. The first change is the
// intraday one against the oldest point of the current window.
type Detail struct {
	Symbol  types.Symbol
	Latest  decimal.Decimal
	Changes []Change
}

// Changes compares the newest price against earlier points. current and
// history are ordered oldest first. ok is false when neither series has
// any point.
func Changes(sym types.Symbol, current, history []decimal.Decimal, lookbacks []Lookback) (Detail, bool) {
	var latest decimal.Decimal
	switch {
	case len(current) > 0:
		latest = current[len(current)-1]
	case len(history) > 0:
		latest = history[len(history)-1]
	default:
		return Detail{}, false
	}

	d := Detail{Symbol: sym, Latest: latest}
	if len(current) > 0 {
		d.Changes = append(d.Changes, change("today", latest, current[0]))
	} else {
		d.Changes = append(d.Changes, Change{Label: "today"})
	}
	for _, lb := range lookbacks {
		i := len(history) - 1 - lb.Points
		if lb.Points < 0 || i < 0 {
			d.Changes = append(d.Changes, Change{Label: lb.Label})
			continue
		}
		d.Changes = append(d.Changes, change(lb.Label, latest, history[i]))
	}
	return d, true
}

func change(label string, latest, past decimal.Decimal) Change {
	if past.IsZero() {
		return Change{Label: label}
	}
	abs := latest.Sub(past)
	return Change{Label: label, Abs: abs, Pct: abs.Div(past), Defined: true}
}
