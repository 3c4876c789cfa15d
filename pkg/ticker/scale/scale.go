// Package scale picks rounded chart axis floors so small price movements
// stay visible.
package scale

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

type step struct {
	below decimal.Decimal
	unit  decimal.Decimal
}

var (
	tenth = decimal.RequireFromString("0.1")
	one   = decimal.NewFromInt(1)

	// upper bounds are exclusive
	steps = []step{
		{below: decimal.NewFromInt(10), unit: decimal.NewFromInt(1)},
		{below: decimal.NewFromInt(50), unit: decimal.NewFromInt(2)},
		{below: decimal.NewFromInt(100), unit: decimal.NewFromInt(5)},
		{below: decimal.NewFromInt(1000), unit: decimal.NewFromInt(20)},
		{below: decimal.NewFromInt(10000), unit: decimal.NewFromInt(1000)},
		{below: decimal.NewFromInt(100000), unit: decimal.NewFromInt(10000)},
	}
	fallback = decimal.NewFromInt(100000)
)

// Cutoff returns the axis floor for a series whose smallest value is min.
//
//	< 0.1          0
//	[0.1, 1)       min
//	[1, 10)        floor to 1
//	[10, 50)       floor to 2
//	[50, 100)      floor to 5
//	[100, 1000)    floor to 20
//	[1000, 10000)  floor to 1000
//	[10000, 1e5)   floor to 10000
//	>= 1e5         floor to 100000
func Cutoff(min decimal.Decimal) decimal.Decimal {
	if min.LessThan(tenth) {
		return decimal.Zero
	}
	if min.LessThan(one) {
		return min
	}
	for _, s := range steps {
		if min.LessThan(s.below) {
			return floorTo(min, s.unit)
		}
	}
	return floorTo(min, fallback)
}

func floorTo(v, unit decimal.Decimal) decimal.Decimal {
	return v.Div(unit).Floor().Mul(unit)
}

// Min returns the smallest non-zero value. ok is false when there is none.
func Min(values []decimal.Decimal) (decimal.Decimal, bool) {
	data := make(stats.Float64Data, 0, len(values))
	kept := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if v.IsZero() {
			continue
		}
		data = append(data, v.InexactFloat64())
		kept = append(kept, v)
	}
	m, err := stats.Min(data)
	if err != nil {
		return decimal.Zero, false
	}
	low := kept[0]
	for i, f := range data {
		if f == m {
			low = kept[i]
			break
		}
	}
	for _, v := range kept {
		if v.LessThan(low) {
			low = v
		}
	}
	return low, true
}
