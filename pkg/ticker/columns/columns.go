// Package columns defines the dashboard columns: how each one is titled,
// computed from a holding, totalled and formatted.
package columns

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/portfolio"
)

// Kind says how a value is formatted.
type Kind int

const (
	Text Kind = iota
	Quantity
	Money
	Percent
)

// Value is one dashboard cell. Valid is false when the number is unknown,
// which renders as "n/a". Blank values render as nothing.
type Value struct {
	Kind  Kind
	Text  string
	Num   decimal.Decimal
	Valid bool
	Blank bool
}

func text(s string) Value                 { return Value{Kind: Text, Text: s, Valid: true} }
func num(k Kind, d decimal.Decimal) Value { return Value{Kind: k, Num: d, Valid: true} }
func blank() Value                        { return Value{Blank: true} }

// Column computes one dashboard column.
type Column struct {
	Key    string
	Header string
	// Signed columns are coloured by the sign of their value.
	Signed bool
	Value  func(h portfolio.Holding) Value
	// Total is nil for columns left empty on the totals row.
	Total func(t portfolio.Totals) Value
}

// Registry maps column keys to columns.
var Registry = map[string]Column{}

// Default is the dashboard column order.
var Default = []string{"sym", "shares", "price", "cost", "value", "div", "net", "net%"}

func init() {
	register(Column{Key: "sym", Header: "Symbol",
		Value: func(h portfolio.Holding) Value { return text(h.Symbol.String()) }})
	register(Column{Key: "shares", Header: "Shares",
		Value: func(h portfolio.Holding) Value { return num(Quantity, h.Shares) }})
	register(Column{Key: "price", Header: "Price",
		Value: func(h portfolio.Holding) Value {
			if !h.LatestPrice.Valid {
				return Value{Kind: Money}
			}
			return num(Money, h.LatestPrice.Decimal)
		}})
	register(Column{Key: "cost", Header: "Cost Basis",
		Value: func(h portfolio.Holding) Value { return num(Money, h.CostBasis) },
		Total: func(t portfolio.Totals) Value { return num(Money, t.CostBasis) }})
	register(Column{Key: "value", Header: "Value",
		Value: func(h portfolio.Holding) Value { return num(Money, h.MarketValue) },
		Total: func(t portfolio.Totals) Value { return num(Money, t.MarketValue) }})
	register(Column{Key: "div", Header: "Dividends",
		Value: func(h portfolio.Holding) Value { return num(Money, h.Distributions) },
		Total: func(t portfolio.Totals) Value { return num(Money, t.Distributions) }})
	register(Column{Key: "net", Header: "$ Net", Signed: true,
		Value: func(h portfolio.Holding) Value { return num(Money, h.NetGain()) },
		Total: func(t portfolio.Totals) Value { return num(Money, t.NetGain()) }})
	register(Column{Key: "net%", Header: "% Net", Signed: true,
		Value: func(h portfolio.Holding) Value { return percent(h.NetPercent()) },
		Total: func(t portfolio.Totals) Value { return percent(t.NetPercent()) }})
}

func register(c Column) { Registry[c.Key] = c }

func percent(d decimal.Decimal, err error) Value {
	if err != nil {
		return Value{Kind: Percent}
	}
	return num(Percent, d)
}

// Get returns the column for key.
func Get(key string) (Column, bool) {
	c, ok := Registry[key]
	return c, ok
}

// TotalValue is the column's totals-row cell.
func (c Column) TotalValue(t portfolio.Totals) Value {
	if c.Total == nil {
		return blank()
	}
	return c.Total(t)
}

// Compute resolves column keys and set names into the final column order.
// Entries are deduplicated keeping the first occurrence. An empty list
// yields Default.
func Compute(explicit []string) ([]string, error) {
	if len(explicit) == 0 {
		return append([]string(nil), Default...), nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, k := range explicit {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if set, ok := Sets[k]; ok {
			for _, c := range set {
				add(c)
			}
			continue
		}
		if _, ok := Registry[k]; !ok {
			return nil, &UnknownColumnError{Name: k, Available: append([]string(nil), Default...)}
		}
		add(k)
	}
	return out, nil
}

// UnknownColumnError reports a column key that is not registered.
type UnknownColumnError struct {
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

// Format renders v for display.
func Format(v Value) string {
	switch {
	case v.Blank:
		return ""
	case !v.Valid:
		return "n/a"
	}
	switch v.Kind {
	case Quantity:
		return commas(v.Num.String())
	case Money:
		s := commas(v.Num.Abs().StringFixed(2))
		if v.Num.IsNegative() {
			return "-$" + s
		}
		return "$" + s
	case Percent:
		return v.Num.Shift(2).StringFixed(2) + "%"
	}
	return v.Text
}

// commas inserts thousands separators into the integer part of a plain
// decimal string.
func commas(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + frac
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + frac
}
