package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol identifies a tradable instrument (equity ticker or crypto code).
// Symbols are case-sensitive.
type Symbol string

func (s Symbol) String() string { return string(s) }

// AssetClass groups symbols that share a market-data provider and a ledger.
type AssetClass string

const (
	Stock  AssetClass = "stock"
	Crypto AssetClass = "crypto"
)

// PricePoint is one close price at a point in time.
type PricePoint struct {
	Time  int64 // epoch seconds
	Close decimal.Decimal
}

// At returns the point's timestamp.
func (p PricePoint) At() time.Time { return time.Unix(p.Time, 0).UTC() }

// PurchaseLot is one row of a purchase ledger.
// Price is invalid when no current price is known for the symbol.
type PurchaseLot struct {
	Symbol       Symbol
	Shares       decimal.Decimal
	CostBasis    decimal.Decimal
	Price        decimal.NullDecimal
	CurrentValue decimal.Decimal
}

// Distribution is one dividend or distribution payment.
type Distribution struct {
	Date   string
	Symbol Symbol
	Amount decimal.Decimal
}

// Quote is a live quote for a symbol.
type Quote struct {
	Price     decimal.NullDecimal
	ChangePct decimal.NullDecimal
	Name      string
}

// Unique returns symbols with duplicates and blanks removed, keeping the
// first occurrence.
func Unique(symbols []Symbol) []Symbol {
	seen := make(map[Symbol]struct{}, len(symbols))
	out := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
