// Package ledger reads purchase lots and distribution payments from the
// places a portfolio is kept: YAML or CSV files, or a grid tab.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Source loads ledger records. The key names the ledger within the source
// (a file path or a sheet name).
type Source interface {
	ReadLots(ctx context.Context, key string) ([]types.PurchaseLot, error)
	ReadDistributions(ctx context.Context, key string) ([]types.Distribution, error)
}

// PriceWriter is implemented by sources that can record the current price
// and value next to each lot.
type PriceWriter interface {
	WritePrices(ctx context.Context, key string, lots []types.PurchaseLot) error
}

// Iterator returns the record at position i. blank reports that the
// record's key field is empty, which ends the ledger.
type Iterator[T any] func(i int) (rec T, blank bool, err error)

// ScanUntilBlank collects records from position 0 until the first blank
// one. A blank record is the end of data, not an error.
func ScanUntilBlank[T any](next Iterator[T]) ([]T, error) {
	var out []T
	for i := 0; ; i++ {
		rec, blank, err := next(i)
		if err != nil {
			return nil, err
		}
		if blank {
			return out, nil
		}
		out = append(out, rec)
	}
}

// lotRecord is the on-disk shape shared by the YAML and CSV sources.
type lotRecord struct {
	Symbol string `yaml:"symbol" csv:"symbol"`
	Shares string `yaml:"shares" csv:"shares"`
	Cost   string `yaml:"cost" csv:"cost"`
	Price  string `yaml:"price" csv:"price"`
	Value  string `yaml:"value" csv:"value"`
}

type distributionRecord struct {
	Date   string `yaml:"date" csv:"date"`
	Symbol string `yaml:"symbol" csv:"symbol"`
	Amount string `yaml:"amount" csv:"amount"`
}

func lotIterator(recs []lotRecord) Iterator[types.PurchaseLot] {
	return func(i int) (types.PurchaseLot, bool, error) {
		if i >= len(recs) || strings.TrimSpace(recs[i].Symbol) == "" {
			return types.PurchaseLot{}, true, nil
		}
		r := recs[i]
		lot, err := newLot(r.Symbol, r.Shares, r.Cost, r.Price, r.Value)
		if err != nil {
			return lot, false, fmt.Errorf("lot %d: %w", i+1, err)
		}
		return lot, false, nil
	}
}

func distributionIterator(recs []distributionRecord) Iterator[types.Distribution] {
	return func(i int) (types.Distribution, bool, error) {
		if i >= len(recs) || strings.TrimSpace(recs[i].Symbol) == "" {
			return types.Distribution{}, true, nil
		}
		r := recs[i]
		d, err := newDistribution(r.Date, r.Symbol, r.Amount)
		if err != nil {
			return d, false, fmt.Errorf("distribution %d: %w", i+1, err)
		}
		return d, false, nil
	}
}

func newLot(symbol string, shares, cost, price, value any) (types.PurchaseLot, error) {
	lot := types.PurchaseLot{Symbol: types.Symbol(strings.TrimSpace(symbol))}
	var err error
	if lot.Shares, err = amount("shares", shares); err != nil {
		return lot, err
	}
	if lot.Shares.IsNegative() {
		return lot, fmt.Errorf("%s: negative shares %s", lot.Symbol, lot.Shares)
	}
	if lot.CostBasis, err = amount("cost", cost); err != nil {
		return lot, err
	}
	if lot.CurrentValue, err = amount("value", value); err != nil {
		return lot, err
	}
	// "n/a" and other text mean the price is unknown
	if p, ok := grid.Decimal(price); ok {
		lot.Price = decimal.NewNullDecimal(p)
	}
	return lot, nil
}

func newDistribution(date, symbol string, amt any) (types.Distribution, error) {
	d := types.Distribution{Date: strings.TrimSpace(date), Symbol: types.Symbol(strings.TrimSpace(symbol))}
	var err error
	d.Amount, err = amount("amount", amt)
	return d, err
}

// amount parses a numeric field. Blank fields count as zero.
func amount(field string, v any) (decimal.Decimal, error) {
	if grid.Text(v) == "" {
		return decimal.Zero, nil
	}
	d, ok := grid.Decimal(v)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s %q is not a number", field, grid.Text(v))
	}
	return d, nil
}
