package ledger

import (
	"context"
	"fmt"

	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

// LotColumns locates the purchase ledger fields on a tab.
type LotColumns struct {
	Symbol   string
	Shares   string
	Cost     string
	Price    string
	Value    string
	StartRow int
}

// DistributionColumns locates the distribution ledger fields on a tab.
type DistributionColumns struct {
	Date     string
	Symbol   string
	Amount   string
	StartRow int
}

var (
	DefaultLotColumns          = LotColumns{Symbol: "A", Shares: "B", Cost: "D", Price: "E", Value: "F", StartRow: 3}
	DefaultDistributionColumns = DistributionColumns{Date: "A", Symbol: "B", Amount: "C", StartRow: 3}
)

// GridSource reads ledgers kept on grid tabs. The key is the tab name.
// Records are read row by row until the symbol column is blank.
type GridSource struct {
	Store         grid.Store
	Lots          LotColumns
	Distributions DistributionColumns
}

// NewGridSource returns a source using the default ledger layout.
func NewGridSource(store grid.Store) *GridSource {
	return &GridSource{Store: store, Lots: DefaultLotColumns, Distributions: DefaultDistributionColumns}
}

func (g *GridSource) ReadLots(ctx context.Context, key string) ([]types.PurchaseLot, error) {
	s, err := g.Store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	cols := g.Lots
	return ScanUntilBlank[types.PurchaseLot](func(i int) (types.PurchaseLot, bool, error) {
		row := cols.StartRow + i
		at := func(col string) any { return s.Get(grid.Coordinate{Column: col, Row: row}) }
		sym := grid.Text(at(cols.Symbol))
		if sym == "" {
			return types.PurchaseLot{}, true, nil
		}
		lot, err := newLot(sym, at(cols.Shares), at(cols.Cost), at(cols.Price), at(cols.Value))
		if err != nil {
			return lot, false, fmt.Errorf("%s row %d: %w", key, row, err)
		}
		return lot, false, nil
	})
}

func (g *GridSource) ReadDistributions(ctx context.Context, key string) ([]types.Distribution, error) {
	s, err := g.Store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	cols := g.Distributions
	return ScanUntilBlank[types.Distribution](func(i int) (types.Distribution, bool, error) {
		row := cols.StartRow + i
		at := func(col string) any {
			if col == "" {
				return nil
			}
			return s.Get(grid.Coordinate{Column: col, Row: row})
		}
		sym := grid.Text(at(cols.Symbol))
		if sym == "" {
			return types.Distribution{}, true, nil
		}
		d, err := newDistribution(grid.Text(at(cols.Date)), sym, at(cols.Amount))
		if err != nil {
			return d, false, fmt.Errorf("%s row %d: %w", key, row, err)
		}
		return d, false, nil
	})
}

// NotAvailable is written in the price column when no price is known.
const NotAvailable = "n/a"

// WritePrices records each lot's price and value in the row it was read
// from. lots must be in ledger order, as returned by ReadLots.
func (g *GridSource) WritePrices(ctx context.Context, key string, lots []types.PurchaseLot) error {
	s, err := g.Store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	cols := g.Lots
	for i, lot := range lots {
		row := cols.StartRow + i
		if got := grid.Text(s.Get(grid.Coordinate{Column: cols.Symbol, Row: row})); got != lot.Symbol.String() {
			return fmt.Errorf("%s row %d: expected %s, found %q", key, row, lot.Symbol, got)
		}
		if lot.Price.Valid {
			s.Set(grid.Coordinate{Column: cols.Price, Row: row}, lot.Price.Decimal)
		} else {
			s.Set(grid.Coordinate{Column: cols.Price, Row: row}, NotAvailable)
		}
		s.Set(grid.Coordinate{Column: cols.Value, Row: row}, lot.CurrentValue)
	}
	if err := g.Store.Save(ctx, s); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
