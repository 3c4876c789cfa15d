package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Reprice returns a copy of lots stamped with the latest known price of
// their symbol and revalued at shares times price. Lots whose symbol has no
// price keep their recorded value and get an invalid price.
func Reprice(lots []types.PurchaseLot, prices map[types.Symbol]decimal.Decimal) []types.PurchaseLot {
	out := make([]types.PurchaseLot, len(lots))
	for i, lot := range lots {
		p, ok := prices[lot.Symbol]
		if !ok {
			lot.Price = decimal.NullDecimal{}
			out[i] = lot
			continue
		}
		lot.Price = decimal.NewNullDecimal(p)
		lot.CurrentValue = lot.Shares.Mul(p)
		out[i] = lot
	}
	return out
}
