package ledger

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// CSVSource reads ledgers exported as CSV. The key is the file path. Lot
// files carry the header symbol,shares,cost,price,value and distribution
// files date,symbol,amount.
type CSVSource struct{}

func (CSVSource) ReadLots(ctx context.Context, key string) ([]types.PurchaseLot, error) { //nolint:revive
	var recs []lotRecord
	if err := readCSV(key, &recs); err != nil {
		return nil, err
	}
	lots, err := ScanUntilBlank(lotIterator(recs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return lots, nil
}

func (CSVSource) ReadDistributions(ctx context.Context, key string) ([]types.Distribution, error) { //nolint:revive
	var recs []distributionRecord
	if err := readCSV(key, &recs); err != nil {
		return nil, err
	}
	dists, err := ScanUntilBlank(distributionIterator(recs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return dists, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
