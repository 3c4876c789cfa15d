package ledger

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// YAMLSource reads a ledger file of the form
//
//	lots:
//	  - {symbol: AAPL, shares: 10, cost: 1000, value: 1500}
//	distributions:
//	  - {date: 2024-02-15, symbol: AAPL, amount: 2.40}
//
// The key is the file path. Lots and distributions may share a file.
type YAMLSource struct{}

type yamlLedger struct {
	Lots          []lotRecord          `yaml:"lots"`
	Distributions []distributionRecord `yaml:"distributions"`
}

func (YAMLSource) ReadLots(ctx context.Context, key string) ([]types.PurchaseLot, error) { //nolint:revive
	doc, err := readYAML(key)
	if err != nil {
		return nil, err
	}
	lots, err := ScanUntilBlank(lotIterator(doc.Lots))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return lots, nil
}

func (YAMLSource) ReadDistributions(ctx context.Context, key string) ([]types.Distribution, error) { //nolint:revive
	doc, err := readYAML(key)
	if err != nil {
		return nil, err
	}
	dists, err := ScanUntilBlank(distributionIterator(doc.Distributions))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return dists, nil
}

func readYAML(path string) (yamlLedger, error) {
	var doc yamlLedger
	f, err := os.Open(path)
	if err != nil {
		return doc, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
