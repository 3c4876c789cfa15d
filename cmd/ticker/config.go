package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/enrich"
	"github.com/komsit37/ticker/pkg/ticker/grid"
	"github.com/komsit37/ticker/pkg/ticker/gsheets"
	"github.com/komsit37/ticker/pkg/ticker/ledger"
	"github.com/komsit37/ticker/pkg/ticker/market"
	"github.com/komsit37/ticker/pkg/ticker/pipeline"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

const envFile = ".env"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("grid.backend", "sheets")
	v.SetDefault("equities.provider", "alpaca")
	v.SetDefault("alpaca.data_url", market.DefaultAlpacaURL)
	v.SetDefault("cryptocompare.url", market.DefaultCryptoCompareURL)
	v.SetDefault("cryptocompare.concurrency", 4)
	v.SetDefault("quotes.live", false)
	v.SetDefault("quotes.timeout", "5s")
	v.SetDefault("quotes.ttl", "1m")
	v.SetDefault("quotes.size", 256)

	v.SetDefault("books.stock.ledger.source", "grid")
	v.SetDefault("books.stock.ledger.lots", "Stocks")
	v.SetDefault("books.stock.ledger.distributions", "Dividends")
	v.SetDefault("books.stock.current.interval", string(market.FiveMinutes))
	v.SetDefault("books.stock.current.size", 80)
	v.SetDefault("books.stock.history.interval", string(market.Day))
	v.SetDefault("books.stock.history.size", 250)

	v.SetDefault("books.crypto.ledger.source", "grid")
	v.SetDefault("books.crypto.ledger.lots", "Crypto")
	v.SetDefault("books.crypto.ledger.distributions", "Crypto Distributions")
	v.SetDefault("books.crypto.current.interval", string(market.Minute))
	v.SetDefault("books.crypto.current.size", 480)
	v.SetDefault("books.crypto.history.interval", string(market.Day))
	v.SetDefault("books.crypto.history.size", 365)
}

// loadConfig reads .env when present, then the config file, then
// TICKER_* environment overrides.
func loadConfig(v *viper.Viper, path string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	setDefaults(v)
	v.SetEnvPrefix("TICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("log.level", "TICKER_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ticker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level, err := log.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if used := v.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("config loaded")
	}
	return nil
}

// newRunner wires the grid backend, providers and books from config.
func newRunner(ctx context.Context, v *viper.Viper) (*pipeline.Runner, error) {
	store, charts, err := newGrid(ctx, v)
	if err != nil {
		return nil, err
	}

	equities, err := newEquities(v)
	if err != nil {
		return nil, err
	}
	cc := market.NewCryptoCompare(v.GetString("cryptocompare.api_key"))
	cc.BaseURL = v.GetString("cryptocompare.url")
	cc.Concurrency = v.GetInt("cryptocompare.concurrency")

	stockSrc, err := newLedger(v, "stock", store)
	if err != nil {
		return nil, err
	}
	cryptoSrc, err := newLedger(v, "crypto", store)
	if err != nil {
		return nil, err
	}

	stocks := pipeline.StockBook(symbols(v, "books.stock.symbols"), equities, stockSrc)
	crypto := pipeline.CryptoBook(symbols(v, "books.crypto.symbols"), cc, cryptoSrc)
	for _, b := range []*pipeline.Book{&stocks, &crypto} {
		if err := configureBook(v, b); err != nil {
			return nil, err
		}
	}

	r := &pipeline.Runner{
		Store:  store,
		Books:  []pipeline.Book{stocks, crypto},
		Charts: charts,
		Layout: pipeline.DefaultLayout,
	}
	if v.GetBool("quotes.live") {
		yf := enrich.NewYFService(v.GetDuration("quotes.timeout"))
		r.Quotes = enrich.NewCacheService(yf, v.GetDuration("quotes.ttl"), v.GetInt("quotes.size"))
		r.Books[0].LiveQuotes = true
	}
	return r, nil
}

func newGrid(ctx context.Context, v *viper.Viper) (grid.Store, chart.Host, error) {
	switch backend := v.GetString("grid.backend"); backend {
	case "memory":
		return grid.NewMemoryStore(), chart.NewLogHost(), nil
	case "sheets":
		id := v.GetString("sheets.spreadsheet_id")
		if id == "" {
			return nil, nil, errors.New("sheets.spreadsheet_id is required for the sheets backend")
		}
		srv, err := gsheets.NewService(ctx, v.GetString("sheets.credentials_base64"))
		if err != nil {
			return nil, nil, err
		}
		return gsheets.NewStore(srv, id), gsheets.NewChartHost(srv, id), nil
	default:
		return nil, nil, fmt.Errorf("unknown grid.backend %q (want memory or sheets)", backend)
	}
}

func newEquities(v *viper.Viper) (market.SeriesClient, error) {
	switch p := v.GetString("equities.provider"); p {
	case "alpaca":
		a := market.NewAlpaca(v.GetString("alpaca.key_id"), v.GetString("alpaca.secret_key"))
		a.BaseURL = v.GetString("alpaca.data_url")
		a.Feed = v.GetString("alpaca.feed")
		return a, nil
	case "polygon":
		pg := market.NewPolygon(v.GetString("polygon.api_key"))
		pg.Concurrency = v.GetInt("cryptocompare.concurrency")
		if v.IsSet("polygon.concurrency") {
			pg.Concurrency = v.GetInt("polygon.concurrency")
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown equities.provider %q (want alpaca or polygon)", p)
	}
}

func newLedger(v *viper.Viper, book string, store grid.Store) (ledger.Source, error) {
	switch src := v.GetString("books." + book + ".ledger.source"); src {
	case "grid":
		return ledger.NewGridSource(store), nil
	case "yaml":
		return ledger.YAMLSource{}, nil
	case "csv":
		return ledger.CSVSource{}, nil
	default:
		return nil, fmt.Errorf("books.%s.ledger.source: unknown source %q (want grid, yaml or csv)", book, src)
	}
}

func configureBook(v *viper.Viper, b *pipeline.Book) error {
	prefix := "books." + string(b.Class) + "."
	b.LotsKey = v.GetString(prefix + "ledger.lots")
	b.DistributionsKey = v.GetString(prefix + "ledger.distributions")

	var err error
	if b.Current, err = window(v, prefix+"current"); err != nil {
		return err
	}
	if b.History, err = window(v, prefix+"history"); err != nil {
		return err
	}
	return nil
}

func window(v *viper.Viper, key string) (market.Window, error) {
	iv, err := market.ParseInterval(v.GetString(key + ".interval"))
	if err != nil {
		return market.Window{}, fmt.Errorf("%s.interval: %w", key, err)
	}
	size := v.GetInt(key + ".size")
	if size <= 0 {
		return market.Window{}, fmt.Errorf("%s.size: must be positive, got %d", key, size)
	}
	return market.Window{Interval: iv, Size: size}, nil
}

// symbols accepts a YAML list or a comma or space separated string.
func symbols(v *viper.Viper, key string) []types.Symbol {
	var out []types.Symbol
	for _, item := range v.GetStringSlice(key) {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, types.Symbol(s))
			}
		}
	}
	return types.Unique(out)
}
