package pipeline

import (
	"github.com/komsit37/ticker/pkg/ticker/chart"
	"github.com/komsit37/ticker/pkg/ticker/ledger"
	"github.com/komsit37/ticker/pkg/ticker/market"
	"github.com/komsit37/ticker/pkg/ticker/portfolio"
	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Book is one asset class tracked by the dashboard: where its prices come
// from, which tabs they land on and which ledgers hold its positions.
type Book struct {
	Class   types.AssetClass
	Title   string
	Symbols []types.Symbol

	Client  market.SeriesClient
	Current market.Window
	History market.Window
	// LiveQuotes reprices the book from the runner's quote service instead
	// of the newest grid point.
	LiveQuotes bool

	Ledger           ledger.Source
	LotsKey          string
	DistributionsKey string

	CurrentSheet string
	HistorySheet string

	Lookbacks []portfolio.Lookback
	YearChart chart.Group
	DayChart  chart.Group
}

// StockBook returns a stock book with the dashboard's stock defaults.
func StockBook(symbols []types.Symbol, client market.SeriesClient, src ledger.Source) Book {
	return Book{
		Class:            types.Stock,
		Title:            "Stock Summary",
		Symbols:          symbols,
		Client:           client,
		Current:          market.Window{Interval: market.FiveMinutes, Size: 80},
		History:          market.Window{Interval: market.Day, Size: 250},
		Ledger:           src,
		LotsKey:          "Stocks",
		DistributionsKey: "Dividends",
		CurrentSheet:     "Stocks Today",
		HistorySheet:     "Stocks History",
		Lookbacks:        portfolio.StockLookbacks,
		YearChart:        chart.StockYear,
		DayChart:         chart.StockDay,
	}
}

// CryptoBook returns a crypto book with the dashboard's crypto defaults.
func CryptoBook(symbols []types.Symbol, client market.SeriesClient, src ledger.Source) Book {
	return Book{
		Class:            types.Crypto,
		Title:            "Crypto Summary",
		Symbols:          symbols,
		Client:           client,
		Current:          market.Window{Interval: market.Minute, Size: 480},
		History:          market.Window{Interval: market.Day, Size: 365},
		Ledger:           src,
		LotsKey:          "Crypto",
		DistributionsKey: "Crypto Distributions",
		CurrentSheet:     "Crypto Today",
		HistorySheet:     "Crypto History",
		Lookbacks:        portfolio.CryptoLookbacks,
		YearChart:        chart.CryptoYear,
		DayChart:         chart.CryptoDay,
	}
}
