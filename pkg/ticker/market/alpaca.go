package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

const DefaultAlpacaURL = "https://data.alpaca.markets"

// Alpaca fetches equity bars from the Alpaca market data API. All symbols
// go in one request, paged until every symbol has a full window.
type Alpaca struct {
	KeyID     string
	SecretKey string
	BaseURL   string
	// Feed selects the data feed ("iex", "sip"); empty uses the account default.
	Feed string
	HTTP *http.Client
	Now  func() time.Time
}

func NewAlpaca(keyID, secretKey string) *Alpaca {
	return &Alpaca{
		KeyID:     keyID,
		SecretKey: secretKey,
		BaseURL:   DefaultAlpacaURL,
		HTTP:      defaultHTTPClient(),
		Now:       time.Now,
	}
}

type alpacaBar struct {
	T time.Time       `json:"t"`
	C decimal.Decimal `json:"c"`
}

type alpacaBarsResponse struct {
	Bars          map[string][]alpacaBar `json:"bars"`
	NextPageToken *string                `json:"next_page_token"`
}

const alpacaPageLimit = 10000

func (a *Alpaca) FetchSeries(ctx context.Context, symbols []types.Symbol, w Window) (map[types.Symbol][]types.PricePoint, error) {
	symbols = types.Unique(symbols)
	out := make(map[types.Symbol][]types.PricePoint, len(symbols))
	if len(symbols) == 0 || w.Size <= 0 {
		return out, nil
	}

	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.String())
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(names, ","))
	q.Set("timeframe", string(w.Interval))
	q.Set("start", a.Now().Add(-w.Span()).UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(alpacaPageLimit))
	q.Set("sort", "desc")
	if a.Feed != "" {
		q.Set("feed", a.Feed)
	}
	header := http.Header{}
	header.Set("APCA-API-KEY-ID", a.KeyID)
	header.Set("APCA-API-SECRET-KEY", a.SecretKey)

	for {
		var page alpacaBarsResponse
		if err := getJSON(ctx, a.HTTP, "alpaca", a.BaseURL+"/v2/stocks/bars?"+q.Encode(), header, &page); err != nil {
			return nil, err
		}
		for name, bars := range page.Bars {
			sym := types.Symbol(name)
			for _, b := range bars {
				out[sym] = append(out[sym], types.PricePoint{Time: b.T.Unix(), Close: b.C})
			}
		}
		if page.NextPageToken == nil || *page.NextPageToken == "" || full(out, symbols, w.Size) {
			break
		}
		q.Set("page_token", *page.NextPageToken)
	}

	for sym, points := range out {
		out[sym] = newestFirst(points, w.Size)
	}
	return out, nil
}

func full(got map[types.Symbol][]types.PricePoint, symbols []types.Symbol, size int) bool {
	for _, s := range symbols {
		if len(got[s]) < size {
			return false
		}
	}
	return true
}

func (a *Alpaca) String() string { return fmt.Sprintf("alpaca(%s)", a.BaseURL) }
