package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

// CryptoCompare fetches crypto bars, one request per symbol, priced in
// Quote (USD by default).
type CryptoCompare struct {
	APIKey      string
	BaseURL     string
	Quote       string
	Concurrency int
	HTTP        *http.Client
}

func NewCryptoCompare(apiKey string) *CryptoCompare {
	return &CryptoCompare{
		APIKey:      apiKey,
		BaseURL:     DefaultCryptoCompareURL,
		Quote:       "USD",
		Concurrency: 4,
		HTTP:        defaultHTTPClient(),
	}
}

type ccResponse struct {
	Response string          `json:"Response"`
	Message  string          `json:"Message"`
	Data     json.RawMessage `json:"Data"`
}

type ccData struct {
	Data []struct {
		Time  int64           `json:"time"`
		Close decimal.Decimal `json:"close"`
	} `json:"Data"`
}

func (c *CryptoCompare) FetchSeries(ctx context.Context, symbols []types.Symbol, w Window) (map[types.Symbol][]types.PricePoint, error) {
	symbols = types.Unique(symbols)
	out := make(map[types.Symbol][]types.PricePoint, len(symbols))
	if w.Size <= 0 {
		return out, nil
	}

	var mu sync.Mutex
	failed := SymbolErrors{}
	g, ctx := errgroup.WithContext(ctx)
	limit := c.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			points, ok, err := c.fetch(ctx, sym, w)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && symbolScoped(err):
				failed[sym] = err
				return nil
			case err != nil || !ok:
				return err
			}
			out[sym] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		return out, failed
	}
	return out, nil
}

func (c *CryptoCompare) fetch(ctx context.Context, sym types.Symbol, w Window) ([]types.PricePoint, bool, error) {
	path := "/data/v2/histoday"
	q := url.Values{}
	q.Set("fsym", sym.String())
	q.Set("tsym", c.Quote)
	q.Set("limit", strconv.Itoa(w.Size))
	switch w.Interval {
	case Minute:
		path = "/data/v2/histominute"
	case FiveMinutes:
		path = "/data/v2/histominute"
		q.Set("aggregate", "5")
	}
	header := http.Header{}
	header.Set("Authorization", "Apikey "+c.APIKey)

	var resp ccResponse
	if err := getJSON(ctx, c.HTTP, "cryptocompare", c.BaseURL+path+"?"+q.Encode(), header, &resp); err != nil {
		return nil, false, err
	}
	if resp.Response == "Error" {
		log.WithFields(log.Fields{"provider": "cryptocompare", "symbol": sym}).Warn(resp.Message)
		return nil, false, nil
	}
	var data ccData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, false, &UnparseableResponseError{Provider: "cryptocompare", Path: path, Raw: string(resp.Data), Err: err}
	}
	if len(data.Data) == 0 {
		return nil, false, nil
	}
	points := make([]types.PricePoint, 0, len(data.Data))
	for _, b := range data.Data {
		points = append(points, types.PricePoint{Time: b.Time, Close: b.Close})
	}
	return newestFirst(points, w.Size), true, nil
}
