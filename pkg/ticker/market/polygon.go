package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// Polygon fetches equity aggregates through the Polygon REST client, one
// listing per symbol.
type Polygon struct {
	Client      *polygon.Client
	Concurrency int
	Now         func() time.Time
}

func NewPolygon(apiKey string) *Polygon {
	return &Polygon{Client: polygon.New(apiKey), Concurrency: 4, Now: time.Now}
}

// NewPolygonWithClient uses hc for transport.
func NewPolygonWithClient(apiKey string, hc *http.Client) *Polygon {
	return &Polygon{Client: polygon.NewWithClient(apiKey, hc), Concurrency: 4, Now: time.Now}
}

func timespan(i Interval) (int, models.Timespan) {
	switch i {
	case Minute:
		return 1, models.Minute
	case FiveMinutes:
		return 5, models.Minute
	}
	return 1, models.Day
}

func (p *Polygon) FetchSeries(ctx context.Context, symbols []types.Symbol, w Window) (map[types.Symbol][]types.PricePoint, error) {
	symbols = types.Unique(symbols)
	out := make(map[types.Symbol][]types.PricePoint, len(symbols))
	if w.Size <= 0 {
		return out, nil
	}

	mult, span := timespan(w.Interval)
	now := p.Now()
	var mu sync.Mutex
	failed := SymbolErrors{}
	g, ctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			params := models.ListAggsParams{
				Ticker:     sym.String(),
				Multiplier: mult,
				Timespan:   span,
				From:       models.Millis(now.Add(-w.Span())),
				To:         models.Millis(now),
			}.WithOrder(models.Desc).WithLimit(w.Size)

			iter := p.Client.ListAggs(ctx, params)
			var points []types.PricePoint
			for len(points) < w.Size && iter.Next() {
				bar := iter.Item()
				points = append(points, types.PricePoint{
					Time:  time.Time(bar.Timestamp).Unix(),
					Close: decimal.NewFromFloat(bar.Close),
				})
			}
			if err := iter.Err(); err != nil {
				err = polygonError(sym, err)
				if !symbolScoped(err) {
					return err
				}
				mu.Lock()
				failed[sym] = err
				mu.Unlock()
				return nil
			}
			log.WithFields(log.Fields{"provider": "polygon", "symbol": sym}).Debugf("%d bars", len(points))
			if len(points) == 0 {
				return nil
			}
			mu.Lock()
			out[sym] = newestFirst(points, w.Size)
			mu.Unlock()
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

// polygonError maps client errors onto the package's error types.
func polygonError(sym types.Symbol, err error) error {
	path := "/v2/aggs/ticker/" + sym.String()
	var eres *models.ErrorResponse
	if errors.As(err, &eres) {
		return &StatusError{Provider: "polygon", Path: path, Code: eres.StatusCode, Body: eres.ErrorMessage}
	}
	var syntax *json.SyntaxError
	var mismatch *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &mismatch) {
		return &UnparseableResponseError{Provider: "polygon", Path: path, Raw: err.Error(), Err: err}
	}
	return fmt.Errorf("polygon %s: %w", sym, err)
}
