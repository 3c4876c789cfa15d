// Package enrich looks up live quotes for symbols.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

// QuoteService fetches the live quote for a symbol.
type QuoteService interface {
	Get(ctx context.Context, sym types.Symbol) (types.Quote, error)
}

// YFService implements QuoteService using yf-go.
type YFService struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewYFService(timeout time.Duration) *YFService {
	return &YFService{client: yfgo.NewClient(), timeout: timeout}
}

func (s *YFService) Get(ctx context.Context, sym types.Symbol) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, sym.String(), []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return types.Quote{}, err
	}
	if res.Price == nil {
		return types.Quote{}, fmt.Errorf("no price for %s", sym)
	}

	var q types.Quote
	if p := res.Price.RegularMarketPrice; p.Raw != nil {
		q.Price = decimal.NewNullDecimal(decimal.NewFromFloat(*p.Raw))
	} else if p.Fmt != "" {
		if d, err := decimal.NewFromString(p.Fmt); err == nil {
			q.Price = decimal.NewNullDecimal(d)
		}
	}
	// fraction of the previous close as Yahoo reports it
	if cp := res.Price.RegularMarketChangePercent; cp.Raw != nil {
		q.ChangePct = decimal.NewNullDecimal(decimal.NewFromFloat(*cp.Raw))
	}
	if res.Price.ShortName != "" {
		q.Name = res.Price.ShortName
	} else {
		q.Name = res.Price.LongName
	}
	return q, nil
}

// Prices looks up each symbol in turn and returns the ones with a known
// price. Symbols that fail are returned in missing and logged.
func Prices(ctx context.Context, svc QuoteService, symbols []types.Symbol) (map[types.Symbol]decimal.Decimal, []types.Symbol) {
	out := make(map[types.Symbol]decimal.Decimal, len(symbols))
	var missing []types.Symbol
	for _, sym := range types.Unique(symbols) {
		q, err := svc.Get(ctx, sym)
		if err != nil || !q.Price.Valid {
			if err != nil {
				log.WithField("symbol", sym).Warnf("quote: %v", err)
			}
			missing = append(missing, sym)
			continue
		}
		out[sym] = q.Price.Decimal
	}
	return out, missing
}

// CacheService decorates a QuoteService with TTL+LRU cache.
type CacheService struct {
	next QuoteService
	ttl  time.Duration
	size int
	now  func() time.Time

	mu    sync.Mutex
	items map[types.Symbol]cacheEntry
	order []types.Symbol // oldest at index 0
}

type cacheEntry struct {
	at time.Time
	q  types.Quote
}

func NewCacheService(next QuoteService, ttl time.Duration, size int) *CacheService {
	return &CacheService{next: next, ttl: ttl, size: size, now: time.Now, items: make(map[types.Symbol]cacheEntry)}
}

func (c *CacheService) Get(ctx context.Context, sym types.Symbol) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, nil
	}
	now := c.now()
	c.mu.Lock()
	if ent, ok := c.items[sym]; ok {
		if now.Sub(ent.at) <= c.ttl {
			c.touchLocked(sym)
			q := ent.q
			c.mu.Unlock()
			return q, nil
		}
		delete(c.items, sym)
		c.removeLocked(sym)
	}
	c.mu.Unlock()

	q, err := c.next.Get(ctx, sym)
	if err != nil {
		return q, err
	}
	c.mu.Lock()
	if _, ok := c.items[sym]; !ok {
		c.order = append(c.order, sym)
	}
	c.items[sym] = cacheEntry{at: now, q: q}
	for len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
	c.mu.Unlock()
	return q, nil
}

func (c *CacheService) touchLocked(sym types.Symbol) {
	c.removeLocked(sym)
	c.order = append(c.order, sym)
}

func (c *CacheService) removeLocked(sym types.Symbol) {
	for i, v := range c.order {
		if v == sym {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
