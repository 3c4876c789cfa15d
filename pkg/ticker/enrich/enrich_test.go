package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/ticker/pkg/ticker/types"
)

type mockQuotes struct{ mock.Mock }

func (m *mockQuotes) Get(ctx context.Context, sym types.Symbol) (types.Quote, error) {
	args := m.Called(ctx, sym)
	return args.Get(0).(types.Quote), args.Error(1)
}

func quote(p string) types.Quote {
	return types.Quote{Price: decimal.NewNullDecimal(decimal.RequireFromString(p))}
}

func TestCacheServiceServesWithinTTL(t *testing.T) {
	ctx := context.Background()
	next := &mockQuotes{}
	next.On("Get", ctx, types.Symbol("AAPL")).Return(quote("190"), nil).Once()
	next.On("Get", ctx, types.Symbol("AAPL")).Return(quote("191"), nil).Once()

	now := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	c := NewCacheService(next, time.Minute, 10)
	c.now = func() time.Time { return now }

	q, err := c.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "190", q.Price.Decimal.String())

	now = now.Add(30 * time.Second)
	q, _ = c.Get(ctx, "AAPL")
	assert.Equal(t, "190", q.Price.Decimal.String())

	now = now.Add(2 * time.Minute)
	q, _ = c.Get(ctx, "AAPL")
	assert.Equal(t, "191", q.Price.Decimal.String())
	next.AssertExpectations(t)
}

func TestCacheServiceEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	next := &mockQuotes{}
	next.On("Get", ctx, mock.Anything).Return(quote("1"), nil)

	c := NewCacheService(next, time.Hour, 2)
	for _, s := range []types.Symbol{"A", "B", "A", "C"} {
		_, err := c.Get(ctx, s)
		require.NoError(t, err)
	}
	assert.Contains(t, c.items, types.Symbol("A"))
	assert.Contains(t, c.items, types.Symbol("C"))
	assert.NotContains(t, c.items, types.Symbol("B"))
	next.AssertNumberOfCalls(t, "Get", 3)
}

func TestPricesReportsMissing(t *testing.T) {
	ctx := context.Background()
	next := &mockQuotes{}
	next.On("Get", ctx, types.Symbol("AAPL")).Return(quote("190.5"), nil)
	next.On("Get", ctx, types.Symbol("GONE")).Return(types.Quote{}, errors.New("not found"))
	next.On("Get", ctx, types.Symbol("HALT")).Return(types.Quote{Name: "Halted"}, nil)

	prices, missing := Prices(ctx, next, []types.Symbol{"AAPL", "GONE", "HALT", "AAPL"})
	require.Len(t, prices, 1)
	assert.True(t, decimal.RequireFromString("190.5").Equal(prices["AAPL"]))
	assert.Equal(t, []types.Symbol{"GONE", "HALT"}, missing)
}
