package engine

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/metrics"
)

// Aggregator fans one (pair, amount) request out to every registered source
// concurrently. Latency is bounded by the slowest source, not the sum.
type Aggregator struct {
	registry *Registry
}

func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// GetQuotes queries all sources for the pair. A source that errors or has no
// route is excluded silently; an empty result is not an error. Quotes are
// returned sorted by expected output descending.
func (a *Aggregator) GetQuotes(ctx context.Context, pair domain.Pair, amountIn *big.Int, slippage float64) []*domain.Quote {
	start := time.Now()

	sources := a.registry.Sources()
	quotes := make([]*domain.Quote, 0, len(sources))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src domain.LiquiditySource) {
			defer wg.Done()
			q, err := src.GetQuote(ctx, pair, amountIn, slippage)
			if err != nil || q == nil || q.AmountOut == nil || q.AmountOut.Sign() <= 0 {
				log.Debug().Err(err).Str("source", src.ID()).Str("pair", pair.String()).
					Msg("[aggregator] source excluded from quote set")
				return
			}
			mu.Lock()
			quotes = append(quotes, q)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].AmountOut.Cmp(quotes[j].AmountOut) > 0
	})

	status := "ok"
	if len(quotes) == 0 {
		status = "empty"
	}
	metrics.QuoteRequests.WithLabelValues(status).Inc()
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	metrics.SourcesQuoted.Observe(float64(len(quotes)))

	return quotes
}

// SpotPrices returns each source's indicative rate for the pair, keyed by
// source ID. Failing sources are omitted.
func (a *Aggregator) SpotPrices(ctx context.Context, pair domain.Pair) map[string]float64 {
	sources := a.registry.Sources()
	prices := make(map[string]float64, len(sources))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src domain.LiquiditySource) {
			defer wg.Done()
			rate, err := src.SpotPrice(ctx, pair)
			if err != nil || rate <= 0 {
				log.Debug().Err(err).Str("source", src.ID()).Str("pair", pair.String()).
					Msg("[aggregator] source excluded from spot prices")
				return
			}
			mu.Lock()
			prices[src.ID()] = rate
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return prices
}

// BestSpotPrice returns the highest spot rate among sources, or 0 when no
// source serves the pair.
func (a *Aggregator) BestSpotPrice(ctx context.Context, pair domain.Pair) float64 {
	best := 0.0
	for _, rate := range a.SpotPrices(ctx, pair) {
		if rate > best {
			best = rate
		}
	}
	return best
}
