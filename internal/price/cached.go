// Package price wraps the external USD price feed with a best-effort
// read-through cache: memory first, then the feed, with the BoltDB store as a
// fallback when the feed is unreachable.
package price

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lqviet45/swap-engine/internal/adapters/persistence"
	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/metrics"
)

type cachedPrice struct {
	usd float64
	at  time.Time
}

type CachedFeed struct {
	feed    domain.PriceFeed
	storage *persistence.Storage
	ttl     time.Duration

	mu  sync.Mutex
	mem map[string]cachedPrice
}

func NewCachedFeed(feed domain.PriceFeed, storage *persistence.Storage, ttl time.Duration) *CachedFeed {
	return &CachedFeed{
		feed:    feed,
		storage: storage,
		ttl:     ttl,
		mem:     make(map[string]cachedPrice),
	}
}

// USDPrice implements domain.PriceFeed.
func (f *CachedFeed) USDPrice(ctx context.Context, token domain.Token) (float64, error) {
	f.mu.Lock()
	if hit, ok := f.mem[token.ID]; ok && time.Since(hit.at) < f.ttl {
		f.mu.Unlock()
		metrics.PriceCacheHits.Inc()
		return hit.usd, nil
	}
	f.mu.Unlock()

	metrics.PriceCacheMisses.Inc()

	if f.feed != nil {
		usd, err := f.feed.USDPrice(ctx, token)
		if err == nil && usd > 0 {
			f.store(token, usd)
			return usd, nil
		}
		log.Debug().Err(err).Str("token", token.Symbol).Msg("[price] feed miss, trying stored price")
	}

	// Feed unavailable: serve the last persisted price regardless of age.
	if f.storage != nil {
		if usd, _, err := f.storage.LoadPrice(token.ID); err == nil && usd > 0 {
			return usd, nil
		}
	}
	return 0, domain.ErrNoPrice
}

func (f *CachedFeed) store(token domain.Token, usd float64) {
	f.mu.Lock()
	f.mem[token.ID] = cachedPrice{usd: usd, at: time.Now()}
	f.mu.Unlock()

	if f.storage != nil {
		if err := f.storage.SavePrice(token.ID, usd); err != nil {
			log.Debug().Err(err).Str("token", token.Symbol).Msg("[price] failed to persist price")
		}
	}
}
