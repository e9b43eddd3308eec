package engine

import (
	"context"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lqviet45/swap-engine/internal/domain"
)

const (
	// convergeMaxRounds caps refinement; past it the loop disables itself
	// unconditionally.
	convergeMaxRounds = 4
	// convergeInitialBuffer pads the first input estimate.
	convergeInitialBuffer = 1.05
	// convergeOvershoot pads every rescale so the next round lands at or
	// slightly above target.
	convergeOvershoot = 1.03
	// convergeAcceptRatio: a best output at or above 98% of target is close
	// enough.
	convergeAcceptRatio = 0.98
)

// Converger back-solves an input amount that approximates a desired output.
// It prefers a cross-rate from independent USD prices of both tokens and
// falls back to the best spot price among sources. After each quote refresh
// it rescales the input, at most convergeMaxRounds times, and disables itself
// the instant the input no longer matches the value it last set - it never
// fights a manual edit.
type Converger struct {
	mu         sync.Mutex
	target     *big.Int
	feed       domain.PriceFeed
	aggregator *Aggregator

	rounds   int
	lastSet  *big.Int
	disabled bool
}

func NewConverger(target *big.Int, feed domain.PriceFeed, aggregator *Aggregator) *Converger {
	return &Converger{target: target, feed: feed, aggregator: aggregator}
}

// InitialInput estimates the starting input amount for the pair, with a +5%
// safety buffer. Returns nil when no price signal is available at all.
func (c *Converger) InitialInput(ctx context.Context, pair domain.Pair) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	targetOut := domain.ToFloat(c.target, pair.Out.Decimals)
	if targetOut <= 0 {
		c.disabled = true
		return nil
	}

	rate := c.crossRate(ctx, pair)
	if rate <= 0 {
		rate = c.aggregator.BestSpotPrice(ctx, pair)
	}
	if rate <= 0 {
		log.Debug().Str("pair", pair.String()).Msg("[converger] no price signal for initial estimate")
		c.disabled = true
		return nil
	}

	input := domain.FromFloat(targetOut/rate*convergeInitialBuffer, pair.In.Decimals)
	c.lastSet = new(big.Int).Set(input)
	return input
}

// crossRate derives output-per-input from USD prices of both tokens.
func (c *Converger) crossRate(ctx context.Context, pair domain.Pair) float64 {
	if c.feed == nil {
		return 0
	}
	inUSD, err := c.feed.USDPrice(ctx, pair.In)
	if err != nil || inUSD <= 0 {
		return 0
	}
	outUSD, err := c.feed.USDPrice(ctx, pair.Out)
	if err != nil || outUSD <= 0 {
		return 0
	}
	return inUSD / outUSD
}

// Observe compares the best currently achievable output against the target
// after a quote refresh. It returns the rescaled input and true while the
// loop is refining; (nil, false) once it has disabled itself.
func (c *Converger) Observe(currentInput, bestOut *big.Int) (*big.Int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled {
		return nil, false
	}
	// A manual edit takes priority over the loop, permanently.
	if c.lastSet == nil || currentInput == nil || currentInput.Cmp(c.lastSet) != 0 {
		c.disabled = true
		return nil, false
	}
	if bestOut == nil || bestOut.Sign() <= 0 {
		c.disabled = true
		return nil, false
	}

	// Accept when within 2% of target, at or above.
	accept := domain.MulRatio(c.target, convergeAcceptRatio)
	if bestOut.Cmp(accept) >= 0 {
		c.disabled = true
		return nil, false
	}

	if c.rounds >= convergeMaxRounds {
		c.disabled = true
		return nil, false
	}
	c.rounds++

	scale := domain.ToFloat(c.target, 0) / domain.ToFloat(bestOut, 0) * convergeOvershoot
	next := domain.MulRatio(currentInput, scale)
	c.lastSet = new(big.Int).Set(next)

	log.Debug().Int("round", c.rounds).Str("input", next.String()).
		Msg("[converger] rescaled input toward target output")
	return next, true
}

// Active reports whether the loop is still refining.
func (c *Converger) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disabled
}
