package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/metrics"
)

const (
	// SplitTolerance is the interval width, in percentage points, below which
	// the ternary search stops.
	SplitTolerance = 1.0
	// SplitMaxIter caps probe rounds to bound quote traffic.
	SplitMaxIter = 12
)

// SplitUpdate receives the current best split after every probe round so a
// caller can reflect interim progress before final convergence.
type SplitUpdate func(plan *domain.SplitPlan)

// Splitter runs the two-way split ratio optimization between exactly two
// sources. The combined-output curve is assumed approximately unimodal over
// the distribution in [0,100]; behavior under multiple local maxima is
// unspecified by the upstream AMMs and not validated here.
type Splitter struct {
	srcA domain.LiquiditySource
	srcB domain.LiquiditySource
}

func NewSplitter(srcA, srcB domain.LiquiditySource) *Splitter {
	return &Splitter{srcA: srcA, srcB: srcB}
}

// FindBestSplit ternary-searches the distribution in [0,100] that maximizes
// the combined output of both legs. Each probe issues one quote per source
// for its share of totalAmount, concurrently. The search is cancellable via
// the epoch: once gen goes stale, no further probes are issued and neither
// onUpdate nor the result fires (ErrStaleResult is returned instead).
//
// Degenerate liquidity on an interior point contributes zero output for that
// leg, which steers the search toward a boundary distribution (0 or 100, i.e.
// no split) rather than failing.
func (s *Splitter) FindBestSplit(
	ctx context.Context,
	pair domain.Pair,
	totalAmount *big.Int,
	slippage float64,
	ep *Epoch,
	gen uint64,
	onUpdate SplitUpdate,
) (*domain.SplitPlan, error) {
	start := time.Now()
	defer func() {
		metrics.SplitSearchDuration.Observe(time.Since(start).Seconds())
	}()

	var best *domain.SplitPlan
	track := func(p *domain.SplitPlan) bool {
		if p == nil {
			return false
		}
		if best == nil || p.CombinedOut().Cmp(best.CombinedOut()) > 0 {
			best = p
			return true
		}
		return false
	}

	// A search that is already superseded must not issue a single probe.
	if !ep.Valid(gen) {
		return nil, ErrStaleResult
	}

	// Boundary evaluations first: they are the fallback when interior
	// liquidity is degenerate and the baseline any split must beat.
	track(s.evalSplit(ctx, pair, totalAmount, slippage, 0))
	if !ep.Valid(gen) {
		return nil, ErrStaleResult
	}
	track(s.evalSplit(ctx, pair, totalAmount, slippage, 100))
	if !ep.Valid(gen) {
		return nil, ErrStaleResult
	}
	if onUpdate != nil && best != nil {
		onUpdate(best)
	}

	lo, hi := 0.0, 100.0
	iters := 0
	for iters = 0; iters < SplitMaxIter && hi-lo > SplitTolerance; iters++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3

		if !ep.Valid(gen) {
			return nil, ErrStaleResult
		}
		f1 := s.evalSplit(ctx, pair, totalAmount, slippage, m1)
		if !ep.Valid(gen) {
			return nil, ErrStaleResult
		}
		f2 := s.evalSplit(ctx, pair, totalAmount, slippage, m2)
		if !ep.Valid(gen) {
			return nil, ErrStaleResult
		}

		// Discard the third of the interval adjacent to the lower probe.
		if combinedOf(f1).Cmp(combinedOf(f2)) < 0 {
			lo = m1
		} else {
			hi = m2
		}

		track(f1)
		track(f2)
		if onUpdate != nil && best != nil {
			onUpdate(best)
		}
	}

	metrics.SplitSearchIterations.Observe(float64(iters))

	if best == nil {
		return nil, ErrNoLiquidity
	}
	return best, nil
}

// evalSplit quotes both legs of one distribution concurrently. A leg with a
// zero share is skipped, a failing leg is a nil quote contributing zero.
func (s *Splitter) evalSplit(ctx context.Context, pair domain.Pair, total *big.Int, slippage, dist float64) *domain.SplitPlan {
	amtA := domain.MulRatio(total, dist/100)
	amtB := new(big.Int).Sub(total, amtA)

	var legA, legB *domain.Quote
	done := make(chan struct{})
	go func() {
		defer close(done)
		if amtB.Sign() > 0 {
			if q, err := s.srcB.GetQuote(ctx, pair, amtB, slippage); err == nil {
				legB = q
			}
		}
	}()
	if amtA.Sign() > 0 {
		if q, err := s.srcA.GetQuote(ctx, pair, amtA, slippage); err == nil {
			legA = q
		}
	}
	<-done

	if legA == nil && legB == nil {
		return nil
	}
	return &domain.SplitPlan{Distribution: dist, LegA: legA, LegB: legB}
}

func combinedOf(p *domain.SplitPlan) *big.Int {
	if p == nil {
		return new(big.Int)
	}
	return p.CombinedOut()
}
