package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/lqviet45/swap-engine/internal/domain"
)

// TestFindBestSplitNearBruteForce checks the ternary search lands within
// tolerance of an exhaustive 1%-grid scan over the same two curves.
func TestFindBestSplitNearBruteForce(t *testing.T) {
	// Asymmetric depths so the optimum is interior and not at 50.
	srcA := newFakeSource("deep", units(10_000), units(1_500))
	srcB := newFakeSource("shallow", units(2_000), units(290))
	splitter := NewSplitter(srcA, srcB)

	total := units(1_000)
	var ep Epoch
	gen := ep.Bump()

	plan, err := splitter.FindBestSplit(context.Background(), tstPair, total, 0.005, &ep, gen, nil)
	if err != nil {
		t.Fatalf("FindBestSplit failed: %v", err)
	}

	bruteBest := new(big.Int)
	for d := 0.0; d <= 100.0; d++ {
		if p := splitter.evalSplit(context.Background(), tstPair, total, 0.005, d); p != nil {
			if p.CombinedOut().Cmp(bruteBest) > 0 {
				bruteBest = p.CombinedOut()
			}
		}
	}

	got := plan.CombinedOut()
	// Within 0.5% of the grid optimum.
	floor := domain.MulRatio(bruteBest, 0.995)
	if got.Cmp(floor) < 0 {
		t.Errorf("split output %s below 99.5%% of brute-force optimum %s (dist=%.2f)",
			got, bruteBest, plan.Distribution)
	}
}

// TestFindBestSplitBeatsSingleSource: with two comparable curves, splitting
// must strictly beat routing everything through either source alone.
func TestFindBestSplitBeatsSingleSource(t *testing.T) {
	srcA := newFakeSource("a", units(5_000), units(750))
	srcB := newFakeSource("b", units(5_000), units(750))
	splitter := NewSplitter(srcA, srcB)

	total := units(1_000)
	var ep Epoch
	gen := ep.Bump()

	plan, err := splitter.FindBestSplit(context.Background(), tstPair, total, 0, &ep, gen, nil)
	if err != nil {
		t.Fatalf("FindBestSplit failed: %v", err)
	}
	if !plan.Interior() {
		t.Fatalf("expected interior distribution with symmetric curves, got %.2f", plan.Distribution)
	}

	allA, _ := srcA.GetQuote(context.Background(), tstPair, total, 0)
	if plan.CombinedOut().Cmp(allA.AmountOut) <= 0 {
		t.Errorf("split output %s does not beat single-source output %s", plan.CombinedOut(), allA.AmountOut)
	}
}

// TestFindBestSplitDegenerateSource: when one source has no route at all, the
// search falls back to the 0/100 boundary instead of failing.
func TestFindBestSplitDegenerateSource(t *testing.T) {
	srcA := newFakeSource("live", units(5_000), units(750))
	srcB := newFakeSource("dead", units(1), units(1))
	srcB.failQuote = true
	splitter := NewSplitter(srcA, srcB)

	total := units(100)
	var ep Epoch
	gen := ep.Bump()

	plan, err := splitter.FindBestSplit(context.Background(), tstPair, total, 0, &ep, gen, nil)
	if err != nil {
		t.Fatalf("FindBestSplit failed: %v", err)
	}
	if plan.Distribution != 100 {
		t.Errorf("expected all input routed to the live source, got distribution %.2f", plan.Distribution)
	}

	allA, _ := srcA.GetQuote(context.Background(), tstPair, total, 0)
	if plan.CombinedOut().Cmp(allA.AmountOut) != 0 {
		t.Errorf("boundary plan output %s != single-source output %s", plan.CombinedOut(), allA.AmountOut)
	}
}

func TestFindBestSplitBothSourcesDead(t *testing.T) {
	srcA := newFakeSource("a", units(1), units(1))
	srcA.failQuote = true
	srcB := newFakeSource("b", units(1), units(1))
	srcB.failQuote = true
	splitter := NewSplitter(srcA, srcB)

	var ep Epoch
	gen := ep.Bump()
	_, err := splitter.FindBestSplit(context.Background(), tstPair, units(100), 0, &ep, gen, nil)
	if err != ErrNoLiquidity {
		t.Errorf("expected ErrNoLiquidity, got %v", err)
	}
}

// TestFindBestSplitStaleGeneration: a superseded generation aborts without
// delivering a result or an update.
func TestFindBestSplitStaleGeneration(t *testing.T) {
	srcA := newFakeSource("a", units(5_000), units(750))
	srcB := newFakeSource("b", units(5_000), units(750))
	splitter := NewSplitter(srcA, srcB)

	var ep Epoch
	gen := ep.Bump()
	ep.Bump() // newer request supersedes gen

	updates := 0
	_, err := splitter.FindBestSplit(context.Background(), tstPair, units(100), 0, &ep, gen,
		func(*domain.SplitPlan) { updates++ })
	if err != ErrStaleResult {
		t.Fatalf("expected ErrStaleResult, got %v", err)
	}
	if updates != 0 {
		t.Errorf("stale search delivered %d interim updates", updates)
	}
	if srcA.quoteCalls != 0 || srcB.quoteCalls != 0 {
		t.Errorf("stale-at-entry search issued probes: srcA=%d srcB=%d", srcA.quoteCalls, srcB.quoteCalls)
	}
}

// TestFindBestSplitProbeBudget: quote traffic stays bounded by the iteration
// cap (2 boundary probes + 2 per round, 2 quotes per probe).
func TestFindBestSplitProbeBudget(t *testing.T) {
	srcA := newFakeSource("a", units(10_000), units(1_500))
	srcB := newFakeSource("b", units(2_000), units(290))
	splitter := NewSplitter(srcA, srcB)

	var ep Epoch
	gen := ep.Bump()
	if _, err := splitter.FindBestSplit(context.Background(), tstPair, units(1_000), 0, &ep, gen, nil); err != nil {
		t.Fatalf("FindBestSplit failed: %v", err)
	}

	maxProbes := 2 + 2*SplitMaxIter
	if srcA.quoteCalls > maxProbes || srcB.quoteCalls > maxProbes {
		t.Errorf("probe budget exceeded: srcA=%d srcB=%d max=%d", srcA.quoteCalls, srcB.quoteCalls, maxProbes)
	}
}
