package domain

import (
	"fmt"
	"math/big"
	"time"
)

// SplitPlan is a two-way distribution of one trade across two sources.
// Distribution is the percentage routed to LegA, in [0,100]. It has no
// identity beyond its inputs: any change to pair, amount, slippage or
// distribution requires recomputation.
type SplitPlan struct {
	Distribution float64
	LegA         *Quote
	LegB         *Quote
}

// CombinedOut is the sum of both legs' expected outputs. Either leg may be
// nil at a boundary distribution (0 or 100).
func (p *SplitPlan) CombinedOut() *big.Int {
	if p == nil {
		return new(big.Int)
	}
	var a, b *big.Int
	if p.LegA != nil {
		a = p.LegA.AmountOut
	}
	if p.LegB != nil {
		b = p.LegB.AmountOut
	}
	return SumAmounts(a, b)
}

// Interior reports whether the distribution actually splits the trade.
func (p *SplitPlan) Interior() bool {
	return p != nil && p.Distribution > 0 && p.Distribution < 100
}

// SplitTradePlan is a hybrid plan: consume a stack of buyouts, then route the
// leftover budget through the best swap source.
type SplitTradePlan struct {
	Buyouts    []*BuyoutQuote
	BuyoutsOut *big.Int
	// Remainder is the input budget left after the buyout stack; its output is
	// estimated by scaling the best swap quote linearly, not re-quoted.
	Remainder      *big.Int
	RemainderQuote *Quote
	TotalOut       *big.Int
}

// Plan is the tagged union of executable candidates. Exactly one of the
// variant fields matching Kind is set. Once selected for execution a Plan is
// latched: background recomputation never mutates it.
type Plan struct {
	Key        string
	Kind       PlanKind
	Swap       *Quote
	Split      *SplitPlan
	Buyout     *BuyoutQuote
	SplitTrade *SplitTradePlan
}

// ExpectedOut is the output the plan is ranked by.
func (p *Plan) ExpectedOut() *big.Int {
	switch p.Kind {
	case KindSwap:
		if p.Swap != nil {
			return p.Swap.AmountOut
		}
	case KindSplit:
		return p.Split.CombinedOut()
	case KindAuction:
		if p.Buyout != nil && p.Buyout.Quote != nil {
			return p.Buyout.Quote.AmountOut
		}
	case KindSplitTrade:
		if p.SplitTrade != nil {
			return p.SplitTrade.TotalOut
		}
	}
	return new(big.Int)
}

// NewSwapPlan wraps a source quote as a candidate plan.
func NewSwapPlan(q *Quote) *Plan {
	return &Plan{Key: "swap:" + q.SourceID, Kind: KindSwap, Swap: q}
}

// NewSplitPlan wraps a two-way split as a candidate plan.
func NewSplitPlan(sp *SplitPlan) *Plan {
	return &Plan{Key: "split", Kind: KindSplit, Split: sp}
}

// NewBuyoutPlan wraps one auction buyout as a candidate plan.
func NewBuyoutPlan(bq *BuyoutQuote) *Plan {
	return &Plan{Key: fmt.Sprintf("buyout:%d", bq.Offer.ID), Kind: KindAuction, Buyout: bq}
}

// NewSplitTradePlan wraps a hybrid buyout+swap plan as a candidate plan.
func NewSplitTradePlan(st *SplitTradePlan) *Plan {
	return &Plan{Key: "split-trade", Kind: KindSplitTrade, SplitTrade: st}
}

// ProgressEvent reports one step of one leg of a running execution attempt.
type ProgressEvent struct {
	AttemptID string
	Leg       string
	Step      string
	At        time.Time
}

// LegResult is the outcome of one independent leg of an execution attempt.
// Failures are never swallowed: a failed leg is reported alongside the
// succeeded ones.
type LegResult struct {
	ID        string
	Leg       string
	Success   bool
	AmountOut *big.Int
	Err       error
}

// ExecutionResult aggregates all legs of one attempt. Success is true iff
// every leg succeeded; AmountOut is the sum of succeeded legs' outputs, so a
// partial fill is representable.
type ExecutionResult struct {
	AttemptID string
	Success   bool
	AmountOut *big.Int
	Legs      []LegResult
}
