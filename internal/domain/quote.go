package domain

import (
	"math/big"
	"time"
)

// PlanKind discriminates the candidate plan variants.
type PlanKind string

const (
	KindSwap       PlanKind = "swap"
	KindSplit      PlanKind = "split"
	KindAuction    PlanKind = "auction"
	KindSplitTrade PlanKind = "split-trade"
)

// Fee is one transfer or protocol fee attached to a quote.
type Fee struct {
	Kind   string
	Token  string
	Amount *big.Int
}

// Quote is one priced execution option for a pair and input amount.
// Quotes are immutable once produced; recomputation yields a new Quote.
type Quote struct {
	SourceID   string
	SourceName string
	Pair       Pair
	AmountIn   *big.Int
	AmountOut  *big.Int
	// MinAmountOut is slippage-adjusted for swaps and equals AmountOut for
	// auction buyouts, which have no slippage concept.
	MinAmountOut *big.Int
	PriceImpact  float64
	Fees         []Fee
	Route        []string // hop symbols, len > 1 means multi-hop
	Kind         PlanKind
	QuotedAt     time.Time
}

// Rate returns the decimal-normalized output per unit of input.
func (q *Quote) Rate() float64 {
	if q == nil {
		return 0
	}
	in := ToFloat(q.AmountIn, q.Pair.In.Decimals)
	if in == 0 {
		return 0
	}
	return ToFloat(q.AmountOut, q.Pair.Out.Decimals) / in
}

// MultiHop reports whether the quote routes through an intermediate token.
func (q *Quote) MultiHop() bool {
	return q != nil && len(q.Route) > 2
}
