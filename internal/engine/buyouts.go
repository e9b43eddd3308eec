package engine

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/lqviet45/swap-engine/internal/domain"
)

// BuildBuyoutQuotes prices every auction offer and splits the result in two
// views. `all` holds every offer with a positive computable rate, sorted by
// rate descending, for informational display. `qualifying` is the subset that
// is individually affordable within inputBudget AND whose rate strictly beats
// bestSwapRate - only those are proposed as standalone execution options.
// Pure function, no I/O.
func BuildBuyoutQuotes(
	offers []domain.Offer,
	inputBudget *big.Int,
	outputToken domain.Token,
	bestSwapRate float64,
) (qualifying, all []*domain.BuyoutQuote) {
	now := time.Now()

	all = make([]*domain.BuyoutQuote, 0, len(offers))
	for _, offer := range offers {
		if offer.Expired(now) {
			continue
		}
		if offer.BuyoutPrice == nil || offer.BuyoutPrice.Sign() <= 0 {
			continue
		}
		if offer.AssetAmount == nil || offer.AssetAmount.Sign() <= 0 {
			continue
		}

		price := domain.ToFloat(offer.BuyoutPrice, offer.PaymentToken.Decimals)
		out := domain.ToFloat(offer.AssetAmount, outputToken.Decimals)
		if price <= 0 || out <= 0 {
			continue
		}
		rate := out / price

		all = append(all, &domain.BuyoutQuote{
			Offer: offer,
			Rate:  rate,
			Quote: &domain.Quote{
				SourceID:   "auction",
				SourceName: "Auction",
				Pair:       domain.Pair{In: offer.PaymentToken, Out: outputToken},
				AmountIn:   offer.BuyoutPrice,
				AmountOut:  offer.AssetAmount,
				// Buyouts are fixed price: no slippage, min equals expected.
				MinAmountOut: offer.AssetAmount,
				Route:        []string{offer.PaymentToken.Symbol, outputToken.Symbol},
				Kind:         domain.KindAuction,
				QuotedAt:     now,
			},
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Rate > all[j].Rate
	})

	qualifying = make([]*domain.BuyoutQuote, 0, len(all))
	for _, bq := range all {
		if inputBudget != nil && bq.Offer.BuyoutPrice.Cmp(inputBudget) <= 0 && bq.Rate > bestSwapRate {
			qualifying = append(qualifying, bq)
		}
	}
	return qualifying, all
}

// ComposeSplitTrade greedily walks the rate-descending qualifying list,
// consuming affordable offers against the remaining budget. An offer priced
// above the remaining budget is skipped whole (never partially used) but
// cheaper offers after it are still considered. Leftover budget is priced by
// scaling bestSwap's observed rate linearly, not re-quoted.
//
// A plan is returned only if its combined output strictly exceeds both the
// best pure-swap output and the best pure-buyout output; otherwise nil.
func ComposeSplitTrade(
	qualifying []*domain.BuyoutQuote,
	inputBudget *big.Int,
	bestSwap *domain.Quote,
	bestBuyoutOut *big.Int,
) *domain.SplitTradePlan {
	if len(qualifying) == 0 || inputBudget == nil || inputBudget.Sign() <= 0 {
		return nil
	}

	remaining := new(big.Int).Set(inputBudget)
	buyoutsOut := new(big.Int)
	used := make([]*domain.BuyoutQuote, 0, len(qualifying))
	for _, bq := range qualifying {
		if bq.Offer.BuyoutPrice.Cmp(remaining) > 0 {
			continue
		}
		remaining.Sub(remaining, bq.Offer.BuyoutPrice)
		buyoutsOut.Add(buyoutsOut, bq.Offer.AssetAmount)
		used = append(used, bq)
		if remaining.Sign() == 0 {
			break
		}
	}
	if len(used) == 0 {
		return nil
	}

	var remainderQuote *domain.Quote
	remainderOut := new(big.Int)
	if remaining.Sign() > 0 && bestSwap != nil && bestSwap.AmountIn.Sign() > 0 {
		remainderOut = domain.ScaleAmount(bestSwap.AmountOut, remaining, bestSwap.AmountIn)
		remainderQuote = &domain.Quote{
			SourceID:     bestSwap.SourceID,
			SourceName:   bestSwap.SourceName,
			Pair:         bestSwap.Pair,
			AmountIn:     remaining,
			AmountOut:    remainderOut,
			MinAmountOut: domain.ScaleAmount(bestSwap.MinAmountOut, remaining, bestSwap.AmountIn),
			PriceImpact:  bestSwap.PriceImpact,
			Route:        bestSwap.Route,
			Kind:         domain.KindSplitTrade,
			QuotedAt:     time.Now(),
		}
	}

	total := domain.SumAmounts(buyoutsOut, remainderOut)

	bestSwapOut := new(big.Int)
	if bestSwap != nil && bestSwap.AmountOut != nil {
		bestSwapOut = bestSwap.AmountOut
	}
	if bestBuyoutOut == nil {
		bestBuyoutOut = new(big.Int)
	}
	// Strict dominance over both pure alternatives, or no plan at all.
	if total.Cmp(bestSwapOut) <= 0 || total.Cmp(bestBuyoutOut) <= 0 {
		return nil
	}

	return &domain.SplitTradePlan{
		Buyouts:        used,
		BuyoutsOut:     buyoutsOut,
		Remainder:      remaining,
		RemainderQuote: remainderQuote,
		TotalOut:       total,
	}
}

// BestBuyoutOut returns the largest single-offer output among qualifying
// buyouts, the pure-buyout baseline a split trade must beat.
func BestBuyoutOut(qualifying []*domain.BuyoutQuote) *big.Int {
	best := new(big.Int)
	for _, bq := range qualifying {
		if bq.Offer.AssetAmount.Cmp(best) > 0 {
			best = bq.Offer.AssetAmount
		}
	}
	return best
}

func buyoutLabel(offerID uint64) string {
	return fmt.Sprintf("buyout:%d", offerID)
}
