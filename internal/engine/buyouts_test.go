package engine

import (
	"math/big"
	"testing"
	"time"

	"github.com/lqviet45/swap-engine/internal/domain"
)

func offer(id uint64, price, asset *big.Int) domain.Offer {
	return domain.Offer{ID: id, PaymentToken: tokICP, BuyoutPrice: price, AssetAmount: asset}
}

func TestBuildBuyoutQuotesFiltersAndSorts(t *testing.T) {
	expired := offer(1, units(10), units(20))
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	// Rates: offer 2 = 1.5, offer 3 = 3.0, offer 5 = 2.0 but priced above the
	// budget. Offer 4 has a zero price and offer 6 no asset amount; both drop.
	offers := []domain.Offer{
		expired,
		offer(2, units(10), units(15)),
		offer(3, units(10), units(30)),
		offer(4, new(big.Int), units(5)),
		offer(5, units(1_000_000), units(2e6)),
		{ID: 6, PaymentToken: tokICP, BuyoutPrice: units(10)},
	}

	budget := units(100)
	qualifying, all := BuildBuyoutQuotes(offers, budget, tokBTC, 1.8)

	if len(all) != 3 {
		t.Fatalf("expected 3 priced offers, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Rate < all[i].Rate {
			t.Errorf("all[%d].Rate=%f not descending vs all[%d].Rate=%f", i-1, all[i-1].Rate, i, all[i].Rate)
		}
	}

	// Only offer 3 both beats the 1.8 swap rate and fits the budget: offer 2's
	// rate is below, offer 5 costs more than the whole budget.
	if len(qualifying) != 1 || qualifying[0].Offer.ID != 3 {
		t.Fatalf("expected only offer 3 to qualify, got %+v", qualifying)
	}
}

func TestBuildBuyoutQuotesNilBudgetIsViewOnly(t *testing.T) {
	offers := []domain.Offer{offer(1, units(10), units(30))}
	qualifying, all := BuildBuyoutQuotes(offers, nil, tokBTC, 0)
	if len(all) != 1 {
		t.Fatalf("expected 1 priced offer, got %d", len(all))
	}
	if len(qualifying) != 0 {
		t.Errorf("nil budget must not qualify offers for execution, got %d", len(qualifying))
	}
}

func bestSwapQuote(amountIn, amountOut *big.Int) *domain.Quote {
	return &domain.Quote{
		SourceID:     "amm",
		Pair:         tstPair,
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		MinAmountOut: amountOut,
		Kind:         domain.KindSwap,
	}
}

// TestComposeSplitTradeSkipsUnaffordableOffer: the greedy walk skips an offer
// priced above the remaining budget but keeps considering cheaper ones.
func TestComposeSplitTradeSkipsUnaffordableOffer(t *testing.T) {
	qualifying := []*domain.BuyoutQuote{
		newBuyout(1, units(60), units(200), tokBTC), // taken, remaining 40
		newBuyout(2, units(50), units(150), tokBTC), // skipped, too expensive
		newBuyout(3, units(30), units(80), tokBTC),  // taken, remaining 10
	}
	budget := units(100)
	// Swap rate 1:1 so the remainder adds exactly 10.
	bestSwap := bestSwapQuote(units(100), units(100))

	plan := ComposeSplitTrade(qualifying, budget, bestSwap, BestBuyoutOut(qualifying))
	if plan == nil {
		t.Fatal("expected a split-trade plan")
	}
	if len(plan.Buyouts) != 2 || plan.Buyouts[0].Offer.ID != 1 || plan.Buyouts[1].Offer.ID != 3 {
		t.Fatalf("expected offers 1 and 3 consumed, got %+v", plan.Buyouts)
	}
	if plan.Remainder.Cmp(units(10)) != 0 {
		t.Errorf("remainder = %s, want %s", plan.Remainder, units(10))
	}
	if plan.BuyoutsOut.Cmp(units(280)) != 0 {
		t.Errorf("buyouts output = %s, want %s", plan.BuyoutsOut, units(280))
	}
	if plan.TotalOut.Cmp(units(290)) != 0 {
		t.Errorf("total output = %s, want %s", plan.TotalOut, units(290))
	}

	// Budget invariant: consumed prices plus remainder equal the input budget.
	spent := new(big.Int)
	for _, bq := range plan.Buyouts {
		spent.Add(spent, bq.Offer.BuyoutPrice)
	}
	spent.Add(spent, plan.Remainder)
	if spent.Cmp(budget) != 0 {
		t.Errorf("spent+remainder = %s, want budget %s", spent, budget)
	}
}

// TestComposeSplitTradeRateTieStacking: three offers priced 50/80/120 for
// outputs 60/100/150 (rates 1.2/1.25/1.25) under a 150 budget. Selection is
// rate-descending with stable order on ties, so the 80 offer goes first, the
// 120 no longer fits, and the 50 still does.
func TestComposeSplitTradeRateTieStacking(t *testing.T) {
	offers := []domain.Offer{
		offer(1, units(50), units(60)),
		offer(2, units(80), units(100)),
		offer(3, units(120), units(150)),
	}
	budget := units(150)
	qualifying, _ := BuildBuyoutQuotes(offers, budget, tokBTC, 0.1)

	plan := ComposeSplitTrade(qualifying, budget, bestSwapQuote(units(150), units(15)), BestBuyoutOut(qualifying))
	if plan == nil {
		t.Fatal("expected a split-trade plan")
	}
	if len(plan.Buyouts) != 2 || plan.Buyouts[0].Offer.ID != 2 || plan.Buyouts[1].Offer.ID != 1 {
		t.Fatalf("expected offers 2 then 1 consumed, got %+v", plan.Buyouts)
	}
	spent := new(big.Int).Add(units(80), units(50))
	if spent.Cmp(budget) > 0 {
		t.Error("selected cost exceeds budget")
	}
	if plan.BuyoutsOut.Cmp(units(160)) != 0 {
		t.Errorf("stacked output = %s, want %s", plan.BuyoutsOut, units(160))
	}
}

// TestComposeSplitTradeExactBudgetNoRemainder: two offers consume the budget
// exactly. Their combined output beats both the pure swap and the best single
// buyout, so the plan stands - with no remainder leg.
func TestComposeSplitTradeExactBudgetNoRemainder(t *testing.T) {
	qualifying := []*domain.BuyoutQuote{
		newBuyout(1, units(60), units(150), tokBTC),
		newBuyout(2, units(40), units(100), tokBTC),
	}
	plan := ComposeSplitTrade(qualifying, units(100), bestSwapQuote(units(100), units(100)), BestBuyoutOut(qualifying))
	if plan == nil {
		t.Fatal("expected a split-trade plan")
	}
	if plan.Remainder.Sign() != 0 {
		t.Errorf("expected zero remainder, got %s", plan.Remainder)
	}
	if plan.RemainderQuote != nil {
		t.Error("expected no remainder quote for a fully consumed budget")
	}
	if plan.TotalOut.Cmp(units(250)) != 0 {
		t.Errorf("total output = %s, want %s", plan.TotalOut, units(250))
	}
}

// TestComposeSplitTradeSingleOfferIsNotAHybrid: a budget consumed entirely by
// one offer yields exactly the pure-buyout output, which the composer must
// reject - that candidate already exists as a standalone buyout plan.
func TestComposeSplitTradeSingleOfferIsNotAHybrid(t *testing.T) {
	qualifying := []*domain.BuyoutQuote{
		newBuyout(1, units(100), units(250), tokBTC),
	}
	plan := ComposeSplitTrade(qualifying, units(100), bestSwapQuote(units(100), units(100)), BestBuyoutOut(qualifying))
	if plan != nil {
		t.Errorf("expected nil plan when the hybrid only ties the pure buyout, got total %s", plan.TotalOut)
	}
}

// TestComposeSplitTradeRequiresStrictDominance: a hybrid that merely ties the
// best pure swap (or pure buyout) is discarded.
func TestComposeSplitTradeRequiresStrictDominance(t *testing.T) {
	qualifying := []*domain.BuyoutQuote{
		newBuyout(1, units(50), units(50), tokBTC),
	}
	// Swap rate 1:1 over the whole budget yields exactly the hybrid's total.
	plan := ComposeSplitTrade(qualifying, units(100), bestSwapQuote(units(100), units(100)), BestBuyoutOut(qualifying))
	if plan != nil {
		t.Errorf("expected nil plan when hybrid only ties the pure swap, got total %s", plan.TotalOut)
	}
}

func TestComposeSplitTradeMustBeatBestBuyout(t *testing.T) {
	qualifying := []*domain.BuyoutQuote{
		newBuyout(1, units(90), units(500), tokBTC),
	}
	// Hybrid = 500 + 10 remainder at a terrible swap rate; pure buyout alone
	// already yields 500 for less input, and 510 > 500, so this still passes -
	// force failure with a huge bestBuyoutOut baseline instead.
	plan := ComposeSplitTrade(qualifying, units(100), bestSwapQuote(units(100), units(10)), units(600))
	if plan != nil {
		t.Errorf("expected nil plan when hybrid does not beat the pure buyout baseline")
	}
}

func TestComposeSplitTradeEmptyInputs(t *testing.T) {
	if ComposeSplitTrade(nil, units(100), bestSwapQuote(units(100), units(100)), nil) != nil {
		t.Error("expected nil plan for no qualifying buyouts")
	}
	q := []*domain.BuyoutQuote{newBuyout(1, units(10), units(30), tokBTC)}
	if ComposeSplitTrade(q, nil, bestSwapQuote(units(100), units(100)), nil) != nil {
		t.Error("expected nil plan for nil budget")
	}
}
