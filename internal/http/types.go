package http

import (
	"fmt"
	"math/big"

	"github.com/lqviet45/swap-engine/internal/domain"
)

// PairQuery carries the token identities a request trades between. Token
// metadata (decimals, symbol) is owned by the presentation layer's registry,
// so requests spell it out explicitly.
type PairQuery struct {
	// Input token ledger identifier
	InputToken string `form:"inputToken" json:"inputToken" binding:"required" example:"ryjl3-tyaaa-aaaaa-aaaba-cai"`

	// Input token symbol (display only, defaults to the identifier)
	InputSymbol string `form:"inputSymbol" json:"inputSymbol" example:"ICP"`

	// Input token decimals. Default: 8
	InputDecimals *uint8 `form:"inputDecimals" json:"inputDecimals" example:"8"`

	// Output token ledger identifier
	OutputToken string `form:"outputToken" json:"outputToken" binding:"required" example:"mxzaz-hqaaa-aaaar-qaada-cai"`

	// Output token symbol (display only, defaults to the identifier)
	OutputSymbol string `form:"outputSymbol" json:"outputSymbol" example:"ckBTC"`

	// Output token decimals. Default: 8
	OutputDecimals *uint8 `form:"outputDecimals" json:"outputDecimals" example:"8"`
}

const defaultDecimals uint8 = 8

// Pair resolves the query into a domain pair.
func (q *PairQuery) Pair() domain.Pair {
	in := domain.Token{ID: q.InputToken, Symbol: q.InputSymbol, Decimals: defaultDecimals}
	if in.Symbol == "" {
		in.Symbol = q.InputToken
	}
	if q.InputDecimals != nil {
		in.Decimals = *q.InputDecimals
	}
	out := domain.Token{ID: q.OutputToken, Symbol: q.OutputSymbol, Decimals: defaultDecimals}
	if out.Symbol == "" {
		out.Symbol = q.OutputToken
	}
	if q.OutputDecimals != nil {
		out.Decimals = *q.OutputDecimals
	}
	return domain.Pair{In: in, Out: out}
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func amountString(a *big.Int) string {
	if a == nil {
		return "0"
	}
	return a.String()
}

// QuoteView is the wire form of one quote.
type QuoteView struct {
	Source              string   `json:"source"`
	SourceName          string   `json:"sourceName"`
	AmountIn            string   `json:"amountIn" example:"1000000000"`
	AmountOut           string   `json:"amountOut" example:"145320000"`
	MinAmountOut        string   `json:"minAmountOut" example:"144593400"`
	PriceImpactBps      uint16   `json:"priceImpactBps" example:"25"`
	PriceImpactSeverity string   `json:"priceImpactSeverity" enums:"none,low,moderate,high,extreme" example:"low"`
	Route               []string `json:"route"`
}

func newQuoteView(q *domain.Quote) *QuoteView {
	if q == nil {
		return nil
	}
	bps := domain.ImpactBps(q.PriceImpact)
	return &QuoteView{
		Source:              q.SourceID,
		SourceName:          q.SourceName,
		AmountIn:            amountString(q.AmountIn),
		AmountOut:           amountString(q.AmountOut),
		MinAmountOut:        amountString(q.MinAmountOut),
		PriceImpactBps:      bps,
		PriceImpactSeverity: string(domain.GetPriceImpactSeverity(bps)),
		Route:               q.Route,
	}
}

// BuyoutView is the wire form of one priced auction offer.
type BuyoutView struct {
	OfferID     uint64  `json:"offerId"`
	PriceToken  string  `json:"priceToken"`
	BuyoutPrice string  `json:"buyoutPrice"`
	AssetAmount string  `json:"assetAmount"`
	Rate        float64 `json:"rate"`
	ExpiresAt   int64   `json:"expiresAt,omitempty"`
}

func newBuyoutView(bq *domain.BuyoutQuote) BuyoutView {
	v := BuyoutView{
		OfferID:     bq.Offer.ID,
		PriceToken:  bq.Offer.PaymentToken.Symbol,
		BuyoutPrice: amountString(bq.Offer.BuyoutPrice),
		AssetAmount: amountString(bq.Offer.AssetAmount),
		Rate:        bq.Rate,
	}
	if !bq.Offer.ExpiresAt.IsZero() {
		v.ExpiresAt = bq.Offer.ExpiresAt.Unix()
	}
	return v
}

// PlanView is the wire form of one ranked candidate plan.
type PlanView struct {
	Key         string      `json:"key" example:"swap:sonic"`
	Kind        string      `json:"kind" enums:"swap,split,auction,split-trade"`
	ExpectedOut string      `json:"expectedOut" example:"145320000"`
	Swap        *QuoteView  `json:"swap,omitempty"`
	Split       *SplitView  `json:"split,omitempty"`
	Buyout      *BuyoutView `json:"buyout,omitempty"`
	SplitTrade  *HybridView `json:"splitTrade,omitempty"`
}

// SplitView is the wire form of a two-way split plan.
type SplitView struct {
	Distribution float64    `json:"distribution" example:"62.5"`
	LegA         *QuoteView `json:"legA,omitempty"`
	LegB         *QuoteView `json:"legB,omitempty"`
}

// HybridView is the wire form of a buyouts-plus-remainder plan.
type HybridView struct {
	Buyouts   []BuyoutView `json:"buyouts"`
	Remainder *QuoteView   `json:"remainder,omitempty"`
	TotalOut  string       `json:"totalOut"`
}

func newPlanView(p *domain.Plan) PlanView {
	v := PlanView{
		Key:         p.Key,
		Kind:        string(p.Kind),
		ExpectedOut: p.ExpectedOut().String(),
	}
	switch p.Kind {
	case domain.KindSwap:
		v.Swap = newQuoteView(p.Swap)
	case domain.KindSplit:
		v.Split = &SplitView{
			Distribution: p.Split.Distribution,
			LegA:         newQuoteView(p.Split.LegA),
			LegB:         newQuoteView(p.Split.LegB),
		}
	case domain.KindAuction:
		bv := newBuyoutView(p.Buyout)
		v.Buyout = &bv
	case domain.KindSplitTrade:
		hv := HybridView{TotalOut: amountString(p.SplitTrade.TotalOut)}
		for _, bq := range p.SplitTrade.Buyouts {
			hv.Buyouts = append(hv.Buyouts, newBuyoutView(bq))
		}
		hv.Remainder = newQuoteView(p.SplitTrade.RemainderQuote)
		v.SplitTrade = &hv
	}
	return v
}
