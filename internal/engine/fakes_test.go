package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/lqviet45/swap-engine/internal/domain"
)

var (
	tokICP  = domain.Token{ID: "icp", Symbol: "ICP", Decimals: 8}
	tokBTC  = domain.Token{ID: "ckbtc", Symbol: "ckBTC", Decimals: 8}
	tstPair = domain.Pair{In: tokICP, Out: tokBTC}
)

func units(n int64) *big.Int {
	out := big.NewInt(n)
	return out.Mul(out, big.NewInt(100_000_000))
}

// fakeSource quotes a constant-product curve: out = reserveOut*in/(reserveIn+in).
// Deterministic, monotone and concave, so a two-source combined-output curve
// is unimodal over the distribution.
type fakeSource struct {
	id         string
	reserveIn  *big.Int
	reserveOut *big.Int

	failQuote bool
	execErr   error
	execOut   *big.Int

	mu         sync.Mutex
	quoteCalls int
}

func newFakeSource(id string, reserveIn, reserveOut *big.Int) *fakeSource {
	return &fakeSource{id: id, reserveIn: reserveIn, reserveOut: reserveOut}
}

func (s *fakeSource) ID() string   { return s.id }
func (s *fakeSource) Name() string { return s.id }

func (s *fakeSource) SpotPrice(ctx context.Context, pair domain.Pair) (float64, error) {
	if s.failQuote {
		return 0, errors.New("no route")
	}
	return domain.ToFloat(s.reserveOut, pair.Out.Decimals) / domain.ToFloat(s.reserveIn, pair.In.Decimals), nil
}

func (s *fakeSource) GetQuote(ctx context.Context, pair domain.Pair, amountIn *big.Int, slippage float64) (*domain.Quote, error) {
	s.mu.Lock()
	s.quoteCalls++
	s.mu.Unlock()

	if s.failQuote {
		return nil, errors.New("no route")
	}
	den := new(big.Int).Add(s.reserveIn, amountIn)
	out := new(big.Int).Mul(s.reserveOut, amountIn)
	out.Quo(out, den)

	return &domain.Quote{
		SourceID:     s.id,
		SourceName:   s.id,
		Pair:         pair,
		AmountIn:     amountIn,
		AmountOut:    out,
		MinAmountOut: domain.ApplySlippage(out, slippage),
		Route:        []string{pair.In.Symbol, pair.Out.Symbol},
		Kind:         domain.KindSwap,
		QuotedAt:     time.Now(),
	}, nil
}

func (s *fakeSource) Execute(ctx context.Context, quote *domain.Quote, slippage float64, onStep func(string)) (*big.Int, error) {
	if onStep != nil {
		onStep("submitted")
	}
	if s.execErr != nil {
		return nil, s.execErr
	}
	if s.execOut != nil {
		return s.execOut, nil
	}
	return quote.AmountOut, nil
}

type fakeEscrow struct {
	reserveErr error
	addrErr    error
	confirmErr error

	mu        sync.Mutex
	reserved  []uint64
	confirmed []string
}

func (e *fakeEscrow) Reserve(ctx context.Context, offerID uint64) (string, error) {
	if e.reserveErr != nil {
		return "", e.reserveErr
	}
	e.mu.Lock()
	e.reserved = append(e.reserved, offerID)
	e.mu.Unlock()
	return "rsv-1", nil
}

func (e *fakeEscrow) EscrowAddress(ctx context.Context, principal, reservation string) (string, error) {
	if e.addrErr != nil {
		return "", e.addrErr
	}
	return "escrow-" + reservation, nil
}

func (e *fakeEscrow) Confirm(ctx context.Context, reservation string, paid *big.Int) error {
	if e.confirmErr != nil {
		return e.confirmErr
	}
	e.mu.Lock()
	e.confirmed = append(e.confirmed, reservation)
	e.mu.Unlock()
	return nil
}

type fakeLedger struct {
	transferErr error

	mu        sync.Mutex
	transfers []string
}

func (l *fakeLedger) Transfer(ctx context.Context, token domain.Token, to string, amount, fee *big.Int) error {
	if l.transferErr != nil {
		return l.transferErr
	}
	l.mu.Lock()
	l.transfers = append(l.transfers, to)
	l.mu.Unlock()
	return nil
}

type fakePriceFeed struct {
	prices map[string]float64
}

func (f *fakePriceFeed) USDPrice(ctx context.Context, token domain.Token) (float64, error) {
	p, ok := f.prices[token.ID]
	if !ok {
		return 0, domain.ErrNoPrice
	}
	return p, nil
}

func newBuyout(id uint64, price, asset *big.Int, outTok domain.Token) *domain.BuyoutQuote {
	offer := domain.Offer{ID: id, PaymentToken: tokICP, BuyoutPrice: price, AssetAmount: asset}
	rate := domain.ToFloat(asset, outTok.Decimals) / domain.ToFloat(price, tokICP.Decimals)
	return &domain.BuyoutQuote{
		Offer: offer,
		Rate:  rate,
		Quote: &domain.Quote{
			SourceID:     "auction",
			Pair:         domain.Pair{In: tokICP, Out: outTok},
			AmountIn:     price,
			AmountOut:    asset,
			MinAmountOut: asset,
			Kind:         domain.KindAuction,
		},
	}
}
