package domain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// LiquiditySource is the uniform capability wrapper around one AMM provider.
// The engine holds an ordered registry of these and never branches on a
// concrete provider type.
type LiquiditySource interface {
	ID() string
	Name() string

	// SpotPrice returns the indicative output-per-input rate, independent of
	// any amount.
	SpotPrice(ctx context.Context, pair Pair) (float64, error)

	// GetQuote prices amountIn for the pair under the given fractional
	// slippage tolerance. A provider with no viable route returns an error;
	// the aggregator excludes it silently.
	GetQuote(ctx context.Context, pair Pair, amountIn *big.Int, slippage float64) (*Quote, error)

	// Execute performs the quoted swap, reporting native progress steps
	// through onStep, and returns the amount actually received.
	Execute(ctx context.Context, quote *Quote, slippage float64, onStep func(step string)) (*big.Int, error)
}

// OfferFeed supplies currently active fixed-price sell offers for a pair.
type OfferFeed interface {
	ActiveOffers(ctx context.Context, pair Pair) ([]Offer, error)
}

// AuctionEscrow is the auction network's reservation contract. Reserve,
// transfer-to-escrow and confirm form a strictly ordered saga.
type AuctionEscrow interface {
	Reserve(ctx context.Context, offerID uint64) (reservation string, err error)
	EscrowAddress(ctx context.Context, principal, reservation string) (string, error)
	Confirm(ctx context.Context, reservation string, paid *big.Int) error
}

// Ledger moves the payment token. Implementations surface
// InsufficientFundsError with balance detail where the ledger reports it.
type Ledger interface {
	Transfer(ctx context.Context, token Token, to string, amount, fee *big.Int) error
}

// PriceFeed returns best-effort USD prices; only the target-output
// convergence loop depends on it.
type PriceFeed interface {
	USDPrice(ctx context.Context, token Token) (float64, error)
}

// ErrInsufficientFunds is the sentinel ledgers wrap when a transfer exceeds
// the available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNoPrice is returned when neither the feed nor any cache can price a
// token in USD.
var ErrNoPrice = errors.New("no usd price available")

// InsufficientFundsError carries the balance detail surfaced to the caller.
type InsufficientFundsError struct {
	Balance *big.Int
	Needed  *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, needed %s", e.Balance, e.Needed)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }
