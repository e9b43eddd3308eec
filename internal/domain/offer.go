package domain

import (
	"math/big"
	"time"
)

// Offer is a fixed-price auction sell offer. It is sourced externally and
// read-only to the engine; a buyout consumes it fully or not at all.
type Offer struct {
	ID           uint64
	PaymentToken Token
	BuyoutPrice  *big.Int // in payment token base units
	AssetAmount  *big.Int // output-asset base units matched by the offer
	ExpiresAt    time.Time
}

// Expired reports whether the offer is past its expiration instant.
func (o Offer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// BuyoutQuote prices one offer as a standalone execution option.
// Rate is decimal-normalized output per unit of payment token.
type BuyoutQuote struct {
	Offer Offer
	Rate  float64
	Quote *Quote
}
