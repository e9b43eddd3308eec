package domain

import "math/big"

// Token identifies one ledger asset. ID is the ledger identifier the external
// clients understand (canister id, contract address); the engine never parses it.
type Token struct {
	ID          string
	Symbol      string
	Decimals    uint8
	TransferFee *big.Int
}

// Pair is a directed trading pair: swap In for Out.
type Pair struct {
	In  Token
	Out Token
}

func (p Pair) String() string {
	return p.In.Symbol + "/" + p.Out.Symbol
}

// Key is a stable identifier for lookups and cache keys.
func (p Pair) Key() string {
	return p.In.ID + ":" + p.Out.ID
}
