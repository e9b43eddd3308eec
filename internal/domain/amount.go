package domain

import (
	"math/big"
)

// Fixed-point precision for ratio math (1e6 = 6 decimal places).
const ratioPrecision = 1_000_000

var ratioPrecisionBig = big.NewInt(ratioPrecision)

// MulRatio multiplies an amount by a float64 ratio using fixed-point integer
// math. Ratios above 1.0 are valid (the convergence loop scales inputs up).
func MulRatio(amount *big.Int, ratio float64) *big.Int {
	if amount == nil || ratio <= 0 {
		return new(big.Int)
	}
	fixed := big.NewInt(int64(ratio * ratioPrecision))
	out := new(big.Int).Mul(amount, fixed)
	return out.Quo(out, ratioPrecisionBig)
}

// ScaleAmount computes amount * num / den without going through floats.
// Used to price a remainder linearly against an observed quote.
func ScaleAmount(amount, num, den *big.Int) *big.Int {
	if amount == nil || num == nil || den == nil || den.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, num)
	return out.Quo(out, den)
}

// ApplySlippage returns the minimum acceptable output for an expected output
// and a fractional slippage tolerance (0.005 = 0.5%).
func ApplySlippage(expected *big.Int, slippage float64) *big.Int {
	if slippage <= 0 {
		return new(big.Int).Set(expected)
	}
	return MulRatio(expected, 1-slippage)
}

// ToFloat converts a base-unit amount to a decimal-normalized float.
// Precision loss is acceptable: floats are used for rates and display only,
// never for amounts that move funds.
func ToFloat(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	f := new(big.Float).SetInt(amount)
	f.Quo(f, pow10(decimals))
	out, _ := f.Float64()
	return out
}

// FromFloat converts a decimal-normalized value back to base units, truncating.
func FromFloat(value float64, decimals uint8) *big.Int {
	if value <= 0 {
		return new(big.Int)
	}
	f := big.NewFloat(value)
	f.Mul(f, pow10(decimals))
	out, _ := f.Int(nil)
	return out
}

func pow10(decimals uint8) *big.Float {
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Float).SetInt(p)
}

// SumAmounts adds amounts, skipping nils.
func SumAmounts(amounts ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, a := range amounts {
		if a != nil {
			total.Add(total, a)
		}
	}
	return total
}
