// Package option prices European options from a process's characteristic
// function, inverts Black implied volatilities, and calibrates model
// parameters to an observed volatility surface.
//
// Prices are forward-normalized under the zero-rate convention: a call
// price is quoted as a fraction of the forward and strikes enter as
// moneyness k = ln(K/F).
package option

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var unitNormal = distuv.UnitNormal

// BlackCall returns the Black price of a call with log moneyness k,
// volatility sigma and time to maturity ttm, as a fraction of the forward.
func BlackCall(k, sigma, ttm float64) float64 {
	sig2 := sigma * sigma * ttm
	sig := math.Sqrt(sig2)
	d1 := (-k + 0.5*sig2) / sig
	d2 := d1 - sig
	return unitNormal.CDF(d1) - math.Exp(k)*unitNormal.CDF(d2)
}

// BlackPut returns the Black put price through put-call parity:
// put = call - 1 + e^k.
func BlackPut(k, sigma, ttm float64) float64 {
	return BlackCall(k, sigma, ttm) - 1 + math.Exp(k)
}

// BlackVega returns the derivative of the Black call price with respect to
// volatility.
func BlackVega(k, sigma, ttm float64) float64 {
	sig2 := sigma * sigma * ttm
	sig := math.Sqrt(sig2)
	d1 := (-k + 0.5*sig2) / sig
	return unitNormal.Prob(d1) * math.Sqrt(ttm)
}

// IntrinsicValue returns the exercise value of a forward-normalized call,
// 1 - e^k floored at zero.
func IntrinsicValue(k float64) float64 {
	if k < 0 {
		return 1 - math.Exp(k)
	}
	return 0
}
