package option

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoConvergence reports a root finder that exhausted its iteration
// budget. The last iterate is still returned so the caller can decide
// whether to retry with a different guess or budget.
var ErrNoConvergence = errors.New("no convergence")

// IVConfig tunes the implied volatility root finder.
type IVConfig struct {
	// InitialGuess for the volatility; 0 defaults to 0.5.
	InitialGuess float64
	// MaxIterations bounds the Newton/bisection loop; 0 defaults to 100.
	MaxIterations int
	// Tolerance on the price error; 0 defaults to 1e-10.
	Tolerance float64
	// VolTolerance on the volatility itself; 0 defaults to 1e-8.
	VolTolerance float64
}

func (c IVConfig) guess() float64 {
	if c.InitialGuess > 0 {
		return c.InitialGuess
	}
	return 0.5
}

func (c IVConfig) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return 100
}

func (c IVConfig) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return 1e-10
}

func (c IVConfig) volTolerance() float64 {
	if c.VolTolerance > 0 {
		return c.VolTolerance
	}
	return 1e-8
}

// IVResult is the outcome of an implied volatility inversion.
type IVResult struct {
	Sigma      float64
	Iterations int
	Converged  bool
}

// ImpliedVol inverts the Black formula for the volatility matching a
// forward-normalized call price at log moneyness k and maturity ttm.
//
// A damped Newton iteration runs inside a hard bracket and falls back to
// bisection whenever the Newton step leaves the bracket or the vega is too
// small to trust. On budget exhaustion the last iterate is returned
// together with ErrNoConvergence.
func ImpliedVol(price, k, ttm float64, cfg IVConfig) (IVResult, error) {
	if ttm <= 0 {
		return IVResult{}, fmt.Errorf("option: time to maturity must be positive, got %g", ttm)
	}
	intrinsic := IntrinsicValue(k)
	if price <= intrinsic || price >= 1 {
		return IVResult{}, fmt.Errorf("option: call price %g outside arbitrage bounds (%g, 1)", price, intrinsic)
	}

	lo, hi := 1e-6, 10.0
	sigma := cfg.guess()
	if !(sigma > lo && sigma < hi) {
		sigma = 0.5
	}
	tol := cfg.tolerance()
	volTol := cfg.volTolerance()

	for i := 1; i <= cfg.maxIterations(); i++ {
		diff := BlackCall(k, sigma, ttm) - price
		vega := BlackVega(k, sigma, ttm)
		// A small price error alone is not convergence: at the wings the
		// vega is tiny and a sub-tolerance price error can hide a large
		// volatility error. diff/vega estimates the remaining vol error.
		if math.Abs(diff) < tol && ((vega > 0 && math.Abs(diff) < volTol*vega) || hi-lo < volTol) {
			return IVResult{Sigma: sigma, Iterations: i, Converged: true}, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}
		next := sigma - diff/vega
		if vega < 1e-12 || next <= lo || next >= hi || math.IsNaN(next) {
			next = 0.5 * (lo + hi)
		}
		sigma = next
	}
	return IVResult{Sigma: sigma, Iterations: cfg.maxIterations()},
		fmt.Errorf("%w: implied vol after %d iterations", ErrNoConvergence, cfg.maxIterations())
}
