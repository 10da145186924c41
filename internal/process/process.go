// Package process defines the characteristic-exponent contract shared by
// all stochastic process models, the concrete Lévy and time-changed Lévy
// models, and their path samplers.
//
// Every model is immutable after construction: the calibration loop builds
// a new value per iteration instead of mutating parameters in place, so
// concurrent pricing against a model is always safe.
package process

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// ErrInvalidParameters reports a model parameter outside its domain. It is
// raised at construction, never during simulation or pricing.
var ErrInvalidParameters = errors.New("invalid parameters")

func invalidParamf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, fmt.Sprintf(format, args...))
}

// Process is a parameterized stochastic process specified through its
// characteristic exponent phi, with characteristic function
//
//	Phi(t, u) = E[e^{i u x_t}] = e^{-phi(t, u)}
//
// Implementations guarantee phi(t, 0) = 0 and Hermitian symmetry
// phi(t, -u) = conj(phi(t, u)) for real u.
type Process interface {
	CharacteristicExponent(t float64, u complex128) complex128

	// Parameters returns the named parameter set. The map is a fresh copy;
	// it feeds the pricer's cache key and the calibration loop.
	Parameters() map[string]float64
}

// Levy marks processes with stationary independent increments, for which
// phi(t, u) = t*phi(1, u). Only Lévy processes may be time changed.
type Levy interface {
	Process
	levy()
}

// IntensityProcess is a positive mean-reverting process that can serve as a
// stochastic activity rate for a time change.
type IntensityProcess interface {
	Process

	// IntegratedLogLaplace returns log E[exp(-s int_0^t x_s ds)], the log
	// Laplace transform of the integrated path, in closed form.
	IntegratedLogLaplace(t float64, s complex128) complex128
}

// AnalyticalMoments is implemented by models with closed-form marginal
// moments; Marginal falls back to differentiating the characteristic
// function when it is absent.
type AnalyticalMoments interface {
	AnalyticalMean(t float64) float64
	AnalyticalVariance(t float64) float64
}

// SampleConfig configures a Monte Carlo simulation run.
type SampleConfig struct {
	// Antithetic enables antithetic variates for draw-based schemes.
	Antithetic bool
	// Seed for the random sources; 0 derives a seed from the clock.
	Seed uint64
	// Workers bounds the number of concurrent path workers; 0 uses
	// GOMAXPROCS.
	Workers int
}

func (c SampleConfig) seed() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}

func (c SampleConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// forEachPath runs fn(i) for every path index, fanned out over chunks of
// contiguous paths. Paths share no mutable state so the fan-out is safe.
func forEachPath(n, workers int, fn func(i int)) {
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// forEachPathRand is forEachPath with a dedicated random source per worker,
// for samplers that draw their own randomness (jump processes).
func forEachPathRand(n, workers int, seed uint64, fn func(rng *rand.Rand, i int)) {
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	worker := uint64(0)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int, worker uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + worker))
			for i := start; i < end; i++ {
				fn(rng, i)
			}
		}(start, end, worker)
		worker++
	}
	wg.Wait()
}
