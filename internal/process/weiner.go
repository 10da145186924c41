package process

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/wonny/levy/internal/paths"
)

// Weiner is a driftless Brownian motion with annualized volatility sigma.
type Weiner struct {
	sigma float64
}

// NewWeiner builds a Brownian motion; sigma must be positive.
func NewWeiner(sigma float64) (*Weiner, error) {
	if sigma <= 0 {
		return nil, invalidParamf("weiner: sigma must be positive, got %g", sigma)
	}
	return &Weiner{sigma: sigma}, nil
}

func (p *Weiner) levy() {}

// Sigma returns the volatility parameter.
func (p *Weiner) Sigma() float64 { return p.sigma }

// CharacteristicExponent returns 0.5*sigma^2*u^2*t.
func (p *Weiner) CharacteristicExponent(t float64, u complex128) complex128 {
	return complex(0.5*p.sigma*p.sigma*t, 0) * u * u
}

func (p *Weiner) Parameters() map[string]float64 {
	return map[string]float64{"sigma": p.sigma}
}

func (p *Weiner) AnalyticalMean(t float64) float64 { return 0 }

func (p *Weiner) AnalyticalVariance(t float64) float64 {
	return p.sigma * p.sigma * t
}

// Sample simulates n paths over the horizon with the given number of steps.
func (p *Weiner) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	d, err := paths.NormalDraws(n, horizon, steps, paths.DrawConfig{
		Antithetic: cfg.Antithetic,
		Seed:       cfg.seed(),
	})
	if err != nil {
		return nil, err
	}
	return p.SampleFromDraws(d, cfg.workers()), nil
}

// SampleFromDraws accumulates the scaled increments of the supplied draws.
func (p *Weiner) SampleFromDraws(d *paths.Draws, workers int) *paths.Paths {
	out := paths.New(d.N(), d.T, d.Steps())
	sdt := p.sigma * math.Sqrt(d.Dt())
	forEachPath(d.N(), workers, func(i int) {
		row := out.Data[i]
		for j, z := range d.Data[i] {
			row[j+1] = row[j] + sdt*z
		}
	})
	return out
}

func (p *Weiner) increment(rng *rand.Rand, dt float64) float64 {
	return p.sigma * math.Sqrt(dt) * rng.NormFloat64()
}
