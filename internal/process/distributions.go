package process

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/rand"
)

// JumpDistribution is the law of individual jump sizes inside a compound
// Poisson process.
type JumpDistribution interface {
	Characteristic(u complex128) complex128
	Mean() float64
	Variance() float64
	Sample(rng *rand.Rand) float64
	Parameters() map[string]float64
}

// Exponential is a positive jump distribution with the given decay rate.
type Exponential struct {
	decay float64
}

// NewExponential builds an exponential distribution with decay rate beta.
func NewExponential(decay float64) (*Exponential, error) {
	if decay <= 0 {
		return nil, invalidParamf("exponential: decay must be positive, got %g", decay)
	}
	return &Exponential{decay: decay}, nil
}

// Decay returns the decay rate.
func (d *Exponential) Decay() float64 { return d.decay }

func (d *Exponential) Characteristic(u complex128) complex128 {
	return complex(d.decay, 0) / (complex(d.decay, 0) - complex(0, 1)*u)
}

func (d *Exponential) Mean() float64 { return 1 / d.decay }

func (d *Exponential) Variance() float64 { return 1 / (d.decay * d.decay) }

func (d *Exponential) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() / d.decay
}

func (d *Exponential) Parameters() map[string]float64 {
	return map[string]float64{"decay": d.decay}
}

// Normal is a Gaussian jump distribution.
type Normal struct {
	mu    float64
	sigma float64
}

// NewNormal builds a normal distribution; sigma must be positive.
func NewNormal(mu, sigma float64) (*Normal, error) {
	if sigma <= 0 {
		return nil, invalidParamf("normal: sigma must be positive, got %g", sigma)
	}
	return &Normal{mu: mu, sigma: sigma}, nil
}

func (d *Normal) Characteristic(u complex128) complex128 {
	iu := complex(0, 1) * u
	return cmplx.Exp(iu*complex(d.mu, 0) - complex(0.5*d.sigma*d.sigma, 0)*u*u)
}

func (d *Normal) Mean() float64 { return d.mu }

func (d *Normal) Variance() float64 { return d.sigma * d.sigma }

func (d *Normal) Sample(rng *rand.Rand) float64 {
	return d.mu + d.sigma*rng.NormFloat64()
}

func (d *Normal) Parameters() map[string]float64 {
	return map[string]float64{"mu": d.mu, "sigma": d.sigma}
}

// DoubleExponential is the asymmetric Laplace distribution: exponential
// tails on both sides with overall scale 1/decay and asymmetry k. k = 1
// gives the symmetric Laplace, k > 1 skews the mass upward.
type DoubleExponential struct {
	decay float64
	k     float64
}

// NewDoubleExponential builds an asymmetric Laplace distribution.
func NewDoubleExponential(decay, k float64) (*DoubleExponential, error) {
	if decay <= 0 {
		return nil, invalidParamf("double exponential: decay must be positive, got %g", decay)
	}
	if k <= 0 {
		return nil, invalidParamf("double exponential: asymmetry must be positive, got %g", k)
	}
	return &DoubleExponential{decay: decay, k: k}, nil
}

func (d *DoubleExponential) scale2() float64 { return 1 / (d.decay * d.decay) }

func (d *DoubleExponential) scale2Up() float64 {
	k2 := d.k * d.k
	return d.scale2() * k2 / (k2 + 1)
}

func (d *DoubleExponential) scale2Down() float64 {
	return d.scale2() - d.scale2Up()
}

func (d *DoubleExponential) Characteristic(u complex128) complex128 {
	iu := complex(0, 1) * u
	return cmplx.Exp(iu*complex(d.Mean(), 0)) / (1 - complex(d.scale2(), 0)*u*u)
}

func (d *DoubleExponential) Mean() float64 {
	return math.Sqrt(d.scale2Up()) - math.Sqrt(d.scale2Down())
}

func (d *DoubleExponential) Variance() float64 { return d.scale2() }

func (d *DoubleExponential) Sample(rng *rand.Rand) float64 {
	up := math.Sqrt(d.scale2Up())
	down := math.Sqrt(d.scale2Down())
	if rng.Float64()*(up+down) < up {
		return up * rng.ExpFloat64()
	}
	return -down * rng.ExpFloat64()
}

func (d *DoubleExponential) Parameters() map[string]float64 {
	return map[string]float64{"decay": d.decay, "k": d.k}
}
