package process

import (
	"math"
	"math/cmplx"

	"github.com/wonny/levy/internal/paths"
)

// Heston is the square-root stochastic volatility model: a Brownian motion
// time changed by a CIR variance process, with correlation rho between the
// two Brownian legs providing the leverage effect.
type Heston struct {
	variance *CIR
	rho      float64
}

// NewHeston builds a Heston model from an explicit variance process.
func NewHeston(variance *CIR, rho float64) (*Heston, error) {
	if variance == nil {
		return nil, invalidParamf("heston: variance process is required")
	}
	if rho < -1 || rho > 1 {
		return nil, invalidParamf("heston: rho must be in [-1, 1], got %g", rho)
	}
	return &Heston{variance: variance, rho: rho}, nil
}

// HestonFromVol builds a Heston model from trader-facing inputs: vol is the
// long-term annualized standard deviation of the price process and rate
// scales the initial variance v0 = rate*vol^2. The long-term variance
// defaults to vol^2.
func HestonFromVol(rate, vol, kappa, sigma, rho float64) (*Heston, error) {
	variance := vol * vol
	v, err := NewCIR(rate*variance, kappa, sigma, variance)
	if err != nil {
		return nil, err
	}
	return NewHeston(v, rho)
}

// Variance returns the CIR variance process.
func (p *Heston) Variance() *CIR { return p.variance }

// Rho returns the correlation between the price and variance legs.
func (p *Heston) Rho() float64 { return p.rho }

// CharacteristicExponent has the classical closed form of the affine
// model, written with the branch-stable formulation that keeps the complex
// logarithm continuous for long maturities.
func (p *Heston) CharacteristicExponent(t float64, u complex128) complex128 {
	eta := p.variance.Sigma()
	eta2 := eta * eta
	thetaKappa := p.variance.Theta() * p.variance.Kappa()

	// drift adjusted for correlation
	kappa := complex(p.variance.Kappa(), 0) - complex(0, 1)*u*complex(eta*p.rho, 0)
	u2 := u * u
	gamma := cmplx.Sqrt(kappa*kappa + u2*complex(eta2, 0))
	egt := cmplx.Exp(-gamma * complex(t, 0))
	c := (gamma - 0.5*(gamma-kappa)*(1-egt)) / gamma
	b := u2 * (1 - egt) / ((gamma + kappa) + (gamma-kappa)*egt)
	a := complex(thetaKappa/eta2, 0) * (2*cmplx.Log(c) + (gamma-kappa)*complex(t, 0))
	return a + b*complex(p.variance.Rate(), 0)
}

func (p *Heston) Parameters() map[string]float64 {
	out := p.variance.Parameters()
	out["rho"] = p.rho
	return out
}

// Sample simulates the price and variance legs from two correlated draw
// buffers; the variance leg reuses the CIR discretization scheme.
func (p *Heston) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	dc := paths.DrawConfig{Antithetic: cfg.Antithetic, Seed: cfg.seed()}
	d1, err := paths.NormalDraws(n, horizon, steps, dc)
	if err != nil {
		return nil, err
	}
	dc.Seed++
	d2, err := paths.NormalDraws(n, horizon, steps, dc)
	if err != nil {
		return nil, err
	}
	return p.SampleFromDraws(d1, d2, cfg.workers()), nil
}

// SampleFromDraws builds price paths from two unit draw buffers: d1 drives
// the variance process, and the price leg sees rho*d1 + sqrt(1-rho^2)*d2.
func (p *Heston) SampleFromDraws(d1, d2 *paths.Draws, workers int) *paths.Paths {
	v := p.variance.SampleFromDraws(d1, workers)
	out := paths.New(d1.N(), d1.T, d1.Steps())
	dt := d1.Dt()
	orth := math.Sqrt(1 - p.rho*p.rho)
	forEachPath(d1.N(), workers, func(i int) {
		row := out.Data[i]
		for j := range d1.Data[i] {
			dw := p.rho*d1.Data[i][j] + orth*d2.Data[i][j]
			row[j+1] = row[j] + dw*math.Sqrt(math.Max(v.Data[i][j], 0)*dt)
		}
	})
	return out
}
