package process

import (
	"math"
	"math/cmplx"

	"github.com/wonny/levy/internal/paths"
)

// Scheme selects the discretization of the CIR stochastic differential
// equation.
type Scheme int

const (
	// Implicit is a drift-implicit scheme on the square root of the
	// process. It keeps every sample strictly non-negative and is the
	// default.
	Implicit Scheme = iota
	// FullTruncationEuler floors the variance at zero inside both the
	// drift and the diffusion term; the path itself may go negative.
	FullTruncationEuler
	// Milstein adds the second-order correction 0.25*sigma^2*(dw^2 - dt)
	// to the full-truncation Euler step.
	Milstein
)

// CIR is the Cox-Ingersoll-Ross mean-reverting square-root diffusion
//
//	dx_t = kappa*(theta - x_t) dt + sigma*sqrt(x_t) dw_t
//
// used both as a short-rate model and as the stochastic activity rate of a
// time change.
type CIR struct {
	rate   float64
	kappa  float64
	sigma  float64
	theta  float64
	scheme Scheme
}

// NewCIR builds a CIR process started at rate.
func NewCIR(rate, kappa, sigma, theta float64) (*CIR, error) {
	switch {
	case rate <= 0:
		return nil, invalidParamf("cir: initial rate must be positive, got %g", rate)
	case kappa <= 0:
		return nil, invalidParamf("cir: kappa must be positive, got %g", kappa)
	case sigma <= 0:
		return nil, invalidParamf("cir: sigma must be positive, got %g", sigma)
	case theta <= 0:
		return nil, invalidParamf("cir: theta must be positive, got %g", theta)
	}
	return &CIR{rate: rate, kappa: kappa, sigma: sigma, theta: theta}, nil
}

// WithScheme returns a copy of the process using the given discretization.
func (p *CIR) WithScheme(s Scheme) *CIR {
	q := *p
	q.scheme = s
	return &q
}

// Rate returns the initial value.
func (p *CIR) Rate() float64 { return p.rate }

// Kappa returns the mean-reversion speed.
func (p *CIR) Kappa() float64 { return p.kappa }

// Sigma returns the volatility of the process.
func (p *CIR) Sigma() float64 { return p.sigma }

// Theta returns the long-term mean.
func (p *CIR) Theta() float64 { return p.theta }

// IsPositive reports whether the Feller condition 2*kappa*theta >= sigma^2
// holds, in which case the continuous process never touches zero.
func (p *CIR) IsPositive() bool {
	return p.kappa*p.theta >= 0.5*p.sigma*p.sigma
}

func (p *CIR) Parameters() map[string]float64 {
	return map[string]float64{
		"rate":  p.rate,
		"kappa": p.kappa,
		"sigma": p.sigma,
		"theta": p.theta,
	}
}

// CharacteristicExponent has the closed form derived from the Riccati
// equation of the affine model.
func (p *CIR) CharacteristicExponent(t float64, u complex128) complex128 {
	iu := complex(0, 1) * u
	sigma2 := p.sigma * p.sigma
	kt := p.kappa * t
	ekt := complex(math.Exp(kt), 0)
	s2u := iu * complex(sigma2, 0)
	c := s2u + (complex(2*p.kappa, 0)-s2u)*ekt
	b := complex(2*p.kappa, 0) * iu / c
	a := complex(2*p.kappa*p.theta/sigma2, 0) * (complex(kt, 0) + cmplx.Log(complex(2*p.kappa, 0)/c))
	return -(a + b*complex(p.rate, 0))
}

// IntegratedLogLaplace returns log E[exp(-s*int_0^t x_s ds)] in closed form.
func (p *CIR) IntegratedLogLaplace(t float64, s complex128) complex128 {
	sigma2 := p.sigma * p.sigma
	kappa := complex(p.kappa, 0)
	gamma := cmplx.Sqrt(kappa*kappa + 2*s*complex(sigma2, 0))
	egt := cmplx.Exp(gamma * complex(t, 0))
	c := (gamma+kappa)*(1-egt) - 2*gamma
	d := 2 * gamma * cmplx.Exp(0.5*(gamma+kappa)*complex(t, 0))
	a := complex(2*p.theta*p.kappa/sigma2, 0) * cmplx.Log(-d/c)
	b := -2 * s * (1 - egt) / c
	return a + b*complex(p.rate, 0)
}

func (p *CIR) AnalyticalMean(t float64) float64 {
	ekt := math.Exp(-p.kappa * t)
	return p.rate*ekt + p.theta*(1-ekt)
}

func (p *CIR) AnalyticalVariance(t float64) float64 {
	ekt := math.Exp(-p.kappa * t)
	return p.sigma * p.sigma * (1 - ekt) * (p.rate*ekt + 0.5*p.theta*(1-ekt)) / p.kappa
}

// Sample simulates n paths with the configured discretization scheme.
func (p *CIR) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	d, err := paths.NormalDraws(n, horizon, steps, paths.DrawConfig{
		Antithetic: cfg.Antithetic,
		Seed:       cfg.seed(),
	})
	if err != nil {
		return nil, err
	}
	return p.SampleFromDraws(d, cfg.workers()), nil
}

// SampleFromDraws discretizes the SDE against the supplied unit draws. The
// same buffer can be shared with a correlated price process.
func (p *CIR) SampleFromDraws(d *paths.Draws, workers int) *paths.Paths {
	switch p.scheme {
	case FullTruncationEuler:
		return p.sampleEuler(d, workers, false)
	case Milstein:
		return p.sampleEuler(d, workers, true)
	default:
		return p.sampleImplicit(d, workers)
	}
}

func (p *CIR) sampleEuler(d *paths.Draws, workers int, milstein bool) *paths.Paths {
	out := paths.New(d.N(), d.T, d.Steps())
	dt := d.Dt()
	sdt := p.sigma * math.Sqrt(dt)
	corr := 0.25 * p.sigma * p.sigma
	forEachPath(d.N(), workers, func(i int) {
		row := out.Data[i]
		row[0] = p.rate
		for j, z := range d.Data[i] {
			x := row[j]
			xp := math.Max(x, 0)
			dx := p.kappa*(p.theta-xp)*dt + math.Sqrt(xp)*sdt*z
			if milstein {
				dw := math.Sqrt(dt) * z
				dx += corr * (dw*dw - dt)
			}
			row[j+1] = x + dx
		}
	})
	return out
}

func (p *CIR) sampleImplicit(d *paths.Draws, workers int) *paths.Paths {
	out := paths.New(d.N(), d.T, d.Steps())
	dt := d.Dt()
	kdt2 := 2 * (p.kappa*dt + 1)
	kts := (p.kappa*p.theta - 0.5*p.sigma*p.sigma) * dt
	sdt := p.sigma * math.Sqrt(dt)
	forEachPath(d.N(), workers, func(i int) {
		row := out.Data[i]
		row[0] = p.rate
		for j, z := range d.Data[i] {
			w := sdt * z
			xs := (w + math.Sqrt(w*w+2*(row[j]+kts)*kdt2)) / kdt2
			row[j+1] = xs * xs
		}
	})
	return out
}
