package process

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/rand"

	"github.com/wonny/levy/internal/paths"
)

// Vasicek is the Gaussian Ornstein-Uhlenbeck process
//
//	dx_t = kappa*(theta - x_t) dt + sigma dw_t
//
// Its marginals are normal, which makes it a convenient yardstick for the
// transform and simulation machinery, but it is not positive and therefore
// cannot drive a time change.
type Vasicek struct {
	rate  float64
	kappa float64
	theta float64
	sigma float64
}

// NewVasicek builds a Gaussian OU process started at rate.
func NewVasicek(rate, kappa, theta, sigma float64) (*Vasicek, error) {
	switch {
	case kappa <= 0:
		return nil, invalidParamf("vasicek: kappa must be positive, got %g", kappa)
	case theta <= 0:
		return nil, invalidParamf("vasicek: theta must be positive, got %g", theta)
	case sigma <= 0:
		return nil, invalidParamf("vasicek: sigma must be positive, got %g", sigma)
	}
	return &Vasicek{rate: rate, kappa: kappa, theta: theta, sigma: sigma}, nil
}

// CharacteristicExponent follows from the normal marginal:
// phi = u*(-i*mean + 0.5*var*u).
func (p *Vasicek) CharacteristicExponent(t float64, u complex128) complex128 {
	mu := p.AnalyticalMean(t)
	v := p.AnalyticalVariance(t)
	return u * (complex(0, -mu) + complex(0.5*v, 0)*u)
}

func (p *Vasicek) Parameters() map[string]float64 {
	return map[string]float64{
		"rate":  p.rate,
		"kappa": p.kappa,
		"theta": p.theta,
		"sigma": p.sigma,
	}
}

func (p *Vasicek) AnalyticalMean(t float64) float64 {
	ekt := math.Exp(-p.kappa * t)
	return p.rate*ekt + p.theta*(1-ekt)
}

func (p *Vasicek) AnalyticalVariance(t float64) float64 {
	return 0.5 * p.sigma * p.sigma * (1 - math.Exp(-2*p.kappa*t)) / p.kappa
}

// Sample simulates n paths with an exact-drift Euler scheme.
func (p *Vasicek) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	d, err := paths.NormalDraws(n, horizon, steps, paths.DrawConfig{
		Antithetic: cfg.Antithetic,
		Seed:       cfg.seed(),
	})
	if err != nil {
		return nil, err
	}
	return p.SampleFromDraws(d, cfg.workers()), nil
}

// SampleFromDraws discretizes the SDE against the supplied unit draws.
func (p *Vasicek) SampleFromDraws(d *paths.Draws, workers int) *paths.Paths {
	out := paths.New(d.N(), d.T, d.Steps())
	dt := d.Dt()
	sdt := p.sigma * math.Sqrt(dt)
	forEachPath(d.N(), workers, func(i int) {
		row := out.Data[i]
		row[0] = p.rate
		for j, z := range d.Data[i] {
			x := row[j]
			row[j+1] = x + p.kappa*(p.theta-x)*dt + sdt*z
		}
	})
	return out
}

// GammaOU is a non-Gaussian Ornstein-Uhlenbeck process driven by a compound
// Poisson process with exponential jumps. Its stationary law is a gamma
// distribution and it stays strictly positive, so it can serve as a
// stochastic activity rate.
type GammaOU struct {
	rate  float64
	decay float64
	kappa float64
}

// NewGammaOU builds a Gamma OU process started at rate. The background
// driving process has intensity rate*decay and exponential jumps with the
// given decay, which makes the stationary distribution Gamma(rate*decay,
// decay) with mean rate.
func NewGammaOU(rate, decay, kappa float64) (*GammaOU, error) {
	switch {
	case rate <= 0:
		return nil, invalidParamf("gamma ou: rate must be positive, got %g", rate)
	case decay <= 0:
		return nil, invalidParamf("gamma ou: decay must be positive, got %g", decay)
	case kappa <= 0:
		return nil, invalidParamf("gamma ou: kappa must be positive, got %g", kappa)
	}
	return &GammaOU{rate: rate, decay: decay, kappa: kappa}, nil
}

// Intensity returns the arrival intensity of the background driving
// process.
func (p *GammaOU) Intensity() float64 { return p.rate * p.decay }

func (p *GammaOU) CharacteristicExponent(t float64, u complex128) complex128 {
	beta := complex(p.decay, 0)
	iu := complex(0, 1) * u
	c1 := iu * complex(math.Exp(-p.kappa*t), 0)
	c0 := complex(p.Intensity(), 0) * cmplx.Log((beta-c1)/(beta-iu))
	return -c0 - c1*complex(p.rate, 0)
}

// IntegratedLogLaplace returns log E[exp(-s*int_0^t x_s ds)] in closed form.
func (p *GammaOU) IntegratedLogLaplace(t float64, s complex128) complex128 {
	beta := complex(p.decay, 0)
	kt := p.kappa * t
	iuk := -s / complex(p.kappa, 0)
	ekt := complex(math.Exp(-kt), 0)
	c1 := iuk * (1 - ekt)
	c0 := complex(p.Intensity(), 0) *
		(beta*cmplx.Log(beta/(iuk+(beta-iuk)/ekt))/(iuk-beta) - complex(kt, 0))
	return c0 + c1*complex(p.rate, 0)
}

func (p *GammaOU) Parameters() map[string]float64 {
	return map[string]float64{
		"rate":  p.rate,
		"decay": p.decay,
		"kappa": p.kappa,
	}
}

func (p *GammaOU) AnalyticalMean(t float64) float64 { return p.rate }

func (p *GammaOU) AnalyticalVariance(t float64) float64 { return p.rate / p.decay }

// Sample simulates exact trajectories by superposing the exponentially
// decaying response of each background jump, then projecting onto the
// regular time grid.
func (p *GammaOU) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	if n <= 0 || steps <= 0 || horizon <= 0 {
		return nil, invalidParamf("gamma ou: need positive paths, steps and horizon")
	}
	out := paths.New(n, horizon, steps)
	dt := horizon / float64(steps)
	forEachPathRand(n, cfg.workers(), cfg.seed(), func(rng *rand.Rand, i int) {
		row := out.Data[i]
		row[0] = p.rate
		// Arrival times of the driving process on the operational clock
		// kappa*t, mapped back to calendar time.
		arrivals := poissonArrivals(rng, p.Intensity(), p.kappa*horizon)
		j := 1
		for _, arrival := range arrivals {
			arrival /= p.kappa
			for float64(j)*dt < arrival {
				j = p.advance(j, row, dt, 0, 0)
			}
			if j <= steps {
				j = p.advance(j, row, dt, arrival, rng.ExpFloat64()/p.decay)
			}
		}
		for j <= steps {
			j = p.advance(j, row, dt, 0, 0)
		}
	})
	return out, nil
}

// advance rolls the path forward one step, decaying the current level and,
// when a jump arrives inside the step, decaying the jumped level for the
// remainder of the step.
func (p *GammaOU) advance(j int, row []float64, dt, arrival, jump float64) int {
	x := row[j-1]
	t0 := float64(j-1) * dt
	t1 := t0 + dt
	a := t1
	if arrival > 0 {
		a = arrival
	}
	row[j] = x - p.kappa*x*(a-t0) - p.kappa*(x+jump)*(t1-a) + jump
	return j + 1
}
