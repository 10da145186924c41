package process

import (
	"math/cmplx"

	"golang.org/x/exp/rand"

	"github.com/wonny/levy/internal/paths"
)

// poissonArrivals draws the ordered arrival times of a Poisson process with
// the given intensity up to the horizon.
func poissonArrivals(rng *rand.Rand, intensity, horizon float64) []float64 {
	var arrivals []float64
	t := 0.0
	for {
		t += rng.ExpFloat64() / intensity
		if t > horizon {
			return arrivals
		}
		arrivals = append(arrivals, t)
	}
}

// jumpPaths lays piecewise-constant jump trajectories onto a regular time
// grid: each path holds its value until the step after the next arrival.
func jumpPaths(n int, horizon float64, steps int, cfg SampleConfig,
	jump func(rng *rand.Rand) float64, intensity float64) *paths.Paths {

	out := paths.New(n, horizon, steps)
	dt := horizon / float64(steps)
	forEachPathRand(n, cfg.workers(), cfg.seed(), func(rng *rand.Rand, p int) {
		row := out.Data[p]
		arrivals := poissonArrivals(rng, intensity, horizon)
		i := 1
		y := 0.0
		for _, arrival := range arrivals {
			for float64(i)*dt < arrival {
				row[i] = y
				i++
			}
			y += jump(rng)
		}
		for ; i <= steps; i++ {
			row[i] = y
		}
	})
	return out
}

// Poisson is the counting process with constant jump intensity.
type Poisson struct {
	intensity float64
}

// NewPoisson builds a Poisson process; the intensity must be positive.
func NewPoisson(intensity float64) (*Poisson, error) {
	if intensity <= 0 {
		return nil, invalidParamf("poisson: intensity must be positive, got %g", intensity)
	}
	return &Poisson{intensity: intensity}, nil
}

func (p *Poisson) levy() {}

// Intensity returns the jump intensity.
func (p *Poisson) Intensity() float64 { return p.intensity }

// CharacteristicExponent returns t*lambda*(1 - e^{iu}).
func (p *Poisson) CharacteristicExponent(t float64, u complex128) complex128 {
	return complex(t*p.intensity, 0) * (1 - cmplx.Exp(complex(0, 1)*u))
}

func (p *Poisson) Parameters() map[string]float64 {
	return map[string]float64{"intensity": p.intensity}
}

func (p *Poisson) AnalyticalMean(t float64) float64 { return p.intensity * t }

func (p *Poisson) AnalyticalVariance(t float64) float64 { return p.intensity * t }

// Sample simulates counting paths on a regular grid.
func (p *Poisson) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	if n <= 0 || steps <= 0 || horizon <= 0 {
		return nil, invalidParamf("poisson: need positive paths, steps and horizon")
	}
	return jumpPaths(n, horizon, steps, cfg, func(*rand.Rand) float64 { return 1 }, p.intensity), nil
}

func (p *Poisson) increment(rng *rand.Rand, dt float64) float64 {
	return float64(len(poissonArrivals(rng, p.intensity, dt)))
}

// CompoundPoisson pairs a Poisson arrival process with a jump size
// distribution.
type CompoundPoisson struct {
	intensity float64
	jumps     JumpDistribution
}

// NewCompoundPoisson builds a compound Poisson process.
func NewCompoundPoisson(intensity float64, jumps JumpDistribution) (*CompoundPoisson, error) {
	if intensity <= 0 {
		return nil, invalidParamf("compound poisson: intensity must be positive, got %g", intensity)
	}
	if jumps == nil {
		return nil, invalidParamf("compound poisson: jump distribution is required")
	}
	return &CompoundPoisson{intensity: intensity, jumps: jumps}, nil
}

func (p *CompoundPoisson) levy() {}

// Intensity returns the jump intensity.
func (p *CompoundPoisson) Intensity() float64 { return p.intensity }

// Jumps returns the jump size distribution.
func (p *CompoundPoisson) Jumps() JumpDistribution { return p.jumps }

// CharacteristicExponent returns t*lambda*(1 - Phi_jump(u)).
func (p *CompoundPoisson) CharacteristicExponent(t float64, u complex128) complex128 {
	return complex(t*p.intensity, 0) * (1 - p.jumps.Characteristic(u))
}

func (p *CompoundPoisson) Parameters() map[string]float64 {
	out := map[string]float64{"intensity": p.intensity}
	for k, v := range p.jumps.Parameters() {
		out["jump_"+k] = v
	}
	return out
}

func (p *CompoundPoisson) AnalyticalMean(t float64) float64 {
	return p.intensity * t * p.jumps.Mean()
}

func (p *CompoundPoisson) AnalyticalVariance(t float64) float64 {
	m := p.jumps.Mean()
	return p.intensity * t * (p.jumps.Variance() + m*m)
}

// Sample simulates jump trajectories on a regular grid.
func (p *CompoundPoisson) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	if n <= 0 || steps <= 0 || horizon <= 0 {
		return nil, invalidParamf("compound poisson: need positive paths, steps and horizon")
	}
	return jumpPaths(n, horizon, steps, cfg, p.jumps.Sample, p.intensity), nil
}

func (p *CompoundPoisson) increment(rng *rand.Rand, dt float64) float64 {
	y := 0.0
	for range poissonArrivals(rng, p.intensity, dt) {
		y += p.jumps.Sample(rng)
	}
	return y
}
