package process

import (
	"golang.org/x/exp/rand"

	"github.com/wonny/levy/internal/paths"
)

// incrementer is implemented by Lévy processes that can draw a single
// increment over an arbitrary interval, which is what sampling on a random
// clock requires.
type incrementer interface {
	increment(rng *rand.Rand, dt float64) float64
}

// TimeChanged evaluates a Lévy process on the stochastic clock
// tau_t = int_0^t a_s ds built from a positive activity rate process:
//
//	y_t = x_{tau_t}
//
// The characteristic exponent composes in closed form through the
// integrated log-Laplace transform of the activity rate:
//
//	phi_y(t, u) = -L_tau(t, phi_x(1, u))
type TimeChanged struct {
	levy     Levy
	activity IntensityProcess
}

// NewTimeChanged composes a Lévy process with a stochastic activity rate.
func NewTimeChanged(levy Levy, activity IntensityProcess) (*TimeChanged, error) {
	if levy == nil || activity == nil {
		return nil, invalidParamf("time changed: base process and activity rate are required")
	}
	return &TimeChanged{levy: levy, activity: activity}, nil
}

// Levy returns the base process.
func (p *TimeChanged) Levy() Levy { return p.levy }

// Activity returns the activity rate process.
func (p *TimeChanged) Activity() IntensityProcess { return p.activity }

func (p *TimeChanged) CharacteristicExponent(t float64, u complex128) complex128 {
	return -p.activity.IntegratedLogLaplace(t, p.levy.CharacteristicExponent(1, u))
}

func (p *TimeChanged) Parameters() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range p.levy.Parameters() {
		out["levy_"+k] = v
	}
	for k, v := range p.activity.Parameters() {
		out["activity_"+k] = v
	}
	return out
}

// Sample simulates the activity rate, integrates it into a clock path, and
// draws one base-process increment per clock increment.
func (p *TimeChanged) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	inc, ok := p.levy.(incrementer)
	if !ok {
		return nil, invalidParamf("time changed: base process does not support interval sampling")
	}
	type sampler interface {
		Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error)
	}
	as, ok := p.activity.(sampler)
	if !ok {
		return nil, invalidParamf("time changed: activity rate does not support sampling")
	}
	activity, err := as.Sample(n, horizon, steps, cfg)
	if err != nil {
		return nil, err
	}
	clock := activity.Integrate()

	out := paths.New(n, horizon, steps)
	forEachPathRand(n, cfg.workers(), cfg.seed()+1<<32, func(rng *rand.Rand, i int) {
		row := out.Data[i]
		tau := clock.Data[i]
		for j := 1; j < len(row); j++ {
			dtau := tau[j] - tau[j-1]
			if dtau < 0 {
				dtau = 0
			}
			row[j] = row[j-1] + inc.increment(rng, dtau)
		}
	})
	return out, nil
}
