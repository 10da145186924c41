package process

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/wonny/levy/internal/paths"
)

// JumpDiffusion superposes a Brownian diffusion and a compound Poisson
// jump component:
//
//	dx_t = sigma dw_t + dN_t
//
// With normal jumps this is the Merton model, with double-exponential
// jumps the Kou model.
type JumpDiffusion struct {
	diffusion *Weiner
	jumps     *CompoundPoisson
}

// NewJumpDiffusion combines an existing diffusion and jump process.
func NewJumpDiffusion(diffusion *Weiner, jumps *CompoundPoisson) (*JumpDiffusion, error) {
	if diffusion == nil || jumps == nil {
		return nil, invalidParamf("jump diffusion: diffusion and jumps are required")
	}
	return &JumpDiffusion{diffusion: diffusion, jumps: jumps}, nil
}

// NewMerton builds a jump diffusion with normal jumps. The total
// annualized variance vol^2 is split between the diffusion and the jump
// component according to jumpFraction in (0, 1); each jump carries
// variance vol^2*jumpFraction/jumpIntensity.
func NewMerton(vol, jumpIntensity, jumpFraction float64) (*JumpDiffusion, error) {
	if jumpFraction <= 0 || jumpFraction >= 1 {
		return nil, invalidParamf("jump diffusion: jump fraction must be in (0, 1), got %g", jumpFraction)
	}
	variance := vol * vol
	diffusion, err := NewWeiner(math.Sqrt(variance * (1 - jumpFraction)))
	if err != nil {
		return nil, err
	}
	dist, err := NewNormal(0, math.Sqrt(variance*jumpFraction/jumpIntensity))
	if err != nil {
		return nil, err
	}
	jumps, err := NewCompoundPoisson(jumpIntensity, dist)
	if err != nil {
		return nil, err
	}
	return &JumpDiffusion{diffusion: diffusion, jumps: jumps}, nil
}

func (p *JumpDiffusion) levy() {}

// Diffusion returns the Brownian component.
func (p *JumpDiffusion) Diffusion() *Weiner { return p.diffusion }

// Jumps returns the compound Poisson component.
func (p *JumpDiffusion) Jumps() *CompoundPoisson { return p.jumps }

// CharacteristicExponent is the sum of the component exponents, since the
// two components are independent.
func (p *JumpDiffusion) CharacteristicExponent(t float64, u complex128) complex128 {
	return p.diffusion.CharacteristicExponent(t, u) + p.jumps.CharacteristicExponent(t, u)
}

func (p *JumpDiffusion) Parameters() map[string]float64 {
	out := map[string]float64{"sigma": p.diffusion.Sigma()}
	for k, v := range p.jumps.Parameters() {
		out[k] = v
	}
	return out
}

func (p *JumpDiffusion) AnalyticalMean(t float64) float64 {
	return p.jumps.AnalyticalMean(t)
}

func (p *JumpDiffusion) AnalyticalVariance(t float64) float64 {
	return p.diffusion.AnalyticalVariance(t) + p.jumps.AnalyticalVariance(t)
}

// Sample adds independently simulated jump trajectories to the diffusion
// paths.
func (p *JumpDiffusion) Sample(n int, horizon float64, steps int, cfg SampleConfig) (*paths.Paths, error) {
	diffusion, err := p.diffusion.Sample(n, horizon, steps, cfg)
	if err != nil {
		return nil, err
	}
	jumpCfg := cfg
	jumpCfg.Seed = cfg.seed() + 1<<32
	jumps, err := p.jumps.Sample(n, horizon, steps, jumpCfg)
	if err != nil {
		return nil, err
	}
	for i, row := range diffusion.Data {
		for j := range row {
			row[j] += jumps.Data[i][j]
		}
	}
	return diffusion, nil
}

func (p *JumpDiffusion) increment(rng *rand.Rand, dt float64) float64 {
	return p.diffusion.increment(rng, dt) + p.jumps.increment(rng, dt)
}
