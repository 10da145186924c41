package paths

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Draws is a buffer of i.i.d. standard-normal increments: Data[i][j] is the
// unit draw for path i, step j. Schemes scale them by sqrt(dt). A single
// buffer may feed several correlated processes (e.g. the two Brownian legs
// of Heston) so they see the same randomness.
type Draws struct {
	T    float64
	Data [][]float64
}

// DrawConfig configures random draw generation.
type DrawConfig struct {
	// Antithetic mirrors the first half of the paths into the second half,
	// halving the number of independent draws and reducing Monte Carlo
	// variance for symmetric functionals.
	Antithetic bool
	// Seed for the random source; 0 derives a seed from the clock.
	Seed uint64
}

// NormalDraws generates n paths of unit normal increments over the horizon.
func NormalDraws(n int, horizon float64, steps int, cfg DrawConfig) (*Draws, error) {
	if n <= 0 || steps <= 0 {
		return nil, fmt.Errorf("paths: need positive paths and steps, got %d, %d", n, steps)
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("paths: time horizon must be positive, got %g", horizon)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	data := make([][]float64, n)
	independent := n
	if cfg.Antithetic {
		independent = n/2 + n%2
	}
	for i := 0; i < independent; i++ {
		row := make([]float64, steps)
		for j := range row {
			row[j] = norm.Rand()
		}
		data[i] = row
	}
	if cfg.Antithetic {
		for i := independent; i < n; i++ {
			src := data[i-independent]
			row := make([]float64, steps)
			for j := range row {
				row[j] = -src[j]
			}
			data[i] = row
		}
	}
	return &Draws{T: horizon, Data: data}, nil
}

// N returns the number of paths.
func (d *Draws) N() int { return len(d.Data) }

// Steps returns the number of increments per path.
func (d *Draws) Steps() int {
	if len(d.Data) == 0 {
		return 0
	}
	return len(d.Data[0])
}

// Dt returns the time step.
func (d *Draws) Dt() float64 { return d.T / float64(d.Steps()) }
