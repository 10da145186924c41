// Package paths holds simulated sample paths and the random draws that
// feed the SDE discretization schemes.
package paths

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Paths is the output of a Monte Carlo simulation: Data[i][j] is the value
// of path i at step j. All paths share the time grid 0, dt, ..., T and
// Data[i][0] is the process's initial value. The slice is read-only after
// simulation.
type Paths struct {
	T    float64
	Data [][]float64
}

// New allocates n paths of the given number of steps, all zero.
func New(n int, horizon float64, steps int) *Paths {
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, steps+1)
	}
	return &Paths{T: horizon, Data: data}
}

// N returns the number of paths.
func (p *Paths) N() int { return len(p.Data) }

// Steps returns the number of time steps.
func (p *Paths) Steps() int {
	if len(p.Data) == 0 {
		return 0
	}
	return len(p.Data[0]) - 1
}

// Dt returns the time step.
func (p *Paths) Dt() float64 { return p.T / float64(p.Steps()) }

// Time returns the shared time grid.
func (p *Paths) Time() []float64 {
	steps := p.Steps()
	dt := p.Dt()
	t := make([]float64, steps+1)
	for j := range t {
		t[j] = float64(j) * dt
	}
	t[steps] = p.T
	return t
}

// Terminal returns the cross-section at the time horizon.
func (p *Paths) Terminal() []float64 {
	return p.CrossSection(p.Steps())
}

// CrossSection returns the values of all paths at step j.
func (p *Paths) CrossSection(j int) []float64 {
	out := make([]float64, len(p.Data))
	for i, path := range p.Data {
		out[i] = path[j]
	}
	return out
}

// Mean returns the cross-section mean at every step.
func (p *Paths) Mean() []float64 {
	out := make([]float64, p.Steps()+1)
	for j := range out {
		out[j] = stat.Mean(p.CrossSection(j), nil)
	}
	return out
}

// Std returns the cross-section standard deviation at every step.
func (p *Paths) Std() []float64 {
	out := make([]float64, p.Steps()+1)
	for j := range out {
		out[j] = stat.StdDev(p.CrossSection(j), nil)
	}
	return out
}

// Var returns the cross-section variance at every step.
func (p *Paths) Var() []float64 {
	out := make([]float64, p.Steps()+1)
	for j := range out {
		out[j] = stat.Variance(p.CrossSection(j), nil)
	}
	return out
}

// Min returns the smallest sample across all paths and steps.
func (p *Paths) Min() float64 {
	min := p.Data[0][0]
	for _, path := range p.Data {
		for _, v := range path {
			if v < min {
				min = v
			}
		}
	}
	return min
}

// Integrate returns the cumulative trapezoid integral of every path,
// starting at zero. This is how a stochastic clock is built from an
// activity-rate path.
func (p *Paths) Integrate() *Paths {
	dt := p.Dt()
	out := New(p.N(), p.T, p.Steps())
	for i, path := range p.Data {
		acc := 0.0
		for j := 1; j < len(path); j++ {
			acc += 0.5 * (path[j-1] + path[j]) * dt
			out.Data[i][j] = acc
		}
	}
	return out
}

func (p *Paths) String() string {
	return fmt.Sprintf("Paths{n=%d steps=%d horizon=%g}", p.N(), p.Steps(), p.T)
}
