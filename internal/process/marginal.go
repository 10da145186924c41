package process

import (
	"math"
	"math/cmplx"

	"github.com/wonny/levy/internal/transform"
)

// momentStep is the finite-difference step for moments derived from the
// characteristic function.
const momentStep = 0.001

// Marginal is the distribution of a process at a fixed horizon. It bridges
// the time-indexed characteristic exponent and the single-variable
// characteristic function the transform package consumes.
type Marginal struct {
	process Process
	t       float64
}

// NewMarginal fixes the marginal distribution of p at time t.
func NewMarginal(p Process, t float64) *Marginal {
	return &Marginal{process: p, t: t}
}

// T returns the horizon of the marginal.
func (m *Marginal) T() float64 { return m.t }

// Process returns the underlying process.
func (m *Marginal) Process() Process { return m.process }

// CharacteristicExponent evaluates phi(t, u) at the fixed horizon.
func (m *Marginal) CharacteristicExponent(u complex128) complex128 {
	return m.process.CharacteristicExponent(m.t, u)
}

// Characteristic evaluates Phi(t, u) = e^{-phi(t, u)}.
func (m *Marginal) Characteristic(u complex128) complex128 {
	return cmplx.Exp(-m.CharacteristicExponent(u))
}

// Mean returns the first moment, in closed form when the process provides
// one and by central differencing of the characteristic function otherwise.
func (m *Marginal) Mean() float64 {
	if am, ok := m.process.(AnalyticalMoments); ok {
		return am.AnalyticalMean(m.t)
	}
	return m.MeanFromCharacteristic()
}

// Variance returns the second central moment, analytically when available.
func (m *Marginal) Variance() float64 {
	if am, ok := m.process.(AnalyticalMoments); ok {
		return am.AnalyticalVariance(m.t)
	}
	return m.VarianceFromCharacteristic()
}

// Std returns the standard deviation.
func (m *Marginal) Std() float64 {
	return math.Sqrt(m.Variance())
}

// MeanFromCharacteristic differentiates Phi at the origin:
// E[x] = -i Phi'(0), approximated with a central difference.
func (m *Marginal) MeanFromCharacteristic() float64 {
	d := complex(momentStep, 0)
	mean := complex(0, -0.5) * (m.Characteristic(d) - m.Characteristic(-d)) / d
	return real(mean)
}

// VarianceFromCharacteristic uses E[x^2] = -Phi''(0) via a second-order
// central difference, minus the squared mean.
func (m *Marginal) VarianceFromCharacteristic() float64 {
	d := momentStep
	second := -(m.Characteristic(complex(d, 0)) - 2 + m.Characteristic(complex(-d, 0))) / complex(d*d, 0)
	mean := m.MeanFromCharacteristic()
	return real(second) - mean*mean
}

// PDF inverts the characteristic function into a density grid.
func (m *Marginal) PDF(cfg transform.Config) (transform.Grid, error) {
	return transform.Density(m.Characteristic, cfg)
}

// CDF inverts the characteristic function into a cumulative grid.
func (m *Marginal) CDF(cfg transform.Config) (transform.Grid, error) {
	return transform.Cumulative(m.Characteristic, cfg)
}

// DiscreteCDF recovers the cumulative distribution on integer support, for
// counting processes whose characteristic function is 2*pi periodic.
func (m *Marginal) DiscreteCDF(points int, cfg transform.Config) (transform.Grid, error) {
	return transform.DiscreteCDF(m.Characteristic, points, cfg)
}

// DiscretePDF recovers the probability mass function on integer support.
func (m *Marginal) DiscretePDF(points int, cfg transform.Config) (transform.Grid, error) {
	return transform.DiscretePDF(m.Characteristic, points, cfg)
}

// GridConfig builds a transform configuration centered on the marginal
// mean. With the FRFT strategy the space grid covers four standard
// deviations each side; the FFT strategy keeps its coupled space step and
// only recenters the grid.
func (m *Marginal) GridConfig(n int, maxFrequency float64, strategy transform.Strategy) transform.Config {
	cfg := transform.Config{
		N:        n,
		DeltaU:   maxFrequency / float64(n),
		Rule:     transform.Simpson,
		Strategy: strategy,
	}
	if strategy == transform.FRFT {
		std := m.Std()
		if std <= 0 || math.IsNaN(std) {
			std = 1
		}
		cfg.DeltaX = 8 * std / float64(n)
	}
	cfg.B = 0.5*float64(n)*cfg.StepX() - m.Mean()
	return cfg
}
