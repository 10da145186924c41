package transform

import (
	"fmt"
	"math"
	"math/cmplx"
)

// DiscreteCDF recovers the cumulative distribution of an integer-supported
// distribution (counting processes) from its characteristic function.
//
// Integer support makes the characteristic function 2*pi periodic, so the
// inversion integrates over [0, pi] only, with the Dirichlet kernel
// sin((m+1)u/2)/sin(u/2) collecting the mass of {0, ..., m}:
//
//	F(m) = (1/pi) int_0^pi sin((m+1)u/2)/sin(u/2) Re[phi(u) e^{-imu/2}] du
//
// points is the number of integer support points to evaluate. Only the
// rule and N of cfg are used; the frequency step is fixed to pi/N.
func DiscreteCDF(phi func(u complex128) complex128, points int, cfg Config) (Grid, error) {
	if cfg.N <= 0 || cfg.N&(cfg.N-1) != 0 {
		return Grid{}, fmt.Errorf("transform: N must be a positive power of two, got %d", cfg.N)
	}
	if points <= 0 {
		return Grid{}, fmt.Errorf("transform: need a positive number of support points, got %d", points)
	}

	du := math.Pi / float64(cfg.N)
	h := cfg.Weights()

	c := make([]complex128, cfg.N)
	for m := range c {
		u := float64(m) * du
		c[m] = phi(complex(u, 0))
		if !isFinite(c[m]) {
			return Grid{}, &InstabilityError{U: complex(u, 0)}
		}
	}

	raw := make([]float64, points)
	for m := 0; m < points; m++ {
		sum := 0.0
		for j := 0; j < cfg.N; j++ {
			u := float64(j) * du
			var f float64
			if j == 0 {
				// u -> 0 limit of the Dirichlet kernel is m+1.
				f = float64(m+1) * real(c[0])
			} else {
				kernel := math.Sin(0.5*float64(m+1)*u) / math.Sin(0.5*u)
				f = kernel * real(c[j]*cmplx.Exp(complex(0, -0.5*float64(m)*u)))
			}
			sum += h[j] * f
		}
		raw[m] = sum * du / math.Pi
	}

	// Clamp the per-point mass to be non-negative before accumulating so
	// quadrature noise cannot produce a decreasing CDF.
	out := Grid{X: make([]float64, points), Y: make([]float64, points)}
	prev := 0.0
	acc := 0.0
	for m := 0; m < points; m++ {
		mass := raw[m] - prev
		prev = raw[m]
		if mass > 0 {
			acc += mass
		}
		out.X[m] = float64(m)
		out.Y[m] = math.Min(acc, 1)
	}
	return out, nil
}

// DiscretePDF recovers the probability mass function of an
// integer-supported distribution by differencing DiscreteCDF.
func DiscretePDF(phi func(u complex128) complex128, points int, cfg Config) (Grid, error) {
	cdf, err := DiscreteCDF(phi, points, cfg)
	if err != nil {
		return Grid{}, err
	}
	out := Grid{X: cdf.X, Y: make([]float64, len(cdf.Y))}
	prev := 0.0
	for m, v := range cdf.Y {
		out.Y[m] = v - prev
		prev = v
	}
	return out, nil
}
