package transform

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Frft computes the fractional discrete Fourier transform

//	X_j = sum_m x_m e^{-i j m zeta}
//
// for an arbitrary zeta via the chirp-z decomposition: jm = (j^2 + m^2 -
// (j-m)^2)/2 turns the sum into a convolution of two chirp sequences, which
// is evaluated with two length-2N FFTs and one inverse. With zeta = 2*pi/N
// this reduces to the ordinary DFT.
func Frft(x []complex128, zeta float64) []complex128 {
	n := len(x)
	y := make([]complex128, 2*n)
	z := make([]complex128, 2*n)
	for j := 0; j < n; j++ {
		ez := chirp(float64(j), zeta)
		y[j] = x[j] / ez
		z[j] = ez
		// wrap-around part of the chirp so the circular convolution
		// matches the linear one on the first n entries
		z[n+j] = chirp(float64(n-j), zeta)
	}

	fft := fourier.NewCmplxFFT(2 * n)
	fy := fft.Coefficients(nil, y)
	fz := fft.Coefficients(nil, z)
	for j := range fy {
		fy[j] *= fz[j]
	}
	// gonum's Sequence is the unnormalized inverse
	conv := fft.Sequence(nil, fy)

	out := make([]complex128, n)
	norm := complex(1/float64(2*n), 0)
	for j := 0; j < n; j++ {
		out[j] = conv[j] * norm / chirp(float64(j), zeta)
	}
	return out
}

// chirp returns e^{i g^2 zeta/2}.
func chirp(g, zeta float64) complex128 {
	return cmplx.Exp(complex(0, 0.5*g*g*zeta))
}
