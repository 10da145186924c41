package option

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackCallKnownValues(t *testing.T) {
	// at the money, sigma=0.3, ttm=1: price = 2*N(0.15) - 1
	price := BlackCall(0, 0.3, 1)
	assert.InDelta(t, 0.11924, price, 1e-5)

	// deep in the money converges to intrinsic
	assert.InDelta(t, IntrinsicValue(-3), BlackCall(-3, 0.2, 1), 1e-6)
	// deep out of the money converges to zero
	assert.InDelta(t, 0, BlackCall(3, 0.2, 1), 1e-6)
}

func TestBlackCallMonotoneInVol(t *testing.T) {
	prev := 0.0
	for _, sigma := range []float64{0.1, 0.2, 0.4, 0.8} {
		price := BlackCall(0.1, sigma, 0.5)
		assert.Greater(t, price, prev)
		prev = price
	}
}

func TestBlackPutParity(t *testing.T) {
	for _, k := range []float64{-0.5, -0.1, 0, 0.1, 0.5} {
		call := BlackCall(k, 0.25, 0.75)
		put := BlackPut(k, 0.25, 0.75)
		assert.InDelta(t, call-put, 1-math.Exp(k), 1e-12, "parity at k=%g", k)
	}
}

func TestBlackVegaMatchesFiniteDifference(t *testing.T) {
	d := 1e-6
	for _, k := range []float64{-0.3, 0, 0.3} {
		vega := BlackVega(k, 0.3, 1)
		fd := (BlackCall(k, 0.3+d, 1) - BlackCall(k, 0.3-d, 1)) / (2 * d)
		assert.InDelta(t, fd, vega, 1e-6, "vega at k=%g", k)
	}
}

func TestImpliedVolRoundTrip(t *testing.T) {
	sigma := 0.3
	for _, k := range []float64{-0.5, -0.2, 0, 0.2, 0.5} {
		for _, ttm := range []float64{0.1, 0.5, 2} {
			price := BlackCall(k, sigma, ttm)
			res, err := ImpliedVol(price, k, ttm, IVConfig{})
			require.NoError(t, err, "k=%g ttm=%g", k, ttm)
			assert.True(t, res.Converged)
			assert.InDelta(t, sigma, res.Sigma, 1e-6, "k=%g ttm=%g", k, ttm)
		}
	}
}

func TestImpliedVolDeepWingAccuracy(t *testing.T) {
	// Far out of the money the vega is tiny, so the price error criterion
	// alone is satisfied long before the vol itself has converged.
	sigma := 0.2
	price := BlackCall(1, sigma, 0.1)
	res, err := ImpliedVol(price, 1, 0.1, IVConfig{})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, sigma, res.Sigma, 1e-6)
}

func TestImpliedVolUsesInitialGuess(t *testing.T) {
	price := BlackCall(0, 0.3, 1)
	near, err := ImpliedVol(price, 0, 1, IVConfig{InitialGuess: 0.29})
	require.NoError(t, err)
	far, err := ImpliedVol(price, 0, 1, IVConfig{InitialGuess: 2.5})
	require.NoError(t, err)
	assert.LessOrEqual(t, near.Iterations, far.Iterations)
}

func TestImpliedVolBudgetExhaustion(t *testing.T) {
	price := BlackCall(0.4, 0.3, 0.5)
	res, err := ImpliedVol(price, 0.4, 0.5, IVConfig{MaxIterations: 2, InitialGuess: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoConvergence)
	// the last iterate is still reported
	assert.False(t, res.Converged)
	assert.Greater(t, res.Sigma, 0.0)
}

func TestImpliedVolRejectsArbitrageViolations(t *testing.T) {
	_, err := ImpliedVol(1.2, 0, 1, IVConfig{})
	assert.Error(t, err)
	_, err = ImpliedVol(IntrinsicValue(-0.5)-0.01, -0.5, 1, IVConfig{})
	assert.Error(t, err)
	_, err = ImpliedVol(0.1, 0, -1, IVConfig{})
	assert.Error(t, err)
}
