package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/levy/internal/process"
	"github.com/wonny/levy/internal/transform"
)

func TestPricerMatchesBlackForBrownian(t *testing.T) {
	// For a Brownian underlier the transform prices must reproduce the
	// Black formula with the same volatility.
	sigma := 0.25
	model, err := process.NewWeiner(sigma)
	require.NoError(t, err)

	pricer := NewPricer(model, PricerConfig{})
	for _, ttm := range []float64{0.5, 1} {
		slice, err := pricer.Maturity(ttm)
		require.NoError(t, err)
		for j, k := range slice.Moneyness {
			want := BlackCall(k, sigma, ttm)
			assert.InDelta(t, want, slice.Call[j], 1e-3, "ttm=%g k=%g", ttm, k)
		}
	}
}

func TestPricerImpliedVolsFlatForBrownian(t *testing.T) {
	sigma := 0.25
	model, err := process.NewWeiner(sigma)
	require.NoError(t, err)

	// MaxFrequency 20 truncates the Gaussian tail of the integrand near
	// exp(-6.25), which leaks basis points of vol into the wings; 40
	// pushes the truncation below the grid's roundoff.
	slice, err := NewPricer(model, PricerConfig{MaxFrequency: 40}).Maturity(0.5)
	require.NoError(t, err)
	// deep wings carry no vega, so only the central strikes identify a vol
	for j, k := range slice.Moneyness {
		if k < -0.5 || k > 0.5 {
			continue
		}
		res, err := ImpliedVol(slice.Call[j], k, slice.TTM, IVConfig{})
		require.NoError(t, err, "k=%g", k)
		assert.InDelta(t, sigma, res.Sigma, 1e-6, "k=%g", k)
	}
}

func TestPricerFFTStrategy(t *testing.T) {
	// The plain FFT locks the moneyness step to 2*pi/MaxFrequency, so a
	// usable grid needs a much denser frequency range than the FRFT.
	sigma := 0.25
	model, err := process.NewWeiner(sigma)
	require.NoError(t, err)

	pricer := NewPricer(model, PricerConfig{
		N:            4096,
		MaxFrequency: 200,
		Strategy:     transform.FFT,
	})
	slice, err := pricer.Maturity(0.5)
	require.NoError(t, err)
	for _, k := range []float64{-0.3, -0.1, 0, 0.1, 0.3} {
		want := BlackCall(k, sigma, 0.5)
		assert.InDelta(t, want, slice.CallPrice(k), 1e-3, "k=%g", k)
	}
}

func TestPricerHestonSmile(t *testing.T) {
	model, err := process.HestonFromVol(1, 0.5, 1, 0.8, -0.5)
	require.NoError(t, err)

	slice, err := NewPricer(model, PricerConfig{}).Maturity(0.5)
	require.NoError(t, err)

	vol := func(k float64) float64 {
		res, err := ImpliedVol(slice.CallPrice(k), k, slice.TTM, IVConfig{})
		require.NoError(t, err, "k=%g", k)
		return res.Sigma
	}
	// negative correlation skews the smile: downside vols above upside
	assert.Greater(t, vol(-0.3), vol(0.3))

	// prices stay within arbitrage bounds
	for j, c := range slice.Call {
		assert.GreaterOrEqual(t, c, IntrinsicValue(slice.Moneyness[j])-1e-9)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestPricerCache(t *testing.T) {
	model, err := process.NewWeiner(0.3)
	require.NoError(t, err)
	pricer := NewPricer(model, PricerConfig{})

	a, err := pricer.Maturity(0.5)
	require.NoError(t, err)
	b, err := pricer.Maturity(0.5)
	require.NoError(t, err)
	assert.Same(t, a, b, "second lookup must hit the cache")

	// maturities quantized to the same key share the entry
	c, err := pricer.Maturity(0.500004)
	require.NoError(t, err)
	assert.Same(t, a, c)

	pricer.Reset()
	d, err := pricer.Maturity(0.5)
	require.NoError(t, err)
	assert.NotSame(t, a, d)
	assert.Equal(t, a.Call, d.Call)
}

func TestPricerRejectsBadMaturity(t *testing.T) {
	model, err := process.NewWeiner(0.3)
	require.NoError(t, err)
	_, err = NewPricer(model, PricerConfig{}).Maturity(0)
	assert.Error(t, err)
}

func TestMaturitySliceInterpolation(t *testing.T) {
	slice := &MaturitySlice{
		TTM:       1,
		Moneyness: []float64{-1, 0, 1},
		Call:      []float64{0.9, 0.5, 0.1},
	}
	assert.Equal(t, 0.5, slice.CallPrice(0))
	assert.InDelta(t, 0.7, slice.CallPrice(-0.5), 1e-15)
	// outside the grid the boundary value is used
	assert.Equal(t, 0.9, slice.CallPrice(-2))
	assert.Equal(t, 0.1, slice.CallPrice(2))
}

func TestCallPriceSingle(t *testing.T) {
	model, err := process.NewWeiner(0.25)
	require.NoError(t, err)
	pricer := NewPricer(model, PricerConfig{})

	price, err := pricer.CallPrice(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, BlackCall(0, 0.25, 1), price, 1e-3)
}
