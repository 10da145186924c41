package option

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/levy/pkg/config"
	"github.com/wonny/levy/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

// hestonSurface prices noise-free quotes from a known parameter set.
func hestonSurface(t *testing.T, params HestonParams) *VolSurface {
	t.Helper()
	model, err := params.Process()
	require.NoError(t, err)
	pricer := NewPricer(model, PricerConfig{})

	forward := 100.0
	var forwards []ForwardInput
	var options []OptionInput
	for _, ttm := range []float64{0.25, 0.5, 1} {
		slice, err := pricer.Maturity(ttm)
		require.NoError(t, err)
		forwards = append(forwards, ForwardInput{TTM: ttm, Bid: forward, Ask: forward})
		for _, strike := range []float64{80, 90, 100, 110, 120} {
			k := math.Log(strike / forward)
			price := forward * slice.CallPrice(k)
			options = append(options, OptionInput{
				Strike: strike,
				TTM:    ttm,
				Call:   true,
				Bid:    price,
				Ask:    price,
			})
		}
	}
	surface, err := SurfaceInput{
		Spot:     Price{Bid: forward, Ask: forward},
		Forwards: forwards,
		Options:  options,
	}.Surface()
	require.NoError(t, err)
	return surface
}

func TestHestonParamsVectorRoundTrip(t *testing.T) {
	params := HestonParams{V0: 0.04, Theta: 0.09, Kappa: 1.5, Sigma: 0.6, Rho: -0.7}
	back := paramsFromVector(params.vector())
	assert.InDelta(t, params.V0, back.V0, 1e-12)
	assert.InDelta(t, params.Theta, back.Theta, 1e-12)
	assert.InDelta(t, params.Kappa, back.Kappa, 1e-12)
	assert.InDelta(t, params.Sigma, back.Sigma, 1e-12)
	assert.InDelta(t, params.Rho, back.Rho, 1e-12)
}

func TestHestonParamsFellerViolation(t *testing.T) {
	assert.False(t, HestonParams{V0: 0.25, Theta: 0.25, Kappa: 1, Sigma: 0.5}.FellerViolation())
	assert.True(t, HestonParams{V0: 0.25, Theta: 0.04, Kappa: 1, Sigma: 0.5}.FellerViolation())
}

func TestHestonCalibrationCostAtTruth(t *testing.T) {
	truth := HestonParams{V0: 0.25, Theta: 0.25, Kappa: 1, Sigma: 0.5, Rho: -0.5}
	surface := hestonSurface(t, truth)

	cal, err := NewHestonCalibration(surface, CalibrationConfig{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 15, cal.Samples())

	cost, err := cal.Cost(truth)
	require.NoError(t, err)
	assert.Less(t, cost, 1e-8, "residual at the generating parameters")
}

func TestHestonCalibrationReusesPricedMaturities(t *testing.T) {
	truth := HestonParams{V0: 0.25, Theta: 0.25, Kappa: 1, Sigma: 0.5, Rho: -0.5}
	surface := hestonSurface(t, truth)

	cal, err := NewHestonCalibration(surface, CalibrationConfig{}, testLogger())
	require.NoError(t, err)

	_, err = cal.Cost(truth)
	require.NoError(t, err)
	first, err := cal.pricer(truth)
	require.NoError(t, err)
	slice, err := first.Maturity(0.5)
	require.NoError(t, err)

	// a second evaluation at the same parameters must not rebuild the
	// pricer or reprice the maturities
	_, err = cal.Cost(truth)
	require.NoError(t, err)
	second, err := cal.pricer(truth)
	require.NoError(t, err)
	assert.Same(t, first, second)
	again, err := second.Maturity(0.5)
	require.NoError(t, err)
	assert.Same(t, slice, again)

	// distinct parameters get their own pricer
	other, err := cal.pricer(HestonParams{V0: 0.2, Theta: 0.2, Kappa: 1, Sigma: 0.5, Rho: -0.5})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestHestonCalibrationRecoversParameters(t *testing.T) {
	if testing.Short() {
		t.Skip("optimizer run")
	}
	truth := HestonParams{V0: 0.25, Theta: 0.25, Kappa: 1, Sigma: 0.5, Rho: -0.5}
	surface := hestonSurface(t, truth)

	cal, err := NewHestonCalibration(surface, CalibrationConfig{Tolerance: 1e-7}, testLogger())
	require.NoError(t, err)

	initial := HestonParams{V0: 0.2, Theta: 0.3, Kappa: 1.2, Sigma: 0.4, Rho: -0.3}
	result, err := cal.Calibrate(initial)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.True(t, result.Converged)
	assert.Greater(t, result.Evaluations, 0)
	assert.InEpsilon(t, truth.V0, result.Params.V0, 0.1)
	assert.InEpsilon(t, truth.Theta, result.Params.Theta, 0.1)
	assert.InEpsilon(t, truth.Kappa, result.Params.Kappa, 0.1)
	assert.InEpsilon(t, truth.Sigma, result.Params.Sigma, 0.1)
	assert.InDelta(t, truth.Rho, result.Params.Rho, 0.05)
}

func TestHestonCalibrationDivergedReturnsBestResult(t *testing.T) {
	truth := HestonParams{V0: 0.25, Theta: 0.25, Kappa: 1, Sigma: 0.5, Rho: -0.5}
	surface := hestonSurface(t, truth)

	cal, err := NewHestonCalibration(surface, CalibrationConfig{
		MaxIterations: 2,
		Tolerance:     1e-15,
	}, testLogger())
	require.NoError(t, err)

	result, err := cal.Calibrate(HestonParams{V0: 0.5, Theta: 0.1, Kappa: 3, Sigma: 1, Rho: 0.5})
	assert.ErrorIs(t, err, ErrCalibrationDiverged)
	require.NotNil(t, result)
	assert.False(t, result.Converged)
	assert.Greater(t, result.Params.V0, 0.0)
}

func TestCalEntryResidualBand(t *testing.T) {
	e := calEntry{volBid: 0.28, volAsk: 0.32}
	assert.Equal(t, 0.0, e.residual(0.30), "inside the band")
	assert.Equal(t, 0.0, e.residual(0.28))
	assert.InDelta(t, 0.02, e.residual(0.26), 1e-15)
	assert.InDelta(t, 0.03, e.residual(0.35), 1e-15)
}

func TestHestonCalibrationFellerPenalty(t *testing.T) {
	surface := testSurface(t)
	violating := HestonParams{V0: 0.09, Theta: 0.04, Kappa: 1, Sigma: 0.5, Rho: -0.3}
	require.True(t, violating.FellerViolation())

	plain, err := NewHestonCalibration(surface, CalibrationConfig{}, testLogger())
	require.NoError(t, err)
	penalized, err := NewHestonCalibration(surface, CalibrationConfig{FellerPenalty: 10}, testLogger())
	require.NoError(t, err)

	base, err := plain.Cost(violating)
	require.NoError(t, err)
	withPenalty, err := penalized.Cost(violating)
	require.NoError(t, err)
	assert.Greater(t, withPenalty, base)
}

func TestHestonCalibrationQuantileCut(t *testing.T) {
	surface := testSurface(t)
	// corrupt one quote far above the rest of the surface
	in := surface.Inputs()
	in.Options = append(in.Options, OptionInput{
		Strike: 100,
		TTM:    1,
		Call:   true,
		Bid:    100 * BlackCall(0, 1.5, 1),
		Ask:    100 * BlackCall(0, 1.5, 1),
	})
	corrupted, err := in.Surface()
	require.NoError(t, err)

	all, err := NewHestonCalibration(corrupted, CalibrationConfig{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 16, all.Samples())

	trimmed, err := NewHestonCalibration(corrupted, CalibrationConfig{QuantileCut: 0.9}, testLogger())
	require.NoError(t, err)
	assert.Less(t, trimmed.Samples(), 16)
}
