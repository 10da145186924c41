package option

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurface(t *testing.T) *VolSurface {
	t.Helper()
	// flat 30% vol, forward 100 at every maturity, puts below the
	// forward and calls above
	sigma := 0.3
	forward := 100.0
	var forwards []ForwardInput
	var options []OptionInput
	for _, ttm := range []float64{0.25, 0.5, 1} {
		forwards = append(forwards, ForwardInput{TTM: ttm, Bid: forward, Ask: forward})
		for _, strike := range []float64{80, 90, 100, 110, 120} {
			k := math.Log(strike / forward)
			call := strike >= forward
			price := BlackCall(k, sigma, ttm)
			if !call {
				price += math.Exp(k) - 1
			}
			price *= forward
			options = append(options, OptionInput{
				Strike: strike,
				TTM:    ttm,
				Call:   call,
				Bid:    price,
				Ask:    price,
			})
		}
	}
	in := SurfaceInput{
		Spot:     Price{Bid: forward, Ask: forward},
		Forwards: forwards,
		Options:  options,
	}
	surface, err := in.Surface()
	require.NoError(t, err)
	return surface
}

func TestVolSurfaceSortsSections(t *testing.T) {
	surface, err := NewVolSurface(Price{Bid: 100, Ask: 100}, []CrossSection{
		{TTM: 1, Forward: Price{Bid: 100, Ask: 100}},
		{TTM: 0.25, Forward: Price{Bid: 100, Ask: 100}},
		{TTM: 0.5, Forward: Price{Bid: 100, Ask: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 1}, surface.TermStructure())
}

func TestVolSurfaceValidation(t *testing.T) {
	good := Price{Bid: 100, Ask: 100}
	tests := map[string]struct {
		spot     Price
		sections []CrossSection
	}{
		"zero spot":     {Price{}, []CrossSection{{TTM: 1, Forward: good}}},
		"crossed spot":  {Price{Bid: 100, Ask: 99}, []CrossSection{{TTM: 1, Forward: good}}},
		"duplicate ttm": {good, []CrossSection{{TTM: 1, Forward: good}, {TTM: 1, Forward: good}}},
		"zero forward":  {good, []CrossSection{{TTM: 1}}},
		"zero ttm":      {good, []CrossSection{{TTM: 0, Forward: good}}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewVolSurface(tc.spot, tc.sections)
			assert.Error(t, err)
		})
	}
}

func TestSurfaceInputValidation(t *testing.T) {
	_, err := SurfaceInput{
		Spot: Price{Bid: 100, Ask: 100},
		Forwards: []ForwardInput{
			{TTM: 1, Bid: 100, Ask: 100},
			{TTM: 1, Bid: 101, Ask: 101},
		},
	}.Surface()
	assert.ErrorContains(t, err, "duplicate forward maturity")

	_, err = SurfaceInput{
		Spot:     Price{Bid: 100, Ask: 100},
		Forwards: []ForwardInput{{TTM: 1, Bid: 100, Ask: 100}},
		Options:  []OptionInput{{Strike: 100, TTM: 0.5, Call: true, Bid: 1, Ask: 1}},
	}.Surface()
	assert.ErrorContains(t, err, "no forward quote")
}

func TestSurfaceJSONRoundTrip(t *testing.T) {
	surface := testSurface(t)

	data, err := surface.JSON()
	require.NoError(t, err)
	back, err := SurfaceFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, surface, back)
	assert.Equal(t, surface.Inputs(), back.Inputs())
}

func TestOptionPricesRecoversFlatVol(t *testing.T) {
	surface := testSurface(t)

	prices, err := surface.OptionPrices(IVConfig{})
	require.NoError(t, err)
	require.Len(t, prices, 15)
	for _, p := range prices {
		assert.InDelta(t, 0.3, p.Vol.Bid, 1e-6, "k=%g ttm=%g", p.Moneyness, p.TTM)
		assert.InDelta(t, 0.3, p.Vol.Ask, 1e-6, "k=%g ttm=%g", p.Moneyness, p.TTM)
		// puts were converted through parity, so normalized call
		// prices must respect the arbitrage bounds
		assert.Greater(t, p.Call.Bid, IntrinsicValue(p.Moneyness))
		assert.Less(t, p.Call.Ask, 1.0)
	}
}

func TestOptionPricesRejectsArbitrageViolation(t *testing.T) {
	in := SurfaceInput{
		Spot:     Price{Bid: 100, Ask: 100},
		Forwards: []ForwardInput{{TTM: 1, Bid: 100, Ask: 100}},
		// call quoted above the forward
		Options: []OptionInput{{Strike: 100, TTM: 1, Call: true, Bid: 101, Ask: 101}},
	}
	surface, err := in.Surface()
	require.NoError(t, err)
	_, err = surface.OptionPrices(IVConfig{})
	assert.Error(t, err)
}
