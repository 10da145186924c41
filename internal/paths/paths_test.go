package paths

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNormalDrawsShape(t *testing.T) {
	d, err := NormalDraws(100, 2.0, 50, DrawConfig{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 100, d.N())
	assert.Equal(t, 50, d.Steps())
	assert.InDelta(t, 0.04, d.Dt(), 1e-15)
}

func TestNormalDrawsRejectsBadArguments(t *testing.T) {
	_, err := NormalDraws(0, 1, 10, DrawConfig{})
	assert.Error(t, err)
	_, err = NormalDraws(10, 0, 10, DrawConfig{})
	assert.Error(t, err)
	_, err = NormalDraws(10, 1, 0, DrawConfig{})
	assert.Error(t, err)
}

func TestAntitheticMirroring(t *testing.T) {
	d, err := NormalDraws(100, 1, 20, DrawConfig{Antithetic: true, Seed: 3})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		for j := 0; j < 20; j++ {
			assert.Equal(t, d.Data[i][j], -d.Data[50+i][j])
		}
	}
}

func TestAntitheticOddPaths(t *testing.T) {
	// 101 paths: 51 independent, 50 mirrored
	d, err := NormalDraws(101, 1, 5, DrawConfig{Antithetic: true, Seed: 3})
	require.NoError(t, err)
	require.Equal(t, 101, d.N())
	for i := 0; i < 50; i++ {
		for j := 0; j < 5; j++ {
			assert.Equal(t, d.Data[i][j], -d.Data[51+i][j])
		}
	}
}

func TestDrawsUnitVariance(t *testing.T) {
	// scaled by sqrt(dt) the increments must carry variance ~ dt; checked
	// here on the unit draws, which must have variance ~ 1 within Monte
	// Carlo error
	d, err := NormalDraws(200, 1, 100, DrawConfig{Seed: 11})
	require.NoError(t, err)
	flat := make([]float64, 0, 200*100)
	for _, row := range d.Data {
		flat = append(flat, row...)
	}
	se := math.Sqrt(2.0 / float64(len(flat)-1))
	assert.InDelta(t, 1.0, stat.Variance(flat, nil), 3*se)
	assert.InDelta(t, 0.0, stat.Mean(flat, nil), 3/math.Sqrt(float64(len(flat))))
}

func TestPathsStatistics(t *testing.T) {
	p := New(2, 1.0, 2)
	p.Data[0] = []float64{0, 1, 2}
	p.Data[1] = []float64{0, 3, 6}

	assert.Equal(t, []float64{0, 0.5, 1}, p.Time())
	assert.Equal(t, []float64{2, 6}, p.Terminal())
	assert.Equal(t, []float64{1, 3}, p.CrossSection(1))
	assert.Equal(t, []float64{0, 2, 4}, p.Mean())
	assert.Equal(t, 0.0, p.Min())
}

func TestIntegrate(t *testing.T) {
	// constant rate path: the clock is linear in time
	p := New(1, 1.0, 4)
	for j := range p.Data[0] {
		p.Data[0][j] = 2.0
	}
	clock := p.Integrate()
	for j, tau := range clock.Data[0] {
		assert.InDelta(t, 2*float64(j)*0.25, tau, 1e-15, "clock at step %d", j)
	}
}
