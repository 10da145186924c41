package option

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"sync"

	"github.com/wonny/levy/internal/process"
	"github.com/wonny/levy/internal/transform"
)

// ttmFactor quantizes maturities for cache keys so calibration iterations
// that revisit a maturity hit the cache.
const ttmFactor = 10000

// PricerConfig tunes the call-option transform.
type PricerConfig struct {
	// N is the transform grid size; 0 defaults to 128.
	N int
	// MaxMoneynessTTM scales the moneyness support: the grid spans
	// +/- MaxMoneynessTTM*sqrt(ttm). 0 defaults to 1.5.
	MaxMoneynessTTM float64
	// MaxFrequency is the upper end of the frequency grid; 0 defaults
	// to 20.
	MaxFrequency float64
	// Alpha is the Carr-Madan damping factor; 0 defaults to 2. It must
	// keep the corrected characteristic function finite at -(alpha+1)i,
	// which is validated before each transform.
	Alpha float64
	// Rule selects the quadrature weights.
	Rule transform.Rule
	// Strategy selects the transform. The default FRFT concentrates the
	// grid on +/- MaxMoneynessTTM*sqrt(ttm); the plain FFT locks the
	// moneyness step to 2*pi/MaxFrequency and needs a much larger N and
	// MaxFrequency for comparable resolution.
	Strategy transform.Strategy
}

func (c PricerConfig) withDefaults() PricerConfig {
	if c.N == 0 {
		c.N = 128
	}
	if c.MaxMoneynessTTM == 0 {
		c.MaxMoneynessTTM = 1.5
	}
	if c.MaxFrequency == 0 {
		c.MaxFrequency = 20
	}
	if c.Alpha == 0 {
		c.Alpha = 2
	}
	return c
}

// MaturitySlice is the priced cross-section at one maturity: call prices
// on a moneyness grid, ready for interpolation and implied vol inversion.
type MaturitySlice struct {
	TTM       float64
	Std       float64
	Moneyness []float64
	Call      []float64
}

// CallPrice linearly interpolates the call price at the given moneyness.
// Outside the grid the boundary value is returned.
func (s *MaturitySlice) CallPrice(k float64) float64 {
	i := sort.SearchFloat64s(s.Moneyness, k)
	switch {
	case i == 0:
		return s.Call[0]
	case i == len(s.Moneyness):
		return s.Call[len(s.Call)-1]
	}
	x0, x1 := s.Moneyness[i-1], s.Moneyness[i]
	y0, y1 := s.Call[i-1], s.Call[i]
	return y0 + (y1-y0)*(k-x0)/(x1-x0)
}

// ImpliedVols inverts the Black volatility at every grid point. Deep wings
// where the price carries no volatility information come back as NaN.
func (s *MaturitySlice) ImpliedVols(cfg IVConfig) []float64 {
	if cfg.InitialGuess == 0 {
		cfg.InitialGuess = s.vol()
	}
	out := make([]float64, len(s.Call))
	for i, price := range s.Call {
		res, err := ImpliedVol(price, s.Moneyness[i], s.TTM, cfg)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = res.Sigma
	}
	return out
}

// vol is the process's own annualized volatility at this maturity, the
// natural starting point for implied vol inversions.
func (s *MaturitySlice) vol() float64 {
	return s.Std / math.Sqrt(s.TTM)
}

// Pricer maps a process and a maturity to a call-price curve through the
// Carr-Madan transform. Cross-sections are cached per (parameter hash,
// maturity, grid config) so calibration iterations that revisit a maturity
// with unchanged parameters skip the transform. The pricer is safe for
// concurrent use.
type Pricer struct {
	model process.Process
	cfg   PricerConfig

	mu    sync.Mutex
	cache map[string]*MaturitySlice
}

// NewPricer builds a pricer for the model.
func NewPricer(model process.Process, cfg PricerConfig) *Pricer {
	return &Pricer{
		model: model,
		cfg:   cfg.withDefaults(),
		cache: make(map[string]*MaturitySlice),
	}
}

// Model returns the process being priced.
func (p *Pricer) Model() process.Process { return p.model }

// Reset clears the cross-section cache.
func (p *Pricer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]*MaturitySlice)
}

// Maturity prices the cross-section at the given time to maturity,
// computing it once and serving repeats from the cache.
func (p *Pricer) Maturity(ttm float64) (*MaturitySlice, error) {
	if ttm <= 0 {
		return nil, fmt.Errorf("option: time to maturity must be positive, got %g", ttm)
	}
	ttm = math.Round(ttm*ttmFactor) / ttmFactor
	key := p.cacheKey(ttm)

	p.mu.Lock()
	slice, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		return slice, nil
	}

	marginal := process.NewMarginal(p.model, ttm)
	grid, err := callPrices(marginal, p.cfg)
	if err != nil {
		return nil, err
	}
	slice = &MaturitySlice{
		TTM:       ttm,
		Std:       marginal.Std(),
		Moneyness: grid.X,
		Call:      grid.Y,
	}

	p.mu.Lock()
	p.cache[key] = slice
	p.mu.Unlock()
	return slice, nil
}

// CallPrice prices a single call at the given maturity and moneyness.
func (p *Pricer) CallPrice(ttm, moneyness float64) (float64, error) {
	slice, err := p.Maturity(ttm)
	if err != nil {
		return 0, err
	}
	return slice.CallPrice(moneyness), nil
}

func (p *Pricer) cacheKey(ttm float64) string {
	payload, _ := json.Marshal(struct {
		Params map[string]float64 `json:"params"`
		TTM    int64              `json:"ttm"`
		Config PricerConfig       `json:"config"`
	}{
		Params: p.model.Parameters(),
		TTM:    int64(math.Round(ttm * ttmFactor)),
		Config: p.cfg,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// callPrices runs the Carr-Madan transform: the Fourier transform of the
// dampened call price Psi(u) = Phi_c(u-i)/(iu(iu+1)) is sampled at
// u = v - i*alpha, inverted like a density, and the result multiplied by
// e^{-alpha*k}. Phi_c is the convexity-corrected characteristic function,
// which makes E[e^{s_t}] = 1 under the forward-normalized convention.
func callPrices(m *process.Marginal, cfg PricerConfig) (transform.Grid, error) {
	maxMoneyness := cfg.MaxMoneynessTTM * math.Sqrt(m.T())
	tcfg := transform.Config{
		N:        cfg.N,
		DeltaU:   cfg.MaxFrequency / float64(cfg.N),
		DeltaX:   2 * maxMoneyness / float64(cfg.N),
		B:        maxMoneyness,
		Rule:     cfg.Rule,
		Strategy: cfg.Strategy,
	}
	if cfg.Strategy == transform.FFT {
		// the FFT locks the moneyness step; center the grid on k=0
		tcfg.DeltaX = 0
		tcfg.B = 0.5 * float64(cfg.N) * tcfg.StepX()
	}
	if err := tcfg.Validate(); err != nil {
		return transform.Grid{}, err
	}

	// convexity correction c = log Phi(-i)
	convexity := -m.CharacteristicExponent(complex(0, -1))
	corrected := func(u complex128) complex128 {
		return cmplx.Exp(-m.CharacteristicExponent(u) - complex(0, 1)*u*convexity)
	}

	// The damping must keep the transform square integrable: the corrected
	// characteristic function has to be finite at -(alpha+1)i. Checked up
	// front so a bad alpha fails before any grid work.
	limit := corrected(complex(0, -(cfg.Alpha + 1)))
	if cmplx.IsNaN(limit) || cmplx.IsInf(limit) {
		return transform.Grid{}, fmt.Errorf(
			"option: damping alpha=%g invalid for this process at ttm=%g: %w",
			cfg.Alpha, m.T(), &transform.InstabilityError{U: complex(0, -(cfg.Alpha + 1))})
	}

	psi := make([]complex128, cfg.N)
	for j := range psi {
		u := complex(float64(j)*tcfg.DeltaU, -cfg.Alpha)
		iu := complex(0, 1) * u
		psi[j] = corrected(u-complex(0, 1)) / (iu*iu + iu)
	}

	grid, err := transform.Invert(psi, tcfg)
	if err != nil {
		return transform.Grid{}, err
	}
	for j, k := range grid.X {
		grid.Y[j] *= math.Exp(-cfg.Alpha * k)
	}
	return grid, nil
}
