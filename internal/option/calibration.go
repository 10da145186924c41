package option

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/levy/internal/process"
	"github.com/wonny/levy/pkg/logger"
)

// ErrCalibrationDiverged reports a fit that did not bring the residual
// below tolerance within the iteration budget. The best-found parameter
// set is still returned.
var ErrCalibrationDiverged = errors.New("calibration diverged")

// HestonParams is the parameter vector the calibration searches over.
type HestonParams struct {
	V0    float64 // initial variance
	Theta float64 // long-term variance
	Kappa float64 // mean-reversion speed
	Sigma float64 // vol of vol
	Rho   float64 // correlation
}

// Process builds the immutable Heston model for this parameter set.
func (p HestonParams) Process() (*process.Heston, error) {
	variance, err := process.NewCIR(p.V0, p.Kappa, p.Sigma, p.Theta)
	if err != nil {
		return nil, err
	}
	return process.NewHeston(variance, p.Rho)
}

// FellerViolation reports whether 2*kappa*theta < sigma^2. Informational:
// pricing and calibration proceed regardless.
func (p HestonParams) FellerViolation() bool {
	return 2*p.Kappa*p.Theta < p.Sigma*p.Sigma
}

// vector maps the parameters onto an unconstrained search space: log
// transforms keep the positive parameters positive, atanh keeps rho inside
// (-1, 1).
func (p HestonParams) vector() []float64 {
	return []float64{
		math.Log(p.V0),
		math.Log(p.Theta),
		math.Log(p.Kappa),
		math.Log(p.Sigma),
		math.Atanh(p.Rho),
	}
}

func paramsFromVector(x []float64) HestonParams {
	return HestonParams{
		V0:    math.Exp(x[0]),
		Theta: math.Exp(x[1]),
		Kappa: math.Exp(x[2]),
		Sigma: math.Exp(x[3]),
		Rho:   math.Tanh(x[4]),
	}
}

// CalibrationConfig tunes the least-squares fit.
type CalibrationConfig struct {
	// MaxIterations bounds the optimizer; 0 defaults to 500.
	MaxIterations int
	// Tolerance is the residual the fit must reach to count as
	// converged; 0 defaults to 1e-4.
	Tolerance float64
	// QuantileCut removes quotes whose implied vol sits above this
	// quantile before fitting; 0 disables outlier removal.
	QuantileCut float64
	// MoneynessWeight down-weights quotes away from the money as
	// exp(-MoneynessWeight*|k|); 0 applies no penalty.
	MoneynessWeight float64
	// TTMWeight down-weights short maturities as 1-TTMWeight*exp(-ttm);
	// 0 applies no penalty, 1 penalizes ttm->0 the most.
	TTMWeight float64
	// FellerPenalty adds FellerPenalty*max(0, sigma^2-2*kappa*theta) to
	// the cost, steering the fit toward positive variance; 0 disables it.
	FellerPenalty float64
	// Pricer configures the transform used for model prices.
	Pricer PricerConfig
	// IV configures the implied vol inversions of the market quotes.
	IV IVConfig
}

func (c CalibrationConfig) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return 500
}

func (c CalibrationConfig) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return 1e-4
}

// CalibrationResult is the outcome of a fit.
type CalibrationResult struct {
	RunID           string
	Params          HestonParams
	Cost            float64
	Evaluations     int
	Converged       bool
	FellerViolation bool
}

// calEntry is one target quote: model vol at (ttm, moneyness) is pulled
// into the market bid/ask vol band with the given weight. A model vol
// already inside the band contributes nothing to the residual.
type calEntry struct {
	ttm       float64
	moneyness float64
	volBid    float64
	volAsk    float64
	weight    float64
}

// residual is the distance of the model vol from the quote's vol band.
func (e calEntry) residual(vol float64) float64 {
	switch {
	case vol < e.volBid:
		return e.volBid - vol
	case vol > e.volAsk:
		return vol - e.volAsk
	}
	return 0
}

// pricerCacheSize bounds the number of parameter sets whose pricers are
// kept alive across cost evaluations.
const pricerCacheSize = 512

// HestonCalibration fits a Heston model to a volatility surface by
// weighted least squares on Black implied vols.
type HestonCalibration struct {
	cfg     CalibrationConfig
	log     *logger.Logger
	entries map[float64][]calEntry // keyed by ttm
	samples int

	mu      sync.Mutex
	pricers map[HestonParams]*Pricer
}

// NewHestonCalibration prepares the calibration targets from a surface:
// quotes are normalized, inverted to implied vols, optionally trimmed by
// the configured quantile, and weighted.
func NewHestonCalibration(surface *VolSurface, cfg CalibrationConfig, log *logger.Logger) (*HestonCalibration, error) {
	quotes, err := surface.OptionPrices(cfg.IV)
	if err != nil {
		return nil, fmt.Errorf("option: preparing calibration targets: %w", err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("option: surface has no option quotes")
	}

	if cfg.QuantileCut > 0 && cfg.QuantileCut < 1 {
		vols := make([]float64, len(quotes))
		for i, q := range quotes {
			vols[i] = math.Max(q.Vol.Bid, q.Vol.Ask)
		}
		sort.Float64s(vols)
		cut := stat.Quantile(cfg.QuantileCut, stat.Empirical, vols, nil)
		kept := quotes[:0]
		for _, q := range quotes {
			if math.Max(q.Vol.Bid, q.Vol.Ask) <= cut {
				kept = append(kept, q)
			}
		}
		quotes = kept
	}

	c := &HestonCalibration{
		cfg:     cfg,
		log:     log,
		entries: make(map[float64][]calEntry),
		pricers: make(map[HestonParams]*Pricer),
	}
	for _, q := range quotes {
		weight := math.Exp(-cfg.MoneynessWeight*math.Abs(q.Moneyness)) *
			(1 - cfg.TTMWeight*math.Exp(-q.TTM))
		c.entries[q.TTM] = append(c.entries[q.TTM], calEntry{
			ttm:       q.TTM,
			moneyness: q.Moneyness,
			volBid:    math.Min(q.Vol.Bid, q.Vol.Ask),
			volAsk:    math.Max(q.Vol.Bid, q.Vol.Ask),
			weight:    weight,
		})
		c.samples++
	}
	return c, nil
}

// Samples returns the number of target quotes after outlier removal.
func (c *HestonCalibration) Samples() int { return c.samples }

// pricer returns the pricer for a parameter set, building it on first use.
// Keeping pricers across cost evaluations preserves their priced
// maturities, so optimizer steps that revisit a parameter set skip the
// transforms entirely.
func (c *HestonCalibration) pricer(params HestonParams) (*Pricer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pricers[params]; ok {
		return p, nil
	}
	model, err := params.Process()
	if err != nil {
		return nil, err
	}
	if len(c.pricers) >= pricerCacheSize {
		c.pricers = make(map[HestonParams]*Pricer)
	}
	p := NewPricer(model, c.cfg.Pricer)
	c.pricers[params] = p
	return p, nil
}

// Cost evaluates the weighted mean squared vol residual for a parameter
// set. Maturities are priced concurrently; they share nothing but the
// read-only model.
func (c *HestonCalibration) Cost(params HestonParams) (float64, error) {
	pricer, err := c.pricer(params)
	if err != nil {
		return 0, err
	}

	costs := make([]float64, len(c.entries))
	var g errgroup.Group
	i := 0
	for _, entries := range c.entries {
		i++
		idx, entries := i-1, entries
		g.Go(func() error {
			slice, err := pricer.Maturity(entries[0].ttm)
			if err != nil {
				return err
			}
			ivCfg := c.cfg.IV
			if ivCfg.InitialGuess == 0 {
				ivCfg.InitialGuess = slice.vol()
			}
			sum := 0.0
			for _, e := range entries {
				res, err := ImpliedVol(slice.CallPrice(e.moneyness), e.moneyness, e.ttm, ivCfg)
				if err != nil {
					return fmt.Errorf("model vol at k=%g ttm=%g: %w", e.moneyness, e.ttm, err)
				}
				diff := e.residual(res.Sigma)
				sum += e.weight * diff * diff
			}
			costs[idx] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0.0
	for _, v := range costs {
		total += v
	}
	total /= float64(c.samples)
	if c.cfg.FellerPenalty > 0 {
		excess := params.Sigma*params.Sigma - 2*params.Kappa*params.Theta
		if excess > 0 {
			total += c.cfg.FellerPenalty * excess
		}
	}
	return total, nil
}

// Calibrate runs the fit from the given starting point. On divergence the
// best-found result is returned together with ErrCalibrationDiverged.
func (c *HestonCalibration) Calibrate(initial HestonParams) (*CalibrationResult, error) {
	runID := uuid.New().String()
	log := c.log.WithFields(map[string]interface{}{
		"run_id":  runID,
		"samples": c.samples,
	})
	log.Info("starting calibration")

	evaluations := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evaluations++
			cost, err := c.Cost(paramsFromVector(x))
			if err != nil {
				// A bad region of the search space, not a fatal error:
				// push the optimizer away from it.
				log.WithError(err).Debug("cost evaluation failed")
				return math.Inf(1)
			}
			return cost
		},
	}

	settings := &optimize.Settings{
		MajorIterations: c.cfg.maxIterations(),
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 50,
		},
	}
	result, err := optimize.Minimize(problem, initial.vector(), settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("option: calibration run %s: %w", runID, err)
	}

	params := paramsFromVector(result.X)
	out := &CalibrationResult{
		RunID:           runID,
		Params:          params,
		Cost:            result.F,
		Evaluations:     evaluations,
		Converged:       result.F <= c.cfg.tolerance(),
		FellerViolation: params.FellerViolation(),
	}
	log.WithFields(map[string]interface{}{
		"cost":        out.Cost,
		"evaluations": out.Evaluations,
		"converged":   out.Converged,
	}).Info("calibration finished")
	if out.FellerViolation {
		log.Warn("fitted parameters violate the Feller condition")
	}
	if !out.Converged {
		return out, fmt.Errorf("option: calibration run %s: %w", runID, ErrCalibrationDiverged)
	}
	return out, nil
}
