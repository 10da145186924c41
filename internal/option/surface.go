package option

import (
	"fmt"
	"math"
	"sort"
)

// Price is a bid/ask quote.
type Price struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// Mid returns the mid price.
func (p Price) Mid() float64 { return 0.5 * (p.Bid + p.Ask) }

// OptionQuote is a single market-observed option.
type OptionQuote struct {
	Strike float64
	TTM    float64
	Call   bool
	Price  Price
}

// CrossSection is the slice of a volatility surface at one maturity.
type CrossSection struct {
	TTM     float64
	Forward Price
	Quotes  []OptionQuote
}

// VolSurface holds the market-observed instruments a model is calibrated
// against: a spot quote, a forward term structure and a set of option
// quotes grouped by maturity.
type VolSurface struct {
	Spot     Price
	Sections []CrossSection
}

// NewVolSurface validates and assembles a surface. Maturities must be
// strictly increasing and unique, forward prices positive.
func NewVolSurface(spot Price, sections []CrossSection) (*VolSurface, error) {
	if spot.Bid <= 0 || spot.Ask < spot.Bid {
		return nil, fmt.Errorf("option: invalid spot quote %v", spot)
	}
	sorted := make([]CrossSection, len(sections))
	copy(sorted, sections)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TTM < sorted[j].TTM })
	prev := 0.0
	for _, s := range sorted {
		if s.TTM <= prev {
			return nil, fmt.Errorf("option: maturities must be strictly increasing, got %g after %g", s.TTM, prev)
		}
		if s.Forward.Bid <= 0 || s.Forward.Ask < s.Forward.Bid {
			return nil, fmt.Errorf("option: invalid forward quote %v at ttm %g", s.Forward, s.TTM)
		}
		prev = s.TTM
	}
	return &VolSurface{Spot: spot, Sections: sorted}, nil
}

// OptionPrice is an option quote normalized for model work: put premia are
// converted to calls through parity, prices are divided by the forward and
// strikes become log moneyness. The implied vol fields are filled in by
// ImpliedVols.
type OptionPrice struct {
	TTM       float64
	Moneyness float64
	Call      Price // forward-normalized call bid/ask
	Vol       Price // Black implied vol bid/ask
}

// OptionPrices flattens the surface into normalized quotes with their
// Black implied volatilities. Quotes whose prices violate arbitrage
// bounds, or whose implied vol inversion fails, are reported as errors
// rather than silently dropped.
func (s *VolSurface) OptionPrices(cfg IVConfig) ([]OptionPrice, error) {
	var out []OptionPrice
	for _, section := range s.Sections {
		forward := section.Forward.Mid()
		for _, q := range section.Quotes {
			k := math.Log(q.Strike / forward)
			call := Price{Bid: q.Price.Bid / forward, Ask: q.Price.Ask / forward}
			if !q.Call {
				// parity: c = p + 1 - e^k in forward-normalized terms
				call.Bid += 1 - math.Exp(k)
				call.Ask += 1 - math.Exp(k)
			}
			bid, err := ImpliedVol(call.Bid, k, section.TTM, cfg)
			if err != nil {
				return nil, fmt.Errorf("option: bid quote k=%g ttm=%g: %w", k, section.TTM, err)
			}
			ask, err := ImpliedVol(call.Ask, k, section.TTM, cfg)
			if err != nil {
				return nil, fmt.Errorf("option: ask quote k=%g ttm=%g: %w", k, section.TTM, err)
			}
			out = append(out, OptionPrice{
				TTM:       section.TTM,
				Moneyness: k,
				Call:      call,
				Vol:       Price{Bid: bid.Sigma, Ask: ask.Sigma},
			})
		}
	}
	return out, nil
}

// TermStructure returns the maturities of the surface, in order.
func (s *VolSurface) TermStructure() []float64 {
	out := make([]float64, len(s.Sections))
	for i, sec := range s.Sections {
		out[i] = sec.TTM
	}
	return out
}
