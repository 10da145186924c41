package option

import (
	"encoding/json"
	"fmt"
)

// SurfaceInput is the JSON persistence format of a volatility surface. It
// round-trips: Surface().Inputs() reproduces the document that built it.
type SurfaceInput struct {
	Spot     Price          `json:"spot"`
	Forwards []ForwardInput `json:"forwards"`
	Options  []OptionInput  `json:"options"`
}

// ForwardInput is a forward quote at one maturity.
type ForwardInput struct {
	TTM float64 `json:"ttm"`
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// OptionInput is a single option quote.
type OptionInput struct {
	Strike float64 `json:"strike"`
	TTM    float64 `json:"ttm"`
	Call   bool    `json:"call"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

// Surface reconstructs the validated surface from the input document.
func (in SurfaceInput) Surface() (*VolSurface, error) {
	sections := make(map[float64]*CrossSection, len(in.Forwards))
	order := make([]float64, 0, len(in.Forwards))
	for _, f := range in.Forwards {
		if _, ok := sections[f.TTM]; ok {
			return nil, fmt.Errorf("option: duplicate forward maturity %g", f.TTM)
		}
		sections[f.TTM] = &CrossSection{TTM: f.TTM, Forward: Price{Bid: f.Bid, Ask: f.Ask}}
		order = append(order, f.TTM)
	}
	for _, o := range in.Options {
		section, ok := sections[o.TTM]
		if !ok {
			return nil, fmt.Errorf("option: option maturity %g has no forward quote", o.TTM)
		}
		section.Quotes = append(section.Quotes, OptionQuote{
			Strike: o.Strike,
			TTM:    o.TTM,
			Call:   o.Call,
			Price:  Price{Bid: o.Bid, Ask: o.Ask},
		})
	}
	out := make([]CrossSection, 0, len(order))
	for _, ttm := range order {
		out = append(out, *sections[ttm])
	}
	return NewVolSurface(in.Spot, out)
}

// SurfaceFromJSON deserializes and reconstructs a surface in one step.
func SurfaceFromJSON(data []byte) (*VolSurface, error) {
	var in SurfaceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("option: decoding surface: %w", err)
	}
	return in.Surface()
}

// Inputs projects the surface back into its persistence format.
func (s *VolSurface) Inputs() SurfaceInput {
	in := SurfaceInput{Spot: s.Spot}
	for _, section := range s.Sections {
		in.Forwards = append(in.Forwards, ForwardInput{
			TTM: section.TTM,
			Bid: section.Forward.Bid,
			Ask: section.Forward.Ask,
		})
		for _, q := range section.Quotes {
			in.Options = append(in.Options, OptionInput{
				Strike: q.Strike,
				TTM:    q.TTM,
				Call:   q.Call,
				Bid:    q.Price.Bid,
				Ask:    q.Price.Ask,
			})
		}
	}
	return in
}

// JSON serializes the surface's persistence format.
func (s *VolSurface) JSON() ([]byte, error) {
	return json.Marshal(s.Inputs())
}
