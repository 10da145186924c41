package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/levy/internal/option"
	"github.com/wonny/levy/internal/process"
)

// priceCmd prices a call-option cross-section for a model
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a call option cross-section",
	Long: `Prices forward-normalized calls across moneyness for one maturity,
using the characteristic-function transform, and inverts the Black
implied volatility at each grid point.

Example:
  go run ./cmd/levy price --model heston --ttm 0.5 --vol 0.5 --rho -0.5
  go run ./cmd/levy price --model merton --ttm 1 --vol 0.4`,
	RunE: runPrice,
}

var (
	priceModel         string
	priceTTM           float64
	priceVol           float64
	priceKappa         float64
	priceSigma         float64
	priceRho           float64
	priceRate          float64
	priceJumpIntensity float64
	priceJumpFraction  float64
)

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVar(&priceModel, "model", "heston", "model (heston|merton|weiner)")
	priceCmd.Flags().Float64Var(&priceTTM, "ttm", 0.5, "time to maturity in years")
	priceCmd.Flags().Float64Var(&priceVol, "vol", 0.5, "annualized volatility")
	priceCmd.Flags().Float64Var(&priceKappa, "kappa", 1, "mean reversion speed (heston)")
	priceCmd.Flags().Float64Var(&priceSigma, "sigma", 0.8, "vol of vol (heston)")
	priceCmd.Flags().Float64Var(&priceRho, "rho", 0, "correlation (heston)")
	priceCmd.Flags().Float64Var(&priceRate, "rate", 1, "initial variance scale (heston)")
	priceCmd.Flags().Float64Var(&priceJumpIntensity, "jump-intensity", 100, "jump arrival rate (merton)")
	priceCmd.Flags().Float64Var(&priceJumpFraction, "jump-fraction", 0.5, "fraction of the variance carried by jumps (merton)")
}

func priceProcess() (process.Process, error) {
	switch priceModel {
	case "heston":
		return process.HestonFromVol(priceRate, priceVol, priceKappa, priceSigma, priceRho)
	case "merton":
		return process.NewMerton(priceVol, priceJumpIntensity, priceJumpFraction)
	case "weiner":
		return process.NewWeiner(priceVol)
	default:
		return nil, fmt.Errorf("unknown model %q", priceModel)
	}
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}

	model, err := priceProcess()
	if err != nil {
		return err
	}
	log.WithField("model", priceModel).Info("pricing cross-section")

	pricer := option.NewPricer(model, pricerConfig(cfg))
	slice, err := pricer.Maturity(priceTTM)
	if err != nil {
		return err
	}
	vols := slice.ImpliedVols(option.IVConfig{})

	fmt.Printf("=== %s ttm=%g std=%.4f ===\n", priceModel, slice.TTM, slice.Std)
	fmt.Printf("%12s %12s %12s\n", "moneyness", "call", "implied vol")
	step := len(slice.Moneyness) / 16
	if step == 0 {
		step = 1
	}
	for i := 0; i < len(slice.Moneyness); i += step {
		fmt.Printf("%12.4f %12.6f %12.4f\n", slice.Moneyness[i], slice.Call[i], vols[i])
	}
	return nil
}
