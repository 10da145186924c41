package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/levy/internal/option"
)

// surfaceCmd inspects a volatility surface document
var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Inspect a volatility surface",
	Long: `Loads a volatility surface from its JSON persistence format,
validates it, and prints the normalized quotes with their Black
implied volatilities.

Example:
  go run ./cmd/levy surface --input surface.json`,
	RunE: runSurface,
}

var surfaceInput string

func init() {
	rootCmd.AddCommand(surfaceCmd)

	surfaceCmd.Flags().StringVar(&surfaceInput, "input", "", "surface JSON file (required)")
	surfaceCmd.MarkFlagRequired("input")
}

func runSurface(cmd *cobra.Command, args []string) error {
	_, log, err := initRuntime()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(surfaceInput)
	if err != nil {
		return err
	}
	surface, err := option.SurfaceFromJSON(data)
	if err != nil {
		return err
	}
	quotes, err := surface.OptionPrices(option.IVConfig{})
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"maturities": len(surface.Sections),
		"quotes":     len(quotes),
	}).Info("surface loaded")

	fmt.Printf("spot: %g / %g\n", surface.Spot.Bid, surface.Spot.Ask)
	fmt.Printf("%8s %12s %12s %12s %12s %12s\n",
		"ttm", "moneyness", "call bid", "call ask", "vol bid", "vol ask")
	for _, q := range quotes {
		fmt.Printf("%8.4f %12.4f %12.6f %12.6f %12.4f %12.4f\n",
			q.TTM, q.Moneyness, q.Call.Bid, q.Call.Ask, q.Vol.Bid, q.Vol.Ask)
	}
	return nil
}
