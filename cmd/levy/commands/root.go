package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/levy/internal/option"
	"github.com/wonny/levy/internal/transform"
	"github.com/wonny/levy/pkg/config"
	"github.com/wonny/levy/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "levy",
	Short: "Pricing and simulation of Levy and time-changed Levy processes",
	Long: `levy prices options, simulates SDE paths and calibrates stochastic
volatility models, all driven by characteristic functions.

Usage:
  go run ./cmd/levy [command]

Examples:
  go run ./cmd/levy price --model heston --ttm 0.5
  go run ./cmd/levy simulate --model cir --paths 1000 --steps 1000
  go run ./cmd/levy surface --input surface.json
  go run ./cmd/levy calibrate --surface surface.json`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initRuntime loads configuration and builds the logger every command
// bootstraps from.
func initRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// pricerConfig maps the transform defaults onto a pricer configuration.
func pricerConfig(cfg *config.Config) option.PricerConfig {
	rule := transform.Trapezoid
	if cfg.Transform.SimpsonRule {
		rule = transform.Simpson
	}
	strategy := transform.FRFT
	if cfg.Transform.UseFFT {
		strategy = transform.FFT
	}
	return option.PricerConfig{
		N:            cfg.Transform.N,
		MaxFrequency: cfg.Transform.MaxFrequency,
		Alpha:        cfg.Transform.Alpha,
		Rule:         rule,
		Strategy:     strategy,
	}
}
