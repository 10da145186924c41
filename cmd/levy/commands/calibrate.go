package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/levy/internal/option"
)

// calibrateCmd fits a Heston model to a volatility surface
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate a Heston model to a volatility surface",
	Long: `Fits Heston parameters to the Black implied vols of a surface by
weighted least squares. The starting point and fit settings can be
supplied in a YAML file; unknown fields are rejected.

Example:
  go run ./cmd/levy calibrate --surface surface.json
  go run ./cmd/levy calibrate --surface surface.json --settings fit.yaml`,
	RunE: runCalibrate,
}

var (
	calibrateSurface  string
	calibrateSettings string
)

// fitSettings is the YAML document for a calibration run.
type fitSettings struct {
	Initial struct {
		V0    float64 `yaml:"v0"`
		Theta float64 `yaml:"theta"`
		Kappa float64 `yaml:"kappa"`
		Sigma float64 `yaml:"sigma"`
		Rho   float64 `yaml:"rho"`
	} `yaml:"initial"`
	MaxIterations   int     `yaml:"max_iterations"`
	Tolerance       float64 `yaml:"tolerance"`
	QuantileCut     float64 `yaml:"quantile_cut"`
	MoneynessWeight float64 `yaml:"moneyness_weight"`
	TTMWeight       float64 `yaml:"ttm_weight"`
	FellerPenalty   float64 `yaml:"feller_penalty"`
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().StringVar(&calibrateSurface, "surface", "", "surface JSON file (required)")
	calibrateCmd.Flags().StringVar(&calibrateSettings, "settings", "", "fit settings YAML file")
	calibrateCmd.MarkFlagRequired("surface")
}

// loadFitSettings reads the YAML settings, failing on unknown fields so a
// typo never silently falls back to a default.
func loadFitSettings(path string) (*fitSettings, error) {
	var s fitSettings
	s.Initial.V0 = 0.25
	s.Initial.Theta = 0.25
	s.Initial.Kappa = 1
	s.Initial.Sigma = 0.5
	s.Initial.Rho = -0.1
	if path == "" {
		return &s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := initRuntime()
	if err != nil {
		return err
	}
	settings, err := loadFitSettings(calibrateSettings)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(calibrateSurface)
	if err != nil {
		return err
	}
	surface, err := option.SurfaceFromJSON(data)
	if err != nil {
		return err
	}

	calCfg := option.CalibrationConfig{
		MaxIterations:   cfg.Calibration.MaxIterations,
		Tolerance:       cfg.Calibration.Tolerance,
		QuantileCut:     cfg.Calibration.QuantileCut,
		MoneynessWeight: settings.MoneynessWeight,
		TTMWeight:       settings.TTMWeight,
		FellerPenalty:   settings.FellerPenalty,
		Pricer: pricerConfig(cfg),
	}
	if settings.MaxIterations > 0 {
		calCfg.MaxIterations = settings.MaxIterations
	}
	if settings.Tolerance > 0 {
		calCfg.Tolerance = settings.Tolerance
	}
	if settings.QuantileCut > 0 {
		calCfg.QuantileCut = settings.QuantileCut
	}

	cal, err := option.NewHestonCalibration(surface, calCfg, log)
	if err != nil {
		return err
	}
	initial := option.HestonParams{
		V0:    settings.Initial.V0,
		Theta: settings.Initial.Theta,
		Kappa: settings.Initial.Kappa,
		Sigma: settings.Initial.Sigma,
		Rho:   settings.Initial.Rho,
	}

	result, err := cal.Calibrate(initial)
	if err != nil && !errors.Is(err, option.ErrCalibrationDiverged) {
		return err
	}

	fmt.Printf("=== calibration %s ===\n", result.RunID)
	fmt.Printf("v0:    %.6f\n", result.Params.V0)
	fmt.Printf("theta: %.6f\n", result.Params.Theta)
	fmt.Printf("kappa: %.6f\n", result.Params.Kappa)
	fmt.Printf("sigma: %.6f\n", result.Params.Sigma)
	fmt.Printf("rho:   %.6f\n", result.Params.Rho)
	fmt.Printf("cost:  %.8f (%d evaluations)\n", result.Cost, result.Evaluations)
	if result.FellerViolation {
		fmt.Println("note: fitted parameters violate the Feller condition")
	}
	if !result.Converged {
		fmt.Println("warning: fit did not converge, best-found parameters shown")
	}
	return nil
}
