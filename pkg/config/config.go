package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the levy CLI. The numeric core never
// reads it: every engine entry point takes an explicit configuration value,
// this only supplies command-line defaults.
type Config struct {
	Env string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	// Transform defaults
	Transform TransformConfig

	// Monte Carlo defaults
	Simulation SimulationConfig

	// Calibration defaults
	Calibration CalibrationConfig
}

// TransformConfig holds default discretization parameters for the
// characteristic-function inversion.
type TransformConfig struct {
	N            int     // grid size, power of two
	MaxFrequency float64 // upper frequency bound, delta_u = MaxFrequency/N
	Alpha        float64 // Carr-Madan damping factor
	SimpsonRule  bool    // Simpson weights instead of trapezoid
	UseFFT       bool    // plain FFT instead of the fractional FFT
}

// SimulationConfig holds default Monte Carlo settings.
type SimulationConfig struct {
	Paths      int
	Steps      int
	Antithetic bool
	Seed       uint64 // 0 means time-based
}

// CalibrationConfig holds default optimizer budget settings.
type CalibrationConfig struct {
	MaxIterations int
	Tolerance     float64 // RMS vol residual threshold
	QuantileCut   float64 // implied-vol quantile for outlier removal
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Transform: TransformConfig{
			N:            getEnvAsInt("TRANSFORM_N", 128),
			MaxFrequency: getEnvAsFloat("TRANSFORM_MAX_FREQUENCY", 20),
			Alpha:        getEnvAsFloat("TRANSFORM_ALPHA", 2.0),
			SimpsonRule:  getEnvAsBool("TRANSFORM_SIMPSON", false),
			UseFFT:       getEnvAsBool("TRANSFORM_USE_FFT", false),
		},

		Simulation: SimulationConfig{
			Paths:      getEnvAsInt("SIM_PATHS", 1000),
			Steps:      getEnvAsInt("SIM_STEPS", 1000),
			Antithetic: getEnvAsBool("SIM_ANTITHETIC", true),
			Seed:       uint64(getEnvAsInt("SIM_SEED", 0)),
		},

		Calibration: CalibrationConfig{
			MaxIterations: getEnvAsInt("CALIBRATION_MAX_ITERATIONS", 500),
			Tolerance:     getEnvAsFloat("CALIBRATION_TOLERANCE", 1e-4),
			QuantileCut:   getEnvAsFloat("CALIBRATION_QUANTILE_CUT", 1.0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	n := c.Transform.N
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("TRANSFORM_N must be a positive power of two")
	}

	if c.Transform.Alpha <= 0 {
		return fmt.Errorf("TRANSFORM_ALPHA must be positive")
	}

	if c.Simulation.Paths <= 0 || c.Simulation.Steps <= 0 {
		return fmt.Errorf("SIM_PATHS and SIM_STEPS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
