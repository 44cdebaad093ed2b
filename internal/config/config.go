package config

import (
	"os"
	"strconv"

	"plskit/domain/pls"
	"plskit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings. An empty URL disables
// result persistence entirely.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds the default resampling settings applied when a
// request leaves them unset.
type AnalysisConfig struct {
	NPerm    int
	NBoot    int
	NSplit   int
	NProc    int
	Seed     int64
	CI       float64
	TestSize float64
}

// PathConfig holds file system paths
type PathConfig struct {
	DataFile  string
	ReportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Analysis: loadAnalysisConfig(),
		Paths: PathConfig{
			DataFile:  getEnvOrDefault("DATA_FILE", ""),
			ReportDir: getEnvOrDefault("REPORT_DIR", "./reports"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadAnalysisConfig() AnalysisConfig {
	defaults := pls.DefaultConfig()
	return AnalysisConfig{
		NPerm:    getEnvIntOrDefault("PLS_N_PERM", defaults.NPerm),
		NBoot:    getEnvIntOrDefault("PLS_N_BOOT", defaults.NBoot),
		NSplit:   getEnvIntOrDefault("PLS_N_SPLIT", defaults.NSplit),
		NProc:    getEnvIntOrDefault("PLS_N_PROC", 1),
		Seed:     int64(getEnvIntOrDefault("PLS_SEED", 0)),
		CI:       getEnvFloatOrDefault("PLS_CI", defaults.CI),
		TestSize: getEnvFloatOrDefault("PLS_TEST_SIZE", defaults.TestSize),
	}
}

// Defaults projects the analysis section onto a run configuration.
func (a AnalysisConfig) Defaults() pls.Config {
	cfg := pls.DefaultConfig()
	cfg.NPerm = a.NPerm
	cfg.NBoot = a.NBoot
	cfg.NSplit = a.NSplit
	cfg.NProc = a.NProc
	cfg.Seed = a.Seed
	cfg.CI = a.CI
	cfg.TestSize = a.TestSize
	return cfg
}

func validateConfig(config *Config) error {
	if config.Analysis.NPerm < 0 || config.Analysis.NBoot < 0 || config.Analysis.NSplit < 0 {
		return errors.ConfigInvalid("resample counts must be non-negative")
	}
	if config.Analysis.CI <= 0 || config.Analysis.CI > 100 {
		return errors.ConfigInvalid("PLS_CI must be in (0, 100]")
	}
	if config.Analysis.TestSize < 0 || config.Analysis.TestSize >= 1 {
		return errors.ConfigInvalid("PLS_TEST_SIZE must be in [0, 1)")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
