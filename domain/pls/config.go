package pls

import (
	"fmt"

	"plskit/internal/errors"
)

// Config is the recognized option surface for an inference run. Zero counts
// disable the corresponding resampling stage.
type Config struct {
	// NPerm is the permutation count; 0 disables significance testing.
	NPerm int
	// NBoot is the bootstrap count; 0 disables stability/CI estimation.
	NBoot int
	// NSplit is the split-half count; 0 disables reliability estimation.
	NSplit int
	// TestSplit is the number of cross-validation folds (behavioral only);
	// 0 disables cross-validation.
	TestSplit int
	// TestSize is the held-out fraction for split-half and cross-validation
	// draws. Must be in [0, 1).
	TestSize float64
	// Rotate enables Procrustes alignment of permuted decompositions.
	Rotate bool
	// CI is the confidence level for percentile intervals, in (0, 100].
	CI float64
	// Seed drives all resample-plan generation and per-unit streams.
	Seed int64
	// NProc selects the executor: <=1 sequential, >1 parallel workers.
	NProc int
	// MeanCentering selects the centering mode (mean-centered method only).
	MeanCentering CenteringMode
	// Covariance switches the behavioral strategy from correlation to
	// covariance when building the cross-block matrix.
	Covariance bool
	// Verbose enables progress reporting. No effect on results.
	Verbose bool
}

// DefaultConfig mirrors the conventional analysis settings.
func DefaultConfig() Config {
	return Config{
		NPerm:     5000,
		NBoot:     5000,
		NSplit:    100,
		TestSplit: 100,
		TestSize:  0.25,
		Rotate:    true,
		CI:        95,
	}
}

// Validate checks the configuration before any computation starts.
func (c Config) Validate(method Method) error {
	if c.NPerm < 0 || c.NBoot < 0 || c.NSplit < 0 || c.TestSplit < 0 {
		return errors.ConfigInvalid("resample counts must be non-negative")
	}
	if c.TestSize < 0 || c.TestSize >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("test_size must be in [0, 1), got %g", c.TestSize))
	}
	if c.CI <= 0 || c.CI > 100 {
		return errors.ConfigInvalid(fmt.Sprintf("ci must be in (0, 100], got %g", c.CI))
	}
	if method == MethodMeanCentered && !c.MeanCentering.Valid() {
		return errors.ConfigInvalid(fmt.Sprintf("unknown mean centering mode %d", c.MeanCentering))
	}
	return nil
}
