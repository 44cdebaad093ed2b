package ports

import (
	"math/rand"
)

// RNG provides seeded random number generation for deterministic resampling.
// Generators are derived per stage and unit index, so each resample unit's
// draws reproduce identically no matter how the executor schedules it or how
// many units a stage runs.
type RNG interface {
	// Unit creates a deterministic generator for one resample unit of a
	// stage. Two calls with the same stage and index must produce identical
	// draw sequences.
	Unit(stage string, index int) *rand.Rand
}
