// Package rng implements the deterministic random-stream port. Generators are
// derived by hashing the base seed with the stage name and unit index, so a
// unit's draws depend only on its identity, never on executor scheduling.
package rng

import (
	"hash/fnv"
	"math/rand"

	"plskit/ports"
)

// Seeded derives independent *rand.Rand generators from one base seed.
type Seeded struct {
	base int64
}

// NewSeeded creates a generator factory rooted at the given seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{base: seed}
}

// Unit returns the generator for one resample unit of a stage.
func (s *Seeded) Unit(stage string, index int) *rand.Rand {
	return rand.New(rand.NewSource(s.derive(stage, int64(index))))
}

func (s *Seeded) derive(stage string, index int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(stage))
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(s.base >> (8 * i))
		buf[8+i] = byte(index >> (8 * i))
	}
	h.Write(buf[:])
	return int64(h.Sum64())
}

var _ ports.RNG = (*Seeded)(nil)
