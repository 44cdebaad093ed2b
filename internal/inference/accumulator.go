package inference

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RunningMoments accumulates an element-wise running sum and sum of squares
// over same-shaped matrices, finalized once into a standard error. It is
// filled during the aggregation phase, after all units have returned; it is
// not safe for concurrent use and does not need to be.
type RunningMoments struct {
	n     int
	sum   *mat.Dense
	sumSq *mat.Dense
}

// NewRunningMoments creates an accumulator for r x c matrices.
func NewRunningMoments(r, c int) *RunningMoments {
	return &RunningMoments{
		sum:   mat.NewDense(r, c, nil),
		sumSq: mat.NewDense(r, c, nil),
	}
}

// Add folds one observation into the moments.
func (m *RunningMoments) Add(obs *mat.Dense) {
	r, c := obs.Dims()
	for i := 0; i < r; i++ {
		row := obs.RawRowView(i)
		s := m.sum.RawRowView(i)
		sq := m.sumSq.RawRowView(i)
		for j := 0; j < c; j++ {
			s[j] += row[j]
			sq[j] += row[j] * row[j]
		}
	}
	m.n++
}

// Count returns the number of observations folded in so far.
func (m *RunningMoments) Count() int { return m.n }

// Mean returns the element-wise mean of the accumulated observations.
func (m *RunningMoments) Mean() *mat.Dense {
	r, c := m.sum.Dims()
	out := mat.NewDense(r, c, nil)
	out.Scale(1/float64(m.n), m.sum)
	return out
}

// StdErr finalizes the accumulator into the ddof=1 standard deviation of the
// accumulated distribution: sqrt((sumsq - sum^2/n) / (n-1)). Negative
// round-off under the root clamps to zero.
func (m *RunningMoments) StdErr() *mat.Dense {
	r, c := m.sum.Dims()
	out := mat.NewDense(r, c, nil)
	n := float64(m.n)
	for i := 0; i < r; i++ {
		s := m.sum.RawRowView(i)
		sq := m.sumSq.RawRowView(i)
		dst := out.RawRowView(i)
		for j := 0; j < c; j++ {
			v := (sq[j] - s[j]*s[j]/n) / (n - 1)
			if v < 0 {
				v = 0
			}
			dst[j] = math.Sqrt(v)
		}
	}
	return out
}
