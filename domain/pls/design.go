package pls

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"plskit/internal/errors"
)

// Design describes the group/condition structure of the sample rows. Rows are
// ordered group-major, then condition-major, then subject-minor: for each
// group, all of its subjects under condition 0, then all under condition 1,
// and so on. This matches the cell ordering of the dummy-coded matrix.
type Design struct {
	Groups []int
	NCond  int
}

// NewDesign validates group sizes and the per-subject condition count.
func NewDesign(groups []int, nCond int) (Design, error) {
	if len(groups) == 0 {
		return Design{}, errors.ConfigInvalid("design requires at least one group")
	}
	for i, g := range groups {
		if g <= 0 {
			return Design{}, errors.ConfigInvalid(fmt.Sprintf("group %d has non-positive size %d", i, g))
		}
	}
	if nCond <= 0 {
		return Design{}, errors.ConfigInvalid(fmt.Sprintf("condition count must be positive, got %d", nCond))
	}
	out := Design{Groups: make([]int, len(groups)), NCond: nCond}
	copy(out.Groups, groups)
	return out, nil
}

// NumGroups returns the number of groups.
func (d Design) NumGroups() int { return len(d.Groups) }

// NumSubjects returns the total subject count across groups.
func (d Design) NumSubjects() int {
	n := 0
	for _, g := range d.Groups {
		n += g
	}
	return n
}

// NumSamples returns the total number of sample rows (subjects x conditions).
func (d Design) NumSamples() int { return d.NumSubjects() * d.NCond }

// NumCells returns the number of group x condition cells.
func (d Design) NumCells() int { return len(d.Groups) * d.NCond }

// CheckSamples fails with a configuration error when the caller's claimed
// sample count does not match the design.
func (d Design) CheckSamples(n int) error {
	if n != d.NumSamples() {
		return errors.ConfigInvalid(fmt.Sprintf(
			"sample count does not match design: expected %d (groups %v * n_cond %d), got %d",
			d.NumSamples(), d.Groups, d.NCond, n))
	}
	return nil
}

// SubjectOffset returns the global subject index of the first subject in
// group g.
func (d Design) SubjectOffset(g int) int {
	n := 0
	for i := 0; i < g; i++ {
		n += d.Groups[i]
	}
	return n
}

// SampleOffset returns the sample-row index of the first row belonging to
// group g.
func (d Design) SampleOffset(g int) int {
	return d.SubjectOffset(g) * d.NCond
}

// SampleIndex returns the row of subject j (local to group g) under
// condition c.
func (d Design) SampleIndex(g, c, j int) int {
	return d.SampleOffset(g) + c*d.Groups[g] + j
}

// GroupOfSubject returns the group owning the global subject index s.
func (d Design) GroupOfSubject(s int) int {
	for g, size := range d.Groups {
		if s < size {
			return g
		}
		s -= size
	}
	return len(d.Groups) - 1
}

// GroupRows returns the sample-row indices belonging to group g, in row
// order, spanning all of its conditions.
func (d Design) GroupRows(g int) []int {
	size := d.Groups[g] * d.NCond
	rows := make([]int, size)
	off := d.SampleOffset(g)
	for i := range rows {
		rows[i] = off + i
	}
	return rows
}

// DummyCode builds the boolean indicator matrix for a design: S rows, one
// column per group x condition cell, columns ordered group-major with the
// group's conditions adjacent. Entry (r, c) is 1 when row r belongs to
// cell c.
func DummyCode(groups []int, nCond int) (*mat.Dense, error) {
	d, err := NewDesign(groups, nCond)
	if err != nil {
		return nil, err
	}
	return d.Dummy(), nil
}

// Dummy returns the design's indicator matrix. See DummyCode.
func (d Design) Dummy() *mat.Dense {
	s := d.NumSamples()
	dummy := mat.NewDense(s, d.NumCells(), nil)
	for g, size := range d.Groups {
		for c := 0; c < d.NCond; c++ {
			col := g*d.NCond + c
			for j := 0; j < size; j++ {
				dummy.Set(d.SampleIndex(g, c, j), col, 1)
			}
		}
	}
	return dummy
}

// CellRows returns the row indices of the cell encoded by the given dummy
// column. Works for row-subsets of a dummy matrix as well, which is how the
// split-half path restricts cells to half the data.
func CellRows(dummy *mat.Dense, col int) []int {
	r, _ := dummy.Dims()
	var rows []int
	for i := 0; i < r; i++ {
		if dummy.At(i, col) > 0.5 {
			rows = append(rows, i)
		}
	}
	return rows
}
