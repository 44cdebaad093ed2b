// Package resample generates group/condition-aware resampling plans:
// permutation index columns, bootstrap index columns, and split-half masks.
// Every plan kind retries candidate columns until they are unique within the
// plan or a fixed attempt budget runs out, in which case the last candidate
// is kept and a diagnostic is attached to the plan.
package resample

import (
	"fmt"

	"plskit/domain/pls"
	"plskit/internal/errors"
)

// Kind tags the three plan varieties.
type Kind string

const (
	KindPermutation Kind = "permutation"
	KindBootstrap   Kind = "bootstrap"
	KindSplitHalf   Kind = "splithalf"
)

// maxAttempts bounds the regeneration loop for a single column, and also the
// per-group bootstrap floor loop.
const maxAttempts = 500

// Plan holds K resample columns over S sample rows. Permutation and
// bootstrap plans populate Indices; split-half plans populate Masks. The
// Diagnostics slice carries at most one duplicate-exhaustion notice per plan
// instead of a process-wide warning flag.
type Plan struct {
	Kind        Kind
	Design      pls.Design
	Indices     [][]int  // column-major, each column len S
	Masks       [][]bool // column-major, each column len S
	Diagnostics []string
}

// Count returns the number of columns in the plan.
func (p *Plan) Count() int {
	if p.Kind == KindSplitHalf {
		return len(p.Masks)
	}
	return len(p.Indices)
}

// Samples returns the row count of each column.
func (p *Plan) Samples() int { return p.Design.NumSamples() }

func (p *Plan) noteDuplicates() {
	if len(p.Diagnostics) == 0 {
		p.Diagnostics = append(p.Diagnostics, fmt.Sprintf(
			"duplicate %s columns accepted after %d attempts", p.Kind, maxAttempts))
	}
}

// FromIndices wraps externally supplied permutation or bootstrap columns,
// failing with a shape error unless the matrix is exactly S rows by count
// columns.
func FromIndices(kind Kind, design pls.Design, cols [][]int, count int) (*Plan, error) {
	if kind != KindPermutation && kind != KindBootstrap {
		return nil, errors.InvalidInput(fmt.Sprintf("plan kind %q does not take index columns", kind))
	}
	if len(cols) != count {
		return nil, errors.PlanShape(fmt.Sprintf(
			"supplied %s plan has %d columns, expected %d", kind, len(cols), count))
	}
	s := design.NumSamples()
	for i, col := range cols {
		if len(col) != s {
			return nil, errors.PlanShape(fmt.Sprintf(
				"supplied %s plan column %d has %d rows, expected %d", kind, i, len(col), s))
		}
	}
	return &Plan{Kind: kind, Design: design, Indices: cols}, nil
}

// FromMasks wraps externally supplied split-half columns with the same shape
// validation as FromIndices.
func FromMasks(design pls.Design, cols [][]bool, count int) (*Plan, error) {
	if len(cols) != count {
		return nil, errors.PlanShape(fmt.Sprintf(
			"supplied splithalf plan has %d columns, expected %d", len(cols), count))
	}
	s := design.NumSamples()
	for i, col := range cols {
		if len(col) != s {
			return nil, errors.PlanShape(fmt.Sprintf(
				"supplied splithalf plan column %d has %d rows, expected %d", i, len(col), s))
		}
	}
	return &Plan{Kind: KindSplitHalf, Design: design, Masks: cols}, nil
}

func intColsEqual(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intColsEqualOn(a, b []int, rows []int) bool {
	for _, r := range rows {
		if a[r] != b[r] {
			return false
		}
	}
	return true
}

func boolColsEqual(a, b []bool) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
