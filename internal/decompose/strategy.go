// Package decompose builds the matrix a PLS analysis decomposes and runs the
// rank-truncated SVD, including the Procrustes alignment used to compare
// resampled decompositions against the original.
package decompose

import (
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/errors"
	"plskit/internal/numeric"
)

// Target names the data block a permutation column is applied to.
type Target int

const (
	TargetX Target = iota
	TargetY
)

// Side names the singular-vector set used as the alignment reference.
type Side int

const (
	SideLeft  Side = iota // U, the X-feature side
	SideRight             // V, the strategy-matrix row side
)

// Strategy is the closed set of covariance/contrast builders. The permuted
// block is always the one NOT spanned by the alignment side, so the
// Procrustes reference stays anchored to unpermuted structure.
type Strategy interface {
	Name() pls.Method
	// BuildMatrix produces the matrix to decompose from the two blocks and
	// the (possibly row-subset) dummy-coded design.
	BuildMatrix(X, Y, dummy *mat.Dense, design pls.Design) (*mat.Dense, error)
	// PermuteTarget says which block permutation columns reindex.
	PermuteTarget() Target
	// AlignSide says which singular-vector set anchors Procrustes rotation.
	AlignSide() Side
	// BootDistrib computes the per-resample distribution whose percentiles
	// form the bootstrap confidence interval. normU holds the rotated,
	// unit-normalized left singular vectors of the resample.
	BootDistrib(X, Y, dummy *mat.Dense, design pls.Design, normU *mat.Dense) (*mat.Dense, error)
}

// CrossCovariance is the behavioral strategy: per group x condition cell,
// the cross-correlation (or covariance) of the two blocks restricted to the
// cell's rows, stacked vertically into a (cells*T) x B matrix.
type CrossCovariance struct {
	// Covariance switches from correlation to centered covariance.
	Covariance bool
}

func (CrossCovariance) Name() pls.Method      { return pls.MethodBehavioral }
func (CrossCovariance) PermuteTarget() Target { return TargetY }
func (CrossCovariance) AlignSide() Side       { return SideLeft }

func (s CrossCovariance) BuildMatrix(X, Y, dummy *mat.Dense, design pls.Design) (*mat.Dense, error) {
	_, cells := dummy.Dims()
	blocks := make([]*mat.Dense, cells)
	for c := 0; c < cells; c++ {
		rows := pls.CellRows(dummy, c)
		if len(rows) < 2 {
			return nil, errors.Numerical("cell with fewer than two rows in cross-covariance build")
		}
		xc, err := numeric.XCorr(numeric.SelectRows(X, rows), numeric.SelectRows(Y, rows), s.Covariance)
		if err != nil {
			return nil, err
		}
		blocks[c] = xc
	}
	return stackRows(blocks), nil
}

func (s CrossCovariance) BootDistrib(X, Y, dummy *mat.Dense, design pls.Design, normU *mat.Dense) (*mat.Dense, error) {
	var scores mat.Dense
	scores.Mul(X, normU)
	return s.BuildMatrix(&scores, Y, dummy, design)
}

// MeanCentered is the contrast strategy: group/condition cell means of X
// minus a configurable reference mean, one row per cell.
type MeanCentered struct {
	Centering pls.CenteringMode
}

func (MeanCentered) Name() pls.Method      { return pls.MethodMeanCentered }
func (MeanCentered) PermuteTarget() Target { return TargetX }
func (MeanCentered) AlignSide() Side       { return SideRight }

func (s MeanCentered) BuildMatrix(X, _, dummy *mat.Dense, design pls.Design) (*mat.Dense, error) {
	return MeanCenterMeans(X, dummy, design.NCond, s.Centering)
}

func (s MeanCentered) BootDistrib(X, _, dummy *mat.Dense, design pls.Design, normU *mat.Dense) (*mat.Dense, error) {
	demeaned, err := MeanCenterSamples(X, dummy, design.NCond, s.Centering)
	if err != nil {
		return nil, err
	}
	var scores mat.Dense
	scores.Mul(demeaned, normU)
	_, cells := dummy.Dims()
	_, l := scores.Dims()
	out := mat.NewDense(cells, l, nil)
	for c := 0; c < cells; c++ {
		rows := pls.CellRows(dummy, c)
		cell := numeric.SelectRows(&scores, rows)
		out.SetRow(c, numeric.ColMeans(cell))
	}
	return out, nil
}

// referenceMeans computes the (cells x B) reference to subtract, per the
// centering mode: group means collapsed across conditions, condition means
// collapsed across groups, or the grand mean.
func referenceMeans(X, dummy *mat.Dense, nCond int, mode pls.CenteringMode) (*mat.Dense, error) {
	_, cells := dummy.Dims()
	_, b := X.Dims()
	ref := mat.NewDense(cells, b, nil)

	switch mode {
	case pls.CenterGroups:
		for g := 0; g < cells/nCond; g++ {
			var rows []int
			for c := 0; c < nCond; c++ {
				rows = append(rows, pls.CellRows(dummy, g*nCond+c)...)
			}
			gm := numeric.ColMeans(numeric.SelectRows(X, rows))
			for c := 0; c < nCond; c++ {
				ref.SetRow(g*nCond+c, gm)
			}
		}
	case pls.CenterConditions:
		nGroups := cells / nCond
		for c := 0; c < nCond; c++ {
			cm := make([]float64, b)
			for g := 0; g < nGroups; g++ {
				cellMean := numeric.ColMeans(numeric.SelectRows(X, pls.CellRows(dummy, g*nCond+c)))
				for j := range cm {
					cm[j] += cellMean[j]
				}
			}
			for j := range cm {
				cm[j] /= float64(nGroups)
			}
			for g := 0; g < nGroups; g++ {
				ref.SetRow(g*nCond+c, cm)
			}
		}
	case pls.CenterGrand:
		gm := numeric.ColMeans(X)
		for k := 0; k < cells; k++ {
			ref.SetRow(k, gm)
		}
	default:
		return nil, errors.ConfigInvalid("mean centering type must be in [0, 2]")
	}
	return ref, nil
}

// MeanCenterMeans returns cell means of X minus the centering reference,
// (cells x B).
func MeanCenterMeans(X, dummy *mat.Dense, nCond int, mode pls.CenteringMode) (*mat.Dense, error) {
	ref, err := referenceMeans(X, dummy, nCond, mode)
	if err != nil {
		return nil, err
	}
	_, cells := dummy.Dims()
	_, b := X.Dims()
	out := mat.NewDense(cells, b, nil)
	for c := 0; c < cells; c++ {
		cm := numeric.ColMeans(numeric.SelectRows(X, pls.CellRows(dummy, c)))
		for j := 0; j < b; j++ {
			out.Set(c, j, cm[j]-ref.At(c, j))
		}
	}
	return out, nil
}

// MeanCenterSamples subtracts each row's cell reference from the row itself,
// keeping the full S x B shape.
func MeanCenterSamples(X, dummy *mat.Dense, nCond int, mode pls.CenteringMode) (*mat.Dense, error) {
	ref, err := referenceMeans(X, dummy, nCond, mode)
	if err != nil {
		return nil, err
	}
	r, b := X.Dims()
	_, cells := dummy.Dims()
	out := mat.NewDense(r, b, nil)
	for c := 0; c < cells; c++ {
		for _, row := range pls.CellRows(dummy, c) {
			src := X.RawRowView(row)
			dst := out.RawRowView(row)
			for j := 0; j < b; j++ {
				dst[j] = src[j] - ref.At(c, j)
			}
		}
	}
	return out, nil
}

// stackRows concatenates the blocks vertically.
func stackRows(blocks []*mat.Dense) *mat.Dense {
	total, cols := 0, 0
	for _, b := range blocks {
		r, c := b.Dims()
		total += r
		cols = c
	}
	out := mat.NewDense(total, cols, nil)
	at := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		for i := 0; i < r; i++ {
			out.SetRow(at, b.RawRowView(i))
			at++
		}
	}
	return out
}
