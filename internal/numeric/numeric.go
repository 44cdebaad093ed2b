// Package numeric holds the small dense-matrix helpers shared by the
// decomposition and inference engines: column standardization, cross-block
// correlation, and pairwise column statistics.
package numeric

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"plskit/internal/errors"
)

// AllFinite reports whether every entry of m is a finite number.
func AllFinite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			v := row[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Col copies column j of m into a new slice.
func Col(m *mat.Dense, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	mat.Col(out, j, m)
	return out
}

// ColMeans returns the per-column mean of m.
func ColMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			out[j] += row[j]
		}
	}
	for j := range out {
		out[j] /= float64(r)
	}
	return out
}

// colStds returns per-column standard deviations about the supplied means
// with the given delta degrees of freedom.
func colStds(m *mat.Dense, means []float64, ddof int) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	if r-ddof <= 0 {
		return out
	}
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			d := row[j] - means[j]
			out[j] += d * d
		}
	}
	for j := range out {
		out[j] = math.Sqrt(out[j] / float64(r-ddof))
	}
	return out
}

// ZScore standardizes each column of m (ddof degrees of freedom). Columns
// with zero variance come back as zeros rather than NaN.
func ZScore(m *mat.Dense, ddof int) *mat.Dense {
	return ZScoreAgainst(m, m, ddof)
}

// ZScoreAgainst standardizes data against the column statistics of comp.
// Used to rescale held-out test rows by their training distribution.
func ZScoreAgainst(data, comp *mat.Dense, ddof int) *mat.Dense {
	r, c := data.Dims()
	means := ColMeans(comp)
	stds := colStds(comp, means, ddof)
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := data.RawRowView(i)
		dst := out.RawRowView(i)
		for j := 0; j < c; j++ {
			if stds[j] == 0 {
				dst[j] = 0
				continue
			}
			dst[j] = (row[j] - means[j]) / stds[j]
		}
	}
	return out
}

// Center subtracts each column's mean from m.
func Center(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	means := ColMeans(m)
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		dst := out.RawRowView(i)
		for j := 0; j < c; j++ {
			dst[j] = row[j] - means[j]
		}
	}
	return out
}

// XCorr computes the cross-block matrix between X (S x B) and Y (S x T):
// standardized (or merely centered, when covariance is true) columns of both
// blocks multiplied as Yn' * Xn / (S - 1), yielding a T x B result.
func XCorr(X, Y *mat.Dense, covariance bool) (*mat.Dense, error) {
	xr, _ := X.Dims()
	yr, _ := Y.Dims()
	if xr != yr {
		return nil, errors.InvalidInput("cross-correlation requires matching row counts")
	}
	if xr < 2 {
		return nil, errors.InvalidInput("cross-correlation requires at least two rows")
	}
	var Xn, Yn *mat.Dense
	if covariance {
		Xn, Yn = Center(X), Center(Y)
	} else {
		Xn, Yn = ZScore(X, 1), ZScore(Y, 1)
	}
	_, xc := Xn.Dims()
	_, yc := Yn.Dims()
	out := mat.NewDense(yc, xc, nil)
	out.Mul(Yn.T(), Xn)
	out.Scale(1/float64(xr-1), out)
	return out, nil
}

// Normalize rescales each column of m to unit L2 norm. Zero columns are
// left untouched.
func Normalize(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.DenseCopyOf(m)
	for j := 0; j < c; j++ {
		norm := 0.0
		for i := 0; i < r; i++ {
			v := out.At(i, j)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for i := 0; i < r; i++ {
			out.Set(i, j, out.At(i, j)/norm)
		}
	}
	return out
}

// ColumnNorms returns the L2 norm of each column of m.
func ColumnNorms(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			v := m.At(i, j)
			sum += v * v
		}
		out[j] = math.Sqrt(sum)
	}
	return out
}

// PairwiseCorr computes the Pearson correlation between matching columns of
// a and b (not the full correlation matrix).
func PairwiseCorr(a, b *mat.Dense) []float64 {
	_, c := a.Dims()
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		out[j] = stat.Correlation(Col(a, j), Col(b, j), nil)
	}
	return out
}

// SelectRows copies the listed rows of m, in order, into a new matrix.
func SelectRows(m *mat.Dense, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// MaskRows copies the rows of m where mask matches keep.
func MaskRows(m *mat.Dense, mask []bool, keep bool) *mat.Dense {
	var rows []int
	for i, v := range mask {
		if v == keep {
			rows = append(rows, i)
		}
	}
	return SelectRows(m, rows)
}
