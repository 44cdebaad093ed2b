package decompose

import (
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/errors"
	"plskit/internal/numeric"
)

// Decompose builds the strategy matrix for X and Y and factorizes it with a
// rank-truncated SVD. The truncation rank is the smaller of the design
// indicator's dimensions and the built matrix's dimensions; a single-cell
// indicator contributes only its row count, matching the behavior of a
// squeezed one-column design.
func Decompose(X, Y, dummy *mat.Dense, design pls.Design, strategy Strategy) (pls.Decomposition, error) {
	built, err := strategy.BuildMatrix(X, Y, dummy, design)
	if err != nil {
		return pls.Decomposition{}, err
	}
	if !numeric.AllFinite(built) {
		return pls.Decomposition{}, errors.Numerical("non-finite values in matrix to decompose")
	}

	dr, dc := dummy.Dims()
	dummyMin := dr
	if dc > 1 && dc < dummyMin {
		dummyMin = dc
	}
	br, bc := built.Dims()
	rank := dummyMin
	if br < rank {
		rank = br
	}
	if bc < rank {
		rank = bc
	}

	// The decomposition runs on the transpose so U spans X features and V
	// spans the built matrix's rows.
	var t mat.Dense
	t.CloneFrom(built.T())
	var svd mat.SVD
	if ok := svd.Factorize(&t, mat.SVDThin); !ok {
		return pls.Decomposition{}, errors.DecompositionFailed("SVD failed to converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vals := svd.Values(nil)

	return pls.Decomposition{
		U: truncateCols(&u, rank),
		S: vals[:rank],
		V: truncateCols(&v, rank),
	}, nil
}

func truncateCols(m *mat.Dense, rank int) *mat.Dense {
	r, c := m.Dims()
	if c == rank {
		return mat.DenseCopyOf(m)
	}
	out := mat.NewDense(r, rank, nil)
	out.Copy(m.Slice(0, r, 0, rank))
	return out
}
