package decompose

import (
	"gonum.org/v1/gonum/mat"

	"plskit/internal/errors"
)

// Align rotates candidate's singular vectors into the coordinate frame of
// reference, resolving SVD's sign and tied-value ordering ambiguity. It
// decomposes reference' * candidate as N * Sigma * P', forms the rotation
// R = P * N', and returns candidate * diag(singular) * R along with R.
// Aligning a decomposition to itself yields the identity rotation up to
// numerical tolerance.
func Align(reference, candidate *mat.Dense, singular []float64) (rotated, rotation *mat.Dense, err error) {
	var cross mat.Dense
	cross.Mul(reference.T(), candidate)

	var svd mat.SVD
	if ok := svd.Factorize(&cross, mat.SVDThin); !ok {
		return nil, nil, errors.DecompositionFailed("procrustes SVD failed to converge")
	}
	var n, p mat.Dense
	svd.UTo(&n)
	svd.VTo(&p)

	rotation = &mat.Dense{}
	rotation.Mul(&p, n.T())

	var scaled mat.Dense
	scaled.Mul(candidate, mat.NewDiagDense(len(singular), singular))
	rotated = &mat.Dense{}
	rotated.Mul(&scaled, rotation)
	return rotated, rotation, nil
}
