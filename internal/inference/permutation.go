package inference

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/decompose"
	"plskit/internal/errors"
	"plskit/internal/numeric"
	"plskit/internal/resample"
)

// permUnit is the output of one permutation: the (possibly rotated) singular
// values, plus split-half reliability scores when nesting is enabled.
type permUnit struct {
	vals  []float64
	ucorr []float64
	vcorr []float64
}

// runPermutation executes the permutation null. Each unit reindexes the
// strategy's permute-target block, redecomposes, and (with rotation on)
// Procrustes-aligns the strategy's alignment side against the original before
// reading off singular values as column norms. When a split plan is supplied,
// every unit also computes split-half reliability on its permuted data,
// building the null distributions for the reliability test.
func (o *Orchestrator) runPermutation(ctx context.Context, orig pls.Decomposition, plan, splitPlan *resample.Plan) (*pls.PermResults, *mat.Dense, *mat.Dense, error) {
	n := plan.Count()
	l := orig.Rank()
	units := make([]permUnit, n)

	err := o.exec.Map(ctx, n, func(_ context.Context, i int) error {
		u, err := o.singlePermutation(orig, plan.Indices[i], splitPlan)
		if err != nil {
			return err
		}
		units[i] = u
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	dist := mat.NewDense(l, n, nil)
	var nullU, nullV *mat.Dense
	if splitPlan != nil {
		nullU = mat.NewDense(l, n, nil)
		nullV = mat.NewDense(l, n, nil)
	}
	for i, u := range units {
		if len(u.vals) != l {
			return nil, nil, nil, errors.Numerical("permuted decomposition changed rank")
		}
		for j := 0; j < l; j++ {
			dist.Set(j, i, u.vals[j])
			if nullU != nil {
				nullU.Set(j, i, u.ucorr[j])
				nullV.Set(j, i, u.vcorr[j])
			}
		}
	}

	pvals := make([]float64, l)
	for j := 0; j < l; j++ {
		row := dist.RawRowView(j)
		k := 0
		for _, v := range row {
			if v >= orig.S[j] {
				k++
			}
		}
		pvals[j] = float64(k+1) / float64(n+1)
	}

	return &pls.PermResults{PValues: pvals, Dist: dist}, nullU, nullV, nil
}

func (o *Orchestrator) singlePermutation(orig pls.Decomposition, col []int, splitPlan *resample.Plan) (permUnit, error) {
	Xp, Yp := o.X, o.Y
	if o.Strategy.PermuteTarget() == decompose.TargetX {
		Xp = numeric.SelectRows(o.X, col)
	} else {
		Yp = numeric.SelectRows(o.Y, col)
	}

	dec, err := decompose.Decompose(Xp, Yp, o.dummy, o.Design, o.Strategy)
	if err != nil {
		return permUnit{}, err
	}

	var unit permUnit
	if o.Config.Rotate {
		ref, cand := orig.U, dec.U
		if o.Strategy.AlignSide() == decompose.SideRight {
			ref, cand = orig.V, dec.V
		}
		rotated, _, err := decompose.Align(ref, cand, dec.S)
		if err != nil {
			return permUnit{}, err
		}
		unit.vals = numeric.ColumnNorms(rotated)
	} else {
		unit.vals = append([]float64(nil), dec.S...)
	}

	if splitPlan != nil {
		ud := scaleByInvSingular(dec.U, dec.S)
		vd := scaleByInvSingular(dec.V, dec.S)
		unit.ucorr, unit.vcorr, err = o.splitCorrs(Xp, Yp, splitPlan.Masks, ud, vd)
		if err != nil {
			return permUnit{}, err
		}
	}
	return unit, nil
}

// splitCorrs builds the strategy matrix on each half of every split, projects
// both halves through the inverse-scaled singular vectors, and returns the
// per-latent-variable correlation of the two halves' projections averaged
// over splits. ud projects onto the left vectors (via the right), vd onto the
// right vectors (via the left).
func (o *Orchestrator) splitCorrs(X, Y *mat.Dense, masks [][]bool, ud, vd *mat.Dense) ([]float64, []float64, error) {
	_, l := ud.Dims()
	ucorr := make([]float64, l)
	vcorr := make([]float64, l)

	for _, mask := range masks {
		x1 := numeric.MaskRows(X, mask, true)
		x2 := numeric.MaskRows(X, mask, false)
		var y1, y2 *mat.Dense
		if Y != nil {
			y1 = numeric.MaskRows(Y, mask, true)
			y2 = numeric.MaskRows(Y, mask, false)
		}
		d1dum := numeric.MaskRows(o.dummy, mask, true)
		d2dum := numeric.MaskRows(o.dummy, mask, false)

		d1, err := o.Strategy.BuildMatrix(x1, y1, d1dum, o.Design)
		if err != nil {
			return nil, nil, errors.Wrap(err, "split half build failed")
		}
		d2, err := o.Strategy.BuildMatrix(x2, y2, d2dum, o.Design)
		if err != nil {
			return nil, nil, errors.Wrap(err, "split half build failed")
		}

		var u1, u2, v1, v2 mat.Dense
		u1.Mul(d1.T(), vd)
		u2.Mul(d2.T(), vd)
		v1.Mul(d1, ud)
		v2.Mul(d2, ud)

		for j, c := range numeric.PairwiseCorr(&u1, &u2) {
			ucorr[j] += c
		}
		for j, c := range numeric.PairwiseCorr(&v1, &v2) {
			vcorr[j] += c
		}
	}

	inv := 1 / float64(len(masks))
	for j := range ucorr {
		ucorr[j] *= inv
		vcorr[j] *= inv
	}
	return ucorr, vcorr, nil
}
