package inference

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/decompose"
	"plskit/internal/numeric"
	"plskit/internal/resample"
)

// bootUnit is the output of one bootstrap resample: the Procrustes-rotated
// left singular vectors and the strategy's CI distribution matrix.
type bootUnit struct {
	u       *mat.Dense
	distrib *mat.Dense
}

// runBootstrap executes the bootstrap stability stage. Each unit resamples
// rows with replacement per the plan, redecomposes, rotates its left singular
// vectors onto the original, and evaluates the strategy's distribution with
// the unit-normalized rotation. Aggregation folds the rotated vectors into
// running moments (never materializing the full stack), divides the scaled
// original loadings by the resulting standard error to get bootstrap ratios,
// and takes element-wise percentiles of the distribution stack for the
// confidence interval.
func (o *Orchestrator) runBootstrap(ctx context.Context, orig pls.Decomposition, plan *resample.Plan) (*pls.BootResults, error) {
	n := plan.Count()
	units := make([]bootUnit, n)

	err := o.exec.Map(ctx, n, func(_ context.Context, i int) error {
		col := plan.Indices[i]
		Xb := numeric.SelectRows(o.X, col)
		Yb := o.Y
		if o.Y != nil {
			Yb = numeric.SelectRows(o.Y, col)
		}

		dec, err := decompose.Decompose(Xb, Yb, o.dummy, o.Design, o.Strategy)
		if err != nil {
			return err
		}
		rotated, _, err := decompose.Align(orig.U, dec.U, dec.S)
		if err != nil {
			return err
		}
		distrib, err := o.Strategy.BootDistrib(Xb, Yb, o.dummy, o.Design, numeric.Normalize(rotated))
		if err != nil {
			return err
		}
		units[i] = bootUnit{u: rotated, distrib: distrib}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, l := orig.U.Dims()
	moments := NewRunningMoments(b, l)
	for _, u := range units {
		moments.Add(u.u)
	}
	se := moments.StdErr()

	var scaled mat.Dense
	scaled.Mul(orig.U, orig.SingularDiag())
	ratios := mat.NewDense(b, l, nil)
	for i := 0; i < b; i++ {
		for j := 0; j < l; j++ {
			ratios.Set(i, j, scaled.At(i, j)/se.At(i, j))
		}
	}

	lo, hi := o.distribPercentiles(units)
	return &pls.BootResults{
		Ratios:    ratios,
		StdErr:    se,
		DistribLo: lo,
		DistribHi: hi,
	}, nil
}

func (o *Orchestrator) distribPercentiles(units []bootUnit) (*mat.Dense, *mat.Dense) {
	r, c := units[0].distrib.Dims()
	lo := mat.NewDense(r, c, nil)
	hi := mat.NewDense(r, c, nil)
	pLo, pHi := ciBounds(o.Config.CI)

	series := make([]float64, len(units))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			for k, u := range units {
				series[k] = u.distrib.At(i, j)
			}
			lo.Set(i, j, percentile(series, pLo))
			hi.Set(i, j, percentile(series, pHi))
		}
	}
	return lo, hi
}
