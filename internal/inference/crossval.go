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

// runCrossval estimates out-of-sample predictive performance for behavioral
// analyses. Each fold holds out the configured test fraction per group,
// decomposes the training rows, and predicts held-out responses cell by cell:
// test rows are standardized against their training cell, projected through
// the training singular vectors, and shifted by the training cell's response
// mean. Scores are per response column: Pearson correlation and R-squared of
// predicted versus observed.
func (o *Orchestrator) runCrossval(ctx context.Context) (*pls.CVResults, error) {
	folds := o.Config.TestSplit
	plan, err := resample.SplitHalves(o.Design, folds, o.Config.TestSize, o.unitRNG("crossval"))
	if err != nil {
		return nil, err
	}

	_, t := o.Y.Dims()
	pearson := mat.NewDense(t, folds, nil)
	rsq := mat.NewDense(t, folds, nil)

	err = o.exec.Map(ctx, folds, func(_ context.Context, i int) error {
		r, r2, err := o.singleFold(plan.Masks[i])
		if err != nil {
			return err
		}
		for j := 0; j < t; j++ {
			pearson.Set(j, i, r[j])
			rsq.Set(j, i, r2[j])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pls.CVResults{PearsonR: pearson, RSquared: rsq}, nil
}

// singleFold predicts the masked-out rows from a decomposition of the kept
// rows. True in the mask marks training rows.
func (o *Orchestrator) singleFold(mask []bool) (r, r2 []float64, err error) {
	Xtr := numeric.MaskRows(o.X, mask, true)
	Ytr := numeric.MaskRows(o.Y, mask, true)
	dtr := numeric.MaskRows(o.dummy, mask, true)
	Xte := numeric.MaskRows(o.X, mask, false)
	Yte := numeric.MaskRows(o.Y, mask, false)
	dte := numeric.MaskRows(o.dummy, mask, false)

	dec, err := decompose.Decompose(Xtr, Ytr, dtr, o.Design, o.Strategy)
	if err != nil {
		return nil, nil, errors.Wrap(err, "training decomposition failed")
	}

	teTotal, t := Yte.Dims()
	l := dec.Rank()
	pred := mat.NewDense(teTotal, t, nil)

	for c := 0; c < o.Design.NumCells(); c++ {
		teRows := pls.CellRows(dte, c)
		if len(teRows) == 0 {
			continue
		}
		trRows := pls.CellRows(dtr, c)
		if len(trRows) < 2 {
			return nil, nil, errors.Numerical("training cell with fewer than two rows in cross-validation")
		}

		XtrCell := numeric.SelectRows(Xtr, trRows)
		scaled := numeric.ZScoreAgainst(numeric.SelectRows(Xte, teRows), XtrCell, 1)

		vr, _ := dec.V.Dims()
		if (c+1)*t > vr {
			return nil, nil, errors.Numerical("right singular vectors shorter than cell layout")
		}
		vCell := dec.V.Slice(c*t, (c+1)*t, 0, l).(*mat.Dense)

		var scores, cellPred mat.Dense
		scores.Mul(scaled, dec.U)
		cellPred.Mul(&scores, vCell.T())

		yMean := numeric.ColMeans(numeric.SelectRows(Ytr, trRows))
		for k, row := range teRows {
			for j := 0; j < t; j++ {
				pred.Set(row, j, cellPred.At(k, j)+yMean[j])
			}
		}
	}

	r = numeric.PairwiseCorr(Yte, pred)
	r2 = rSquared(Yte, pred)
	return r, r2, nil
}

// rSquared returns 1 - SS_res/SS_tot per column of truth.
func rSquared(truth, pred *mat.Dense) []float64 {
	rows, cols := truth.Dims()
	means := numeric.ColMeans(truth)
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		ssRes, ssTot := 0.0, 0.0
		for i := 0; i < rows; i++ {
			d := truth.At(i, j) - pred.At(i, j)
			ssRes += d * d
			m := truth.At(i, j) - means[j]
			ssTot += m * m
		}
		if ssTot == 0 {
			out[j] = 0
			continue
		}
		out[j] = 1 - ssRes/ssTot
	}
	return out
}
