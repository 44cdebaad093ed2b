package inference

import (
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/decompose"
	"plskit/internal/numeric"
)

// attachExtras fills the method-specific result fields derived from the
// original decomposition.
func (o *Orchestrator) attachExtras(res *pls.Result, orig pls.Decomposition) error {
	switch o.Strategy.Name() {
	case pls.MethodBehavioral:
		return o.behavioralExtras(res, orig)
	case pls.MethodMeanCentered:
		return o.meanCenteredExtras(res, orig)
	}
	return nil
}

// behavioralExtras computes per-sample response scores (each cell's response
// rows projected through that cell's slice of the right singular vectors) and
// the correlation of data scores with the responses, built the same way as
// the decomposed matrix.
func (o *Orchestrator) behavioralExtras(res *pls.Result, orig pls.Decomposition) error {
	s, t := o.Y.Dims()
	l := orig.Rank()

	scores := mat.NewDense(s, l, nil)
	for c := 0; c < o.Design.NumCells(); c++ {
		rows := pls.CellRows(o.dummy, c)
		yCell := numeric.SelectRows(o.Y, rows)
		vCell := orig.V.Slice(c*t, (c+1)*t, 0, l).(*mat.Dense)
		var prod mat.Dense
		prod.Mul(yCell, vCell)
		for k, row := range rows {
			for j := 0; j < l; j++ {
				scores.Set(row, j, prod.At(k, j))
			}
		}
	}
	res.BehavScores = scores

	var dataScores mat.Dense
	dataScores.Mul(o.X, orig.U)
	corr, err := o.Strategy.BuildMatrix(&dataScores, o.Y, o.dummy, o.Design)
	if err != nil {
		return err
	}
	res.BehavCorr = corr
	return nil
}

// meanCenteredExtras computes design scores (the indicator matrix projected
// through the right singular vectors) and the contrast: per-cell means of the
// demeaned data projected through the left singular vectors.
func (o *Orchestrator) meanCenteredExtras(res *pls.Result, orig pls.Decomposition) error {
	var design mat.Dense
	design.Mul(o.dummy, orig.V)
	res.DesignScores = &design

	mode := o.Config.MeanCentering
	demeaned, err := decompose.MeanCenterSamples(o.X, o.dummy, o.Design.NCond, mode)
	if err != nil {
		return err
	}
	var usc mat.Dense
	usc.Mul(demeaned, orig.U)

	l := orig.Rank()
	cells := o.Design.NumCells()
	contrast := mat.NewDense(cells, l, nil)
	for c := 0; c < cells; c++ {
		cell := numeric.SelectRows(&usc, pls.CellRows(o.dummy, c))
		contrast.SetRow(c, numeric.ColMeans(cell))
	}
	res.Contrast = contrast
	return nil
}
