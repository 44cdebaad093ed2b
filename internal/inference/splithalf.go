package inference

import (
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/resample"
)

// runSplitHalf computes split-half reliability of the original decomposition.
// When the permutation stage ran with nesting, its per-permutation reliability
// scores serve as the null distribution for p-values and percentile bounds;
// without permutations only the observed correlations are reported.
func (o *Orchestrator) runSplitHalf(orig pls.Decomposition, plan *resample.Plan, nullU, nullV *mat.Dense) (*pls.SplitResults, error) {
	ud := scaleByInvSingular(orig.U, orig.S)
	vd := scaleByInvSingular(orig.V, orig.S)

	ucorr, vcorr, err := o.splitCorrs(o.X, o.Y, plan.Masks, ud, vd)
	if err != nil {
		return nil, err
	}
	out := &pls.SplitResults{UCorr: ucorr, VCorr: vcorr}

	if nullU != nil {
		out.UPValues, out.UCorrLo, out.UCorrHi = o.nullStats(ucorr, nullU)
		out.VPValues, out.VCorrLo, out.VCorrHi = o.nullStats(vcorr, nullV)
	}
	return out, nil
}

// nullStats scores observed values against a null distribution laid out one
// latent variable per row.
func (o *Orchestrator) nullStats(obs []float64, dist *mat.Dense) (pvals, lo, hi []float64) {
	_, n := dist.Dims()
	pvals = make([]float64, len(obs))
	lo = make([]float64, len(obs))
	hi = make([]float64, len(obs))
	pLo, pHi := ciBounds(o.Config.CI)

	for j := range obs {
		row := dist.RawRowView(j)
		k := 0
		for _, v := range row {
			if v >= obs[j] {
				k++
			}
		}
		pvals[j] = float64(k+1) / float64(n+1)
		lo[j] = percentile(row, pLo)
		hi[j] = percentile(row, pHi)
	}
	return pvals, lo, hi
}
