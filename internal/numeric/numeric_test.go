package numeric

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestZScore_MeanZeroUnitVariance(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	z := ZScore(m, 1)

	for j := 0; j < 2; j++ {
		col := Col(z, j)
		sum, sumSq := 0.0, 0.0
		for _, v := range col {
			sum += v
		}
		mean := sum / 4
		for _, v := range col {
			sumSq += (v - mean) * (v - mean)
		}
		if !almostEqual(mean, 0, 1e-12) {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		if !almostEqual(sumSq/3, 1, 1e-12) {
			t.Errorf("column %d variance = %g, want 1", j, sumSq/3)
		}
	}
}

func TestZScore_ZeroVarianceColumn(t *testing.T) {
	m := mat.NewDense(3, 1, []float64{5, 5, 5})
	z := ZScore(m, 1)
	for i := 0; i < 3; i++ {
		if z.At(i, 0) != 0 {
			t.Errorf("zero-variance column should standardize to 0, got %g", z.At(i, 0))
		}
	}
}

func TestZScoreAgainst_UsesComparisonStats(t *testing.T) {
	comp := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	data := mat.NewDense(1, 1, []float64{2.5})
	z := ZScoreAgainst(data, comp, 1)
	// 2.5 is the mean of comp, so it standardizes to zero.
	if !almostEqual(z.At(0, 0), 0, 1e-12) {
		t.Errorf("mean of comparison should map to 0, got %g", z.At(0, 0))
	}
}

func TestXCorr_PerfectCorrelation(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
	out, err := XCorr(x, y, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(out.At(0, 0), 1, 1e-12) {
		t.Errorf("perfectly correlated columns should give 1, got %g", out.At(0, 0))
	}
}

func TestXCorr_Shape(t *testing.T) {
	x := mat.NewDense(5, 3, []float64{
		1, 2, 3,
		2, 1, 5,
		4, 4, 2,
		0, 3, 1,
		2, 5, 4,
	})
	y := mat.NewDense(5, 2, []float64{
		1, 0,
		0, 2,
		3, 1,
		2, 2,
		1, 4,
	})
	out, err := XCorr(x, y, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, c := out.Dims()
	if r != 2 || c != 3 {
		t.Errorf("cross-correlation dims = %dx%d, want 2x3 (T x B)", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := out.At(i, j)
			if v < -1-1e-9 || v > 1+1e-9 {
				t.Errorf("correlation out of range at (%d,%d): %g", i, j, v)
			}
		}
	}
}

func TestXCorr_MismatchedRows(t *testing.T) {
	x := mat.NewDense(4, 1, nil)
	y := mat.NewDense(3, 1, nil)
	if _, err := XCorr(x, y, false); err == nil {
		t.Error("expected error for mismatched row counts")
	}
}

func TestNormalize_UnitColumns(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		3, 0,
		4, 0,
		0, 0,
	})
	n := Normalize(m)
	norms := ColumnNorms(n)
	if !almostEqual(norms[0], 1, 1e-12) {
		t.Errorf("first column norm = %g, want 1", norms[0])
	}
	if norms[1] != 0 {
		t.Errorf("zero column should stay zero, got norm %g", norms[1])
	}
}

func TestPairwiseCorr_MatchesSign(t *testing.T) {
	a := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})
	b := mat.NewDense(4, 2, []float64{
		2, 4,
		4, 3,
		6, 2,
		8, 1,
	})
	corr := PairwiseCorr(a, b)
	if !almostEqual(corr[0], 1, 1e-12) {
		t.Errorf("first pair should correlate at 1, got %g", corr[0])
	}
	if !almostEqual(corr[1], -1, 1e-12) {
		t.Errorf("second pair should correlate at -1, got %g", corr[1])
	}
}

func TestSelectRows_And_MaskRows(t *testing.T) {
	m := mat.NewDense(4, 1, []float64{10, 20, 30, 40})
	sel := SelectRows(m, []int{3, 0})
	if sel.At(0, 0) != 40 || sel.At(1, 0) != 10 {
		t.Errorf("SelectRows out of order: got %g, %g", sel.At(0, 0), sel.At(1, 0))
	}

	kept := MaskRows(m, []bool{true, false, true, false}, true)
	dropped := MaskRows(m, []bool{true, false, true, false}, false)
	if r, _ := kept.Dims(); r != 2 {
		t.Fatalf("kept %d rows, want 2", r)
	}
	if kept.At(0, 0) != 10 || kept.At(1, 0) != 30 {
		t.Errorf("wrong kept rows: %g, %g", kept.At(0, 0), kept.At(1, 0))
	}
	if dropped.At(0, 0) != 20 || dropped.At(1, 0) != 40 {
		t.Errorf("wrong dropped rows: %g, %g", dropped.At(0, 0), dropped.At(1, 0))
	}
}

func TestAllFinite(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if !AllFinite(ok) {
		t.Error("finite matrix misreported")
	}
	bad := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
	if AllFinite(bad) {
		t.Error("NaN not detected")
	}
	inf := mat.NewDense(2, 2, []float64{1, math.Inf(1), 3, 4})
	if AllFinite(inf) {
		t.Error("Inf not detected")
	}
}
