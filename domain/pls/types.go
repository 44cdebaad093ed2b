package pls

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Method identifies which covariance/contrast strategy an analysis used.
type Method string

const (
	MethodBehavioral   Method = "behavioral"
	MethodMeanCentered Method = "meancentered"
)

// CenteringMode selects which mean is removed before decomposition in
// mean-centered analyses.
type CenteringMode int

const (
	// CenterGroups removes group means collapsed across conditions.
	CenterGroups CenteringMode = 0
	// CenterConditions removes condition means collapsed across groups.
	CenterConditions CenteringMode = 1
	// CenterGrand removes the grand mean of the entire dataset.
	CenterGrand CenteringMode = 2
)

// Valid reports whether m is one of the three recognized centering modes.
func (m CenteringMode) Valid() bool {
	return m == CenterGroups || m == CenterConditions || m == CenterGrand
}

// Decomposition holds the truncated SVD of a strategy matrix. U and V carry
// one column per latent variable; S holds the singular values in descending
// order. U spans the feature side of X, V spans the rows of the strategy
// matrix (behavioral cells x Y-features, or design cells for mean-centered).
type Decomposition struct {
	U *mat.Dense
	S []float64
	V *mat.Dense
}

// Rank returns the number of latent variables retained.
func (d Decomposition) Rank() int { return len(d.S) }

// SingularDiag returns S as a diagonal matrix.
func (d Decomposition) SingularDiag() *mat.DiagDense {
	return mat.NewDiagDense(len(d.S), d.S)
}

// PermResults aggregates the permutation significance test.
type PermResults struct {
	// PValues holds one (k+1)/(n_perm+1) value per latent variable.
	PValues []float64
	// Dist is the L x P matrix of permuted singular values.
	Dist *mat.Dense
}

// BootResults aggregates the bootstrap stability assessment.
type BootResults struct {
	// Ratios holds the bootstrap ratios (scaled loadings / standard error).
	Ratios *mat.Dense
	// StdErr holds the ddof=1 standard error of the rotated bootstrap
	// distribution, element-wise over the left singular vectors.
	StdErr *mat.Dense
	// DistribLo and DistribHi bound the percentile confidence interval of the
	// strategy-specific bootstrap distribution (behavioral correlations or
	// group/condition contrast).
	DistribLo *mat.Dense
	DistribHi *mat.Dense
}

// SplitResults aggregates split-half reliability for both vector sets.
type SplitResults struct {
	UCorr []float64
	VCorr []float64
	// P-values of the reliability scores against the permutation null.
	UPValues []float64
	VPValues []float64
	// Percentile confidence bounds from the permutation-null distribution.
	UCorrLo []float64
	UCorrHi []float64
	VCorrLo []float64
	VCorrHi []float64
}

// CVResults aggregates train/test cross-validation (behavioral only).
type CVResults struct {
	// PearsonR and RSquared are T x folds, one row per response column.
	PearsonR *mat.Dense
	RSquared *mat.Dense
}

// Result is the immutable outcome of one inference run. It is owned by the
// invocation that produced it; callers must not mutate the embedded matrices.
type Result struct {
	RunID  string
	Method Method
	Design Design
	Config Config

	Decomp       Decomposition
	VarExplained []float64

	Perm  *PermResults
	Boot  *BootResults
	Split *SplitResults
	CV    *CVResults

	// Behavioral extras.
	BehavScores *mat.Dense
	BehavCorr   *mat.Dense

	// Mean-centered extras.
	DesignScores *mat.Dense
	Contrast     *mat.Dense

	// Diagnostics collects non-fatal notices (duplicate-resample warnings,
	// centering-mode corrections). Never affects the numbers above.
	Diagnostics []string

	Elapsed     time.Duration
	CompletedAt time.Time
}
