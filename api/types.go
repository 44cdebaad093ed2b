package api

import (
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal/errors"
)

// AnalysisRequest is the JSON body for both analysis endpoints. Y is required
// for behavioral runs and ignored for mean-centered ones.
type AnalysisRequest struct {
	X      [][]float64    `json:"x"`
	Y      [][]float64    `json:"y,omitempty"`
	Groups []int          `json:"groups"`
	NCond  int            `json:"n_cond"`
	Config *ConfigRequest `json:"config,omitempty"`
}

// ConfigRequest overrides the server's default run configuration. Pointer
// fields distinguish "absent" from zero, since zero disables a stage.
type ConfigRequest struct {
	NPerm         *int     `json:"n_perm,omitempty"`
	NBoot         *int     `json:"n_boot,omitempty"`
	NSplit        *int     `json:"n_split,omitempty"`
	TestSplit     *int     `json:"test_split,omitempty"`
	TestSize      *float64 `json:"test_size,omitempty"`
	Rotate        *bool    `json:"rotate,omitempty"`
	CI            *float64 `json:"ci,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	NProc         *int     `json:"n_proc,omitempty"`
	MeanCentering *int     `json:"mean_centering,omitempty"`
	Covariance    *bool    `json:"covariance,omitempty"`
}

// Apply overlays the request overrides onto a base configuration.
func (c *ConfigRequest) Apply(base pls.Config) pls.Config {
	if c == nil {
		return base
	}
	if c.NPerm != nil {
		base.NPerm = *c.NPerm
	}
	if c.NBoot != nil {
		base.NBoot = *c.NBoot
	}
	if c.NSplit != nil {
		base.NSplit = *c.NSplit
	}
	if c.TestSplit != nil {
		base.TestSplit = *c.TestSplit
	}
	if c.TestSize != nil {
		base.TestSize = *c.TestSize
	}
	if c.Rotate != nil {
		base.Rotate = *c.Rotate
	}
	if c.CI != nil {
		base.CI = *c.CI
	}
	if c.Seed != nil {
		base.Seed = *c.Seed
	}
	if c.NProc != nil {
		base.NProc = *c.NProc
	}
	if c.MeanCentering != nil {
		base.MeanCentering = pls.CenteringMode(*c.MeanCentering)
	}
	if c.Covariance != nil {
		base.Covariance = *c.Covariance
	}
	return base
}

// AnalysisResponse is the summary-level view returned after a run. The full
// matrices stay server-side; the report endpoint renders them.
type AnalysisResponse struct {
	RunID        string    `json:"run_id"`
	Method       string    `json:"method"`
	SingularVals []float64 `json:"singular_values"`
	VarExplained []float64 `json:"var_explained"`
	PValues      []float64 `json:"p_values,omitempty"`
	UCorr        []float64 `json:"split_u_corr,omitempty"`
	VCorr        []float64 `json:"split_v_corr,omitempty"`
	Diagnostics  []string  `json:"diagnostics,omitempty"`
	ElapsedMS    int64     `json:"elapsed_ms"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toResponse(res *pls.Result) AnalysisResponse {
	out := AnalysisResponse{
		RunID:        res.RunID,
		Method:       string(res.Method),
		SingularVals: res.Decomp.S,
		VarExplained: res.VarExplained,
		Diagnostics:  res.Diagnostics,
		ElapsedMS:    res.Elapsed.Milliseconds(),
	}
	if res.Perm != nil {
		out.PValues = res.Perm.PValues
	}
	if res.Split != nil {
		out.UCorr = res.Split.UCorr
		out.VCorr = res.Split.VCorr
	}
	return out
}

// toDense converts a JSON matrix to a dense matrix, rejecting ragged rows.
func toDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.InvalidInput("matrix must not be empty")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, errors.InvalidInput("matrix rows must not be empty")
	}
	out := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.InvalidInput("matrix rows must all have the same length")
		}
		out.SetRow(i, row)
	}
	return out, nil
}
