package inference

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal"
	"plskit/internal/decompose"
	"plskit/internal/errors"
	"plskit/internal/numeric"
	"plskit/internal/resample"
	"plskit/ports"
)

// Orchestrator runs one full inference pipeline: original decomposition, then
// whichever resampling stages the configuration enables. Supplying a plan
// overrides generation for that stage; the plan must match the design shape.
type Orchestrator struct {
	X      *mat.Dense
	Y      *mat.Dense
	Design pls.Design
	Config pls.Config

	Strategy decompose.Strategy
	RNG      ports.RNG
	Log      *internal.Logger

	// Optional externally supplied plans.
	PermPlan  *resample.Plan
	BootPlan  *resample.Plan
	SplitPlan *resample.Plan

	dummy *mat.Dense
	exec  Executor
}

// New wires an orchestrator for one analysis. Y is nil for mean-centered
// runs; the contrast strategy never reads it.
func New(X, Y *mat.Dense, design pls.Design, strategy decompose.Strategy, cfg pls.Config, rng ports.RNG) *Orchestrator {
	return &Orchestrator{
		X:        X,
		Y:        Y,
		Design:   design,
		Config:   cfg,
		Strategy: strategy,
		RNG:      rng,
		Log:      internal.DefaultLogger,
	}
}

// Run executes the pipeline and returns the aggregated result. Any unit
// failure (non-finite build, non-convergent factorization) aborts the whole
// run; resample-plan duplicate notices surface as diagnostics instead.
func (o *Orchestrator) Run(ctx context.Context) (*pls.Result, error) {
	start := time.Now()
	if o.Log == nil {
		o.Log = internal.DefaultLogger
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	o.dummy = o.Design.Dummy()
	o.exec = ForWorkers(o.Config.NProc)

	orig, err := decompose.Decompose(o.X, o.Y, o.dummy, o.Design, o.Strategy)
	if err != nil {
		return nil, errors.Wrap(err, "original decomposition failed")
	}
	res := &pls.Result{
		Method:       o.Strategy.Name(),
		Design:       o.Design,
		Config:       o.Config,
		Decomp:       orig,
		VarExplained: varExplained(orig.S),
	}

	// The split plan is drawn before permutation because every permutation
	// unit reuses the same splits for its reliability null.
	var splitPlan *resample.Plan
	if o.Config.NSplit > 0 {
		splitPlan, err = o.splitPlanOrGenerate()
		if err != nil {
			return nil, err
		}
		res.Diagnostics = append(res.Diagnostics, splitPlan.Diagnostics...)
	}

	var nullU, nullV *mat.Dense
	if o.Config.NPerm > 0 {
		plan, err := o.permPlanOrGenerate()
		if err != nil {
			return nil, err
		}
		res.Diagnostics = append(res.Diagnostics, plan.Diagnostics...)
		res.Perm, nullU, nullV, err = o.runPermutation(ctx, orig, plan, splitPlan)
		if err != nil {
			return nil, err
		}
		o.progress("permutation", plan.Count())
	}

	if splitPlan != nil {
		res.Split, err = o.runSplitHalf(orig, splitPlan, nullU, nullV)
		if err != nil {
			return nil, err
		}
		o.progress("splithalf", splitPlan.Count())
	}

	if o.Config.NBoot > 0 {
		plan, err := o.bootPlanOrGenerate()
		if err != nil {
			return nil, err
		}
		res.Diagnostics = append(res.Diagnostics, plan.Diagnostics...)
		res.Boot, err = o.runBootstrap(ctx, orig, plan)
		if err != nil {
			return nil, err
		}
		o.progress("bootstrap", plan.Count())
	}

	if o.Strategy.Name() == pls.MethodBehavioral && o.Config.TestSplit > 0 && o.Config.TestSize > 0 {
		res.CV, err = o.runCrossval(ctx)
		if err != nil {
			return nil, err
		}
		o.progress("crossval", o.Config.TestSplit)
	}

	if err := o.attachExtras(res, orig); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	res.CompletedAt = time.Now()
	return res, nil
}

func (o *Orchestrator) validate() error {
	if err := o.Config.Validate(o.Strategy.Name()); err != nil {
		return err
	}
	xr, _ := o.X.Dims()
	if err := o.Design.CheckSamples(xr); err != nil {
		return err
	}
	if !numeric.AllFinite(o.X) {
		return errors.Numerical("non-finite values in data block")
	}
	if o.Strategy.Name() == pls.MethodBehavioral {
		if o.Y == nil {
			return errors.InvalidInput("behavioral analysis requires a response block")
		}
		yr, _ := o.Y.Dims()
		if yr != xr {
			return errors.InvalidInput("data and response blocks must have matching row counts")
		}
		if !numeric.AllFinite(o.Y) {
			return errors.Numerical("non-finite values in response block")
		}
	}
	return nil
}

func (o *Orchestrator) permPlanOrGenerate() (*resample.Plan, error) {
	if o.PermPlan != nil {
		if o.PermPlan.Count() != o.Config.NPerm {
			return nil, errors.PlanShape("supplied permutation plan does not match n_perm")
		}
		return o.PermPlan, nil
	}
	return resample.Permutations(o.Design, o.Config.NPerm, o.unitRNG("permutation"))
}

func (o *Orchestrator) bootPlanOrGenerate() (*resample.Plan, error) {
	if o.BootPlan != nil {
		if o.BootPlan.Count() != o.Config.NBoot {
			return nil, errors.PlanShape("supplied bootstrap plan does not match n_boot")
		}
		return o.BootPlan, nil
	}
	return resample.Bootstraps(o.Design, o.Config.NBoot, o.unitRNG("bootstrap"))
}

// splitPlanOrGenerate always draws half/half splits: reliability estimation
// compares two halves regardless of the cross-validation test fraction.
func (o *Orchestrator) splitPlanOrGenerate() (*resample.Plan, error) {
	if o.SplitPlan != nil {
		if o.SplitPlan.Count() != o.Config.NSplit {
			return nil, errors.PlanShape("supplied split-half plan does not match n_split")
		}
		return o.SplitPlan, nil
	}
	return resample.SplitHalves(o.Design, o.Config.NSplit, 0.5, o.unitRNG("splithalf"))
}

// unitRNG binds a stage name to the per-unit generator port, so each plan
// column draws from a stream derived from its own index.
func (o *Orchestrator) unitRNG(stage string) resample.UnitRNG {
	return func(index int) *rand.Rand { return o.RNG.Unit(stage, index) }
}

func (o *Orchestrator) progress(stage string, total int) {
	if o.Config.Verbose {
		o.Log.Progress(stage, total, total)
	}
}

// varExplained returns each squared singular value as a fraction of the sum
// of squares.
func varExplained(s []float64) []float64 {
	out := make([]float64, len(s))
	total := 0.0
	for _, v := range s {
		total += v * v
	}
	if total == 0 {
		return out
	}
	for i, v := range s {
		out[i] = v * v / total
	}
	return out
}

// scaleByInvSingular returns m with column j divided by s[j]. Zero singular
// values zero the column rather than blowing up.
func scaleByInvSingular(m *mat.Dense, s []float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		if s[j] == 0 {
			continue
		}
		for i := 0; i < r; i++ {
			out.Set(i, j, m.At(i, j)/s[j])
		}
	}
	return out
}

// percentile evaluates the p-th percentile of data, clamping to the extremes
// at the boundaries so a 100% confidence level degenerates to min/max.
func percentile(data []float64, p float64) float64 {
	var v float64
	var err error
	switch {
	case p <= 0:
		v, err = stats.Min(data)
	case p >= 100:
		v, err = stats.Max(data)
	default:
		v, err = stats.Percentile(data, p)
	}
	if err != nil {
		return math.NaN()
	}
	return v
}

// ciBounds returns the lower and upper percentile levels for a confidence
// level expressed in percent.
func ciBounds(ci float64) (lo, hi float64) {
	tail := (100 - ci) / 2
	return tail, 100 - tail
}
