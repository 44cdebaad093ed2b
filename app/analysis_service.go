// Package app hosts the application services that sit between the transport
// adapters and the inference engine.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
	"plskit/internal"
	"plskit/internal/decompose"
	"plskit/internal/errors"
	"plskit/internal/inference"
	"plskit/internal/resample"
	"plskit/ports"
)

// AnalysisRequest carries everything one analysis run needs. Resample columns
// are optional; when supplied they bypass generation and must match the
// design shape and the configured counts.
type AnalysisRequest struct {
	X      *mat.Dense
	Y      *mat.Dense
	Groups []int
	NCond  int
	Config pls.Config

	PermColumns  [][]int
	BootColumns  [][]int
	SplitColumns [][]bool
}

// AnalysisService runs analyses and optionally persists their summaries.
type AnalysisService struct {
	repo   ports.ResultRepository
	newRNG func(seed int64) ports.RNG
	log    *internal.Logger
}

// NewAnalysisService creates the service. repo may be nil to disable
// persistence; newRNG supplies the deterministic stream factory for a seed.
func NewAnalysisService(repo ports.ResultRepository, newRNG func(seed int64) ports.RNG, log *internal.Logger) *AnalysisService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &AnalysisService{repo: repo, newRNG: newRNG, log: log}
}

// RunBehavioral relates the data block to a behavioral response block through
// the cross-covariance decomposition.
func (s *AnalysisService) RunBehavioral(ctx context.Context, req AnalysisRequest) (*pls.Result, error) {
	if req.Y == nil {
		return nil, errors.InvalidInput("behavioral analysis requires a response block")
	}
	strategy := decompose.CrossCovariance{Covariance: req.Config.Covariance}
	return s.run(ctx, req, strategy, nil)
}

// RunMeanCentered contrasts group/condition means of the data block. Degenerate
// centering modes are corrected up front: with a single condition the
// group-collapsing mode is meaningless (and vice versa with a single group),
// so the mode flips to the usable one and the correction is reported as a
// diagnostic.
func (s *AnalysisService) RunMeanCentered(ctx context.Context, req AnalysisRequest) (*pls.Result, error) {
	if len(req.Groups) <= 1 && req.NCond <= 1 {
		return nil, errors.ConfigInvalid("mean-centered analysis requires more than one group or more than one condition")
	}

	var corrections []string
	if req.NCond == 1 && req.Config.MeanCentering == pls.CenterGroups {
		req.Config.MeanCentering = pls.CenterConditions
		corrections = append(corrections, "single condition: centering switched from groups to conditions")
	}
	if len(req.Groups) == 1 && req.Config.MeanCentering == pls.CenterConditions {
		req.Config.MeanCentering = pls.CenterGroups
		corrections = append(corrections, "single group: centering switched from conditions to groups")
	}
	for _, c := range corrections {
		s.log.Warn("%s", c)
	}

	strategy := decompose.MeanCentered{Centering: req.Config.MeanCentering}
	return s.run(ctx, req, strategy, corrections)
}

func (s *AnalysisService) run(ctx context.Context, req AnalysisRequest, strategy decompose.Strategy, corrections []string) (*pls.Result, error) {
	design, err := pls.NewDesign(req.Groups, req.NCond)
	if err != nil {
		return nil, err
	}

	orch := inference.New(req.X, req.Y, design, strategy, req.Config, s.newRNG(req.Config.Seed))
	orch.Log = s.log

	if req.PermColumns != nil {
		orch.PermPlan, err = resample.FromIndices(resample.KindPermutation, design, req.PermColumns, req.Config.NPerm)
		if err != nil {
			return nil, err
		}
	}
	if req.BootColumns != nil {
		orch.BootPlan, err = resample.FromIndices(resample.KindBootstrap, design, req.BootColumns, req.Config.NBoot)
		if err != nil {
			return nil, err
		}
	}
	if req.SplitColumns != nil {
		orch.SplitPlan, err = resample.FromMasks(design, req.SplitColumns, req.Config.NSplit)
		if err != nil {
			return nil, err
		}
	}

	result, err := orch.Run(ctx)
	if err != nil {
		return nil, err
	}
	result.RunID = uuid.New().String()
	result.Diagnostics = append(corrections, result.Diagnostics...)

	if s.repo != nil {
		if err := s.persist(ctx, result); err != nil {
			// The run itself succeeded; a storage fault should not discard it.
			s.log.Warn("failed to persist run %s: %v", result.RunID, err)
		}
	}
	return result, nil
}

func (s *AnalysisService) persist(ctx context.Context, result *pls.Result) error {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		return errors.Wrap(err, "run id is not a uuid")
	}
	summary := &ports.ResultSummary{
		ID:           id,
		Method:       string(result.Method),
		Samples:      result.Design.NumSamples(),
		NPerm:        result.Config.NPerm,
		NBoot:        result.Config.NBoot,
		NSplit:       result.Config.NSplit,
		Seed:         result.Config.Seed,
		SingularVals: result.Decomp.S,
		VarExplained: result.VarExplained,
		Elapsed:      result.Elapsed,
		CreatedAt:    result.CompletedAt,
	}
	if result.Perm != nil {
		summary.PValues = result.Perm.PValues
	}
	return s.repo.Save(ctx, summary)
}

// GetSummary fetches a persisted run summary.
func (s *AnalysisService) GetSummary(ctx context.Context, id uuid.UUID) (*ports.ResultSummary, error) {
	if s.repo == nil {
		return nil, errors.NotFound(fmt.Sprintf("run %s", id))
	}
	return s.repo.Get(ctx, id)
}

// ListSummaries fetches the most recent persisted run summaries.
func (s *AnalysisService) ListSummaries(ctx context.Context, limit int) ([]*ports.ResultSummary, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, limit)
}
