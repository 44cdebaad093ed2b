package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"plskit/adapters/excel"
	"plskit/adapters/report"
	"plskit/adapters/rng"
	"plskit/app"
	"plskit/domain/pls"
	"plskit/internal"
	"plskit/internal/resample"
	"plskit/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plskit",
		Short: "Partial least squares analysis with resampling inference",
	}

	rootCmd.AddCommand(
		newBehavioralCmd(),
		newMeanCenteredCmd(),
		newPlanCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runFlags is the flag set shared by both analysis commands.
type runFlags struct {
	groups    string
	nCond     int
	nPerm     int
	nBoot     int
	nSplit    int
	testSplit int
	testSize  float64
	noRotate  bool
	ci        float64
	seed      int64
	nProc     int
	reportOut string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.groups, "groups", "", "Comma-separated group sizes, e.g. 10,10 (required)")
	cmd.Flags().IntVar(&f.nCond, "n-cond", 1, "Conditions per subject")
	cmd.Flags().IntVar(&f.nPerm, "n-perm", 5000, "Permutation count (0 disables)")
	cmd.Flags().IntVar(&f.nBoot, "n-boot", 5000, "Bootstrap count (0 disables)")
	cmd.Flags().IntVar(&f.nSplit, "n-split", 100, "Split-half count (0 disables)")
	cmd.Flags().IntVar(&f.testSplit, "test-split", 100, "Cross-validation folds (behavioral only, 0 disables)")
	cmd.Flags().Float64Var(&f.testSize, "test-size", 0.25, "Held-out fraction for cross-validation")
	cmd.Flags().BoolVar(&f.noRotate, "no-rotate", false, "Disable Procrustes rotation of permuted decompositions")
	cmd.Flags().Float64Var(&f.ci, "ci", 95, "Confidence level for percentile intervals")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for deterministic resampling")
	cmd.Flags().IntVar(&f.nProc, "n-proc", 1, "Worker count for resampling (<=1 sequential)")
	cmd.Flags().StringVar(&f.reportOut, "report", "", "Write a markdown report to this path")
	cmd.MarkFlagRequired("groups")
}

func (f *runFlags) config() pls.Config {
	cfg := pls.DefaultConfig()
	cfg.NPerm = f.nPerm
	cfg.NBoot = f.nBoot
	cfg.NSplit = f.nSplit
	cfg.TestSplit = f.testSplit
	cfg.TestSize = f.testSize
	cfg.Rotate = !f.noRotate
	cfg.CI = f.ci
	cfg.Seed = f.seed
	cfg.NProc = f.nProc
	return cfg
}

func parseGroups(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	groups := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid group size %q", p)
		}
		groups = append(groups, n)
	}
	return groups, nil
}

func newService() *app.AnalysisService {
	return app.NewAnalysisService(nil, func(seed int64) ports.RNG {
		return rng.NewSeeded(seed)
	}, internal.NewDefaultLogger())
}

func newBehavioralCmd() *cobra.Command {
	var flags runFlags
	var covariance bool

	cmd := &cobra.Command{
		Use:   "behavioral [data-file] [response-file]",
		Short: "Relate a data block to behavioral responses",
		Long: `Decompose the cross-correlation of a data block and a response block,
with permutation significance, bootstrap stability, split-half reliability
and train/test cross-validation.

Example: plskit behavioral brain.csv behavior.csv --groups 10,10 --n-cond 2 --seed 42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := excel.NewDataReader()
			x, _, err := reader.ReadMatrix(args[0])
			if err != nil {
				return err
			}
			y, _, err := reader.ReadMatrix(args[1])
			if err != nil {
				return err
			}
			groups, err := parseGroups(flags.groups)
			if err != nil {
				return err
			}

			cfg := flags.config()
			cfg.Covariance = covariance
			res, err := newService().RunBehavioral(cmd.Context(), app.AnalysisRequest{
				X: x, Y: y, Groups: groups, NCond: flags.nCond, Config: cfg,
			})
			if err != nil {
				return err
			}
			return emit(res, flags.reportOut)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&covariance, "covariance", false, "Use covariance instead of correlation in the cross block")
	return cmd
}

func newMeanCenteredCmd() *cobra.Command {
	var flags runFlags
	var centering int

	cmd := &cobra.Command{
		Use:   "meancentered [data-file]",
		Short: "Contrast group/condition means of a data block",
		Long: `Decompose the mean-centered group/condition contrast of a data block,
with permutation significance, bootstrap stability and split-half reliability.

Centering modes: 0 removes group means, 1 removes condition means,
2 removes the grand mean.

Example: plskit meancentered brain.csv --groups 10,10 --n-cond 2 --mean-centering 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, _, err := excel.NewDataReader().ReadMatrix(args[0])
			if err != nil {
				return err
			}
			groups, err := parseGroups(flags.groups)
			if err != nil {
				return err
			}

			cfg := flags.config()
			cfg.MeanCentering = pls.CenteringMode(centering)
			res, err := newService().RunMeanCentered(cmd.Context(), app.AnalysisRequest{
				X: x, Groups: groups, NCond: flags.nCond, Config: cfg,
			})
			if err != nil {
				return err
			}
			return emit(res, flags.reportOut)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&centering, "mean-centering", 0, "Centering mode: 0 groups, 1 conditions, 2 grand mean")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var groupsRaw string
	var nCond, count int
	var seed int64
	var testSize float64

	cmd := &cobra.Command{
		Use:   "plan [permutation|bootstrap|splithalf]",
		Short: "Generate a resample plan and print it as JSON",
		Long: `Generate the resample columns an analysis with the same design and seed
would use, for inspection or for replaying through the API.

Example: plskit plan bootstrap --groups 10,10 --n-cond 2 --count 100 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := parseGroups(groupsRaw)
			if err != nil {
				return err
			}
			design, err := pls.NewDesign(groups, nCond)
			if err != nil {
				return err
			}
			return runPlan(cmd.Context(), design, args[0], count, testSize, seed)
		},
	}

	cmd.Flags().StringVar(&groupsRaw, "groups", "", "Comma-separated group sizes (required)")
	cmd.Flags().IntVar(&nCond, "n-cond", 1, "Conditions per subject")
	cmd.Flags().IntVar(&count, "count", 100, "Number of resample columns")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().Float64Var(&testSize, "test-size", 0.5, "Held-out fraction (splithalf only)")
	cmd.MarkFlagRequired("groups")
	return cmd
}

func runPlan(_ context.Context, design pls.Design, kind string, count int, testSize float64, seed int64) error {
	streams := rng.NewSeeded(seed)
	unit := func(stage string) resample.UnitRNG {
		return func(index int) *rand.Rand { return streams.Unit(stage, index) }
	}

	var plan *resample.Plan
	var err error
	switch resample.Kind(kind) {
	case resample.KindPermutation:
		plan, err = resample.Permutations(design, count, unit("permutation"))
	case resample.KindBootstrap:
		plan, err = resample.Bootstraps(design, count, unit("bootstrap"))
	case resample.KindSplitHalf:
		plan, err = resample.SplitHalves(design, count, testSize, unit("splithalf"))
	default:
		return fmt.Errorf("unknown plan kind %q (expected permutation|bootstrap|splithalf)", kind)
	}
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"kind":    plan.Kind,
		"groups":  design.Groups,
		"n_cond":  design.NCond,
		"samples": plan.Samples(),
		"count":   plan.Count(),
	}
	if plan.Indices != nil {
		out["columns"] = plan.Indices
	}
	if plan.Masks != nil {
		out["masks"] = plan.Masks
	}
	if len(plan.Diagnostics) > 0 {
		out["diagnostics"] = plan.Diagnostics
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func emit(res *pls.Result, reportPath string) error {
	fmt.Printf("run %s (%s) finished in %s\n", res.RunID, res.Method, res.Elapsed)
	for i, s := range res.Decomp.S {
		line := fmt.Sprintf("LV %d: singular %.4f, varexp %.4f", i+1, s, res.VarExplained[i])
		if res.Perm != nil {
			line += fmt.Sprintf(", p %.4f", res.Perm.PValues[i])
		}
		fmt.Println(line)
	}
	for _, d := range res.Diagnostics {
		fmt.Printf("note: %s\n", d)
	}

	if reportPath != "" {
		if err := os.WriteFile(reportPath, []byte(report.Markdown(res)), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("report written to %s\n", reportPath)
	}
	return nil
}
