package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-research/bench-cli/internal/frontier"
	"github.com/atlas-research/bench-cli/internal/projection"
	"github.com/atlas-research/bench-cli/internal/store"
)

var (
	projectMethod  string
	projectWindow  int
	projectHorizon int
	projectSeed    uint64
	projectAll     bool
	projectJSON    bool
)

var projectCmd = &cobra.Command{
	Use:   "project [benchmark-id]",
	Short: "Fit a trend model to a benchmark frontier and forecast",
	Long: `Fits the chosen model (linear, saturation, or power_law) to the
best-so-far frontier of a benchmark and forecasts forward in 30-day steps
with bootstrapped 80% and 95% confidence bands.

Point fits are deterministic; pass --seed for reproducible intervals.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if projectAll == (len(args) == 1) {
			return eris.New("provide exactly one of <benchmark-id> or --all")
		}

		method := projection.Method(projectMethod)
		known := false
		for _, m := range projection.Methods {
			if method == m {
				known = true
			}
		}
		if !known {
			return eris.Errorf("unknown method %q (want linear, saturation, or power_law)", projectMethod)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var ids []string
		if projectAll {
			benchmarks, err := st.AllBenchmarks(ctx)
			if err != nil {
				return eris.Wrap(err, "list benchmarks")
			}
			for _, b := range benchmarks {
				ids = append(ids, b.ID)
			}
		} else {
			ids = args
		}

		results := make([]*projection.Result, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, id := range ids {
			g.Go(func() error {
				res, err := projectOne(gctx, st, id, method)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, res := range results {
			if res == nil {
				fmt.Printf("%s: insufficient data for %s projection\n", ids[i], method)
				continue
			}
			if projectJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				continue
			}
			printProjection(res)
		}
		return nil
	},
}

// projectOne computes the frontier for one benchmark and fits the method.
func projectOne(ctx context.Context, st store.Store, benchmarkID string, method projection.Method) (*projection.Result, error) {
	b, err := st.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, eris.Wrapf(err, "load benchmark %s", benchmarkID)
	}
	if b == nil {
		return nil, eris.Errorf("unknown benchmark %q", benchmarkID)
	}

	series, err := frontier.ForBenchmark(ctx, st, benchmarkID, store.ResultFilter{})
	if err != nil {
		return nil, err
	}

	obs := make([]projection.Observation, 0, len(series.Points))
	for _, p := range series.Points {
		obs = append(obs, projection.Observation{Date: p.Date, Score: p.Score})
	}

	opts := projection.Options{
		WindowMonths:   projectWindow,
		ForecastMonths: projectHorizon,
		Ceiling:        b.Ceiling(),
		Seed:           projectSeed,
	}
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = cfg.Projection.WindowMonths
	}
	if opts.ForecastMonths <= 0 {
		opts.ForecastMonths = cfg.Projection.ForecastMonths
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Projection.BootstrapSeed
	}

	return projection.Project(benchmarkID, method, obs, opts)
}

func printProjection(res *projection.Result) {
	fmt.Printf("%s [%s] R²=%.3f window %s .. %s\n",
		res.BenchmarkID, res.Method, res.RSquared,
		res.FitWindowStart.Format("2006-01-02"), res.FitWindowEnd.Format("2006-01-02"))
	if res.Notes != "" {
		fmt.Printf("  %s\n", res.Notes)
	}
	fmt.Printf("  %-12s %10s  %21s  %21s\n", "DATE", "FORECAST", "80% CI", "95% CI")
	for i, d := range res.ForecastDates {
		fmt.Printf("  %-12s %10.2f  [%8.2f, %8.2f]  [%8.2f, %8.2f]\n",
			d.Format("2006-01-02"), res.ForecastValues[i],
			res.CI80Low[i], res.CI80High[i],
			res.CI95Low[i], res.CI95High[i])
	}
	fmt.Println()
}

func init() {
	projectCmd.Flags().StringVar(&projectMethod, "method", "linear", "fitting method: linear, saturation, power_law")
	projectCmd.Flags().IntVar(&projectWindow, "window", 0, "fitting window in months (default from config)")
	projectCmd.Flags().IntVar(&projectHorizon, "horizon", 0, "forecast horizon in months (default from config)")
	projectCmd.Flags().Uint64Var(&projectSeed, "seed", 0, "bootstrap seed (0 = time-seeded)")
	projectCmd.Flags().BoolVar(&projectAll, "all", false, "project every benchmark in the store")
	projectCmd.Flags().BoolVar(&projectJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(projectCmd)
}
