package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlas-research/bench-cli/internal/changelog"
	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/ingest"
	"github.com/atlas-research/bench-cli/internal/store"
)

var (
	ingestBenchmark string
	ingestSource    string
	ingestDryRun    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and persist benchmark results from registered sources",
	Long: `Runs the registered ingestors: fetch, parse, validate, persist.

By default all benchmarks are ingested, trying each benchmark's sources in
preference order and stopping at the first success. Use --benchmark and
--source to narrow the run, --dry-run to parse and validate without writing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RawDir:     cfg.Data.RawDir,
		})
		snaps := fetcher.Snapshots{Dir: cfg.Data.SnapshotsDir}
		clog := changelog.NewWriter(cfg.Data.ChangelogFile)

		engine := ingest.NewEngine(st, clog, ingest.DefaultRegistry(f, snaps))

		sums, err := engine.Run(ctx, ingest.RunOpts{
			Benchmark: ingestBenchmark,
			Source:    ingestSource,
			DryRun:    ingestDryRun,
		})
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		for _, s := range sums {
			status := "ok"
			if !s.Success {
				status = "FAILED"
			}
			fmt.Printf("%-24s %-20s %-6s parsed=%d validated=%d inserted=%d warnings=%d errors=%d\n",
				s.BenchmarkID, s.Source, status,
				s.Parsed, s.Validated, s.Inserted, len(s.Warnings), len(s.Errors))
			for _, e := range s.Errors {
				fmt.Printf("  error: %s\n", e)
			}
		}

		if !ingestDryRun {
			if err := applyOverrides(ctx, st, clog); err != nil {
				return err
			}
		}

		if ingest.AnyFailed(sums) {
			return eris.New("one or more ingest runs failed")
		}
		return nil
	},
}

// applyOverrides layers manual corrections from the overrides file onto
// stored results. A missing file is not an error.
func applyOverrides(ctx context.Context, st store.Store, clog *changelog.Writer) error {
	path := cfg.Data.OverridesFile
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "stat overrides file %s", path)
	}

	applier := ingest.NewOverrideApplier(st, clog)
	n, err := applier.Apply(ctx, path)
	if err != nil {
		return eris.Wrap(err, "apply overrides")
	}
	if n > 0 {
		zap.L().Info("applied overrides", zap.Int("count", n), zap.String("file", path))
		fmt.Printf("applied %d override(s) from %s\n", n, path)
	}
	return nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBenchmark, "benchmark", "", "restrict to one benchmark ID")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "restrict to one source name")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "parse and validate without persisting")
	rootCmd.AddCommand(ingestCmd)
}
