package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atlas-research/bench-cli/internal/model"
)

var qualityJSON bool

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Summarize data quality across the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := st.QualitySummary(ctx)
		if err != nil {
			return eris.Wrap(err, "quality summary")
		}

		if qualityJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}

		fmt.Printf("results: %d  models: %d  benchmarks: %d  missing scores: %d\n",
			sum.TotalResults, sum.TotalModels, sum.TotalBenchmarks, sum.MissingScores)

		fmt.Printf("trust tiers: A=%d B=%d C=%d\n",
			sum.TierDistribution[model.TierA],
			sum.TierDistribution[model.TierB],
			sum.TierDistribution[model.TierC])

		fmt.Printf("\n%-24s %8s %8s %8s\n", "BENCHMARK", "MODELS", "RESULTS", "SCORED")
		for _, c := range sum.Coverage {
			fmt.Printf("%-24s %8d %8d %8d\n", c.BenchmarkID, c.ModelCount, c.ResultCount, c.ValidScores)
		}
		return nil
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(qualityCmd)
}
