package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atlas-research/bench-cli/internal/frontier"
	"github.com/atlas-research/bench-cli/internal/model"
	"github.com/atlas-research/bench-cli/internal/store"
)

var (
	frontierOfficial  bool
	frontierProviders []string
	frontierTiers     []string
	frontierMinDate   string
	frontierMaxDate   string
	frontierJSON      bool
)

var frontierCmd = &cobra.Command{
	Use:   "frontier <benchmark-id>",
	Short: "Show the best-so-far result series for a benchmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := buildResultFilter(frontierOfficial, frontierProviders, frontierTiers, frontierMinDate, frontierMaxDate)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		series, err := frontier.ForBenchmark(ctx, st, args[0], filter)
		if err != nil {
			return eris.Wrap(err, "frontier")
		}

		if frontierJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(series)
		}

		direction := "higher is better"
		if !series.HigherIsBetter {
			direction = "lower is better"
		}
		fmt.Printf("%s (%s): %d frontier points from %d results (%d unusable)\n\n",
			series.BenchmarkID, direction, len(series.Points), series.TotalResults, series.Unusable)
		fmt.Printf("%-12s %10s  %-4s %-32s %s\n", "DATE", "SCORE", "TIER", "MODEL", "PROVIDER")
		for _, p := range series.Points {
			fmt.Printf("%-12s %10.2f  %-4s %-32s %s\n",
				p.Date.Format("2006-01-02"), p.Score, string(p.TrustTier), p.ModelName, p.Provider)
		}
		return nil
	},
}

// buildResultFilter converts the shared filter flags into a store filter.
func buildResultFilter(official bool, providers, tiers []string, minDate, maxDate string) (store.ResultFilter, error) {
	var f store.ResultFilter
	f.OfficialOnly = official
	f.Providers = providers

	for _, t := range tiers {
		tier := model.TrustTier(strings.ToUpper(strings.TrimSpace(t)))
		switch tier {
		case model.TierA, model.TierB, model.TierC:
			f.TrustTiers = append(f.TrustTiers, tier)
		default:
			return f, eris.Errorf("invalid trust tier %q (want A, B, or C)", t)
		}
	}

	if minDate != "" {
		t, err := time.Parse("2006-01-02", minDate)
		if err != nil {
			return f, eris.Errorf("invalid --min-date %q (want YYYY-MM-DD)", minDate)
		}
		f.MinDate = &t
	}
	if maxDate != "" {
		t, err := time.Parse("2006-01-02", maxDate)
		if err != nil {
			return f, eris.Errorf("invalid --max-date %q (want YYYY-MM-DD)", maxDate)
		}
		f.MaxDate = &t
	}
	return f, nil
}

func init() {
	frontierCmd.Flags().BoolVar(&frontierOfficial, "official", false, "tier A results only")
	frontierCmd.Flags().StringSliceVar(&frontierProviders, "provider", nil, "restrict to providers")
	frontierCmd.Flags().StringSliceVar(&frontierTiers, "tier", nil, "restrict to trust tiers (A, B, C)")
	frontierCmd.Flags().StringVar(&frontierMinDate, "min-date", "", "earliest effective date (YYYY-MM-DD)")
	frontierCmd.Flags().StringVar(&frontierMaxDate, "max-date", "", "latest effective date (YYYY-MM-DD)")
	frontierCmd.Flags().BoolVar(&frontierJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(frontierCmd)
}
