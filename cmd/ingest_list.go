package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlas-research/bench-cli/internal/fetcher"
	"github.com/atlas-research/bench-cli/internal/ingest"
)

var ingestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered benchmarks and their sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := ingest.DefaultRegistry(
			fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
			fetcher.Snapshots{Dir: cfg.Data.SnapshotsDir},
		)

		fmt.Printf("%-24s %s\n", "BENCHMARK", "SOURCES (preference order)")
		for _, id := range reg.BenchmarkIDs() {
			fmt.Printf("%-24s %s\n", id, strings.Join(reg.Sources(id), ", "))
		}
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestListCmd)
}
