package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wparchive/pkg/archive"
)

var (
	dumpAll        bool
	dumpPageSize   int
	dumpRetryCount int
)

var dumpCmd = &cobra.Command{
	Use:   "dump <domain>",
	Short: "Dump every publicly readable REST route to disk",
	Long: `Dump walks the site's discovery document and saves each route the
reference table marks as publicly readable: paginated collections become
JSONL files with one record per line, single documents are saved verbatim.
Routes the table does not know are dumped too unless --all=false.

The raw discovery document is always saved as data/wp-json.json.`,
	Example: `  # Full dump with defaults
  wparchive dump example.com

  # Smaller pages for a server that times out on big responses
  wparchive dump example.com --page-size 20

  # Only routes the reference table knows
  wparchive dump example.com --all=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extra := make(map[string]interface{})
		if dumpPageSize > 0 {
			extra["page-size"] = dumpPageSize
		}
		if dumpRetryCount > 0 {
			extra["retry-count"] = dumpRetryCount
		}
		if cmd.Flags().Changed("all") {
			extra["include-unknown"] = dumpAll
		}

		archiver, err := newArchiver(args[0], extra)
		if err != nil {
			return err
		}

		ctx, cancel := sessionContext()
		defer cancel()

		stats, err := archiver.Dump(ctx)
		if stats != nil {
			fmt.Printf("%d routes: %d dumped, %d skipped in %s\n",
				stats.Total, stats.Processed, stats.Skipped, archive.FormatDuration(stats.Elapsed))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().BoolVar(&dumpAll, "all", true, "also dump routes missing from the reference table")
	dumpCmd.Flags().IntVar(&dumpPageSize, "page-size", 0, "records per page request")
	dumpCmd.Flags().IntVar(&dumpRetryCount, "retry-count", 0, "attempts per page before giving up on a route")
}
