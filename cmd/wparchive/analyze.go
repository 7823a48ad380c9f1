package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"wparchive/pkg/wordpress"
)

var analyzeProbe bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <domain>",
	Short: "Show how the site's routes map onto the reference table",
	Long: `Analyze resolves every discovered route through the known-routes table and
reports the per-category counts plus the routes the table does not know.

With --probe, unknown routes are classified live by requesting each one and
inspecting the response. The result is printed in the table's own format,
ready to paste into a custom known-routes file.`,
	Example: `  # Table coverage for a site
  wparchive analyze example.com

  # Classify the routes the table does not know
  wparchive analyze example.com --probe`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver(args[0], nil)
		if err != nil {
			return err
		}

		ctx, cancel := sessionContext()
		defer cancel()

		analysis, err := archiver.Analyze(ctx, analyzeProbe)
		if err != nil {
			return err
		}

		fmt.Printf("%d routes discovered\n", analysis.Total)

		categories := make([]string, 0, len(analysis.Counts))
		for cat := range analysis.Counts {
			categories = append(categories, string(cat))
		}
		sort.Strings(categories)
		for _, cat := range categories {
			fmt.Printf("  %-12s %d\n", cat, analysis.Counts[wordpress.Category(cat)])
		}

		if len(analysis.Unknown) > 0 && !analyzeProbe {
			fmt.Println("\nroutes missing from the table (rerun with --probe to classify):")
			for _, route := range analysis.Unknown {
				fmt.Printf("  %s\n", route)
			}
		}

		if analysis.Rendered != "" {
			fmt.Println("\nsuggested table entries:")
			fmt.Println(analysis.Rendered)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeProbe, "probe", false, "live-classify routes missing from the table")
}
