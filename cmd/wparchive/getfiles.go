package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	getWorkers   int
	getNoResume  bool
	getUseAria2  bool
	getAria2Path string
)

var getfilesCmd = &cobra.Command{
	Use:   "getfiles <domain>",
	Short: "Download the site's media library",
	Long: `Getfiles reads the media manifest produced by dump (data/wp_v2_media.jsonl)
and downloads every file into files/, mirroring the site's upload paths.

Progress is checkpointed: an interrupted or failed run picks up where it
left off, and files already on disk are never refetched.`,
	Example: `  # Download media with the default five workers
  wparchive getfiles example.com

  # More workers, starting over from scratch
  wparchive getfiles example.com --workers 10 --no-resume

  # Hand transfers to aria2c
  wparchive getfiles example.com --aria2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extra := make(map[string]interface{})
		if getWorkers > 0 {
			extra["workers"] = getWorkers
		}
		if getNoResume {
			extra["no-resume"] = true
		}
		if getUseAria2 {
			extra["aria2"] = true
		}
		if getAria2Path != "" {
			extra["aria2-path"] = getAria2Path
		}

		archiver, err := newArchiver(args[0], extra)
		if err != nil {
			return err
		}

		ctx, cancel := sessionContext()
		defer cancel()

		stats, err := archiver.CollectFiles(ctx)
		if stats != nil {
			fmt.Printf("%d files: %d downloaded, %d skipped, %d failed\n",
				stats.Total, stats.Downloaded, stats.Skipped, stats.Failed)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(getfilesCmd)

	getfilesCmd.Flags().IntVar(&getWorkers, "workers", 0, "number of concurrent downloads")
	getfilesCmd.Flags().BoolVar(&getNoResume, "no-resume", false, "ignore the checkpoint and consider only files on disk")
	getfilesCmd.Flags().BoolVar(&getUseAria2, "aria2", false, "delegate transfers to an external aria2c process")
	getfilesCmd.Flags().StringVar(&getAria2Path, "aria2-path", "", "path to the aria2c binary")
}
