package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping <domain>",
	Short: "Check that a site exposes a reachable WordPress REST API",
	Example: `  # Check a site over https
  wparchive ping example.com

  # Check a development site over plain http
  wparchive ping --http localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver(args[0], nil)
		if err != nil {
			return err
		}

		ctx, cancel := sessionContext()
		defer cancel()

		result, err := archiver.Ping(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s is reachable\n", result.URL)
		fmt.Printf("%d routes discovered\n", result.Routes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
