package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"wparchive/pkg/archive"
	"wparchive/pkg/config"
	"wparchive/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	verbose     bool
	plainHTTP   bool
	noVerifySSL bool
	timeoutSecs int
	outputDir   string
	knownRoutes string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wparchive",
	Short: "Archive the public content of a WordPress site through its REST API",
	Long: `wparchive walks a WordPress site's REST API discovery document and saves
every publicly readable route to disk: paginated collections as JSONL,
single documents as raw JSON, and the media library as the original files.

A typical session:
  1. wparchive ping example.com      confirm the API is reachable
  2. wparchive dump example.com      dump all route data into ./example.com/data/
  3. wparchive getfiles example.com  download media into ./example.com/files/

Interrupted media downloads resume from a checkpoint on the next run.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .wparchive.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")
	rootCmd.PersistentFlags().BoolVar(&plainHTTP, "http", false, "talk to the site over http instead of https")
	rootCmd.PersistentFlags().BoolVar(&noVerifySSL, "no-verify-ssl", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "request timeout in seconds")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory under which the archive is created (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&knownRoutes, "known-routes", "", "path to a custom known-routes table")

	rootCmd.SetVersionTemplate(`wparchive {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flag values that map onto config keys.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})

	if plainHTTP {
		flags["http"] = true
	}
	if noVerifySSL {
		flags["no-verify-ssl"] = true
	}
	if timeoutSecs > 0 {
		flags["timeout"] = timeoutSecs
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if knownRoutes != "" {
		flags["known-routes"] = knownRoutes
	}
	if verbose {
		flags["log-level"] = "debug"
	} else if logLevel != "" {
		flags["log-level"] = logLevel
	}

	return flags
}

// setup loads configuration with command flags applied and initializes the
// global logger from it.
func setup(extra map[string]interface{}) (*config.Config, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}

	return cfg, nil
}

// sessionContext returns a context cancelled by SIGINT or SIGTERM, so an
// interrupted run still saves its checkpoint on the way out.
func sessionContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newArchiver builds an archiver for the domain argument with loaded config.
func newArchiver(domain string, extra map[string]interface{}) (*archive.Archiver, error) {
	cfg, err := setup(extra)
	if err != nil {
		return nil, err
	}

	return archive.New(domain, cfg, logger.GetLogger())
}
