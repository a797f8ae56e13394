package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.1.0-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logPretty bool
	baseURL   string
	redisAddr string
	pageSize  int
)

var rootCmd = &cobra.Command{
	Use:   "dexbrowse",
	Short: "Browse a paginated record catalog",
	Long: `Browse the records of a paginated, read-only catalog API.

Records are loaded one page at a time as the viewport reaches the bottom,
resolved in parallel, and kept in listing order without duplicates. Any
two records can be compared side by side while comparison mode is on.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (default ./dexbrowse.yaml if present)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false,
		"Human-readable console logs instead of JSON")

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "",
		"Override API base URL")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "",
		"Redis address for the response cache (empty disables caching)")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0,
		"Override number of records per page")
}
