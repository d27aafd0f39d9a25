// Package main provides the bibscan CLI entry point.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	humanOutput bool
	inputPath   string
	configPath  string
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibscan",
	Short: "Extract bibliographic metadata from folders of PDFs",
	Long: `bibscan walks folders of PDFs, extracts title, authors and year for each
file, and turns the results into BibTeX.

Structured headers come from a GROBID service; the raw first-page text is
used to check and fill in what GROBID misses. Results are written as JSON
next to the PDFs. All commands output JSON by default; use --human for
readable output.

Environment Variables:
  GROBID_URL       GROBID base URL (default http://localhost:8070)
  BIBSCAN_CACHE    Path of the SQLite header cache
  BIBSCAN_WORKERS  Number of PDFs parsed concurrently`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for GROBID_URL and friends)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", config.DefaultInputFile, "JSON file listing the root directories")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/bibscan/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress for every document")
	rootCmd.Version = Version
}

// loadConfig reads --config when given, else the global config.
func loadConfig() *config.GlobalConfig {
	var (
		cfg *config.GlobalConfig
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfigFile(configPath)
	} else {
		cfg, err = config.LoadGlobalConfig()
	}
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustRoots resolves the root directories or exits with ExitConfigError.
func mustRoots(cfg *config.GlobalConfig) []string {
	roots, err := config.ResolveRoots(inputPath, cfg)
	if errors.Is(err, config.ErrNoRoots) {
		if humanOutput {
			exitWithError(ExitConfigError, "%s", config.HelpfulConfigMessage(inputPath))
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	if err != nil {
		exitWithError(ExitConfigError, "failed to read %s: %v", inputPath, err)
	}
	return roots
}

// newLogger logs JSON to stderr; --verbose switches to readable debug logs.
func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
