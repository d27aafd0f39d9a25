package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/config"
	"github.com/matsen/bibscan/internal/grobid"
	"github.com/matsen/bibscan/internal/pipeline"
	"github.com/matsen/bibscan/internal/storage"
)

var (
	parseGrobidURL string
	parseWorkers   int
	parseCache     string
	parseTimeout   time.Duration
	parseOutName   string
)

func init() {
	parseCmd.Flags().StringVar(&parseGrobidURL, "grobid", "", "GROBID base URL (overrides GROBID_URL and config)")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "PDFs parsed concurrently (overrides config)")
	parseCmd.Flags().StringVar(&parseCache, "cache", "", "SQLite header cache path (overrides BIBSCAN_CACHE and config)")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 0, "Per-request GROBID timeout (default 2m)")
	parseCmd.Flags().StringVar(&parseOutName, "output-name", storage.ParsedName, "Name of the JSON file written into each root")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract metadata from every PDF under the configured roots",
	Long: `Extract title, authors and year from every PDF under each root directory
and write the results to <root>/parsed_pdfs.json.

A document that cannot be processed is recorded with an error and does not
stop the run.

Examples:
  bibscan parse
  bibscan parse --input roots.json --workers 4
  bibscan parse --grobid http://grobid:8070 --cache ~/.cache/bibscan.db`,
	RunE: runParse,
}

// parseSettings layers the command-line flags over the resolved config.
func parseSettings(cmd *cobra.Command, s config.Settings) config.Settings {
	flags := cmd.Flags()
	if flags.Changed("grobid") {
		s.GrobidURL = parseGrobidURL
	}
	if flags.Changed("workers") && parseWorkers > 0 {
		s.Workers = parseWorkers
	}
	if flags.Changed("cache") {
		s.CachePath = config.ExpandPath(parseCache)
	}
	if flags.Changed("timeout") && parseTimeout > 0 {
		s.Timeout = parseTimeout
	}
	return s
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := loadConfig()
	settings := parseSettings(cmd, config.Resolve(cfg))
	roots := mustRoots(cfg)

	logger := newLogger()
	defer logger.Sync()

	client := grobid.NewClient(
		grobid.WithBaseURL(settings.GrobidURL),
		grobid.WithTimeout(settings.Timeout),
	)
	if err := client.Ping(ctx); err != nil {
		exitWithError(ExitServiceUnavailable, "GROBID is not reachable at %s: %v", client.BaseURL(), err)
	}

	var headers pipeline.HeaderSource = client
	if settings.CachePath != "" {
		cache, err := storage.OpenCache(settings.CachePath)
		if err != nil {
			exitWithError(ExitError, "opening header cache: %v", err)
		}
		defer cache.Close()
		headers = storage.NewCachedSource(client, cache, logger)
	}

	parser := pipeline.NewParser(headers, logger)
	parser.Workers = settings.Workers

	resp := newRunResponse()
	for _, root := range roots {
		resp.add(parseRoot(ctx, parser, root, parseOutName, logger))
	}
	resp.print("pdfs")
	return nil
}

// parseRoot processes one root directory and writes its batch file.
func parseRoot(ctx context.Context, p *pipeline.Parser, root, outName string, logger *zap.Logger) RootResult {
	res := RootResult{Root: root}
	if !config.IsDir(root) {
		logger.Warn("not a directory", zap.String("root", root))
		res.Skipped = "not a directory"
		return res
	}

	batch, err := p.ProcessRoot(ctx, root)
	if err != nil {
		logger.Warn("root failed", zap.String("root", root), zap.Error(err))
		res.Skipped = err.Error()
		return res
	}

	out := filepath.Join(root, outName)
	if err := storage.WriteJSON(out, batch); err != nil {
		logger.Error("writing batch", zap.String("path", out), zap.Error(err))
		res.Skipped = err.Error()
		return res
	}

	res.Output = out
	res.Count = batch.PDFCount
	for _, d := range batch.PDFs {
		if d.Error != "" {
			res.Failed++
		}
	}
	return res
}
