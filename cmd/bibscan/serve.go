package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/config"
	"github.com/matsen/bibscan/internal/server"
	"github.com/matsen/bibscan/internal/storage"
)

var (
	serveDir  string
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveDir, "dir", server.DefaultDir, "Directory holding the built front end")
	serveCmd.Flags().StringVar(&serveHost, "host", server.DefaultHost, "Address to bind")
	serveCmd.Flags().IntVar(&servePort, "port", server.DefaultPort, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the front end and the results of the configured roots",
	Long: `Serve the built front end from --dir on http://127.0.0.1:3000.

Unknown paths fall back to index.html so client-side routes work on reload.
The results of every configured root are available under /api.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	cfg := loadConfig()
	roots, err := config.ResolveRoots(inputPath, cfg)
	if err != nil {
		logger.Warn("no roots to serve", zap.Error(err))
		roots = nil
	}

	if !config.IsDir(serveDir) {
		exitWithError(ExitConfigError, "not a directory: %s", serveDir)
	}

	srv := server.New(server.Options{
		Dir:           serveDir,
		Roots:         roots,
		ParsedName:    storage.ParsedName,
		CitationsName: storage.CitationsName,
	}, logger)

	if humanOutput {
		outputHuman("Serving %s on http://%s:%d\n", serveDir, serveHost, servePort)
	}
	if err := srv.ListenAndServe(ctx, serveHost, servePort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitWithError(ExitError, "serving: %v", err)
	}
	return nil
}
