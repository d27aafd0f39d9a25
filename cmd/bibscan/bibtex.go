package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/clipboard"
	"github.com/matsen/bibscan/internal/config"
	"github.com/matsen/bibscan/internal/export"
	"github.com/matsen/bibscan/internal/pipeline"
	"github.com/matsen/bibscan/internal/reference"
	"github.com/matsen/bibscan/internal/storage"
)

var (
	bibParsedName string
	bibOutputName string
	bibWriteBib   bool
	bibWriteXLSX  bool
	bibCopy       bool
)

func init() {
	bibtexCmd.Flags().StringVar(&bibParsedName, "parsed-name", storage.ParsedName, "Name of the parsed JSON file in each root directory")
	bibtexCmd.Flags().StringVar(&bibOutputName, "output-name", storage.CitationsName, "Output JSON name to write in each root directory")
	bibtexCmd.Flags().BoolVar(&bibWriteBib, "bib", false, "Also append new entries to a .bib file next to the output")
	bibtexCmd.Flags().BoolVar(&bibWriteXLSX, "xlsx", false, "Also write an .xlsx spreadsheet next to the output")
	bibtexCmd.Flags().BoolVar(&bibCopy, "copy", false, "Copy the BibTeX of all roots to the clipboard")
	rootCmd.AddCommand(bibtexCmd)
}

var bibtexCmd = &cobra.Command{
	Use:   "bibtex",
	Short: "Build BibTeX entries from parsed results",
	Long: `Build BibTeX entries from <root>/parsed_pdfs.json and write them to
<root>/bibtex_pdfs.json. Parsing is never re-run.

Examples:
  bibscan bibtex
  bibscan bibtex --bib --xlsx
  bibscan bibtex --copy
  bibscan bibtex --parsed-name parsed.json --output-name refs.json`,
	RunE: runBibTeX,
}

// citeOptions names the files read and written in each root.
type citeOptions struct {
	ParsedName string
	OutputName string
	Bib        bool
	XLSX       bool
}

func runBibTeX(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	roots := mustRoots(cfg)

	logger := newLogger()
	defer logger.Sync()

	opts := citeOptions{
		ParsedName: bibParsedName,
		OutputName: bibOutputName,
		Bib:        bibWriteBib,
		XLSX:       bibWriteXLSX,
	}

	resp := newRunResponse()
	var all []reference.Citation
	for _, root := range roots {
		res, cites := citeRoot(root, opts, time.Now(), logger)
		resp.add(res)
		all = append(all, cites...)
	}

	if bibCopy && len(all) > 0 {
		if err := clipboard.Copy(cmd.Context(), export.BibFile(all)); err != nil {
			logger.Warn("copying to clipboard", zap.Error(err))
		}
	}
	resp.print("entries")

	if resp.Written == 0 {
		logger.Sync()
		os.Exit(ExitNothingWritten)
	}
	return nil
}

// siblingPath replaces the extension of the output file.
func siblingPath(out, ext string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + ext
}

// citeRoot turns one root's parsed batch into citations. It returns the
// citations it wrote, if any.
func citeRoot(root string, opts citeOptions, now time.Time, logger *zap.Logger) (RootResult, []reference.Citation) {
	res := RootResult{Root: root}
	if !config.IsDir(root) {
		logger.Warn("not a directory", zap.String("root", root))
		res.Skipped = "not a directory"
		return res, nil
	}

	parsedPath := filepath.Join(root, opts.ParsedName)
	batch, err := storage.ReadBatch(parsedPath)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrMissingBatch):
			res.Skipped = "missing parsed file: " + parsedPath
		case errors.Is(err, storage.ErrMalformedBatch):
			res.Skipped = "bad format in " + parsedPath
		default:
			res.Skipped = err.Error()
		}
		logger.Warn("skipping root", zap.String("root", root), zap.Error(err))
		return res, nil
	}

	cites := export.MakeCitations(batch.PDFs)
	out := filepath.Join(root, opts.OutputName)
	cb := reference.CitationBatch{
		RootPath:         root,
		SourceParsedJSON: opts.ParsedName,
		GeneratedAt:      now.Format(pipeline.TimestampFormat),
		Count:            len(cites),
		Entries:          cites,
	}
	if err := storage.WriteJSON(out, cb); err != nil {
		logger.Error("writing citations", zap.String("path", out), zap.Error(err))
		res.Skipped = err.Error()
		return res, nil
	}
	res.Output = out
	res.Count = len(cites)

	if opts.Bib {
		bibPath := siblingPath(out, ".bib")
		if n, err := export.AppendBibFile(bibPath, cites); err != nil {
			logger.Warn("writing bib file", zap.String("path", bibPath), zap.Error(err))
		} else {
			logger.Debug("bib file updated", zap.String("path", bibPath), zap.Int("added", n))
		}
	}
	if opts.XLSX {
		xlsxPath := siblingPath(out, ".xlsx")
		data, err := export.CitationsXLSX(cites)
		if err == nil {
			err = storage.WriteFile(xlsxPath, data)
		}
		if err != nil {
			logger.Warn("writing spreadsheet", zap.String("path", xlsxPath), zap.Error(err))
		}
	}
	return res, cites
}
