// Package server serves the web front end and the batch results it reads.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/storage"
)

// Defaults for the local front-end server.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3000
	DefaultDir  = "dist"
)

// mimeTypes override the platform MIME table, which gets module scripts
// wrong on some systems.
var mimeTypes = map[string]string{
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".wasm": "application/wasm",
	".map":  "application/json",
}

// Options configures a Server.
type Options struct {
	Dir           string   // static files; unknown paths fall back to index.html
	Roots         []string // root directories whose results may be served
	ParsedName    string
	CitationsName string
}

// Server is the HTTP server for the front end.
type Server struct {
	router chi.Router
	opts   Options
	log    *zap.Logger
}

// New creates and configures the HTTP server.
func New(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.ParsedName == "" {
		opts.ParsedName = storage.ParsedName
	}
	if opts.CitationsName == "" {
		opts.CitationsName = storage.CitationsName
	}
	s := &Server{opts: opts, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/roots", s.handleRoots)
	r.Get("/api/batch", s.handleBatch)
	r.Get("/api/bibtex", s.handleCitations)

	r.NotFound(s.handleStatic)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	roots := s.opts.Roots
	if roots == nil {
		roots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roots": roots})
}

// rootParam returns the requested root, which must be one of the
// configured roots so that arbitrary files cannot be read.
func (s *Server) rootParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	root := r.URL.Query().Get("root")
	if root == "" {
		jsonError(w, "root query parameter is required", http.StatusBadRequest)
		return "", false
	}
	if !slices.Contains(s.opts.Roots, root) {
		jsonError(w, "unknown root: "+root, http.StatusNotFound)
		return "", false
	}
	return root, true
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootParam(w, r)
	if !ok {
		return
	}

	batch, err := storage.ReadBatch(filepath.Join(root, s.opts.ParsedName))
	switch {
	case errors.Is(err, storage.ErrMissingBatch):
		jsonError(w, "no parsed results for "+root, http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrMalformedBatch):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		jsonError(w, "failed to read batch: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleCitations(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootParam(w, r)
	if !ok {
		return
	}

	data, err := os.ReadFile(filepath.Join(root, s.opts.CitationsName))
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, "no citations for "+root, http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read citations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleStatic serves files from the static directory. Paths that do not
// name an existing file get index.html so client-side routes survive a
// reload.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := path.Clean("/" + r.URL.Path)
	local := filepath.Join(s.opts.Dir, filepath.FromSlash(rel))

	info, err := os.Stat(local)
	if err == nil && info.IsDir() {
		local = filepath.Join(local, "index.html")
		info, err = os.Stat(local)
	}
	if err != nil || info.IsDir() {
		local = filepath.Join(s.opts.Dir, "index.html")
	}

	f, err := os.Open(local)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err = f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if ct, ok := mimeTypes[filepath.Ext(local)]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, filepath.Base(local), info.ModTime(), f)
}

// ListenAndServe serves on host:port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", zap.String("addr", "http://"+srv.Addr), zap.String("dir", s.opts.Dir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
