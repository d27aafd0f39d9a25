package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// HeaderCache stores TEI headers keyed by the digest of the PDF bytes, so a
// renamed or moved file still hits the cache.
type HeaderCache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*HeaderCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &HeaderCache{db: db}, nil
}

// Close closes the database connection.
func (c *HeaderCache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS headers (
			digest TEXT PRIMARY KEY,
			file_path TEXT NOT NULL,
			tei TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached header for digest.
func (c *HeaderCache) Get(ctx context.Context, digest string) (string, bool, error) {
	var tei string
	err := c.db.QueryRowContext(ctx, `SELECT tei FROM headers WHERE digest = ?`, digest).Scan(&tei)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying header: %w", err)
	}
	return tei, true, nil
}

// Put stores a header, replacing any previous entry for digest.
func (c *HeaderCache) Put(ctx context.Context, digest, filePath, tei string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO headers (digest, file_path, tei, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			file_path = excluded.file_path,
			tei = excluded.tei,
			fetched_at = excluded.fetched_at`,
		digest, filePath, tei, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing header: %w", err)
	}
	return nil
}

// Count returns the number of cached headers.
func (c *HeaderCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM headers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting headers: %w", err)
	}
	return n, nil
}

// FileDigest returns the hex BLAKE2b-256 digest of the file at path.
func FileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HeaderSource returns the TEI header of a PDF.
type HeaderSource interface {
	ProcessHeader(ctx context.Context, pdfPath string) (string, error)
}

// CachedSource serves headers from the cache and falls through to Next on
// a miss. Cache failures are logged and otherwise ignored.
type CachedSource struct {
	Next   HeaderSource
	Cache  *HeaderCache
	Logger *zap.Logger
}

// NewCachedSource wraps next with cache.
func NewCachedSource(next HeaderSource, cache *HeaderCache, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{Next: next, Cache: cache, Logger: logger}
}

// ProcessHeader implements HeaderSource.
func (s *CachedSource) ProcessHeader(ctx context.Context, pdfPath string) (string, error) {
	digest, err := FileDigest(pdfPath)
	if err != nil {
		return s.Next.ProcessHeader(ctx, pdfPath)
	}

	tei, ok, err := s.Cache.Get(ctx, digest)
	switch {
	case err != nil:
		s.Logger.Warn("header cache read failed", zap.String("path", pdfPath), zap.Error(err))
	case ok:
		s.Logger.Debug("header cache hit", zap.String("path", pdfPath))
		return tei, nil
	}

	tei, err = s.Next.ProcessHeader(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	if err := s.Cache.Put(ctx, digest, pdfPath, tei); err != nil {
		s.Logger.Warn("header cache write failed", zap.String("path", pdfPath), zap.Error(err))
	}
	return tei, nil
}
