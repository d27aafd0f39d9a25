package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultInputFile is the roots file read when no --input is given.
const DefaultInputFile = "input.json"

// ErrInvalidRoots is returned when a roots file is neither a list of paths
// nor an object with a "paths" list.
var ErrInvalidRoots = errors.New(`roots file must be a list of paths or {"paths": [...]}`)

// ErrNoRoots is returned when neither the roots file nor the config name
// any directory.
var ErrNoRoots = errors.New("no root directories configured")

// LoadRoots reads root directories from a JSON (or YAML) file holding either
// a list of paths or an object with a "paths" list. Blank and non-string
// entries are dropped and ~ is expanded.
func LoadRoots(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	if jerr := json.Unmarshal(data, &doc); jerr != nil {
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, jerr)
		}
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		paths, ok := v["paths"].([]any)
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, ErrInvalidRoots)
		}
		list = paths
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidRoots)
	}

	roots := []string{}
	for _, item := range list {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		roots = append(roots, ExpandPath(strings.TrimSpace(s)))
	}
	return roots, nil
}

// ResolveRoots returns the roots to process: those of the input file when
// it exists, else those of the config. An empty result is ErrNoRoots.
func ResolveRoots(inputPath string, cfg *GlobalConfig) ([]string, error) {
	roots, err := LoadRoots(inputPath)
	if errors.Is(err, fs.ErrNotExist) && cfg != nil {
		roots, err = cfg.Roots, nil
	}
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	return roots, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
