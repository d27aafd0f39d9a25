// Package config loads the user configuration and the list of root
// directories to process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/bibscan/internal/grobid"
)

// GlobalConfig represents configuration stored in ~/.config/bibscan/config.yml.
type GlobalConfig struct {
	GrobidURL      string   `yaml:"grobid_url,omitempty"`
	CachePath      string   `yaml:"cache_path,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
	Roots          []string `yaml:"roots,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibscan"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvGrobidURL = "GROBID_URL"
	EnvCachePath = "BIBSCAN_CACHE"
	EnvWorkers   = "BIBSCAN_WORKERS"
)

// DefaultWorkers is the number of documents parsed concurrently.
const DefaultWorkers = 1

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibscan/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	cfg, err := LoadConfigFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &GlobalConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	globalConfigCache = cfg
	return cfg, nil
}

// LoadConfigFile reads a config file from an explicit path.
func LoadConfigFile(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.CachePath != "" {
		cfg.CachePath = ExpandPath(cfg.CachePath)
	}
	for i, r := range cfg.Roots {
		cfg.Roots[i] = ExpandPath(strings.TrimSpace(r))
	}
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// Settings are the effective runtime settings after applying defaults, the
// config file, and the environment, in increasing priority. Command-line
// flags are applied on top by the caller.
type Settings struct {
	GrobidURL string
	CachePath string
	Workers   int
	Timeout   time.Duration
}

// Resolve computes the effective settings for cfg.
func Resolve(cfg *GlobalConfig) Settings {
	s := Settings{
		GrobidURL: grobid.DefaultBaseURL,
		Workers:   DefaultWorkers,
		Timeout:   grobid.DefaultTimeout,
	}

	if cfg != nil {
		if cfg.GrobidURL != "" {
			s.GrobidURL = cfg.GrobidURL
		}
		s.CachePath = cfg.CachePath
		if cfg.Workers > 0 {
			s.Workers = cfg.Workers
		}
		if cfg.TimeoutSeconds > 0 {
			s.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
	}

	if v := os.Getenv(EnvGrobidURL); v != "" {
		s.GrobidURL = v
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		s.CachePath = ExpandPath(v)
	}
	if v, err := strconv.Atoi(os.Getenv(EnvWorkers)); err == nil && v > 0 {
		s.Workers = v
	}
	return s
}

// HelpfulConfigMessage returns a hint shown when no roots are configured.
func HelpfulConfigMessage(inputPath string) string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No root directories found.

Tip: list them in %s:
  ["~/papers", "/data/reports"]

or set a default in %s:
  roots:
    - ~/papers`,
		inputPath,
		configPath)
}
