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

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents pathtrie configuration options
type Config struct {
	// Roots are the directories crawled by the indexer
	Roots []string `yaml:"roots"`

	// Ignore lists path prefixes that are recorded but never descended into
	Ignore []string `yaml:"ignore"`

	// Workers is the number of parallel crawl workers
	Workers int `yaml:"workers"`

	// BatchSize is the number of buffered entries that triggers a merge
	BatchSize int `yaml:"batch_size"`

	// MaxDirs caps the number of directories descended into (0 = unlimited)
	MaxDirs int64 `yaml:"max_dirs"`

	// IndexDir holds the by-name and by-extension documents
	IndexDir string `yaml:"index_dir"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// HistoryDB is the path to the run history database
	HistoryDB string `yaml:"history_db"`

	// Timeout bounds a crawl (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// Fresh discards the existing index before crawling
	Fresh bool `yaml:"fresh"`

	// SearchCacheSize is the number of decoded documents the search engine keeps
	SearchCacheSize int `yaml:"search_cache_size"`
}

// Environment variables read by ApplyEnv.
const (
	EnvRoots     = "PATHTRIE_ROOTS"
	EnvIgnore    = "PATHTRIE_IGNORE"
	EnvWorkers   = "PATHTRIE_WORKERS"
	EnvBatchSize = "PATHTRIE_BATCH_SIZE"
	EnvMaxDirs   = "PATHTRIE_MAX_DIRS"
	EnvIndexDir  = "PATHTRIE_INDEX_DIR"
	EnvLogLevel  = "PATHTRIE_LOG_LEVEL"
)

// DefaultConfig returns a Config with sensible default values.
// Relative paths are resolved against the home directory by ResolvePaths.
func DefaultConfig() *Config {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = []string{home}
	}
	return &Config{
		Roots:           roots,
		Ignore:          []string{},
		Workers:         4,
		BatchSize:       100000,
		MaxDirs:         50000000,
		IndexDir:        "index",
		LogLevel:        "info",
		LogDir:          "logs",
		HistoryDB:       "history.db",
		Timeout:         0,
		Fresh:           false,
		SearchCacheSize: 8,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Timeout is parsed separately so "90s" style strings are accepted
	type yamlConfig struct {
		Roots           []string `yaml:"roots"`
		Ignore          []string `yaml:"ignore"`
		Workers         int      `yaml:"workers"`
		BatchSize       int      `yaml:"batch_size"`
		MaxDirs         int64    `yaml:"max_dirs"`
		IndexDir        string   `yaml:"index_dir"`
		LogLevel        string   `yaml:"log_level"`
		LogDir          string   `yaml:"log_dir"`
		HistoryDB       string   `yaml:"history_db"`
		Timeout         string   `yaml:"timeout"`
		Fresh           bool     `yaml:"fresh"`
		SearchCacheSize int      `yaml:"search_cache_size"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Keys whose zero value is meaningful are applied only when present
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	present := func(key string) bool {
		_, ok := rawMap[key]
		return ok
	}

	if present("roots") {
		cfg.Roots = yamlCfg.Roots
	}
	if present("ignore") {
		cfg.Ignore = yamlCfg.Ignore
	}
	if present("workers") {
		cfg.Workers = yamlCfg.Workers
	}
	if present("batch_size") {
		cfg.BatchSize = yamlCfg.BatchSize
	}
	if present("max_dirs") {
		cfg.MaxDirs = yamlCfg.MaxDirs
	}
	if yamlCfg.IndexDir != "" {
		cfg.IndexDir = yamlCfg.IndexDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.HistoryDB != "" {
		cfg.HistoryDB = yamlCfg.HistoryDB
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if present("fresh") {
		cfg.Fresh = yamlCfg.Fresh
	}
	if present("search_cache_size") {
		cfg.SearchCacheSize = yamlCfg.SearchCacheSize
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, "config.yaml"))
}

// ApplyEnv overrides configuration from PATHTRIE_* environment variables.
// If envFile is non-empty it is loaded first with godotenv; variables already
// set in the process environment win over the file. A missing envFile is not
// an error.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvRoots); ok {
		c.Roots = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvIgnore); ok {
		c.Ignore = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v, ok := os.LookupEnv(EnvBatchSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvBatchSize, v, err)
		}
		c.BatchSize = n
	}
	if v, ok := os.LookupEnv(EnvMaxDirs); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxDirs, v, err)
		}
		c.MaxDirs = n
	}
	if v, ok := os.LookupEnv(EnvIndexDir); ok && v != "" {
		c.IndexDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// splitList splits an os.PathListSeparator-separated list, dropping empty items.
func splitList(v string) []string {
	out := []string{}
	for _, item := range filepath.SplitList(v) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Overrides carries CLI flag values. Nil fields leave the configuration unchanged.
type Overrides struct {
	Roots     *[]string
	Ignore    *[]string
	Workers   *int
	BatchSize *int
	MaxDirs   *int64
	IndexDir  *string
	LogLevel  *string
	LogDir    *string
	Timeout   *time.Duration
	Fresh     *bool
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file and environment settings
func (c *Config) MergeWithFlags(o Overrides) {
	if o.Roots != nil {
		c.Roots = *o.Roots
	}
	if o.Ignore != nil {
		c.Ignore = *o.Ignore
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	if o.BatchSize != nil {
		c.BatchSize = *o.BatchSize
	}
	if o.MaxDirs != nil {
		c.MaxDirs = *o.MaxDirs
	}
	if o.IndexDir != nil {
		c.IndexDir = *o.IndexDir
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.Fresh != nil {
		c.Fresh = *o.Fresh
	}
}

// ResolvePaths makes relative index, log and history paths absolute under home,
// and relative roots and ignore prefixes absolute against the working directory.
func (c *Config) ResolvePaths(home string) error {
	for _, p := range []*string{&c.IndexDir, &c.LogDir, &c.HistoryDB} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(home, *p)
		}
	}
	for _, list := range []*[]string{&c.Roots, &c.Ignore} {
		for i, p := range *list {
			abs, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", p, err)
			}
			(*list)[i] = abs
		}
	}
	return nil
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.MaxDirs < 0 {
		return fmt.Errorf("max_dirs must be >= 0, got %d", c.MaxDirs)
	}
	if c.SearchCacheSize < 0 {
		return fmt.Errorf("search_cache_size must be >= 0, got %d", c.SearchCacheSize)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if c.IndexDir == "" {
		return fmt.Errorf("index_dir cannot be empty")
	}
	for _, r := range c.Roots {
		if !filepath.IsAbs(r) {
			return fmt.Errorf("root %q must be an absolute path", r)
		}
	}
	for _, p := range c.Ignore {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("ignore prefix %q must be an absolute path", p)
		}
	}

	return nil
}
