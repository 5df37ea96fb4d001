package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/jscontext-mcp/internal/embedder"
)

const (
	// DefaultConfigPath is where Load looks when no file is given.
	DefaultConfigPath = "~/.jscontext/config.yaml"

	// DefaultDBPath is the default directory for index databases. It
	// matches the MCP server's default so the CLI and the server share
	// one database unless configured otherwise.
	DefaultDBPath = "~/.jscontext/indices"

	// DatabaseFileName is the SQLite file created under DBPath.
	DatabaseFileName = "jscontext.db"
)

// Environment variables recognized by Load. They are applied after the
// config file, so they win over both defaults and file values. The embedding
// provider is read from embedder.EnvProvider (JSCONTEXT_EMBEDDING_PROVIDER)
// so the config layer and the provider factory never disagree on the name.
const (
	EnvDBPath         = "JSCONTEXT_DB_PATH"
	EnvEmbeddingModel = "JSCONTEXT_EMBEDDING_MODEL"
	EnvIndexWorkers   = "JSCONTEXT_INDEX_WORKERS"
	EnvSearchLimit    = "JSCONTEXT_SEARCH_LIMIT"
	EnvSearchMode     = "JSCONTEXT_SEARCH_MODE"
)

// Config is the full jscontext configuration.
type Config struct {
	DBPath   string         `yaml:"db_path"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
}

// EmbedderConfig selects the embedding provider. An empty Provider defers to
// environment auto-detection (API keys first, local fallback). An empty
// Model uses the provider's default.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// IndexerConfig tunes the indexing pipeline.
type IndexerConfig struct {
	Workers        int      `yaml:"workers"`
	BatchSize      int      `yaml:"batch_size"`
	IncludeTests   bool     `yaml:"include_tests"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
}

// SearchConfig sets the search defaults used when a request leaves them
// unset.
type SearchConfig struct {
	Limit int    `yaml:"limit"`
	Mode  string `yaml:"mode"`
}

// Default returns the compiled-in configuration. It is valid on its own, so
// jscontext runs with no config file at all.
func Default() *Config {
	return &Config{
		DBPath: DefaultDBPath,
		Embedder: EmbedderConfig{
			Provider:  "", // auto-detect from environment
			BatchSize: 20,
		},
		Indexer: IndexerConfig{
			Workers:      defaultWorkers(),
			BatchSize:    20,
			IncludeTests: true,
		},
		Search: SearchConfig{
			Limit: 10,
			Mode:  "hybrid",
		},
	}
}

// defaultWorkers matches the worker count the indexer picks when its config
// leaves Workers unset.
func defaultWorkers() int {
	return runtime.NumCPU()
}

// Load builds the effective configuration in three layers: compiled defaults,
// then the YAML file at path (DefaultConfigPath when path is empty), then
// environment variables. A missing file is not an error; a malformed file or
// an invalid final value is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", resolved, err)
		}
	case os.IsNotExist(err):
		// No file, run on defaults
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", resolved, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays recognized environment variables onto the config.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(embedder.EnvProvider); v != "" {
		c.Embedder.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedder.Model = v
	}
	if v := os.Getenv(EnvIndexWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvIndexWorkers, v, err)
		}
		c.Indexer.Workers = n
	}
	if v := os.Getenv(EnvSearchLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSearchLimit, v, err)
		}
		c.Search.Limit = n
	}
	if v := os.Getenv(EnvSearchMode); v != "" {
		c.Search.Mode = strings.ToLower(v)
	}
	return nil
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}

	switch c.Embedder.Provider {
	case "", embedder.ProviderJina, embedder.ProviderOpenAI, embedder.ProviderLocal:
	default:
		return fmt.Errorf("unknown embedding provider %q (want jina, openai, or local)", c.Embedder.Provider)
	}
	if c.Embedder.BatchSize < 1 {
		return fmt.Errorf("embedder batch size must be at least 1, got %d", c.Embedder.BatchSize)
	}

	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer workers must be at least 1, got %d", c.Indexer.Workers)
	}
	if c.Indexer.BatchSize < 1 {
		return fmt.Errorf("indexer batch size must be at least 1, got %d", c.Indexer.BatchSize)
	}

	if c.Search.Limit < 1 || c.Search.Limit > 100 {
		return fmt.Errorf("search limit must be between 1 and 100, got %d", c.Search.Limit)
	}
	switch c.Search.Mode {
	case "hybrid", "vector", "keyword":
	default:
		return fmt.Errorf("unknown search mode %q (want hybrid, vector, or keyword)", c.Search.Mode)
	}

	return nil
}

// DatabaseDir returns the configured database directory with a leading ~
// expanded. The MCP server and the CLI both place DatabaseFileName inside it.
func (c *Config) DatabaseDir() (string, error) {
	return ExpandPath(c.DBPath)
}

// DatabaseFile returns the full path of the SQLite database file.
func (c *Config) DatabaseFile() (string, error) {
	dir, err := c.DatabaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}

// NewEmbedder constructs the embedder the config names. With no provider
// set it falls back to environment auto-detection, the same behavior as
// running with no config at all. A configured Model overrides the chosen
// provider's default in both cases.
func (c *Config) NewEmbedder() (embedder.Embedder, error) {
	provider := c.Embedder.Provider
	if provider == "" {
		if c.Embedder.Model == "" {
			return embedder.NewFromEnv()
		}
		provider = embedder.DetectProvider()
	}
	apiKey := ""
	switch provider {
	case embedder.ProviderJina:
		apiKey = os.Getenv(embedder.EnvJinaAPIKey)
	case embedder.ProviderOpenAI:
		apiKey = os.Getenv(embedder.EnvOpenAIAPIKey)
	}
	return embedder.New(embedder.Config{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     c.Embedder.Model,
		CacheSize: 10000,
	})
}

// ExpandPath resolves a leading ~ or ~/ against the user's home directory.
// Other paths pass through unchanged.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
