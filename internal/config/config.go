package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable overrides. Values set in the environment take
// precedence over both the config file and built-in defaults.
const (
	EnvConfigPath   = "REPOLOGIC_CONFIG"
	EnvIndexDir     = "REPOLOGIC_INDEX_DIR"
	EnvProvider     = "REPOLOGIC_EMBEDDING_PROVIDER"
	EnvBatchSize    = "REPOLOGIC_BATCH_SIZE"
	EnvWorkers      = "REPOLOGIC_WORKERS"
	EnvLogLevel     = "REPOLOGIC_LOG_LEVEL"
	EnvContextChars = "REPOLOGIC_CONTEXT_CHARS"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "500ms" or "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all tunables for the indexing and retrieval pipeline.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	LogLevel  string          `yaml:"log_level"`
}

// IndexConfig controls where index artifacts live and how builds run.
type IndexConfig struct {
	Dir         string `yaml:"dir"`
	Workers     int    `yaml:"workers"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

// ChunkingConfig controls chunk sizing.
type ChunkingConfig struct {
	MaxTokens    int `yaml:"max_tokens"`
	OverlapLines int `yaml:"overlap_lines"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string   `yaml:"provider"`
	BatchSize   int      `yaml:"batch_size"`
	CacheSize   int      `yaml:"cache_size"`
	MaxInFlight int      `yaml:"max_in_flight"`
	MaxRetries  int      `yaml:"max_retries"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// RetrievalConfig controls search behavior.
type RetrievalConfig struct {
	TopK         int      `yaml:"top_k"`
	RelatedLimit int      `yaml:"related_limit"`
	MinScore     float64  `yaml:"min_score"`
	Timeout      Duration `yaml:"timeout"`
}

// AssemblyConfig controls context string assembly.
type AssemblyConfig struct {
	MaxChars int `yaml:"max_chars"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Dir:         defaultIndexDir(),
			Workers:     4,
			MaxFileSize: 1 << 20,
		},
		Chunking: ChunkingConfig{
			MaxTokens:    400,
			OverlapLines: 3,
		},
		Embedding: EmbeddingConfig{
			Provider:    "",
			BatchSize:   100,
			CacheSize:   10000,
			MaxInFlight: 4,
			MaxRetries:  3,
			BaseDelay:   Duration(100 * time.Millisecond),
			MaxDelay:    Duration(5 * time.Second),
		},
		Retrieval: RetrievalConfig{
			TopK:         5,
			RelatedLimit: 3,
			MinScore:     0.25,
			Timeout:      Duration(10 * time.Second),
		},
		Assembly: AssemblyConfig{
			MaxChars: 12000,
		},
		LogLevel: "info",
	}
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repologic"
	}
	return filepath.Join(home, ".repologic", "indexes")
}

// Load reads configuration from path, layering it over defaults and
// applying environment overrides last. An empty path loads defaults
// plus environment only. A missing file at an explicit path is an
// error; REPOLOGIC_CONFIG pointing at a missing file is too.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvIndexDir); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.BatchSize = n
		}
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvContextChars); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assembly.MaxChars = n
		}
	}
}

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	if c.Index.MaxFileSize < 1 {
		return fmt.Errorf("index.max_file_size must be positive, got %d", c.Index.MaxFileSize)
	}
	if c.Chunking.MaxTokens < 1 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapLines < 0 {
		return fmt.Errorf("chunking.overlap_lines must not be negative, got %d", c.Chunking.OverlapLines)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxInFlight < 1 {
		return fmt.Errorf("embedding.max_in_flight must be at least 1, got %d", c.Embedding.MaxInFlight)
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative, got %d", c.Embedding.MaxRetries)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1], got %g", c.Retrieval.MinScore)
	}
	if c.Assembly.MaxChars < 1 {
		return fmt.Errorf("assembly.max_chars must be positive, got %d", c.Assembly.MaxChars)
	}
	return nil
}
