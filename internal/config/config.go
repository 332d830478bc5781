package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheValkey = "valkey"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// Config holds the recommender and indexer configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Recommend RecommendConfig `yaml:"recommend"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ArtifactsConfig locates the index and catalog snapshot written by the indexer.
type ArtifactsConfig struct {
	IndexPath    string `yaml:"index_path"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// EmbeddingConfig holds the embedding provider and model settings.
// The indexer and the server must share model, dimensions and instructions.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	RequestTimeoutSec   int    `yaml:"request_timeout_sec"`
}

// CacheConfig selects the optional embedding cache backend.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, valkey, redis, badger (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RecommendConfig bounds result lists.
type RecommendConfig struct {
	DefaultTopK   int `yaml:"default_top_k"`
	MaxTopK       int `yaml:"max_top_k"` // 0 = unlimited
	EvidenceChars int `yaml:"evidence_chars"`
}

// BuildConfig tunes the offline index builder.
type BuildConfig struct {
	Workers       int `yaml:"workers"`
	BatchSize     int `yaml:"batch_size"`
	RetryAttempts int `yaml:"retry_attempts"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// VectorConfig returns the vectorization settings shared by indexer and server.
func (c *Config) VectorConfig() domain.VectorConfig {
	return domain.VectorConfig{
		Model:               c.Embedding.Model,
		Dimensions:          c.Embedding.Dimensions,
		DocumentInstruction: c.Embedding.DocumentInstruction,
		QueryInstruction:    c.Embedding.QueryInstruction,
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Artifacts.IndexPath == "" {
		c.Artifacts.IndexPath = filepath.Join("data", "catalog.index")
	}
	if c.Artifacts.SnapshotPath == "" {
		c.Artifacts.SnapshotPath = filepath.Join("data", "catalog.parquet")
	}

	def := domain.DefaultVectorConfig()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = def.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = def.Dimensions
	}
	if c.Embedding.RequestTimeoutSec <= 0 {
		c.Embedding.RequestTimeoutSec = 15
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.Driver == CacheBadger && c.Cache.Path == "" {
		c.Cache.Path = filepath.Join("data", "embcache")
	}

	if c.Recommend.DefaultTopK <= 0 {
		c.Recommend.DefaultTopK = 10
	}
	if c.Recommend.EvidenceChars <= 0 {
		c.Recommend.EvidenceChars = 220
	}

	if c.Build.Workers <= 0 {
		c.Build.Workers = 4
	}
	if c.Build.BatchSize <= 0 {
		c.Build.BatchSize = 64
	}
	if c.Build.RetryAttempts <= 0 {
		c.Build.RetryAttempts = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	switch c.Cache.Driver {
	case CacheNone, CacheBadger:
	case CacheValkey, CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, valkey, redis, badger, got %q", c.Cache.Driver)
	}
	if c.Recommend.MaxTopK < 0 {
		return fmt.Errorf("recommend.max_top_k must be >= 0, got %d", c.Recommend.MaxTopK)
	}
	if c.Recommend.MaxTopK > 0 && c.Recommend.DefaultTopK > c.Recommend.MaxTopK {
		return fmt.Errorf("recommend.default_top_k (%d) exceeds recommend.max_top_k (%d)",
			c.Recommend.DefaultTopK, c.Recommend.MaxTopK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
