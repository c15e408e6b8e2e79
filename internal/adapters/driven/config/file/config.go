package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Defaults applied before env overrides.
const (
	defaultTopK        = 10
	defaultThreshold   = 0.35
	defaultCacheSize   = 256
	defaultMaxChars    = 2500
	defaultMinChars    = 200
	defaultConcurrency = 2
	defaultEmbedBatch  = 96
	defaultHistoryKeep = 50
)

// Duration is a time.Duration written as "30s" or "2m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the lexgate configuration file.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Generator GeneratorConfig `toml:"generator"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ingest    IngestConfig    `toml:"ingest"`
	Log       LogConfig       `toml:"log"`
	Sources   []SourceEntry   `toml:"sources" validate:"dive"`

	// Dir is the directory holding config.toml, prompts and the local store.
	Dir string `toml:"-"`
}

// StoreConfig selects and tunes the document and vector store.
type StoreConfig struct {
	Driver string `toml:"driver" validate:"oneof=sqlite postgres memory"`

	// Path is the sqlite data directory. Defaults to the config directory.
	Path string `toml:"path"`

	DSN                string `toml:"dsn" validate:"required_if=Driver postgres"`
	HNSWM              int    `toml:"hnsw_m" validate:"gte=0"`
	HNSWEfConstruction int    `toml:"hnsw_ef_construction" validate:"gte=0"`
	HNSWEfSearch       int    `toml:"hnsw_ef_search" validate:"gte=0"`
}

// EmbeddingConfig configures the embedding provider and the indexer.
type EmbeddingConfig struct {
	Provider    string   `toml:"provider" validate:"omitempty,oneof=cohere openai ollama"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url" validate:"omitempty,url"`
	APIKey      string   `toml:"api_key"`
	Dimensions  int      `toml:"dimensions" validate:"gte=0"`
	BatchSize   int      `toml:"batch_size" validate:"gte=0,lte=2048"`
	MaxAttempts int      `toml:"max_attempts" validate:"gte=0,lte=10"`
	Timeout     Duration `toml:"timeout"`
}

// GeneratorConfig configures the optional answer generator.
type GeneratorConfig struct {
	Provider  string   `toml:"provider" validate:"omitempty,oneof=openai ollama anthropic"`
	Model     string   `toml:"model"`
	BaseURL   string   `toml:"base_url" validate:"omitempty,url"`
	APIKey    string   `toml:"api_key"`
	MaxTokens int      `toml:"max_tokens" validate:"gte=0"`
	Timeout   Duration `toml:"timeout"`
}

// RetrievalConfig tunes the grounding gate.
type RetrievalConfig struct {
	TopK      int     `toml:"top_k" validate:"gte=1,lte=100"`
	Threshold float64 `toml:"threshold" validate:"gte=-1,lte=1"`

	// CacheSize is the number of cached query embeddings. Negative disables it.
	CacheSize int `toml:"cache_size"`
}

// IngestConfig tunes ingestion and chunking.
type IngestConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1"`
	MaxChars    int `toml:"max_chars" validate:"gte=200"`
	MinChars    int `toml:"min_chars" validate:"gte=0,ltfield=MaxChars"`
	HistoryKeep int `toml:"history_keep" validate:"gte=1"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbose bool   `toml:"verbose"`
	File    string `toml:"file"`
}

// SourceEntry is one [[sources]] table.
type SourceEntry struct {
	ID       string            `toml:"id" validate:"required"`
	Type     string            `toml:"type" validate:"required,oneof=fedlex entscheidsuche cantonal"`
	Workers  int               `toml:"workers" validate:"gte=0,lte=32"`
	RPS      float64           `toml:"rps" validate:"gte=0"`
	Burst    int               `toml:"burst" validate:"gte=0"`
	Timeout  Duration          `toml:"timeout"`
	Schedule string            `toml:"schedule"`
	Filters  map[string]string `toml:"filters"`
}

// DefaultDir returns ~/.lexgate.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".lexgate"), nil
}

// Default returns the configuration used when no file exists.
func Default(dir string) *Config {
	return &Config{
		Store: StoreConfig{Driver: DriverSQLite},
		Embedding: EmbeddingConfig{
			Provider:  string(domain.AIProviderCohere),
			BatchSize: defaultEmbedBatch,
		},
		Retrieval: RetrievalConfig{
			TopK:      defaultTopK,
			Threshold: defaultThreshold,
			CacheSize: defaultCacheSize,
		},
		Ingest: IngestConfig{
			Concurrency: defaultConcurrency,
			MaxChars:    defaultMaxChars,
			MinChars:    defaultMinChars,
			HistoryKeep: defaultHistoryKeep,
		},
		Sources: DefaultSources(),
		Dir:     dir,
	}
}

// DefaultSources is the catalog used when the file declares no [[sources]].
func DefaultSources() []SourceEntry {
	return []SourceEntry{
		{
			ID:       "fedlex",
			Type:     domain.SourceTypeFedlex,
			Workers:  4,
			RPS:      2,
			Burst:    4,
			Schedule: "0 3 * * 0",
			Filters:  map[string]string{"priority": "true"},
		},
		{
			ID:       "entscheidsuche-bger",
			Type:     domain.SourceTypeEntscheidsuche,
			Workers:  4,
			RPS:      2,
			Burst:    4,
			Schedule: "0 4 * * *",
			Filters:  map[string]string{"canton": "CH", "hierarchy": "CH_BGer"},
		},
	}
}

// Load reads path, or <dir>/config.toml when path is empty. A missing file
// yields the defaults. Values from the environment, including a .env file
// next to the config or in the working directory, override the file.
func Load(path string) (*Config, error) {
	var dir string
	if path == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		path = filepath.Join(dir, "config.toml")
	} else {
		dir = filepath.Dir(path)
	}

	loadDotEnv(filepath.Join(dir, ".env"), ".env")

	cfg := Default(dir)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML into cfg. Declared [[sources]] replace the defaults.
func Parse(data []byte, cfg *Config) error {
	defaults := cfg.Sources
	cfg.Sources = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaults
	}
	return nil
}

// loadDotEnv loads the first existing files. Variables already set win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Store.Driver, "LEXGATE_STORE_DRIVER")
	setString(&c.Store.Path, "LEXGATE_STORE_PATH")
	setString(&c.Store.DSN, "DATABASE_URL")
	setString(&c.Store.DSN, "LEXGATE_DATABASE_URL")

	setString(&c.Embedding.Provider, "LEXGATE_EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "LEXGATE_EMBEDDING_MODEL")
	setString(&c.Embedding.BaseURL, "LEXGATE_EMBEDDING_BASE_URL")
	setString(&c.Generator.Provider, "LEXGATE_GENERATOR_PROVIDER")
	setString(&c.Generator.Model, "LEXGATE_GENERATOR_MODEL")
	setString(&c.Generator.BaseURL, "LEXGATE_GENERATOR_BASE_URL")
	setString(&c.Log.File, "LEXGATE_LOG_FILE")

	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = getenv(apiKeyVar(c.Embedding.Provider))
	}
	if c.Generator.APIKey == "" {
		c.Generator.APIKey = getenv(apiKeyVar(c.Generator.Provider))
	}

	if v, err := strconv.ParseFloat(getenv("LEXGATE_THRESHOLD"), 64); err == nil {
		c.Retrieval.Threshold = v
	}
	if v, err := strconv.Atoi(getenv("LEXGATE_TOP_K")); err == nil {
		c.Retrieval.TopK = v
	}
	if v, err := strconv.ParseBool(getenv("LEXGATE_VERBOSE")); err == nil {
		c.Log.Verbose = v
	}
}

// apiKeyVar returns the conventional key variable of a provider.
func apiKeyVar(provider string) string {
	switch domain.AIProvider(provider) {
	case domain.AIProviderCohere:
		return "COHERE_API_KEY"
	case domain.AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case domain.AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// applyDefaults fills zero values a file may leave behind.
func (c *Config) applyDefaults() {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = c.Dir
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = defaultTopK
	}
	if c.Ingest.Concurrency == 0 {
		c.Ingest.Concurrency = defaultConcurrency
	}
	if c.Ingest.MaxChars == 0 {
		c.Ingest.MaxChars = defaultMaxChars
	}
	if c.Ingest.HistoryKeep == 0 {
		c.Ingest.HistoryKeep = defaultHistoryKeep
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = defaultEmbedBatch
	}
}

// Validate checks field constraints and source ID uniqueness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid config: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: invalid config: %w", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate source id %q", domain.ErrInvalidInput, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SourceConfigs converts the [[sources]] tables into domain configs.
func (c *Config) SourceConfigs() []domain.SourceConfig {
	out := make([]domain.SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		out = append(out, domain.SourceConfig{
			ID:       s.ID,
			Type:     s.Type,
			Workers:  s.Workers,
			RPS:      s.RPS,
			Burst:    s.Burst,
			Timeout:  s.Timeout.Duration,
			Schedule: s.Schedule,
			Filters:  s.Filters,
		})
	}
	return out
}

// EmbeddingSettings returns the embedding provider settings.
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Embedding.Provider),
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     c.Embedding.APIKey,
		Dimensions: c.Embedding.Dimensions,
		Timeout:    c.Embedding.Timeout.Duration,
	}
}

// GeneratorSettings returns the answer generator settings.
func (c *Config) GeneratorSettings() *domain.GeneratorSettings {
	return &domain.GeneratorSettings{
		Provider:  domain.AIProvider(c.Generator.Provider),
		Model:     c.Generator.Model,
		BaseURL:   c.Generator.BaseURL,
		APIKey:    c.Generator.APIKey,
		MaxTokens: c.Generator.MaxTokens,
		Timeout:   c.Generator.Timeout.Duration,
	}
}

// ChunkerOptions returns the options map consumed by the chunk pipeline.
func (c *Config) ChunkerOptions() map[string]any {
	return map[string]any{
		"max_chars": c.Ingest.MaxChars,
		"min_chars": c.Ingest.MinChars,
	}
}

// Save writes c as TOML to <Dir>/config.toml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.Dir, "config.toml"), data, 0600)
}
