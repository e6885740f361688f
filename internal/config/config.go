// Package config loads CargoLens settings from a TOML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime settings for the CLI.
type Config struct {
	DataDir string `toml:"data_dir" validate:"required"`

	OpenAI   OpenAIConfig   `toml:"openai"`
	Chunking ChunkingConfig `toml:"chunking"`
	Retrieve RetrieveConfig `toml:"retrieval"`
	Ingest   IngestConfig   `toml:"ingest"`
}

// OpenAIConfig configures the embedding and chat completion backends.
type OpenAIConfig struct {
	APIKey            string  `toml:"-"`
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	EmbeddingModel    string  `toml:"embedding_model" validate:"required"`
	ChatModel         string  `toml:"chat_model" validate:"required"`
	Dimensions        int     `toml:"dimensions" validate:"required,min=1"`
	Temperature       float64 `toml:"temperature" validate:"min=0,max=2"`
	MaxTokens         int     `toml:"max_tokens" validate:"min=1"`
	RequestsPerMinute int     `toml:"requests_per_minute" validate:"min=1"`
}

// ChunkingConfig configures how extracted text is split before embedding.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size" validate:"min=1"`
	Overlap   int `toml:"overlap" validate:"min=0"`
}

// RetrieveConfig configures the question answering pipeline.
type RetrieveConfig struct {
	TopK                int     `toml:"top_k" validate:"min=1"`
	SimilarityThreshold float64 `toml:"similarity_threshold" validate:"min=0,max=1"`
}

// IngestConfig configures the ingestion coordinator.
type IngestConfig struct {
	Concurrency int `toml:"concurrency" validate:"min=1"`
}

// Default returns a config populated with built-in defaults.
// DataDir defaults to ~/.cargolens.
func Default() Config {
	dataDir := ".cargolens"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".cargolens")
	}

	return Config{
		DataDir: dataDir,
		OpenAI: OpenAIConfig{
			BaseURL:           "https://api.openai.com/v1",
			EmbeddingModel:    "text-embedding-3-small",
			ChatModel:         "gpt-4o-mini",
			Dimensions:        1536,
			Temperature:       0.1,
			MaxTokens:         1024,
			RequestsPerMinute: 60,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 800,
			Overlap:   100,
		},
		Retrieve: RetrieveConfig{
			TopK:                5,
			SimilarityThreshold: 0.25,
		},
		Ingest: IngestConfig{
			Concurrency: 5,
		},
	}
}

// Load builds the effective configuration: defaults, then the TOML file
// at path (skipped when path is empty and no default file exists), then
// environment variables. The result is validated before returning.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine, defaults apply.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config. The API key is
// only ever read from the environment, never from the file.
func (c *Config) applyEnv() {
	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("CARGOLENS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("invalid config: %s failed on '%s'", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IndexPath returns the location of the vector index file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "vectors.idx")
}

// DatabasePath returns the location of the sqlite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cargolens.db")
}

// BlobDir returns the root directory of the local blob store.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blobs")
}
