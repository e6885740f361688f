package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cargolens/cargolens-cli/internal/adapters/driven/blob/fs"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/embedding/openai"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/extract"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/extract/pdf"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/extract/plaintext"
	openaillm "github.com/cargolens/cargolens-cli/internal/adapters/driven/llm/openai"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/storage/sqlite"
	"github.com/cargolens/cargolens-cli/internal/chunker"
	"github.com/cargolens/cargolens-cli/internal/config"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driving"
	"github.com/cargolens/cargolens-cli/internal/core/services"
	"github.com/cargolens/cargolens-cli/internal/logger"
	"github.com/cargolens/cargolens-cli/internal/ratelimit"
	"github.com/cargolens/cargolens-cli/internal/vecindex"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

var (
	cfgFile     string
	dataDirFlag string
	verbose     bool
)

// Services used by the commands. Wired by initServices; tests inject
// stubs directly.
var (
	ingestService driving.Ingestor
	askService    driving.Asker
	extractors    driven.ExtractorRegistry

	appConfig config.Config
	docStore  *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "cargolens",
	Short: "Ask questions about your logistics documents",
	Long: `CargoLens ingests logistics documents (invoices, bills of lading,
customs declarations, packing lists) into a local vector index and
answers natural-language questions about them with cited sources.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if ingestService != nil || askService != nil {
			return nil
		}
		return initServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires the adapters into the core services from the
// effective configuration. When no API key is present the model-backed
// services stay nil and the commands that need them report it.
func initServices(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	index, err := vecindex.Load(cfg.IndexPath(), cfg.OpenAI.Dimensions)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	blob, err := fs.NewBlobStore(cfg.BlobDir())
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	var (
		embedder driven.EmbeddingService
		llm      driven.LLMService
	)
	if cfg.OpenAI.APIKey != "" {
		bucket := ratelimit.New(cfg.OpenAI.RequestsPerMinute)

		embedSvc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.EmbeddingModel,
			Dimensions: cfg.OpenAI.Dimensions,
		})
		if err != nil {
			return fmt.Errorf("configure embedding service: %w", err)
		}
		embedder = ratelimit.NewEmbedder(embedSvc, bucket)

		llmSvc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
		})
		if err != nil {
			return fmt.Errorf("configure language model: %w", err)
		}
		llm = ratelimit.NewLLM(llmSvc, bucket)
	} else {
		logger.Warn("OPENAI_API_KEY is not set, ingestion and question answering are disabled")
	}

	chunkMap := services.NewChunkMap(store)
	if err := chunkMap.Refresh(ctx); err != nil {
		logger.Warn("Failed to load chunk identity map: %v", err)
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	registry := extract.NewRegistry(plaintext.New(), pdf.New())
	extractors = registry
	metadata := services.NewMetadataService(llm)

	ingestService = services.NewIngestService(
		store, blob, registry, metadata, embedder, splitter, index, chunkMap,
		cfg.Ingest.Concurrency,
	)
	askService = services.NewAskService(
		store, embedder, llm, index, chunkMap,
		cfg.Retrieve.TopK, cfg.Retrieve.SimilarityThreshold, cfg.OpenAI.MaxTokens,
	)

	appConfig = cfg
	docStore = store
	return nil
}

func closeServices() {
	if docStore != nil {
		if err := docStore.Close(); err != nil {
			logger.Warn("Failed to close document store: %v", err)
		}
		docStore = nil
	}
}

// errNoAPIKey is what the model-backed commands return when wiring ran
// without a key.
func errNoAPIKey() error {
	return fmt.Errorf("OPENAI_API_KEY is not set")
}
