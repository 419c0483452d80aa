// Package cli implements the wikidex command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikidex/internal/adapters/driven/config/file"
	embollama "github.com/custodia-labs/wikidex/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/custodia-labs/wikidex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/wikidex/internal/adapters/driven/index/flat"
	llmollama "github.com/custodia-labs/wikidex/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/custodia-labs/wikidex/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/wikidex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
	"github.com/custodia-labs/wikidex/internal/core/ports/driving"
	"github.com/custodia-labs/wikidex/internal/core/services"
	"github.com/custodia-labs/wikidex/internal/formatter"
	"github.com/custodia-labs/wikidex/internal/logger"
	"github.com/custodia-labs/wikidex/internal/pipeline"
	"github.com/custodia-labs/wikidex/internal/splitter"
	"github.com/custodia-labs/wikidex/internal/wikitext"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services are package-level so tests can inject fakes. Commands build
// the real stack lazily when these are nil.
var (
	configStore  driven.ConfigStore
	promptStore  driven.PromptStore
	queryService driving.QueryService
	ingestor     driving.Ingestor

	// Set alongside the real stack so commands can persist the index
	// and close the docstore when they finish.
	vectorIndex *flat.Index
	docStore    *sqlite.DocStore
)

var rootCmd = &cobra.Command{
	Use:   "wikidex",
	Short: "Index a Wikipedia dump and answer questions with citations",
	Long: `wikidex turns a MediaWiki XML export into a searchable corpus:
pages are cleaned, split into passages, embedded and indexed. Questions
are answered by a language model grounded in retrieved passages, with
per-source citations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if configStore == nil {
			store, err := file.NewConfigStore(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			configStore = store
		}
		if promptStore == nil {
			store, err := file.NewPromptStore(promptDir())
			if err != nil {
				return fmt.Errorf("loading prompts: %w", err)
			}
			promptStore = store
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.wikidex)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDir resolves the data directory from config, defaulting to
// ~/.wikidex/data.
func dataDir() string {
	if dir := configStore.GetString("data.dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wikidex-data"
	}
	return filepath.Join(home, ".wikidex", "data")
}

func promptDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "prompts")
}

func indexPath() string {
	return filepath.Join(dataDir(), "vectors.idx")
}

// buildEmbedder constructs the embedding service selected by config.
// Defaults to a local Ollama instance so no API key is needed out of
// the box.
func buildEmbedder() (driven.EmbeddingService, error) {
	switch provider := configStore.GetString("embedding.provider"); provider {
	case "", "ollama":
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    configStore.GetString("embedding.base_url"),
			Model:      configStore.GetString("embedding.model"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		}), nil
	case "openai":
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    configStore.GetString("embedding.base_url"),
			Model:      configStore.GetString("embedding.model"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want ollama or openai)", provider)
	}
}

// buildLLM constructs the chat completion service selected by config.
func buildLLM() (driven.LLMService, error) {
	switch provider := configStore.GetString("llm.provider"); provider {
	case "", "ollama":
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL: configStore.GetString("llm.base_url"),
			Model:   configStore.GetString("llm.model"),
		}), nil
	case "openai":
		return llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: configStore.GetString("llm.base_url"),
			Model:   configStore.GetString("llm.model"),
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want ollama or openai)", provider)
	}
}

// openStores opens the docstore and the vector index sized to the
// embedder, caching both for the lifetime of the command.
func openStores(embedder driven.EmbeddingService) error {
	if docStore == nil {
		store, err := sqlite.NewDocStore(dataDir())
		if err != nil {
			return fmt.Errorf("opening document store: %w", err)
		}
		docStore = store
	}
	if vectorIndex == nil {
		index, err := flat.Open(indexPath(), embedder.Dimensions())
		if err != nil {
			return fmt.Errorf("opening vector index: %w", err)
		}
		vectorIndex = index
	}
	return nil
}

// ensureQueryService builds the question answering stack unless a
// service was injected.
func ensureQueryService(style formatter.Style, topK int) error {
	if queryService != nil {
		return nil
	}

	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	llm, err := buildLLM()
	if err != nil {
		return err
	}
	if err := openStores(embedder); err != nil {
		return err
	}

	opts := []services.EngineOption{
		services.WithCitationStyle(style),
		services.WithTopK(topK),
	}
	if prompt, err := promptStore.Load(driven.PromptQuerySystem); err == nil {
		opts = append(opts, services.WithSystemPrompt(prompt))
	}

	queryService = services.NewQueryEngine(
		services.NewSearchService(embedder, vectorIndex),
		services.NewDocumentService(docStore),
		llm,
		opts...,
	)
	return nil
}

// ensureIngestor builds the ingest pipeline unless a service was
// injected.
func ensureIngestor(workers, batchSize int, embedsPerSecond float64) error {
	if ingestor != nil {
		return nil
	}

	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	if err := openStores(embedder); err != nil {
		return err
	}

	split, err := splitter.New(
		splitter.WithChunkSize(configOr("ingest.chunk_size", splitter.DefaultChunkSize)),
		splitter.WithOverlap(configOr("ingest.overlap", splitter.DefaultOverlap)),
		splitter.WithMinWords(configOr("ingest.min_words", 15)),
	)
	if err != nil {
		return fmt.Errorf("configuring splitter: %w", err)
	}

	ingestor = services.NewIngestService(
		pipeline.NewDumpReader(workers),
		wikitext.NewProcessor(),
		split,
		pipeline.NewIndexer(embedder, docStore, vectorIndex, embedsPerSecond),
		services.IngestConfig{Workers: workers, BatchSize: batchSize},
	)
	return nil
}

// configOr reads an int key, falling back when unset or zero.
func configOr(key string, fallback int) int {
	if v := configStore.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

// configOrFloat reads a float key, falling back when unset or zero.
func configOrFloat(key string, fallback float64) float64 {
	if v := configStore.GetFloat(key); v > 0 {
		return v
	}
	return fallback
}

// saveIndex persists the vector index when the real stack is in use.
func saveIndex(cmd *cobra.Command) {
	if vectorIndex == nil {
		return
	}
	if err := vectorIndex.Save(); err != nil {
		cmd.PrintErrf("warning: saving vector index: %v\n", err)
	}
}

// closeStores releases the docstore when the real stack is in use.
func closeStores(cmd *cobra.Command) {
	if docStore == nil {
		return
	}
	if err := docStore.Close(); err != nil {
		cmd.PrintErrf("warning: closing document store: %v\n", err)
	}
	docStore = nil
	vectorIndex = nil
}
