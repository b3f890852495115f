package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or chat.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Chat only.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider can produce vectors.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the vector store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite   StorageBackend = "sqlite"
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
)

// StorageSettings configures the persistent collection.
type StorageSettings struct {
	Backend    StorageBackend `toml:"backend"`
	Path       string         `toml:"path"`
	Collection string         `toml:"collection"`

	// DSN is the connection string for the postgres backend.
	DSN string `toml:"dsn"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider `toml:"provider"`
	Model    string     `toml:"model"`
	BaseURL  string     `toml:"base_url"`
	APIKey   string     `toml:"api_key"`

	// Dimensions overrides the model's default vector size when non-zero.
	Dimensions int `toml:"dimensions"`

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int `toml:"batch_size"`

	TimeoutSeconds int `toml:"timeout_seconds"`

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`

	// CacheSize is the number of query embeddings kept; zero disables the cache.
	CacheSize       int `toml:"cache_size"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

// Timeout returns the request timeout, zero meaning the adapter default.
func (e EmbeddingSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CacheTTL returns the query cache entry lifetime.
func (e EmbeddingSettings) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSeconds) * time.Second
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds chat model configuration.
type LLMSettings struct {
	Provider AIProvider `toml:"provider"`
	Model    string     `toml:"model"`
	BaseURL  string     `toml:"base_url"`
	APIKey   string     `toml:"api_key"`

	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`

	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Timeout returns the request timeout, zero meaning the adapter default.
func (l LLMSettings) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls text splitting.
type ChunkingSettings struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`

	// Processors are text cleaners run on every unit before chunking.
	Processors []string `toml:"processors"`

	// ProcessorConfig holds per-processor options keyed by processor name,
	// e.g. [chunking.processor_config.whitespace].
	ProcessorConfig map[string]map[string]any `toml:"processor_config,omitempty"`
}

// RetrievalSettings controls query-time search.
type RetrievalSettings struct {
	K int `toml:"k"`
}

// PromptSettings locates the prompt template file.
// An empty path selects the built-in templates.
type PromptSettings struct {
	Path string `toml:"path"`
}

// LoaderSettings selects which document loaders are registered.
type LoaderSettings struct {
	Enabled []string `toml:"enabled"`

	// PDFToText is the pdftotext binary name or path.
	PDFToText string `toml:"pdftotext"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level   string `toml:"level"`
	File    string `toml:"file"`
	Verbose bool   `toml:"verbose"`

	// Rotation of File. Zero keeps the logger defaults.
	MaxSizeMB  int `toml:"max_size_mb"`
	MaxBackups int `toml:"max_backups"`
}

// AppSettings holds all application settings. It is loaded once at
// startup and treated as immutable afterwards.
type AppSettings struct {
	SourceDir string            `toml:"source_dir"`
	Storage   StorageSettings   `toml:"storage"`
	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       LLMSettings       `toml:"llm"`
	Chunking  ChunkingSettings  `toml:"chunking"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Prompts   PromptSettings    `toml:"prompts"`
	Loaders   LoaderSettings    `toml:"loaders"`
	Log       LogSettings       `toml:"log"`
}

// Default values.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultRetrievalK   = 5
	DefaultBatchSize    = 64
	DefaultCollection   = "rules"
)

// DefaultAppSettings returns settings with sensible defaults: a local
// sqlite collection and Ollama for both embeddings and chat.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		SourceDir: "data/sources",
		Storage: StorageSettings{
			Backend:    StorageSQLite,
			Path:       "data/index",
			Collection: DefaultCollection,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       DefaultLLMModels()[AIProviderOllama],
			Temperature: 0.2,
		},
		Chunking: ChunkingSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			Processors:   []string{"whitespace"},
		},
		Retrieval: RetrievalSettings{K: DefaultRetrievalK},
		Loaders: LoaderSettings{
			Enabled:   []string{"pdf"},
			PDFToText: "pdftotext",
		},
		Log: LogSettings{Level: "warn"},
	}
}

// Validate checks the settings once at startup. Every failure wraps
// ErrConfiguration.
func (s *AppSettings) Validate() error {
	if s.SourceDir == "" {
		return fmt.Errorf("%w: source_dir is required", ErrConfiguration)
	}
	if err := ValidateChunking(s.Chunking.ChunkSize, s.Chunking.ChunkOverlap); err != nil {
		return err
	}
	if s.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive, got %d", ErrConfiguration, s.Retrieval.K)
	}
	if s.Storage.Collection == "" {
		return fmt.Errorf("%w: storage.collection is required", ErrConfiguration)
	}
	switch s.Storage.Backend {
	case StorageSQLite:
		if s.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for sqlite", ErrConfiguration)
		}
	case StoragePostgres:
		if s.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for postgres", ErrConfiguration)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrConfiguration, s.Storage.Backend)
	}
	if !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %q cannot produce embeddings", ErrConfiguration, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrConfiguration, s.LLM.Provider)
	}
	if s.Embedding.BatchSize < 0 {
		return fmt.Errorf("%w: embedding.batch_size must not be negative", ErrConfiguration)
	}
	if s.Log.MaxSizeMB < 0 || s.Log.MaxBackups < 0 {
		return fmt.Errorf("%w: log.max_size_mb and log.max_backups must not be negative", ErrConfiguration)
	}
	return nil
}

// ValidateChunking enforces 0 <= overlap < size.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrConfiguration, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrConfiguration, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			ErrConfiguration, overlap, size)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each chat provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
