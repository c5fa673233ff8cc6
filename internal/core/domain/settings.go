package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider `toml:"provider" yaml:"provider"`
	Model    string     `toml:"model" yaml:"model"`
	BaseURL  string     `toml:"base_url" yaml:"base_url"`
	APIKey   string     `toml:"api_key" yaml:"api_key"`

	// Dimensions is the fixed vector size for the deployment. Every stored
	// vector must have this length.
	Dimensions int `toml:"dimensions" yaml:"dimensions"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	return !e.Provider.RequiresAPIKey() || e.APIKey != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider AIProvider `toml:"provider" yaml:"provider"`
	Model    string     `toml:"model" yaml:"model"`
	BaseURL  string     `toml:"base_url" yaml:"base_url"`
	APIKey   string     `toml:"api_key" yaml:"api_key"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// PipelineSettings tunes the ingestion pipeline.
type PipelineSettings struct {
	ChunkSize    int `toml:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap" yaml:"chunk_overlap"`

	// IdentifyPrefix bounds the text submitted for identification and analysis.
	IdentifyPrefix int `toml:"identify_prefix" yaml:"identify_prefix"`

	// EmbedLimit bounds the text submitted for embedding.
	EmbedLimit int `toml:"embed_limit" yaml:"embed_limit"`

	// EntityConcurrency bounds per-entity analysis within one document.
	EntityConcurrency int `toml:"entity_concurrency" yaml:"entity_concurrency"`

	// Workers is the number of stage consumers.
	Workers int `toml:"workers" yaml:"workers"`

	// QueueCapacity is the task queue buffer size.
	QueueCapacity int `toml:"queue_capacity" yaml:"queue_capacity"`

	// RequestsPerSecond and Burst throttle calls to external models.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" yaml:"burst"`
}

// RetrievalSettings tunes search and chat.
type RetrievalSettings struct {
	SalesThreshold    float64 `toml:"sales_threshold" yaml:"sales_threshold"`
	DocumentThreshold float64 `toml:"document_threshold" yaml:"document_threshold"`
	ChatThreshold     float64 `toml:"chat_threshold" yaml:"chat_threshold"`
	DefaultCount      int     `toml:"default_count" yaml:"default_count"`
	MaxCount          int     `toml:"max_count" yaml:"max_count"`
	ChatChunks        int     `toml:"chat_chunks" yaml:"chat_chunks"`
	ChatHistory       int     `toml:"chat_history" yaml:"chat_history"`
	ListLimit         int     `toml:"list_limit" yaml:"list_limit"`
}

// Storage drivers.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// StorageSettings selects the relational store.
type StorageSettings struct {
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`

	// DataDir holds the sqlite file, blob files and embedded postgres data.
	DataDir string `toml:"data_dir" yaml:"data_dir"`

	// EmbeddedPostgres starts a local postgres server for development.
	EmbeddedPostgres bool `toml:"embedded_postgres" yaml:"embedded_postgres"`
}

// Blob drivers.
const (
	BlobBolt       = "bolt"
	BlobFilesystem = "filesystem"
	BlobMemory     = "memory"
)

// BlobSettings selects the blob store.
type BlobSettings struct {
	Driver string `toml:"driver" yaml:"driver"`
	Path   string `toml:"path" yaml:"path"`
}

// ServerSettings configures the HTTP adapter.
type ServerSettings struct {
	Addr           string `toml:"addr" yaml:"addr"`
	MaxUploadBytes int64  `toml:"max_upload_bytes" yaml:"max_upload_bytes"`

	// ReadTimeoutSeconds bounds reading a request, body included.
	ReadTimeoutSeconds int `toml:"read_timeout_seconds" yaml:"read_timeout_seconds"`
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	Verbose bool `toml:"verbose" yaml:"verbose"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings `toml:"embedding" yaml:"embedding"`
	LLM       LLMSettings       `toml:"llm" yaml:"llm"`
	Pipeline  PipelineSettings  `toml:"pipeline" yaml:"pipeline"`
	Retrieval RetrievalSettings `toml:"retrieval" yaml:"retrieval"`
	Storage   StorageSettings   `toml:"storage" yaml:"storage"`
	Blob      BlobSettings      `toml:"blob" yaml:"blob"`
	Server    ServerSettings    `toml:"server" yaml:"server"`
	Logging   LoggingSettings   `toml:"logging" yaml:"logging"`
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they normally come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderGemini,
			Model:      DefaultEmbeddingModels()[AIProviderGemini],
			Dimensions: 768,
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModels()[AIProviderGemini],
		},
		Pipeline: PipelineSettings{
			ChunkSize:         1500,
			ChunkOverlap:      200,
			IdentifyPrefix:    15000,
			EmbedLimit:        8000,
			EntityConcurrency: 3,
			Workers:           2,
			QueueCapacity:     64,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Retrieval: RetrievalSettings{
			SalesThreshold:    0.3,
			DocumentThreshold: 0.5,
			ChatThreshold:     0.5,
			DefaultCount:      6,
			MaxCount:          50,
			ChatChunks:        3,
			ChatHistory:       6,
			ListLimit:         100,
		},
		Storage: StorageSettings{
			Driver: StorageSQLite,
		},
		Blob: BlobSettings{
			Driver: BlobBolt,
		},
		Server: ServerSettings{
			Addr:               ":8080",
			MaxUploadBytes:     20 << 20,
			ReadTimeoutSeconds: 60,
		},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s *AppSettings) Validate() error {
	p := s.Pipeline
	if p.ChunkSize <= 0 || p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk_size)", ErrInvalidInput)
	}
	if p.IdentifyPrefix <= 0 || p.EmbedLimit <= 0 {
		return fmt.Errorf("%w: identify_prefix and embed_limit must be positive", ErrInvalidInput)
	}
	if p.EntityConcurrency <= 0 || p.Workers <= 0 || p.QueueCapacity <= 0 {
		return fmt.Errorf("%w: concurrency, workers and queue capacity must be positive", ErrInvalidInput)
	}
	r := s.Retrieval
	if r.DefaultCount <= 0 || r.MaxCount < r.DefaultCount {
		return fmt.Errorf("%w: retrieval counts must satisfy 0 < default_count <= max_count", ErrInvalidInput)
	}
	switch s.Storage.Driver {
	case StorageSQLite, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidInput, s.Storage.Driver)
	}
	switch s.Blob.Driver {
	case BlobBolt, BlobFilesystem, BlobMemory:
	default:
		return fmt.Errorf("%w: unknown blob driver %q", ErrInvalidInput, s.Blob.Driver)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOpenAI, AIProviderOllama}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOpenAI, AIProviderOllama}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "text-embedding-004",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderOllama: "nomic-embed-text",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-2.0-flash",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderOllama: "llama3.2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"text-embedding-004": 768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
