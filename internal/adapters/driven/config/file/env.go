package file

import (
	"errors"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// LoadEnv loads .env files into the process environment. Missing files are
// skipped and variables already set are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("loaded environment from %s", f)
	}
	return nil
}

// ApplyEnv overrides settings with environment variables. Provider API keys
// only apply to the sections configured for that provider.
func ApplyEnv(s *domain.AppSettings, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	provider := func(key string, dst *domain.AIProvider) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = domain.AIProvider(v)
		}
	}

	provider("SSAI_LLM_PROVIDER", &s.LLM.Provider)
	str("SSAI_LLM_MODEL", &s.LLM.Model)
	provider("SSAI_EMBEDDING_PROVIDER", &s.Embedding.Provider)
	str("SSAI_EMBEDDING_MODEL", &s.Embedding.Model)
	if s.LLM.Provider == domain.AIProviderOllama {
		str("OLLAMA_HOST", &s.LLM.BaseURL)
	}
	if s.Embedding.Provider == domain.AIProviderOllama {
		str("OLLAMA_HOST", &s.Embedding.BaseURL)
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderGemini: "GEMINI_API_KEY",
		domain.AIProviderOpenAI: "OPENAI_API_KEY",
	}
	if key, ok := keys[s.LLM.Provider]; ok {
		str(key, &s.LLM.APIKey)
	}
	if key, ok := keys[s.Embedding.Provider]; ok {
		str(key, &s.Embedding.APIKey)
	}

	str("SSAI_DATABASE_URL", &s.Storage.DSN)
	str("SSAI_STORAGE_DRIVER", &s.Storage.Driver)
	str("SSAI_DATA_DIR", &s.Storage.DataDir)
	str("SSAI_BLOB_DRIVER", &s.Blob.Driver)
	str("SSAI_BLOB_PATH", &s.Blob.Path)
	str("SSAI_HTTP_ADDR", &s.Server.Addr)

	if v, ok := lookup("SSAI_VERBOSE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Logging.Verbose = b
		}
	}
}
