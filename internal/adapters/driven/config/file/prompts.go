package file

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt
var defaultPrompts embed.FS

const promptReadme = `# Prompts

Each file is a Go text/template rendered before a model call. Delete a file
to restore its default on the next start. A file that does not parse as a
template is ignored and the default is used instead.

| File | Fields |
|------|--------|
| identify.txt | .Text |
| analyze.txt | .Name, .Text |
| suggest.txt | .Query, .Count |
| compare.txt | .Products, .Count |
| recommend.txt | .Products, .Answers |
| chat_rag.txt | .History, .Message, .Snippets |
| chat_conversational.txt | .History, .Message |
| chat_no_chunks.txt | .History, .Message |

Identification must still return a JSON array. Every other prompt must
return a JSON object.
`

// PromptStore serves prompt templates from a directory of user-editable
// files. On first use the directory is seeded with the embedded defaults;
// existing files are never overwritten.
type PromptStore struct {
	dir string

	seed    sync.Once
	seedErr error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir, or ~/.ssai/prompts
// when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// PromptNames lists every prompt the services render.
func PromptNames() []string {
	return []string{
		driven.PromptIdentify,
		driven.PromptAnalyze,
		driven.PromptSuggest,
		driven.PromptCompare,
		driven.PromptRecommend,
		driven.PromptChatRAG,
		driven.PromptChatConversational,
		driven.PromptChatNoChunks,
	}
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultPrompts.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Load returns the template for name. The user's file wins when it is
// non-empty and parses; otherwise the embedded default is returned.
// Results are cached until Reload.
func (s *PromptStore) Load(name string) (string, error) {
	s.seed.Do(s.seedDefaults)

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	def, known := DefaultPrompt(name)
	prompt, err := s.readUserPrompt(name)
	switch {
	case err == nil:
	case known:
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, errEmptyPrompt) {
			logger.Warn("prompt %s: %v; using built-in default", name, err)
		}
		prompt = def
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		prompt = existing
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached templates so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

var errEmptyPrompt = errors.New("prompt file is empty")

func (s *PromptStore) readUserPrompt(name string) (string, error) {
	if s.seedErr != nil {
		return "", s.seedErr
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errEmptyPrompt
	}
	if _, err := template.New(name).Parse(prompt); err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}
	return prompt, nil
}

// seedDefaults writes missing default files and the README. A failure is
// remembered and every Load then serves the embedded defaults.
func (s *PromptStore) seedDefaults() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for _, name := range PromptNames() {
		content, _ := DefaultPrompt(name)
		files[name+".txt"] = content + "\n"
	}
	for file, content := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", file, err)
			return
		}
	}
}
