package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/queue/channel"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/docx"
	"github.com/custodia-labs/sales-support-ai/internal/extractors/plaintext"
	"github.com/custodia-labs/sales-support-ai/internal/postprocessors/chunker"
)

// --- Fakes shared by the service tests ---

// fakeLLM answers prompts with respond and records every prompt it saw.
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond == nil {
		return "", errors.New("no response configured")
	}
	return f.respond(prompt)
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeEmbedding maps text to vectors with respond and records inputs.
type fakeEmbedding struct {
	mu      sync.Mutex
	inputs  []string
	dims    int
	respond func(text string) ([]float32, error)
}

func (f *fakeEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.respond == nil {
		return []float32{1, 0, 0}, nil
	}
	return f.respond(text)
}

func (f *fakeEmbedding) Dimensions() int              { return f.dims }
func (f *fakeEmbedding) ModelName() string            { return "fake-embedding" }
func (f *fakeEmbedding) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedding) Close() error                 { return nil }

func (f *fakeEmbedding) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// fakePrompts serves compact templates that keep the interesting fields
// visible to assertions.
type fakePrompts struct {
	templates map[string]string
}

func newFakePrompts() *fakePrompts {
	return &fakePrompts{templates: map[string]string{
		driven.PromptIdentify:           "IDENTIFY\n{{.Text}}",
		driven.PromptAnalyze:            "ANALYZE {{.Name}}\n{{.Text}}",
		driven.PromptSuggest:            "SUGGEST {{.Count}} {{.Query}}",
		driven.PromptCompare:            "COMPARE {{.Count}}\n{{.Products}}",
		driven.PromptRecommend:          "RECOMMEND\n{{.Products}}\n{{.Answers}}",
		driven.PromptChatRAG:            "{{.History}}RAG\n{{.Snippets}}\nQUESTION {{.Message}}",
		driven.PromptChatConversational: "{{.History}}CONVERSATIONAL {{.Message}}",
		driven.PromptChatNoChunks:       "{{.History}}NO_CHUNKS {{.Message}}",
	}}
}

func (p *fakePrompts) Load(name string) (string, error) {
	t, ok := p.templates[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (p *fakePrompts) Reload() {}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (r *recordingPublisher) Publish(event domain.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) statuses() []domain.DocumentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DocumentStatus, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}

// failingBlobStore fails every Put.
type failingBlobStore struct {
	*memory.BlobStore
}

func (f *failingBlobStore) Put(_ context.Context, _, _ string, _ []byte, _ string) (string, error) {
	return "", errors.New("storage offline")
}

// fullQueue rejects every task.
type fullQueue struct{}

func (fullQueue) Enqueue(_ context.Context, _ domain.StageTask) error { return domain.ErrQueueFull }
func (fullQueue) Tasks() <-chan domain.StageTask                      { return nil }
func (fullQueue) Close() error                                        { return nil }

// --- Pipeline harness ---

// salesLLM answers identification with names and analysis with a record
// naming the product from the prompt.
func salesLLM(names string) *fakeLLM {
	return &fakeLLM{respond: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "IDENTIFY") {
			return names, nil
		}
		name := strings.TrimPrefix(strings.SplitN(prompt, "\n", 2)[0], "ANALYZE ")
		return `{"product_name": "` + name + `", "product_type": "Smartphone", "price": "₹20,000",
			"features": ["5G"], "pros": ["fast"], "cons": [], "analysis_summary": "A phone called ` + name + `"}`, nil
	}}
}

type harness struct {
	docs      *memory.DocumentStore
	entities  *memory.EntityStore
	chunks    *memory.ChunkStore
	blobs     *memory.BlobStore
	queue     *channel.Queue
	llm       *fakeLLM
	embedding *fakeEmbedding
	publisher *recordingPublisher
	pipeline  *IngestionService
	uploads   *UploadService
}

func newHarness(t *testing.T, llm *fakeLLM, embedding *fakeEmbedding) *harness {
	t.Helper()
	h := &harness{
		docs:      memory.NewDocumentStore(),
		entities:  memory.NewEntityStore(),
		chunks:    memory.NewChunkStore(),
		blobs:     memory.NewBlobStore(),
		queue:     channel.New(16),
		llm:       llm,
		embedding: embedding,
		publisher: &recordingPublisher{},
	}
	t.Cleanup(func() { _ = h.queue.Close() })

	var llmService driven.LLMService
	if llm != nil {
		llmService = llm
	}
	var embeddingService driven.EmbeddingService
	if embedding != nil {
		embeddingService = embedding
	}
	prompts := newFakePrompts()

	h.pipeline = NewIngestionService(IngestionDeps{
		Documents:  h.docs,
		Entities:   h.entities,
		Chunks:     h.chunks,
		Blobs:      h.blobs,
		Queue:      h.queue,
		Extraction: NewExtractionService(plaintext.New(), docx.New()),
		Identifier: NewEntityIdentifier(llmService, prompts, 0),
		Analyzer:   NewEntityAnalyzer(llmService, prompts, 0),
		Embedder:   NewEmbedder(embeddingService, 0),
		Chunker:    chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(10)),
		Publisher:  h.publisher,
	})
	h.uploads = NewUploadService(h.docs, h.blobs, h.pipeline, nil, 0)
	return h
}

// drain runs queued stages until the queue is empty.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for {
		select {
		case task := <-h.queue.Tasks():
			err := h.pipeline.RunStage(ctx, task)
			require.NoError(t, err, "stage %s", task.Stage)
		default:
			return
		}
	}
}

func (h *harness) upload(t *testing.T, name, mediaType, content string, dc domain.DocumentContext) *domain.UploadedDocument {
	t.Helper()
	doc, err := h.uploads.Upload(context.Background(), uploadRequest(name, mediaType, content, dc))
	require.NoError(t, err)
	return doc
}

func (h *harness) document(t *testing.T, id string) *domain.UploadedDocument {
	t.Helper()
	doc, err := h.docs.GetDocument(context.Background(), id)
	require.NoError(t, err)
	return doc
}

// seedDocument inserts a document directly in the given state.
func (h *harness) seedDocument(t *testing.T, dc domain.DocumentContext, status domain.DocumentStatus, text *string) *domain.UploadedDocument {
	t.Helper()
	doc := &domain.UploadedDocument{
		ID:            "doc-" + strings.ReplaceAll(t.Name(), "/", "-"),
		Owner:         "owner@example.com",
		Name:          "catalog.txt",
		MediaType:     "text/plain",
		Bucket:        dc.Bucket(),
		Path:          "owner@example.com/1_catalog.txt",
		Context:       dc,
		Status:        status,
		ExtractedText: text,
	}
	require.NoError(t, h.docs.CreateDocument(context.Background(), doc))
	return doc
}
