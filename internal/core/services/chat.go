package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

var chatOptions = driven.GenerateOptions{Temperature: 0.7, MaxTokens: 2048}

const fallbackAnswer = "I apologize, I encountered an issue generating a response. Please try again."

var (
	conversationalPhrases = []string{
		"hello", "hi", "hey", "greetings", "good morning", "good afternoon", "good evening", "sup", "yo",
		"how are you", "how are you doing", "hows it going", "how's it going", "what's up", "whats up",
		"thank you", "thanks", "thank u", "thx", "appreciated",
		"ok", "okay", "sounds good", "got it", "great", "cool", "alright", "sure",
	}
	inquiryKeywords = []string{
		"help", "issue", "fix", "problem", "error", "how to", "what is", "can you", "explain",
		"tell me about", "i need to", "document", "support", "unable",
	}
	smallTalkQuestions = []string{
		"how are you", "how are you doing", "hows it going", "how's it going", "what's up", "whats up",
	}
)

// IsConversational reports whether message is small talk that needs no
// document retrieval. Phrases match on word boundaries so that "this" does
// not count as "hi".
func IsConversational(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	words := " " + strings.Join(strings.FieldsFunc(normalized, isWordBreak), " ") + " "

	conversational := false
	for _, phrase := range conversationalPhrases {
		if strings.Contains(words, " "+phrase+" ") {
			conversational = true
			break
		}
	}
	if !conversational {
		return false
	}

	inquiry := strings.Contains(normalized, "?")
	for _, kw := range inquiryKeywords {
		if strings.Contains(normalized, kw) {
			inquiry = true
			break
		}
	}
	if !inquiry {
		return true
	}

	for _, q := range smallTalkQuestions {
		if strings.HasPrefix(normalized, q) {
			return true
		}
	}
	return false
}

func isWordBreak(r rune) bool {
	return !(r == '\'' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
}

// FormatHistory renders turns as "User:" and "AI:" lines followed by a
// blank line, or "" when there is no history.
func FormatHistory(history []domain.ChatTurn) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		label := "AI"
		if turn.Role == domain.RoleUser {
			label = "User"
		}
		lines = append(lines, label+": "+turn.Text)
	}
	return strings.Join(lines, "\n") + "\n\n"
}

// ChatService answers support questions from embedded support chunks.
type ChatService struct {
	chunks   driven.ChunkStore
	embedder *Embedder
	llm      driven.LLMService
	prompts  driven.PromptStore
	cfg      domain.RetrievalSettings
}

// NewChatService creates a chat service. Zero settings fall back to the defaults.
func NewChatService(
	chunks driven.ChunkStore,
	embedder *Embedder,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg domain.RetrievalSettings,
) *ChatService {
	return &ChatService{
		chunks:   chunks,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		cfg:      withRetrievalDefaults(cfg),
	}
}

// Chat answers message. Only the last few history turns are used.
func (s *ChatService) Chat(ctx context.Context, message string, history []domain.ChatTurn) (*domain.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required: %w", domain.ErrInvalidInput)
	}
	if len(history) > s.cfg.ChatHistory {
		history = history[len(history)-s.cfg.ChatHistory:]
	}
	if s.llm == nil {
		return &domain.ChatReply{Error: domain.ErrLLMUnavailable.Error()}, nil
	}

	data := map[string]any{
		"History": FormatHistory(history),
		"Message": message,
	}

	reply := &domain.ChatReply{}
	name := driven.PromptChatConversational

	if IsConversational(message) {
		logger.Debug("Chat: conversational message, skipping retrieval")
	} else {
		reply.UsedRetrieval = true
		matches, errMsg := s.retrieve(ctx, message)
		if errMsg != "" {
			reply.Error = errMsg
			return reply, nil
		}

		if len(matches) == 0 {
			name = driven.PromptChatNoChunks
		} else {
			name = driven.PromptChatRAG
			snippets := make([]string, len(matches))
			for i, m := range matches {
				snippets[i] = fmt.Sprintf("Snippet %d:\n%s", i+1, m.Chunk.Text)
				reply.Sources = append(reply.Sources, domain.ChatSource{
					ChunkID:    m.Chunk.ID,
					DocumentID: m.Chunk.DocumentID,
					Similarity: m.Similarity,
				})
			}
			data["Snippets"] = strings.Join(snippets, "\n\n---\n\n")
		}
	}

	prompt, err := renderPrompt(s.prompts, name, data)
	if err != nil {
		reply.Error = err.Error()
		return reply, nil
	}

	answer, err := s.llm.Generate(ctx, prompt, chatOptions)
	if err != nil {
		logger.Error("Chat: model call failed: %v", err)
		reply.Error = fmt.Sprintf("Failed to generate a response: %v", err)
		return reply, nil
	}
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}
	reply.Answer = answer
	return reply, nil
}

func (s *ChatService) retrieve(ctx context.Context, message string) ([]domain.ChunkMatch, string) {
	if !s.embedder.Available() {
		return nil, "Failed to process your query (embedding unavailable)."
	}
	vector, err := s.embedder.Embed(ctx, message)
	if err != nil {
		logger.Warn("Chat: query embedding failed: %v", err)
		return nil, "Failed to process your query (embedding failed)."
	}
	if vector == nil {
		return nil, "Failed to process your query (empty embedding)."
	}

	matches, err := s.chunks.MatchChunks(ctx, domain.VectorQuery{
		Vector:    vector,
		Threshold: s.cfg.ChatThreshold,
		Limit:     s.cfg.ChatChunks,
	})
	if err != nil {
		logger.Error("Chat: chunk search failed: %v", err)
		return nil, "Failed to search relevant documents."
	}
	logger.Debug("Chat: %d relevant chunks", len(matches))
	return matches, ""
}
