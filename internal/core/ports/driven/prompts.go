package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use Go text/template syntax.
const (
	// PromptIdentify lists the products in a document.
	// Fields: .Text
	PromptIdentify = "identify"

	// PromptAnalyze produces the structured record for one product.
	// Fields: .Name, .Text
	PromptAnalyze = "analyze"

	// PromptSuggest answers a catalog query without a document scope.
	// Fields: .Query, .Count
	PromptSuggest = "suggest"

	// PromptCompare writes questions that separate a set of products.
	// Fields: .Products, .Count
	PromptCompare = "compare"

	// PromptRecommend picks one product from a shopper's answers.
	// Fields: .Products, .Answers
	PromptRecommend = "recommend"

	// PromptChatRAG answers from retrieved snippets.
	// Fields: .History, .Message, .Snippets
	PromptChatRAG = "chat_rag"

	// PromptChatConversational answers small talk.
	// Fields: .History, .Message
	PromptChatConversational = "chat_conversational"

	// PromptChatNoChunks answers when retrieval found nothing.
	// Fields: .History, .Message
	PromptChatNoChunks = "chat_no_chunks"
)
