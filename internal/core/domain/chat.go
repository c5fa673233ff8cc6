package domain

// ChatRole identifies the speaker of a conversation turn.
type ChatRole string

// Conversation roles.
const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "model"
)

// ChatTurn is one message of conversation history.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatSource is a chunk that grounded a chat answer.
type ChatSource struct {
	ChunkID    string  `json:"chunkId"`
	DocumentID string  `json:"documentId"`
	Similarity float64 `json:"similarity"`
}

// ChatReply is the assistant's answer. Error is set instead of failing the
// call when retrieval or generation could not complete.
type ChatReply struct {
	Answer        string       `json:"answer,omitempty"`
	UsedRetrieval bool         `json:"usedRetrieval"`
	Sources       []ChatSource `json:"sources,omitempty"`
	Error         string       `json:"error,omitempty"`
}
