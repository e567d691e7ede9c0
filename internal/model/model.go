package model

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles a message may carry.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation stores metadata about a chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message stores a single message in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// FullConversation includes the conversation metadata and its transcript.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Reply modes reported on stream events.
const (
	ModeOnline   = "online"
	ModeOffline  = "offline"
	ModeFallback = "fallback"
)

// StreamResponse is a single event of a streamed assistant turn.
type StreamResponse struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	Content        string   `json:"content"`
	Mode           string   `json:"mode,omitempty"`
	Done           bool     `json:"done"`
	Error          string   `json:"error,omitempty"`
	Message        *Message `json:"message,omitempty"`
}

// Session is a snapshot of the assistant's in-memory conversation state.
type Session struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	State          string    `json:"state"`
	Messages       []Message `json:"messages"`
}
