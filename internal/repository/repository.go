package repository

import (
	"context"
	"time"

	"lifeline/backend/internal/model"
)

// Repository is the persistence boundary for conversations and messages.
// Implementations must keep every stored message attached to an existing
// conversation: AddMessage checks the parent and DeleteConversation removes
// the transcript together with its conversation.
type Repository interface {
	// SaveConversation inserts the conversation or overwrites an existing one.
	SaveConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	// ListConversations returns all conversations, most recently updated first.
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	// TouchConversation sets updated_at and, when title is non-nil, renames.
	TouchConversation(ctx context.Context, id string, title *string, at time.Time) error
	DeleteConversation(ctx context.Context, id string) error

	// AddMessage stores msg and bumps its conversation's updated_at to the
	// message timestamp. It returns ErrNotFound without writing anything when
	// the conversation does not exist.
	AddMessage(ctx context.Context, msg *model.Message) error
	// GetMessages returns the transcript ordered by timestamp, then insertion.
	GetMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	DeleteAll(ctx context.Context) error
	// DeleteOrphanedMessages removes messages whose conversation is gone and
	// reports how many were removed.
	DeleteOrphanedMessages(ctx context.Context) (int, error)
}
