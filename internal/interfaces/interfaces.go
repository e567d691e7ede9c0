package interfaces

import (
	"context"

	"lifeline/backend/internal/model"
	"lifeline/backend/internal/service"
)

// This file defines the interfaces for our core services. The API layer
// depends on these instead of the concrete services so handlers can be
// tested against mocks.

// HistoryService defines the contract for the conversation store.
type HistoryService interface {
	CreateConversation(ctx context.Context, title string) (*model.Conversation, error)
	GetConversations(ctx context.Context) ([]model.Conversation, error)
	GetFullConversation(ctx context.Context, id string) (*model.FullConversation, error)
	UpdateConversation(ctx context.Context, id string, title *string) error
	PurgeOrphanedMessages(ctx context.Context) (int, error)
}

// AssistantService defines the contract for the conversational assistant.
// Conversation deletion goes through it so the live session is cleared too.
type AssistantService interface {
	Send(ctx context.Context, req *service.SendMessageRequest, updates chan<- model.StreamResponse) error
	NewConversation()
	LoadConversation(ctx context.Context, id string) (*model.Session, error)
	DeleteConversation(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
	Session() *model.Session
	OfflineAdvice(query string) string
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	InitAndGet(ctx context.Context) (*service.Settings, error)
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}
