package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	app_errors "lifeline/backend/internal/errors"
	"lifeline/backend/internal/model"
	"lifeline/backend/internal/repository"

	"github.com/google/uuid"
)

// HistoryService is the conversation store. It owns id generation and the
// clock, and translates repository failures into domain errors: a missing
// conversation becomes ErrNotFound and anything else ErrPersistence.
type HistoryService struct {
	repo  repository.Repository
	clock *monotonicClock
}

func NewHistoryService(repo repository.Repository) *HistoryService {
	return &HistoryService{repo: repo, clock: newMonotonicClock(time.Now)}
}

// CreateConversation stores a new conversation with created_at = updated_at.
func (s *HistoryService) CreateConversation(ctx context.Context, title string) (*model.Conversation, error) {
	now := s.clock.Now()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveConversation(ctx, conv); err != nil {
		return nil, translate(err, "could not create conversation")
	}
	slog.Info("Conversation created", "conversation_id", conv.ID)
	return conv, nil
}

// GetConversations lists conversations, most recently updated first.
func (s *HistoryService) GetConversations(ctx context.Context) ([]model.Conversation, error) {
	convs, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, translate(err, "could not list conversations")
	}
	return convs, nil
}

func (s *HistoryService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, translate(err, "could not get conversation "+id)
	}
	return conv, nil
}

// GetFullConversation retrieves a conversation's metadata and its transcript.
func (s *HistoryService) GetFullConversation(ctx context.Context, id string) (*model.FullConversation, error) {
	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.GetMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.FullConversation{Conversation: *conv, Messages: messages}, nil
}

// UpdateConversation refreshes updated_at and renames when title is non-nil.
func (s *HistoryService) UpdateConversation(ctx context.Context, id string, title *string) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	if err := s.repo.TouchConversation(ctx, id, title, s.clock.Now()); err != nil {
		return translate(err, "could not update conversation "+id)
	}
	return nil
}

// DeleteConversation removes the conversation together with its messages.
func (s *HistoryService) DeleteConversation(ctx context.Context, id string) error {
	if err := s.repo.DeleteConversation(ctx, id); err != nil {
		return translate(err, "could not delete conversation "+id)
	}
	slog.Info("Conversation deleted", "conversation_id", id)
	return nil
}

// AddMessage appends a message and bumps the conversation's updated_at to the
// message timestamp. Nothing is written when the conversation does not exist.
func (s *HistoryService) AddMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", app_errors.ErrValidation, role)
	}
	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      s.clock.Now(),
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, translate(err, "could not add message to conversation "+conversationID)
	}
	return msg, nil
}

// GetMessages returns the transcript in chronological order.
func (s *HistoryService) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, translate(err, "could not get messages for conversation "+conversationID)
	}
	return messages, nil
}

func (s *HistoryService) ClearAllHistory(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return translate(err, "could not clear history")
	}
	slog.Info("All conversation history cleared")
	return nil
}

// PurgeOrphanedMessages removes messages left without a conversation.
func (s *HistoryService) PurgeOrphanedMessages(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteOrphanedMessages(ctx)
	if err != nil {
		return 0, translate(err, "could not purge orphaned messages")
	}
	if n > 0 {
		slog.Warn("Purged orphaned messages", "count", n)
	}
	return n, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, app_errors.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", msg, app_errors.ErrPersistence, err)
}
