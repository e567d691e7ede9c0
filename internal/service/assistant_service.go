package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	app_errors "lifeline/backend/internal/errors"
	"lifeline/backend/internal/llm"
	"lifeline/backend/internal/model"
	"lifeline/backend/internal/offline"
)

// AssistantState is the orchestrator's position in a turn.
type AssistantState string

const (
	StateIdle              AssistantState = "idle"
	StateSending           AssistantState = "sending"
	StateStreaming         AssistantState = "streaming"
	StateOfflineResponding AssistantState = "offline_responding"
	StateErrorFallback     AssistantState = "error_fallback"
)

const titleLimit = 50

// SendMessageRequest is one user turn. Offline, when set, overrides the
// forced-offline setting and the connectivity probe.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Offline *bool  `json:"offline,omitempty"`
}

// SettingsReader supplies the current assistant settings.
type SettingsReader interface {
	Get(ctx context.Context) (*Settings, error)
}

type AssistantOptions struct {
	// OfflineDelay is the pause before an offline answer is shown.
	OfflineDelay time.Duration
}

// AssistantService drives a single conversation session: it decides between
// the remote model and the offline rules, merges streamed text into the
// in-memory transcript and persists every finished turn.
type AssistantService struct {
	history  *HistoryService
	settings SettingsReader
	chat     llm.ChatStreamer
	probe    llm.ConnectivityChecker
	engine   *offline.Engine
	opts     AssistantOptions

	mu       sync.Mutex
	state    AssistantState
	busy     bool
	epoch    uint64
	activeID string
	messages []model.Message
}

func NewAssistantService(
	history *HistoryService,
	settings SettingsReader,
	chat llm.ChatStreamer,
	probe llm.ConnectivityChecker,
	engine *offline.Engine,
	opts AssistantOptions,
) *AssistantService {
	return &AssistantService{
		history:  history,
		settings: settings,
		chat:     chat,
		probe:    probe,
		engine:   engine,
		opts:     opts,
		state:    StateIdle,
	}
}

// Send runs one turn and reports its progress on updates, which is closed
// when Send returns. Only one turn may be in flight at a time.
func (s *AssistantService) Send(ctx context.Context, req *SendMessageRequest, updates chan<- model.StreamResponse) error {
	defer close(updates)

	text := req.Content
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message cannot be empty", app_errors.ErrValidation)
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return fmt.Errorf("%w: a reply is already in progress", app_errors.ErrConflict)
	}
	s.busy = true
	s.state = StateSending
	epoch := s.epoch
	convID := s.activeID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.state = StateIdle
		s.mu.Unlock()
	}()

	if convID == "" {
		conv, err := s.history.CreateConversation(ctx, conversationTitle(text))
		if err != nil {
			return fmt.Errorf("could not start conversation: %w", err)
		}
		convID = conv.ID
		s.mu.Lock()
		if s.epoch == epoch {
			s.activeID = convID
		}
		s.mu.Unlock()
	}

	userMsg, err := s.history.AddMessage(ctx, convID, model.RoleUser, text)
	if err != nil {
		return fmt.Errorf("could not save user message: %w", err)
	}

	var transcript []model.Message
	s.mu.Lock()
	if s.epoch == epoch {
		s.messages = append(s.messages, *userMsg)
		transcript = append([]model.Message(nil), s.messages...)
	}
	s.mu.Unlock()

	settings := s.currentSettings(ctx)
	t := &turn{svc: s, ctx: ctx, epoch: epoch, convID: convID, index: -1, updates: updates}

	if s.useOffline(ctx, req, settings) {
		return s.answerOffline(t, text)
	}

	if transcript == nil {
		// The session moved on; build the upstream history from storage.
		if transcript, err = s.history.GetMessages(ctx, convID); err != nil {
			slog.Warn("Could not load transcript, sending the last message only", "conversation_id", convID, "error", err)
			transcript = []model.Message{*userMsg}
		}
	}
	return s.answerOnline(t, text, settings, transcript)
}

func (s *AssistantService) answerOffline(t *turn, text string) error {
	s.setState(StateOfflineResponding)
	if s.opts.OfflineDelay > 0 {
		timer := time.NewTimer(s.opts.OfflineDelay)
		select {
		case <-timer.C:
		case <-t.ctx.Done():
			timer.Stop()
		}
	}
	t.add(s.engine.Match(text), model.ModeOffline)
	return t.finish(model.ModeOffline)
}

func (s *AssistantService) answerOnline(t *turn, text string, settings *Settings, transcript []model.Message) error {
	s.setState(StateStreaming)

	history := make([]llm.Message, 0, len(transcript)+1)
	if settings.SystemPrompt != "" {
		history = append(history, llm.Message{Role: "system", Content: settings.SystemPrompt})
	}
	for _, m := range transcript {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	var streamErr *llm.StreamError
	s.chat.StreamChat(t.ctx, settings.Model, history, llm.StreamCallbacks{
		OnDelta: func(delta string) { t.add(delta, model.ModeOnline) },
		OnDone:  func() {},
		OnError: func(err *llm.StreamError) { streamErr = err },
	})

	if streamErr == nil {
		return t.finish(model.ModeOnline)
	}

	if t.ctx.Err() != nil {
		slog.Info("Turn cancelled by client, keeping partial reply", "conversation_id", t.convID, "chars", t.text.Len())
		return t.finish(model.ModeOnline)
	}

	s.setState(StateErrorFallback)
	slog.Warn("Remote reply failed, switching to offline advice", "conversation_id", t.convID, "kind", streamErr.Kind.String(), "error", streamErr)
	fallback := fmt.Sprintf("⚠️ %s\n\nSwitching to offline mode:\n\n%s", streamErr.Error(), s.engine.Match(text))
	if t.text.Len() > 0 {
		fallback = "\n\n" + fallback
	}
	s.setState(StateOfflineResponding)
	t.add(fallback, model.ModeFallback)
	return t.finish(model.ModeFallback)
}

// NewConversation detaches the session from the active conversation.
func (s *AssistantService) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset("")
}

// LoadConversation replaces the in-memory transcript with the stored one.
func (s *AssistantService) LoadConversation(ctx context.Context, id string) (*model.Session, error) {
	full, err := s.history.GetFullConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(id)
	s.messages = full.Messages
	return s.snapshot(), nil
}

// DeleteConversation deletes from storage and clears the session if it was
// showing the deleted conversation.
func (s *AssistantService) DeleteConversation(ctx context.Context, id string) error {
	if err := s.history.DeleteConversation(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == id {
		s.reset("")
	}
	return nil
}

// ClearHistory removes every stored conversation and clears the session.
func (s *AssistantService) ClearHistory(ctx context.Context) error {
	if err := s.history.ClearAllHistory(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset("")
	return nil
}

func (s *AssistantService) Session() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// OfflineAdvice answers query from the offline rules.
func (s *AssistantService) OfflineAdvice(query string) string {
	return s.engine.Match(query)
}

// reset must be called with mu held. Bumping the epoch stops an in-flight
// turn from writing into the new transcript.
func (s *AssistantService) reset(activeID string) {
	s.epoch++
	s.activeID = activeID
	s.messages = nil
}

// snapshot must be called with mu held.
func (s *AssistantService) snapshot() *model.Session {
	messages := make([]model.Message, len(s.messages))
	copy(messages, s.messages)
	return &model.Session{
		ConversationID: s.activeID,
		State:          string(s.state),
		Messages:       messages,
	}
}

func (s *AssistantService) setState(state AssistantState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *AssistantService) currentSettings(ctx context.Context) *Settings {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		slog.Warn("Could not read settings, using upstream defaults", "error", err)
		return &Settings{}
	}
	return settings
}

func (s *AssistantService) useOffline(ctx context.Context, req *SendMessageRequest, settings *Settings) bool {
	if req.Offline != nil {
		return *req.Offline
	}
	if settings.ForceOffline {
		return true
	}
	return !s.probe.IsOnline(ctx)
}

// conversationTitle uses the first 50 characters of the opening message.
func conversationTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit]) + "..."
}
