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
)

// turn accumulates the assistant reply of one Send call. The first delta
// creates the assistant message in the session transcript and later deltas
// update it, as long as the session is still on the epoch the turn began in.
type turn struct {
	svc     *AssistantService
	ctx     context.Context
	epoch   uint64
	convID  string
	text    strings.Builder
	index   int
	updates chan<- model.StreamResponse
}

func (t *turn) add(delta, mode string) {
	t.text.WriteString(delta)

	t.svc.mu.Lock()
	if t.svc.epoch == t.epoch {
		if t.index < 0 {
			t.svc.messages = append(t.svc.messages, model.Message{
				ConversationID: t.convID,
				Role:           model.RoleAssistant,
				Content:        t.text.String(),
				Timestamp:      time.Now().UTC(),
			})
			t.index = len(t.svc.messages) - 1
		} else {
			t.svc.messages[t.index].Content = t.text.String()
		}
	}
	t.svc.mu.Unlock()

	t.emit(model.StreamResponse{ConversationID: t.convID, Content: delta, Mode: mode})
}

// finish persists the accumulated reply once. The write ignores the request's
// cancellation so a reader that went away still gets its answer saved.
func (t *turn) finish(mode string) error {
	ctx := context.WithoutCancel(t.ctx)
	msg, err := t.svc.history.AddMessage(ctx, t.convID, model.RoleAssistant, t.text.String())
	if err != nil {
		slog.Error("Failed to save assistant reply", "conversation_id", t.convID, "error", err)
		t.emit(model.StreamResponse{ConversationID: t.convID, Mode: mode, Done: true})
		t.emit(model.StreamResponse{ConversationID: t.convID, Error: "The reply could not be saved."})
		if !errors.Is(err, app_errors.ErrPersistence) {
			err = fmt.Errorf("%w: %w", app_errors.ErrPersistence, err)
		}
		return fmt.Errorf("could not save assistant reply: %w", err)
	}

	t.svc.mu.Lock()
	if t.svc.epoch == t.epoch {
		if t.index >= 0 {
			t.svc.messages[t.index] = *msg
		} else {
			t.svc.messages = append(t.svc.messages, *msg)
		}
	}
	t.svc.mu.Unlock()

	slog.Info("Assistant reply saved", "conversation_id", t.convID, "message_id", msg.ID, "mode", mode)
	t.emit(model.StreamResponse{ConversationID: t.convID, Mode: mode, Done: true, Message: msg})
	return nil
}

// emit never blocks once the request context is done.
func (t *turn) emit(ev model.StreamResponse) {
	select {
	case t.updates <- ev:
	case <-t.ctx.Done():
	}
}
