package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	app_errors "lifeline/backend/internal/errors"
	"lifeline/backend/internal/interfaces"
	"lifeline/backend/internal/model"
	"lifeline/backend/internal/offline"
	"lifeline/backend/internal/service"

	"github.com/go-chi/chi/v5"
)

// AssistantHandler exposes the live assistant session.
type AssistantHandler struct {
	assistant interfaces.AssistantService
}

func NewAssistantHandler(assistant interfaces.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// GetSession godoc
// @Summary      Current session
// @Description  Returns the active conversation, the assistant state and the in-memory transcript.
// @Tags         Assistant
// @Produce      json
// @Success      200  {object}  model.Session
// @Router       /v1/assistant [get]
func (h *AssistantHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.assistant.Session())
}

// HandleSendMessage godoc
// @Summary      Send a message
// @Description  Runs one assistant turn and streams the reply as server-sent events.
// @Description  Each event carries a delta and its mode (online, offline or fallback); the last one has done=true and the saved message.
// @Tags         Assistant
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      service.SendMessageRequest  true  "Message"
// @Success      200      {object}  model.StreamResponse
// @Failure      429      {object}  ErrorResponse
// @Router       /v1/assistant/messages [post]
func (h *AssistantHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var req service.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	updates := make(chan model.StreamResponse)
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.assistant.Send(r.Context(), &req, updates)
	}()

	clientGone := false
	errorSent := false
	for chunk := range updates {
		if clientGone {
			continue
		}
		if chunk.Error != "" {
			sendStreamError(w, chunk.Error)
			errorSent = true
			continue
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Warn("Client disconnected during stream", "error", err)
			clientGone = true
		}
	}

	if err := <-errCh; err != nil {
		slog.Warn("Assistant turn failed", "error", err)
		if !errorSent && !clientGone && r.Context().Err() == nil {
			_, message := errorStatus(err)
			sendStreamError(w, message)
		}
	}
}

// NewConversation godoc
// @Summary      Start a new conversation
// @Description  Clears the session; the next message creates a new conversation.
// @Tags         Assistant
// @Produce      json
// @Success      200  {object}  model.Session
// @Router       /v1/assistant/new [post]
func (h *AssistantHandler) NewConversation(w http.ResponseWriter, r *http.Request) {
	h.assistant.NewConversation()
	respondWithJSON(w, http.StatusOK, h.assistant.Session())
}

// LoadConversation godoc
// @Summary      Load a conversation
// @Description  Makes a stored conversation the active one.
// @Tags         Assistant
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  model.Session
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/assistant/load/{conversationID} [post]
func (h *AssistantHandler) LoadConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	session, err := h.assistant.LoadConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// OfflineAdvice godoc
// @Summary      Offline advice
// @Description  Answers a query from the built-in survival rules without touching history.
// @Tags         Assistant
// @Accept       json
// @Produce      json
// @Param        request  body      OfflineAdviceRequest  true  "Query"
// @Success      200      {object}  OfflineAdviceResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/assistant/offline [post]
func (h *AssistantHandler) OfflineAdvice(w http.ResponseWriter, r *http.Request) {
	var req OfflineAdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, app_errors.ErrValidation)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, OfflineAdviceResponse{Response: h.assistant.OfflineAdvice(req.Query)})
}

// QuickPrompts godoc
// @Summary      Quick prompts
// @Description  Suggested emergency questions.
// @Tags         Assistant
// @Produce      json
// @Success      200  {array}  offline.QuickPrompt
// @Router       /v1/assistant/prompts [get]
func (h *AssistantHandler) QuickPrompts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, offline.QuickPrompts)
}
