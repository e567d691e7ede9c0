package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	app_errors "lifeline/backend/internal/errors"
	"lifeline/backend/internal/interfaces"

	"github.com/go-chi/chi/v5"
)

// ConversationHandler serves the stored conversation history.
type ConversationHandler struct {
	history   interfaces.HistoryService
	assistant interfaces.AssistantService
}

func NewConversationHandler(history interfaces.HistoryService, assistant interfaces.AssistantService) *ConversationHandler {
	return &ConversationHandler{history: history, assistant: assistant}
}

// GetConversations godoc
// @Summary      List conversations
// @Description  Returns every stored conversation, most recently active first.
// @Tags         Conversations
// @Produce      json
// @Success      200  {array}   model.Conversation
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [get]
func (h *ConversationHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.history.GetConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conversations)
}

// CreateConversation godoc
// @Summary      Create a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        request  body      CreateConversationRequest  true  "Title"
// @Success      201      {object}  model.Conversation
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /v1/conversations [post]
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, app_errors.ErrValidation)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	conv, err := h.history.CreateConversation(r.Context(), req.Title)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, conv)
}

// GetConversation godoc
// @Summary      Get a conversation
// @Description  Returns the conversation metadata and its transcript in chronological order.
// @Tags         Conversations
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  model.FullConversation
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [get]
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	full, err := h.history.GetFullConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, full)
}

// UpdateConversationTitle godoc
// @Summary      Rename a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        conversationID  path      string              true  "Conversation ID"
// @Param        request         body      UpdateTitleRequest  true  "New title"
// @Success      200             {object}  StatusResponse
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID}/title [put]
func (h *ConversationHandler) UpdateConversationTitle(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, app_errors.ErrValidation)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.history.UpdateConversation(r.Context(), conversationID, &req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DeleteConversation godoc
// @Summary      Delete a conversation
// @Description  Deletes the conversation and all of its messages.
// @Tags         Conversations
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  StatusResponse
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [delete]
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if err := h.assistant.DeleteConversation(r.Context(), conversationID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// ClearConversations godoc
// @Summary      Clear all history
// @Tags         Conversations
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [delete]
func (h *ConversationHandler) ClearConversations(w http.ResponseWriter, r *http.Request) {
	if err := h.assistant.ClearHistory(r.Context()); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// PurgeOrphanedMessages godoc
// @Summary      Remove orphaned messages
// @Description  Deletes messages whose conversation no longer exists.
// @Tags         Conversations
// @Produce      json
// @Success      200  {object}  PurgeResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations/orphans/purge [post]
func (h *ConversationHandler) PurgeOrphanedMessages(w http.ResponseWriter, r *http.Request) {
	n, err := h.history.PurgeOrphanedMessages(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Orphan sweep finished", "removed", n)
	respondWithJSON(w, http.StatusOK, PurgeResponse{Removed: n})
}
