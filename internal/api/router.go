package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "lifeline/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

// NewRouter creates and configures a new chi router with all the application's routes.
// submitLimiter throttles message submission; nil disables the limit.
func NewRouter(
	conversationHandler *ConversationHandler,
	assistantHandler *AssistantHandler,
	settingsHandler *SettingsHandler,
	submitLimiter *rate.Limiter,
) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- Public Routes ---
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Plain JSON routes get a request timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Settings ---
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)

			// --- Conversations ---
			r.Get("/conversations", conversationHandler.GetConversations)
			r.Post("/conversations", conversationHandler.CreateConversation)
			r.Delete("/conversations", conversationHandler.ClearConversations)
			r.Post("/conversations/orphans/purge", conversationHandler.PurgeOrphanedMessages)
			r.Get("/conversations/{conversationID}", conversationHandler.GetConversation)
			r.Delete("/conversations/{conversationID}", conversationHandler.DeleteConversation)
			r.Put("/conversations/{conversationID}/title", conversationHandler.UpdateConversationTitle)

			// --- Assistant ---
			r.Get("/assistant", assistantHandler.GetSession)
			r.Post("/assistant/new", assistantHandler.NewConversation)
			r.Post("/assistant/load/{conversationID}", assistantHandler.LoadConversation)
			r.Post("/assistant/offline", assistantHandler.OfflineAdvice)
			r.Get("/assistant/prompts", assistantHandler.QuickPrompts)
		})

		// Streaming routes must NOT have a timeout, the reply can take a while.
		r.Group(func(r chi.Router) {
			if submitLimiter != nil {
				r.Use(RateLimit(submitLimiter))
			}
			r.Post("/assistant/messages", assistantHandler.HandleSendMessage)
		})
	})

	return r
}
