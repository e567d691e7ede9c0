package main

import (
	"os"

	"lifeline/backend/internal/app"
)

// @title           Lifeline Assistant API
// @version         1.0
// @description     Offline-capable survival assistant: conversation history, settings and streamed replies.
// @host            localhost:8000
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
