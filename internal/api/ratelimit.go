package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once limiter runs out of tokens.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				respondWithJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many messages. Please slow down."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
