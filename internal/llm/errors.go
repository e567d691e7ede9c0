package llm

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks a data record whose JSON payload could not be
// decoded even after the stream ended. Such records are skipped.
var ErrMalformedRecord = errors.New("llm: malformed stream record")

// ErrorKind classifies a failed chat stream.
type ErrorKind int

const (
	// KindGeneric covers transport failures, unexpected statuses and bodies.
	KindGeneric ErrorKind = iota
	// KindRateLimited is reported for HTTP 429.
	KindRateLimited
	// KindQuotaExhausted is reported for HTTP 402.
	KindQuotaExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExhausted:
		return "quota_exhausted"
	default:
		return "generic"
	}
}

// StreamError is the only error type delivered to StreamCallbacks.OnError.
// Error returns a message suitable for showing to the user.
type StreamError struct {
	Kind       ErrorKind
	StatusCode int
	Reason     string
	Err        error
}

func (e *StreamError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return "Rate limit exceeded. Please try again in a moment."
	case KindQuotaExhausted:
		return "AI service credits exhausted. Using offline mode."
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Failed to connect to AI assistant"
}

func (e *StreamError) Unwrap() error { return e.Err }

// classifyStatus builds the error for a non-2xx upstream response.
func classifyStatus(status int, reason string) *StreamError {
	switch status {
	case 429:
		return &StreamError{Kind: KindRateLimited, StatusCode: status, Reason: reason}
	case 402:
		return &StreamError{Kind: KindQuotaExhausted, StatusCode: status, Reason: reason}
	}
	if reason == "" {
		reason = fmt.Sprintf("AI service returned status %d", status)
	}
	return &StreamError{Kind: KindGeneric, StatusCode: status, Reason: reason}
}

func genericError(err error) *StreamError {
	return &StreamError{Kind: KindGeneric, Err: err}
}
