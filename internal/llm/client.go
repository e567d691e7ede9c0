package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxErrorBody bounds how much of a non-stream body is read for an error reason.
const maxErrorBody = 64 << 10

// Message is one entry of the conversation history sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamCallbacks receive the output of one StreamChat call. OnDelta may fire
// any number of times; afterwards exactly one of OnDone or OnError fires.
type StreamCallbacks struct {
	OnDelta func(text string)
	OnDone  func()
	OnError func(err *StreamError)
}

// ChatStreamer defines the contract for the remote chat completion service.
type ChatStreamer interface {
	StreamChat(ctx context.Context, model string, history []Message, cb StreamCallbacks)
}

// Client talks to an OpenAI-compatible chat completion endpoint that streams
// server-sent events.
type Client struct {
	client *http.Client
	url    string
	apiKey string
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		client: &http.Client{},
		url:    url,
		apiKey: apiKey,
	}
}

// StreamChat posts history and delivers the assistant reply incrementally. It
// blocks until the stream ends; callbacks run on the calling goroutine.
func (c *Client) StreamChat(ctx context.Context, model string, history []Message, cb StreamCallbacks) {
	if err := c.stream(ctx, model, history, cb.OnDelta); err != nil {
		var streamErr *StreamError
		if !errors.As(err, &streamErr) {
			streamErr = genericError(err)
		}
		slog.Warn("Chat stream failed", "kind", streamErr.Kind.String(), "status", streamErr.StatusCode, "error", err)
		cb.OnError(streamErr)
		return
	}
	cb.OnDone()
}

func (c *Client) stream(ctx context.Context, model string, history []Message, onDelta func(string)) error {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(history)),
		Stream:   true,
	}
	for _, m := range history {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyStatus(resp.StatusCode, errorReason(bodyBytes))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if reason := errorReason(bodyBytes); reason != "" {
			return &StreamError{Kind: KindGeneric, StatusCode: resp.StatusCode, Reason: reason}
		}
		return &StreamError{Kind: KindGeneric, StatusCode: resp.StatusCode, Reason: "Unexpected response format"}
	}

	if err := readStream(resp.Body, onDelta); err != nil {
		var streamErr *StreamError
		if errors.As(err, &streamErr) {
			streamErr.StatusCode = resp.StatusCode
		}
		return err
	}
	return nil
}

// readStream feeds the body through a recordDecoder until [DONE] or EOF. A
// body that ends without a single data record is not a stream; its text is
// reported as the error reason.
func readStream(body io.Reader, onDelta func(string)) error {
	var dec recordDecoder
	var head []byte
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 && dec.Records() == 0 && len(head) < maxErrorBody {
			head = append(head, buf[:min(n, maxErrorBody-len(head))]...)
		}
		if n > 0 && dec.Feed(buf[:n], onDelta) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			dec.Flush(onDelta)
			if dec.Records() == 0 {
				reason := errorReason(head)
				if reason == "" {
					reason = "Unexpected response format"
				}
				return &StreamError{Kind: KindGeneric, Reason: reason}
			}
			if dec.Skipped() > 0 {
				slog.Debug("Skipped malformed stream records", "count", dec.Skipped(), "error", ErrMalformedRecord)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read stream: %w", err)
		}
	}
}

// errorReason extracts a message from an upstream error body of the form
// {"error": "..."} or {"error": {"message": "..."}}, falling back to the raw text.
func errorReason(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Error) > 0 {
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if json.Valid(body) {
		return ""
	}
	return strings.TrimSpace(string(body))
}
