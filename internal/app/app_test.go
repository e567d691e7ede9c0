package app

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/backend/internal/config"
	"lifeline/backend/internal/model"
)

// newUpstream fakes the chat completion endpoint. HEAD requests answer the
// connectivity probe.
func newUpstream(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":` + c + `}}]}` + "\n\n"))
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, upstreamURL string) *config.Config {
	return &config.Config{
		AppPort:              8000,
		DatabasePath:         filepath.Join(t.TempDir(), "data", "lifeline.db"),
		LogLevel:             "DEBUG",
		StorageDriver:        config.StorageSQLite,
		ChatAPIURL:           upstreamURL,
		ChatModel:            "test-model",
		InitialSystemPrompt:  "Be brief.",
		ConnectivityTimeout:  time.Second,
		ConnectivityCacheTTL: 0,
	}
}

// readEvents collects the data payloads of an SSE body; error events are
// returned separately.
func readEvents(t *testing.T, body io.Reader) (events []model.StreamResponse, errs []string) {
	t.Helper()
	scanner := bufio.NewScanner(body)
	isError := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: error":
			isError = true
		case strings.HasPrefix(line, "data: "):
			payload := strings.TrimPrefix(line, "data: ")
			if isError {
				var e struct {
					Error string `json:"error"`
				}
				require.NoError(t, json.Unmarshal([]byte(payload), &e))
				errs = append(errs, e.Error)
				isError = false
				continue
			}
			var ev model.StreamResponse
			require.NoError(t, json.Unmarshal([]byte(payload), &ev))
			events = append(events, ev)
		}
	}
	require.NoError(t, scanner.Err())
	return events, errs
}

func postMessage(t *testing.T, baseURL, body string) (events []model.StreamResponse, errs []string) {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/v1/assistant/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return readEvents(t, resp.Body)
}

func TestNewApp(t *testing.T) {
	upstream := newUpstream(t)
	cfg := testConfig(t, upstream.URL)

	app, err := NewApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	defer func() { require.NoError(t, app.Close()) }()

	assert.NotNil(t, app.DB)
	assert.Nil(t, app.Redis)
	assert.NotNil(t, app.Server)
	assert.Equal(t, ":8000", app.Server.Addr)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.StorageDriver = config.StorageRedis
	cfg.RedisAddr = "127.0.0.1:1"

	app, err := NewApp(cfg)

	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "redis")
}

func TestApp_OnlineTurnEndToEnd(t *testing.T) {
	testCases := []struct {
		name   string
		driver string
	}{
		{name: "sqlite", driver: config.StorageSQLite},
		{name: "redis", driver: config.StorageRedis},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// ARRANGE
			upstream := newUpstream(t, `"Stay "`, `"calm."`)
			cfg := testConfig(t, upstream.URL)
			cfg.StorageDriver = tc.driver
			if tc.driver == config.StorageRedis {
				cfg.RedisAddr = miniredis.RunT(t).Addr()
				cfg.RedisPrefix = "test:"
			}

			app, err := NewApp(cfg)
			require.NoError(t, err)
			defer func() { require.NoError(t, app.Close()) }()
			server := httptest.NewServer(app.Server.Handler)
			defer server.Close()

			// ACT
			events, errs := postMessage(t, server.URL, `{"content":"I am lost in the woods"}`)

			// ASSERT
			require.Empty(t, errs)
			require.Len(t, events, 3)
			assert.Equal(t, "Stay ", events[0].Content)
			assert.Equal(t, model.ModeOnline, events[0].Mode)
			assert.Equal(t, "calm.", events[1].Content)
			last := events[2]
			assert.True(t, last.Done)
			require.NotNil(t, last.Message)
			assert.Equal(t, "Stay calm.", last.Message.Content)
			assert.Equal(t, model.RoleAssistant, last.Message.Role)

			resp, err := http.Get(server.URL + "/api/v1/conversations/" + last.ConversationID)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var full model.FullConversation
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&full))
			assert.Equal(t, "I am lost in the woods", full.Title)
			require.Len(t, full.Messages, 2)
			assert.Equal(t, model.RoleUser, full.Messages[0].Role)
			assert.Equal(t, "Stay calm.", full.Messages[1].Content)
		})
	}
}

func TestApp_OfflineHintSkipsUpstream(t *testing.T) {
	var called atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			called.Store(true)
		}
	}))
	defer upstream.Close()

	app, err := NewApp(testConfig(t, upstream.URL))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()
	server := httptest.NewServer(app.Server.Handler)
	defer server.Close()

	events, errs := postMessage(t, server.URL, `{"content":"I'm bleeding badly","offline":true}`)

	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, model.ModeOffline, events[0].Mode)
	assert.NotEmpty(t, events[0].Content)
	assert.True(t, events[1].Done)
	assert.False(t, called.Load())
}

func TestApp_UpstreamFailureFallsBackToOfflineAdvice(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer upstream.Close()

	app, err := NewApp(testConfig(t, upstream.URL))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()
	server := httptest.NewServer(app.Server.Handler)
	defer server.Close()

	events, errs := postMessage(t, server.URL, `{"content":"how do I find water"}`)

	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, model.ModeFallback, events[0].Mode)
	assert.True(t, strings.HasPrefix(events[0].Content, "⚠️ Rate limit exceeded. Please try again in a moment.\n\nSwitching to offline mode:\n\n"))
	assert.Equal(t, model.ModeFallback, events[1].Mode)
	require.NotNil(t, events[1].Message)
	assert.Equal(t, events[0].Content, events[1].Message.Content)
}

func TestApp_EmptyMessageIsReportedAsStreamError(t *testing.T) {
	upstream := newUpstream(t)
	app, err := NewApp(testConfig(t, upstream.URL))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()
	server := httptest.NewServer(app.Server.Handler)
	defer server.Close()

	events, errs := postMessage(t, server.URL, `{"content":"   "}`)

	assert.Empty(t, events)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "message cannot be empty")
}

func TestApp_HealthAndSettings(t *testing.T) {
	upstream := newUpstream(t)
	app, err := NewApp(testConfig(t, upstream.URL))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()
	server := httptest.NewServer(app.Server.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/v1/settings")
	require.NoError(t, err)
	defer resp.Body.Close()
	var settings struct {
		SystemPrompt string `json:"system_prompt"`
		Model        string `json:"model"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))
	assert.Equal(t, "test-model", settings.Model)
	assert.Equal(t, "Be brief.", settings.SystemPrompt)
}

func TestApp_NonStreamErrorBodyFallsBackToOfflineAdvice(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			return
		}
		_, _ = w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer upstream.Close()

	app, err := NewApp(testConfig(t, upstream.URL))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()
	server := httptest.NewServer(app.Server.Handler)
	defer server.Close()

	events, errs := postMessage(t, server.URL, `{"content":"how do I find water"}`)

	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, model.ModeFallback, events[0].Mode)
	assert.True(t, strings.HasPrefix(events[0].Content, "⚠️ model overloaded\n\nSwitching to offline mode:\n\n"))
	require.NotNil(t, events[1].Message)
	assert.NotEmpty(t, events[1].Message.Content)
}
