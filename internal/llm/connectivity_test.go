package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProbe_CachesResultForTTL(t *testing.T) {
	// ARRANGE
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	probe := NewHTTPProbe(server.URL, time.Second, time.Minute)
	probe.now = func() time.Time { return now }

	// ACT & ASSERT
	assert.True(t, probe.IsOnline(context.Background()))
	assert.True(t, probe.IsOnline(context.Background()))
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(2 * time.Minute)
	assert.True(t, probe.IsOnline(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPProbe_ErrorStatusStillCountsAsOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	probe := NewHTTPProbe(server.URL, time.Second, 0)

	assert.True(t, probe.IsOnline(context.Background()))
}

func TestHTTPProbe_UnreachableIsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	probe := NewHTTPProbe(url, time.Second, 0)

	assert.False(t, probe.IsOnline(context.Background()))
}

func TestHTTPProbe_InvalidURLIsOffline(t *testing.T) {
	probe := NewHTTPProbe("://bad", time.Second, time.Minute)

	assert.False(t, probe.IsOnline(context.Background()))
}

// blockingServer answers only after release is closed.
func blockingServer(t *testing.T, hits *atomic.Int32) (*httptest.Server, chan struct{}) {
	t.Helper()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	return server, release
}

func TestHTTPProbe_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	// ARRANGE
	var hits atomic.Int32
	server, release := blockingServer(t, &hits)
	defer server.Close()
	probe := NewHTTPProbe(server.URL, 5*time.Second, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ACT & ASSERT
	assert.False(t, probe.IsOnline(ctx), "a caller that went away gets no answer")

	close(release)
	assert.True(t, probe.IsOnline(context.Background()))
	assert.True(t, probe.IsOnline(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPProbe_CallersAreNotHeldBehindSlowProbe(t *testing.T) {
	// ARRANGE
	var hits atomic.Int32
	server, release := blockingServer(t, &hits)
	defer server.Close()
	defer close(release)
	probe := NewHTTPProbe(server.URL, 5*time.Second, time.Minute)

	go probe.IsOnline(context.Background())
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	// ACT
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	online := probe.IsOnline(ctx)

	// ASSERT
	assert.False(t, online)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), hits.Load(), "waiting callers join the request in flight")
}
