package llm

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConnectivityChecker decides whether the remote model is worth calling.
type ConnectivityChecker interface {
	IsOnline(ctx context.Context) bool
}

// HTTPProbe considers the service online when the probe URL answers with any
// HTTP response. Results are cached for ttl. Concurrent callers share one
// in-flight request, which is bounded by the client timeout rather than by
// any single caller's context.
type HTTPProbe struct {
	client *http.Client
	url    string
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu        sync.Mutex
	checkedAt time.Time
	online    bool
	checked   bool
}

func NewHTTPProbe(url string, timeout, ttl time.Duration) *HTTPProbe {
	return &HTTPProbe{
		client: &http.Client{Timeout: timeout},
		url:    url,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IsOnline returns the cached result or waits for a HEAD request. A caller
// whose context ends first gets false; the cache is left to the request.
func (p *HTTPProbe) IsOnline(ctx context.Context) bool {
	p.mu.Lock()
	if p.checked && p.now().Sub(p.checkedAt) < p.ttl {
		online := p.online
		p.mu.Unlock()
		return online
	}
	p.mu.Unlock()

	result := p.group.DoChan("probe", func() (interface{}, error) {
		online := p.probe(context.WithoutCancel(ctx))
		p.store(online)
		return online, nil
	})

	select {
	case res := <-result:
		return res.Val.(bool)
	case <-ctx.Done():
		slog.Debug("Connectivity check abandoned by caller", "url", p.url, "error", ctx.Err())
		return false
	}
}

func (p *HTTPProbe) store(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checked || online != p.online {
		slog.Info("Connectivity changed", "online", online, "url", p.url)
	}
	p.online = online
	p.checked = true
	p.checkedAt = p.now()
}

func (p *HTTPProbe) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		slog.Warn("Could not build connectivity probe request", "url", p.url, "error", err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("Connectivity probe failed", "url", p.url, "error", err)
		return false
	}
	if bErr := resp.Body.Close(); bErr != nil {
		slog.Warn("Failed to close response body in connectivity probe", "error", bErr)
	}
	return true
}
