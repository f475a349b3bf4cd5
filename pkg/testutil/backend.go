package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Request is one call observed by a Backend.
type Request struct {
	Path   string
	Region string
}

// Backend is an in-process stand-in for the readmission statistics API.
// Responses come from Fixtures keyed by endpoint path and state filter.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	fixtures Fixtures
	requests []Request
	status   map[string]int
	bodies   map[string]string
}

// NewBackend starts a Backend serving DefaultFixtures. It is closed with
// the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		fixtures: DefaultFixtures(),
		status:   make(map[string]int),
		bodies:   make(map[string]string),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL to point a gateway at.
func (b *Backend) URL() string { return b.Server.URL }

// FailPath makes every request to path answer with status.
func (b *Backend) FailPath(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[path] = status
}

// OverrideBody makes every request to path answer with body, whatever the
// region.
func (b *Backend) OverrideBody(path, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[path] = body
}

// Requests returns the calls observed so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestCount returns the number of calls observed so far.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Reset forgets observed calls.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	region := strings.ToUpper(r.URL.Query().Get("state"))

	b.mu.Lock()
	b.requests = append(b.requests, Request{Path: r.URL.Path, Region: region})
	status, failing := b.status[r.URL.Path]
	override, overridden := b.bodies[r.URL.Path]
	body, ok := b.fixtures.Lookup(r.URL.Path, region)
	b.mu.Unlock()

	if failing {
		http.Error(w, "injected failure", status)
		return
	}
	if overridden {
		body, ok = override, true
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
