// Package testutil provides shared helpers for package tests: a fake
// authentication API served over httptest and a goroutine-safe log buffer.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Reply describes how the fake API answers one endpoint. When Hold is
// non-nil the handler blocks until it is closed or the request is cancelled.
type Reply struct {
	Status int
	Body   any
	Raw    string
	Hold   chan struct{}
}

// FakeAPI imitates the login and registration endpoints and records every
// request body it receives.
type FakeAPI struct {
	server *httptest.Server

	// Started receives one value each time a request reaches a handler.
	Started chan struct{}

	mu            sync.Mutex
	loginReply    Reply
	registerReply Reply
	logins        []map[string]any
	registrations []map[string]any
	headers       []http.Header
}

// NewFakeAPI starts a fake API that is shut down when the test ends. By
// default logins succeed with a token and registrations answer 201.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		Started: make(chan struct{}, 64),
		loginReply: Reply{
			Status: http.StatusOK,
			Body: map[string]string{
				"message":  "Login successful",
				"token":    "dummy-jwt-token-1",
				"username": "alice",
			},
		},
		registerReply: Reply{
			Status: http.StatusCreated,
			Body:   map[string]string{"message": "User registered successfully"},
		},
	}

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", f.handle(&f.logins, func() Reply { return f.loginReply }))
		r.Post("/register", f.handle(&f.registrations, func() Reply { return f.registerReply }))
	})

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// URL is the base URL of the fake API.
func (f *FakeAPI) URL() string {
	return f.server.URL
}

// OnLogin replaces the login reply.
func (f *FakeAPI) OnLogin(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginReply = r
}

// OnRegister replaces the registration reply.
func (f *FakeAPI) OnRegister(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerReply = r
}

// Logins returns the decoded bodies of all login requests so far.
func (f *FakeAPI) Logins() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.logins...)
}

// Registrations returns the decoded bodies of all registration requests.
func (f *FakeAPI) Registrations() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.registrations...)
}

// Headers returns the request headers seen so far, in arrival order.
func (f *FakeAPI) Headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

// Calls is the total number of requests received.
func (f *FakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logins) + len(f.registrations)
}

func (f *FakeAPI) handle(log *[]map[string]any, reply func() Reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		*log = append(*log, body)
		f.headers = append(f.headers, r.Header.Clone())
		rep := reply()
		f.mu.Unlock()

		select {
		case f.Started <- struct{}{}:
		default:
		}

		if rep.Hold != nil {
			select {
			case <-rep.Hold:
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.Status)
		if rep.Raw != "" {
			_, _ = w.Write([]byte(rep.Raw))
			return
		}
		if rep.Body != nil {
			_ = json.NewEncoder(w).Encode(rep.Body)
		}
	}
}

// SafeBuffer is a goroutine-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}
