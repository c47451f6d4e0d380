package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeAPI is a scripted HTTP server speaking the entity API's JSON contract.
// Routes are registered as "METHOD /path" and requests are counted so tests
// can assert how often the network was hit.
type FakeAPI struct {
	Server *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  map[string]int
}

// NewFakeAPI starts a fake API server, shut down via t.Cleanup.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		routes: make(map[string]http.HandlerFunc),
		calls:  make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Handle registers a handler for "METHOD /path". Query strings are ignored
// for routing.
func (f *FakeAPI) Handle(method, path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = handler
}

// RespondJSON registers a handler that always answers with the given status
// and JSON body.
func (f *FakeAPI) RespondJSON(method, path string, status int, body any) {
	f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Calls returns how many requests hit "METHOD /path".
func (f *FakeAPI) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls[key]++
	handler, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no route for " + key})
		return
	}
	handler(w, r)
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
