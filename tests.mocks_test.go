package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

// MockClocker implements a fake TickerClocker.
type MockClocker struct {
	mu      sync.Mutex
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{MockNow: time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	mck.mu.Lock()
	defer mck.mu.Unlock()
	return mck.MockNow
}

// Advance moves the mocked time forward.
func (mck *MockClocker) Advance(d time.Duration) {
	mck.mu.Lock()
	mck.MockNow = mck.MockNow.Add(d)
	mck.mu.Unlock()
}

func (mck *MockClocker) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	mu    sync.Mutex
	count int
}

// Generate returns sequential ids: `prefix:id-1`, `prefix:id-2`...
func (m *MockUIDHandler) Generate(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return prefix + ":id-" + strconv.Itoa(m.count)
}

func (m *MockUIDHandler) IsValid(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+":id-")
}

// MockRecorder keeps the recorded activities.
type MockRecorder struct {
	mu         sync.Mutex
	activities []Activity
	err        error
}

func (m *MockRecorder) Record(_ context.Context, activity Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, activity)
	return m.err
}

func (m *MockRecorder) Activities() []Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Activity(nil), m.activities...)
}

// fakeFailure is a canned error response.
type fakeFailure struct {
	status      int
	contentType string
	body        string
}

// fakeBackend is an in-memory library backend served over httptest. It
// keeps each collection as raw JSON objects keyed by id.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	nextID      int64
	collections map[string]map[int64]map[string]any
	failures    map[string]fakeFailure
	calls       map[string]int
	bodies      map[string]map[string]any
	delays      map[string]time.Duration
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		t:           t,
		collections: make(map[string]map[int64]map[string]any),
		failures:    make(map[string]fakeFailure),
		calls:       make(map[string]int),
		bodies:      make(map[string]map[string]any),
		delays:      make(map[string]time.Duration),
	}
	for _, path := range ResourcePaths {
		fb.collections[path] = make(map[int64]map[string]any)
	}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) URL() string {
	return fb.server.URL
}

func (fb *fakeBackend) Clients() *Clients {
	return NewClients(fb.server.Client(), fb.server.URL)
}

// Seed stores obj in the collection and returns its new id.
func (fb *fakeBackend) Seed(collection string, obj map[string]any) int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.nextID++
	stored := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		stored[k] = v
	}
	stored["id"] = fb.nextID
	fb.collections[collection][fb.nextID] = stored
	return fb.nextID
}

// Fail makes every `method path` call answer the given failure.
func (fb *fakeBackend) Fail(method, path string, status int, body string) {
	fb.mu.Lock()
	fb.failures[method+" "+path] = fakeFailure{status: status, contentType: "application/json", body: body}
	fb.mu.Unlock()
}

// FailPlain is like Fail with a text/plain body.
func (fb *fakeBackend) FailPlain(method, path string, status int, body string) {
	fb.mu.Lock()
	fb.failures[method+" "+path] = fakeFailure{status: status, contentType: "text/plain; charset=utf-8", body: body}
	fb.mu.Unlock()
}

// Delay holds the responses to method and path for d or until the
// caller gives up. Delayed requests do not block the other ones.
func (fb *fakeBackend) Delay(method, path string, d time.Duration) {
	fb.mu.Lock()
	fb.delays[method+" "+path] = d
	fb.mu.Unlock()
}

// Recover removes a failure set by Fail.
func (fb *fakeBackend) Recover(method, path string) {
	fb.mu.Lock()
	delete(fb.failures, method+" "+path)
	fb.mu.Unlock()
}

// Calls returns how many times `method path` was requested.
func (fb *fakeBackend) Calls(method, path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[method+" "+path]
}

// LastBody returns the last JSON body received on `method path`.
func (fb *fakeBackend) LastBody(method, path string) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[method+" "+path]
}

// Len returns the number of entities stored in a collection.
func (fb *fakeBackend) Len(collection string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.collections[collection])
}

// Get returns a stored entity.
func (fb *fakeBackend) Get(collection string, id int64) (map[string]any, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	obj, ok := fb.collections[collection][id]
	return obj, ok
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	fb.mu.Lock()
	delay := fb.delays[key]
	fb.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.calls[key]++

	var body map[string]any
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			fb.write(w, http.StatusBadRequest, map[string]any{"message": "malformed json"})
			return
		}
		fb.bodies[key] = body
	}

	if failure, ok := fb.failures[key]; ok {
		w.Header().Set("Content-Type", failure.contentType)
		w.WriteHeader(failure.status)
		_, _ = w.Write([]byte(failure.body))
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, APIPrefix), "/"), "/")
	collection, ok := fb.collections[parts[0]]
	if !ok || len(parts) > 2 {
		fb.write(w, http.StatusNotFound, map[string]any{"message": "no such route"})
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			ids := make([]int64, 0, len(collection))
			for id := range collection {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			items := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				items = append(items, collection[id])
			}
			fb.write(w, http.StatusOK, items)
		case http.MethodPost:
			fb.nextID++
			body["id"] = fb.nextID
			collection[fb.nextID] = body
			fb.write(w, http.StatusCreated, body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fb.write(w, http.StatusBadRequest, map[string]any{"message": "invalid id"})
		return
	}
	obj, exists := collection[id]
	if !exists {
		fb.write(w, http.StatusNotFound, map[string]any{"message": "entity " + parts[1] + " not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		fb.write(w, http.StatusOK, obj)
	case http.MethodPut:
		body["id"] = id
		collection[id] = body
		fb.write(w, http.StatusOK, body)
	case http.MethodDelete:
		if parts[0] == CategoriesPath && fb.categoryInUse(id) {
			fb.write(w, http.StatusConflict, map[string]any{"message": "category is used by a book"})
			return
		}
		delete(collection, id)
		fb.write(w, http.StatusOK, map[string]any{"message": "deleted"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fb *fakeBackend) categoryInUse(id int64) bool {
	for _, book := range fb.collections[BooksPath] {
		categories, _ := book["categories"].([]any)
		for _, c := range categories {
			if ref, ok := c.(map[string]any); ok && toInt64(ref["id"]) == id {
				return true
			}
		}
	}
	return false
}

func (fb *fakeBackend) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fb.t.Errorf("fake backend: failed to encode response: %v", err)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// seedAuthors stores count authors named `Author 01`, `Author 02`...
func seedAuthors(fb *fakeBackend, count int) []int64 {
	ids := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		name := "Author " + leftPad(i)
		ids = append(ids, fb.Seed(AuthorsPath, map[string]any{"name": name, "birthDate": "1970-01-01", "country": "TURKEY"}))
	}
	return ids
}

func leftPad(i int) string {
	if i < 10 {
		return "0" + strconv.Itoa(i)
	}
	return strconv.Itoa(i)
}
