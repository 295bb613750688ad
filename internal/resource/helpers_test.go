package resource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type fakeResponse struct {
	status int
	body   string
}

// fakeAPI serves canned responses keyed by "METHOD /path" and records every
// request it sees. Unknown routes answer 500.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]fakeResponse
	calls  []string
	bodies map[string][]byte
}

func newFakeAPI(t *testing.T) (*fakeAPI, *api.Client) {
	t.Helper()

	f := &fakeAPI{routes: map[string]fakeResponse{}, bodies: map[string][]byte{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies[key] = body
		resp, ok := f.routes[key]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return f, client
}

func (f *fakeAPI) handle(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" /api"+path] = fakeResponse{status: status, body: body}
}

func (f *fakeAPI) drop(method, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.routes, method+" /api"+path)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) body(method, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.bodies[method+" /api"+path])
}

// flakyStore wraps a store and fails reads or writes on demand.
type flakyStore struct {
	kv.Store
	failGet bool
	failSet bool
}

var errStoreDown = errors.New("store down")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failGet {
		return nil, false, errStoreDown
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return errStoreDown
	}
	return s.Store.Set(ctx, key, value)
}

func cachedArray[T any](t *testing.T, store kv.Store, key string) []T {
	t.Helper()
	items, ok, err := kv.GetArray[T](context.Background(), store, key)
	if err != nil {
		t.Fatalf("GetArray(%s) returned error: %v", key, err)
	}
	if !ok {
		t.Fatalf("GetArray(%s) found no snapshot", key)
	}
	return items
}

func ids[T Record](items []T) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.RecordID())
	}
	return out
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type tokenVar struct {
	value string
}

func (t *tokenVar) Token() string { return t.value }
