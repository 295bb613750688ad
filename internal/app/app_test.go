package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lezoo/keep/internal/config"
	"github.com/lezoo/keep/internal/resource"
)

type apiServer struct {
	mu         sync.Mutex
	categories string
	seen       []string
	auth       []string
}

func newAPIServer(t *testing.T, categories string) (*apiServer, string) {
	t.Helper()
	s := &apiServer{categories: categories}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		s.mu.Lock()
		s.seen = append(s.seen, r.Method+" "+r.URL.Path)
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		cats := s.categories
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /api/auth/login":
			_, _ = w.Write([]byte(`{"access_token":"abc","user":{"email":"test@test.com"}}`))
		case "GET /api/categories":
			_, _ = w.Write([]byte(cats))
		case "GET /api/notes":
			_, _ = w.Write([]byte(`[{"id":5,"title":"T","content":"C","category_ids":[1]}]`))
		case "GET /api/tasks":
			_, _ = w.Write([]byte(`[{"id":2,"description":"d"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return s, server.URL + "/api"
}

func (s *apiServer) requests() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...), append([]string(nil), s.auth...)
}

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.CacheBackend = "memory"

	a, err := New(context.Background(), Options{Config: &cfg, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_LoginPersistsTokenForLaterCalls(t *testing.T) {
	srv, baseURL := newAPIServer(t, `[{"id":1,"name":"Perso","color":"#ff0000"}]`)
	a := newTestApp(t, baseURL)
	ctx := context.Background()

	if _, err := a.Session.Login(ctx, "test@test.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	raw, ok, err := a.Store.Get(ctx, "user_token")
	if err != nil || !ok || string(raw) != "abc" {
		t.Fatalf("persisted token = %q ok=%v err=%v, want abc", raw, ok, err)
	}

	if err := a.Sync(ctx); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	seen, auth := srv.requests()
	want := []string{"POST /api/auth/login", "GET /api/categories", "GET /api/notes", "GET /api/tasks"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v, want %v", seen, want)
	}
	for i := 1; i < len(auth); i++ {
		if auth[i] != "Bearer abc" {
			t.Fatalf("request %d Authorization = %q, want Bearer abc", i, auth[i])
		}
	}

	snap := a.State.Snapshot()
	if len(snap.Notes) != 1 || len(snap.Notes[0].Categories) != 1 || snap.Notes[0].Categories[0].Name != "Perso" {
		t.Fatalf("notes = %#v, want joined Perso category", snap.Notes)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].Subtasks == nil {
		t.Fatalf("tasks = %#v, want one normalized task", snap.Tasks)
	}
}

func TestApp_SyncSkipsNotesWithoutCategories(t *testing.T) {
	srv, baseURL := newAPIServer(t, `[]`)
	a := newTestApp(t, baseURL)
	ctx := context.Background()

	if _, err := a.Session.Login(ctx, "test@test.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := a.Sync(ctx); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	seen, _ := srv.requests()
	for _, r := range seen {
		if r == "GET /api/notes" {
			t.Fatalf("notes fetched with empty categories: %v", seen)
		}
	}
}

func TestApp_SyncSignedOutReportsOnce(t *testing.T) {
	srv, baseURL := newAPIServer(t, `[]`)
	a := newTestApp(t, baseURL)

	err := a.Sync(context.Background())
	if !errors.Is(err, resource.ErrNotAuthenticated) {
		t.Fatalf("Sync error = %v, want ErrNotAuthenticated", err)
	}
	if n := strings.Count(err.Error(), resource.ErrNotAuthenticated.Error()); n != 1 {
		t.Fatalf("error %q repeats not authenticated %d times", err, n)
	}
	if seen, _ := srv.requests(); len(seen) != 0 {
		t.Fatalf("requests = %v, want none", seen)
	}
	if snap := a.State.Snapshot(); snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
}

func TestApp_StartPollerSyncs(t *testing.T) {
	_, baseURL := newAPIServer(t, `[{"id":1,"name":"Perso","color":"#ff0000"}]`)
	a := newTestApp(t, baseURL)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if _, err := a.Session.Login(ctx, "test@test.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	StartPoller(ctx, a, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := a.State.Snapshot(); snap.HasData && len(snap.Tasks) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("poller never published data")
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LogFile = filepath.Join(dir, "nested", "keep.log")
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	logger, closeLog, err := newLogger(cfg, Options{LogToFile: true})
	if err != nil {
		t.Fatalf("newLogger returned error: %v", err)
	}
	logger.WithField("resource", "notes").Debug("hello")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Contains(data, []byte(`"msg":"hello"`)) || !bytes.Contains(data, []byte(`"resource":"notes"`)) {
		t.Fatalf("log file = %s, want JSON entry", data)
	}
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"

	var buf bytes.Buffer
	logger, _, err := newLogger(cfg, Options{LogOutput: &buf})
	if err != nil {
		t.Fatalf("newLogger returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q, want info level", buf.String())
	}
}
