package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	if err := s.Set(ctx, "cached_notes", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok, err := s.Get(ctx, "cached_notes")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v, want value", ok, err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("Get = %q, want stored value", got)
	}

	if err := s.Delete(ctx, "cached_notes"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "cached_notes"); ok {
		t.Fatalf("Get after Delete returned ok=true")
	}
	if err := s.Delete(ctx, "cached_notes"); err != nil {
		t.Fatalf("Delete of missing key returned error: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	value := []byte("abc")
	if err := s.Set(context.Background(), "k", value); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	value[0] = 'z'
	got, _, _ := s.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("MemoryStore should copy values; got %q", got)
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	exerciseStore(t, s)

	if err := s.Set(context.Background(), "user_token", []byte("abc")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("store mode = %v, want 0600", info.Mode().Perm())
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	got, ok, err := reopened.Get(context.Background(), "user_token")
	if err != nil || !ok || string(got) != "abc" {
		t.Fatalf("reopened Get = %q ok=%v err=%v, want abc", got, ok, err)
	}
}

func TestFileStore_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if !strings.HasPrefix(s.Path(), home) {
		t.Fatalf("Path = %q, want it under HOME %q", s.Path(), home)
	}
}

func TestFileStore_CorruptDocumentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, _, err := s.Get(context.Background(), "k"); err == nil || !strings.Contains(err.Error(), "parse store") {
		t.Fatalf("Get error = %v, want parse store error", err)
	}
}

func TestRedisStore_PrefixAndNoExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "keep:")
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	if err := s.Set(context.Background(), "cached_tasks", []byte(`[]`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !mr.Exists("keep:cached_tasks") {
		t.Fatalf("expected prefixed key keep:cached_tasks in redis")
	}
	if ttl := mr.TTL("keep:cached_tasks"); ttl != 0 {
		t.Fatalf("TTL = %v, want no expiry", ttl)
	}
}

func TestRedisStore_ErrorsWhenServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	s, err := OpenRedis(mr.Addr(), "")
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	mr.Close()

	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatalf("Get returned nil error with redis down")
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	s, err := Open(Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("Open(memory) returned error: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("Open(memory) = %T, want *MemoryStore", s)
	}

	s, err = Open(Options{Path: filepath.Join(t.TempDir(), "c.json")})
	if err != nil {
		t.Fatalf("Open(default) returned error: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("Open(default) = %T, want *FileStore", s)
	}

	if _, err := Open(Options{Backend: "etcd"}); err == nil {
		t.Fatalf("Open(etcd) returned nil error")
	}
	if _, err := Open(Options{Backend: "redis"}); err == nil {
		t.Fatalf("Open(redis) without url returned nil error")
	}
}

func TestGetArrayAndSetJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := GetArray[record](ctx, s, "k"); ok || err != nil {
		t.Fatalf("GetArray(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := SetJSON(ctx, s, "k", []record{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("SetJSON returned error: %v", err)
	}
	items, ok, err := GetArray[record](ctx, s, "k")
	if err != nil || !ok || len(items) != 1 || items[0].Name != "a" {
		t.Fatalf("GetArray = %#v ok=%v err=%v, want one record", items, ok, err)
	}

	_ = s.Set(ctx, "obj", []byte(`{"id":1}`))
	if _, ok, err := GetArray[record](ctx, s, "obj"); !ok || !errors.Is(err, ErrNotArray) {
		t.Fatalf("GetArray(object) = ok=%v err=%v, want ErrNotArray", ok, err)
	}

	_ = s.Set(ctx, "null", []byte(`[]`))
	items, _, err = GetArray[record](ctx, s, "null")
	if err != nil || items == nil {
		t.Fatalf("GetArray(empty) = %#v err=%v, want empty non-nil slice", items, err)
	}

	var rec record
	_ = SetJSON(ctx, s, "one", record{ID: 7})
	if ok, err := GetJSON(ctx, s, "one", &rec); !ok || err != nil || rec.ID != 7 {
		t.Fatalf("GetJSON = %#v ok=%v err=%v, want id 7", rec, ok, err)
	}
}
