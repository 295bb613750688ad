// Package kv holds the snapshot stores: small key-value backends that keep
// the last serialized copy of each resource collection and the session token.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Store is an async-style key-value storage addressed by string keys.
// Get reports ok=false for a missing key without an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Path     string // file backend
	RedisURL string // redis backend
	Prefix   string // redis key prefix
}

// Open builds the store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendRedis:
		return OpenRedis(opts.RedisURL, opts.Prefix)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// ErrNotArray is returned by GetArray when the stored value is not a JSON array.
var ErrNotArray = errors.New("cached value is not an array")

// GetJSON loads key and decodes it into dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := sonic.ConfigStd.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// GetArray loads key and decodes it into a slice. A value that is present but
// not an array yields ErrNotArray.
func GetArray[T any](ctx context.Context, s Store, key string) ([]T, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, true, fmt.Errorf("decode %s: %w", key, ErrNotArray)
	}
	var items []T
	if err := sonic.ConfigStd.UnmarshalFromString(trimmed, &items); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
