package resource

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

// TokenSource yields the current bearer token, "" when signed out.
// *session.Session implements it.
type TokenSource interface {
	Token() string
}

// FailurePolicy decides what a failed refresh does to the in-memory state.
type FailurePolicy int

const (
	// KeepOnFailure leaves the prior state untouched.
	KeepOnFailure FailurePolicy = iota
	// ClearOnFailure empties the collection.
	ClearOnFailure
	// CacheOnFailure reloads the snapshot: a readable array replaces the
	// state, an unreadable one empties it, an absent one leaves it alone.
	CacheOnFailure
)

func (p FailurePolicy) String() string {
	switch p {
	case ClearOnFailure:
		return "clear"
	case CacheOnFailure:
		return "cache"
	default:
		return "keep"
	}
}

// Option configures a manager.
type Option func(*options)

type options struct {
	log    logrus.FieldLogger
	policy *FailurePolicy
}

// WithLogger routes manager logs (errors and cache warnings) to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithFailurePolicy overrides the manager's default refresh failure policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = &p }
}

func buildOptions(defaultPolicy FailurePolicy, opts []Option) (logrus.FieldLogger, FailurePolicy) {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	policy := defaultPolicy
	if o.policy != nil {
		policy = *o.policy
	}
	return o.log, policy
}

// collection owns one resource's in-memory slice and its snapshot entry.
// op serializes the manager's operations so writes never overlap; mu only
// guards the slice so List stays cheap while a request is in flight.
type collection[T Record] struct {
	singular string
	plural   string
	key      string
	store    kv.Store
	log      logrus.FieldLogger
	policy   FailurePolicy

	op sync.Mutex

	mu    sync.RWMutex
	items []T
}

func newCollection[T Record](singular, plural, key string, store kv.Store, log logrus.FieldLogger, policy FailurePolicy) *collection[T] {
	if store == nil {
		store = kv.NewMemoryStore()
	}
	return &collection[T]{
		singular: singular,
		plural:   plural,
		key:      key,
		store:    store,
		log:      log.WithField("resource", plural),
		policy:   policy,
		items:    []T{},
	}
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

func (c *collection[T]) get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) set(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = cloneItems(items)
}

func (c *collection[T]) prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = prependItem(c.items, item)
}

func (c *collection[T]) replace(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = replaceItem(c.items, item)
}

func (c *collection[T]) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = removeItem(c.items, id)
}

// refresh implements the read-through pattern: show the snapshot, fetch,
// then replace state and snapshot, or apply the failure policy.
func (c *collection[T]) refresh(ctx context.Context, token string, fetch func(context.Context, string) ([]T, error)) error {
	c.op.Lock()
	defer c.op.Unlock()

	if token == "" {
		if c.policy == ClearOnFailure {
			c.set(nil)
		}
		return ErrNotAuthenticated
	}

	if cached, ok, err := c.readCache(ctx); ok && err == nil {
		c.set(cached)
	}

	items, err := fetch(ctx, token)
	if err != nil {
		c.logRemote(err, "refresh")
		c.applyFailurePolicy(ctx)
		return &OperationError{Op: "load", Resource: c.plural, Err: err}
	}

	c.set(items)
	if err := kv.SetJSON(ctx, c.store, c.key, items); err != nil {
		c.warnCache(err, "snapshot write failed")
	}
	return nil
}

func (c *collection[T]) applyFailurePolicy(ctx context.Context) {
	switch c.policy {
	case ClearOnFailure:
		c.set(nil)
	case CacheOnFailure:
		cached, ok, err := c.readCache(ctx)
		switch {
		case !ok:
		case err != nil:
			c.set(nil)
		default:
			c.set(cached)
		}
	}
}

// readCache loads the snapshot array. ok reports whether a value was present;
// err is non-nil when it was present but unusable. Failures are logged as
// warnings and never returned to callers of the manager.
func (c *collection[T]) readCache(ctx context.Context) ([]T, bool, error) {
	items, ok, err := kv.GetArray[T](ctx, c.store, c.key)
	if err != nil {
		c.warnCache(err, "snapshot read failed; treating cache as absent")
		return nil, ok, err
	}
	return items, ok, nil
}

// cacheUpsertFront re-reads the stored array and prepends item, so the write
// never depends on a stale in-memory copy.
func (c *collection[T]) cacheUpsertFront(ctx context.Context, item T) {
	cached, ok, err := c.readCache(ctx)
	if !ok || err != nil {
		cached = nil
	}
	c.writeCache(ctx, prependItem(removeItem(cached, item.RecordID()), item))
}

// cacheReplace rewrites the matching entry when the snapshot exists.
func (c *collection[T]) cacheReplace(ctx context.Context, item T) {
	cached, ok, err := c.readCache(ctx)
	if !ok || err != nil {
		return
	}
	c.writeCache(ctx, replaceItem(cached, item))
}

// cacheRemove filters id out of the snapshot when it exists.
func (c *collection[T]) cacheRemove(ctx context.Context, id int64) {
	cached, ok, err := c.readCache(ctx)
	if !ok || err != nil {
		return
	}
	c.writeCache(ctx, removeItem(cached, id))
}

func (c *collection[T]) writeCache(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	if err := kv.SetJSON(ctx, c.store, c.key, items); err != nil {
		c.warnCache(err, "snapshot write failed")
	}
}

func (c *collection[T]) warnCache(err error, msg string) {
	c.log.WithError(err).WithField("key", c.key).Warn(msg)
}

func (c *collection[T]) logRemote(err error, op string) {
	entry := c.log.WithField("op", op)
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		entry = entry.WithField("status", apiErr.Status).WithField("detail", apiErr.Detail())
	}
	entry.WithError(err).Error("remote request failed")
}

// remoteError logs err and returns the generic caller-facing error.
func (c *collection[T]) remoteError(err error, op string) error {
	c.logRemote(err, op)
	return &OperationError{Op: op, Resource: c.singular, Err: err}
}

func cloneItems[T any](items []T) []T {
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

func prependItem[T Record](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func replaceItem[T Record](items []T, item T) []T {
	out := cloneItems(items)
	for i := range out {
		if out[i].RecordID() == item.RecordID() {
			out[i] = item
		}
	}
	return out
}

func removeItem[T Record](items []T, id int64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.RecordID() != id {
			out = append(out, it)
		}
	}
	return out
}
