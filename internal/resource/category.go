package resource

import (
	"context"
	"strings"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

// CategoriesCacheKey is the snapshot key of the category collection.
const CategoriesCacheKey = "cached_categories"

// CategoryAPI is the remote surface used by CategoryManager.
type CategoryAPI interface {
	ListCategories(ctx context.Context, token string) ([]api.CategoryPayload, error)
	CreateCategory(ctx context.Context, token string, in api.CategoryInput) (api.CategoryPayload, error)
	UpdateCategory(ctx context.Context, token string, id int64, in api.CategoryInput) (api.CategoryPayload, error)
	DeleteCategory(ctx context.Context, token string, id int64) error
}

var _ CategoryAPI = (*api.Client)(nil)

// CategoryManager owns the category collection. A failed refresh keeps the
// categories already shown.
type CategoryManager struct {
	coll    *collection[Category]
	remote  CategoryAPI
	session TokenSource
}

// NewCategoryManager wires a category manager to its remote, session and
// snapshot store.
func NewCategoryManager(remote CategoryAPI, session TokenSource, store kv.Store, opts ...Option) *CategoryManager {
	log, policy := buildOptions(KeepOnFailure, opts)
	return &CategoryManager{
		coll:    newCollection[Category]("category", "categories", CategoriesCacheKey, store, log, policy),
		remote:  remote,
		session: session,
	}
}

// List returns a copy of the current categories.
func (m *CategoryManager) List() []Category {
	return m.coll.list()
}

// Get returns the category with id from memory.
func (m *CategoryManager) Get(id int64) (Category, bool) {
	return m.coll.get(id)
}

// Refresh shows the snapshot, then replaces it with the server's list.
func (m *CategoryManager) Refresh(ctx context.Context) error {
	return m.coll.refresh(ctx, m.session.Token(), func(ctx context.Context, token string) ([]Category, error) {
		payload, err := m.remote.ListCategories(ctx, token)
		if err != nil {
			return nil, err
		}
		out := make([]Category, 0, len(payload))
		for _, p := range payload {
			out = append(out, categoryFromPayload(p))
		}
		return out, nil
	})
}

// Create validates and posts a category, then prepends it to state and
// snapshot.
func (m *CategoryManager) Create(ctx context.Context, in CategoryInput) (Category, error) {
	body, err := validateCategory(in)
	if err != nil {
		return Category{}, err
	}
	token := m.session.Token()
	if token == "" {
		return Category{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	payload, err := m.remote.CreateCategory(ctx, token, body)
	if err != nil {
		return Category{}, m.coll.remoteError(err, "create")
	}
	if payload.ID == 0 {
		return Category{}, m.coll.remoteError(errMissingID, "create")
	}
	created := categoryFromPayload(payload)
	m.coll.prepend(created)
	m.coll.cacheUpsertFront(ctx, created)
	return created, nil
}

// Update validates and replaces category id.
func (m *CategoryManager) Update(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	body, err := validateCategory(in)
	if err != nil {
		return Category{}, err
	}
	token := m.session.Token()
	if token == "" {
		return Category{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	payload, err := m.remote.UpdateCategory(ctx, token, id, body)
	if err != nil {
		return Category{}, m.coll.remoteError(err, "update")
	}
	updated := categoryFromPayload(payload)
	updated.ID = id
	m.coll.replace(updated)
	m.coll.cacheReplace(ctx, updated)
	return updated, nil
}

// Delete removes category id remotely, then from state and snapshot.
func (m *CategoryManager) Delete(ctx context.Context, id int64) error {
	token := m.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	if err := m.remote.DeleteCategory(ctx, token, id); err != nil {
		return m.coll.remoteError(err, "delete")
	}
	m.coll.remove(id)
	m.coll.cacheRemove(ctx, id)
	return nil
}

func validateCategory(in CategoryInput) (api.CategoryInput, error) {
	name := strings.TrimSpace(in.Name)
	color := strings.TrimSpace(in.Color)
	if name == "" || color == "" {
		return api.CategoryInput{}, &ValidationError{Message: "name and color are required"}
	}
	return api.CategoryInput{Name: name, Color: color}, nil
}

func categoryFromPayload(p api.CategoryPayload) Category {
	return Category{ID: p.ID, Name: p.Name, Color: p.Color}
}
