package resource

import (
	"context"
	"strings"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

// NotesCacheKey is the snapshot key of the note collection.
const NotesCacheKey = "cached_notes"

// NoteAPI is the remote surface used by NoteManager.
type NoteAPI interface {
	ListNotes(ctx context.Context, token string) ([]api.NotePayload, error)
	CreateNote(ctx context.Context, token string, in api.NoteInput) (api.NotePayload, error)
	UpdateNote(ctx context.Context, token string, id int64, in api.NoteInput) (api.NotePayload, error)
	DeleteNote(ctx context.Context, token string, id int64) error
}

var _ NoteAPI = (*api.Client)(nil)

// CategorySource exposes an in-memory category list. Notes read it, never
// its snapshot, so joined categories are as fresh as the last category
// refresh.
type CategorySource interface {
	List() []Category
}

// NoteManager owns the note collection. A failed refresh clears it.
type NoteManager struct {
	coll       *collection[Note]
	remote     NoteAPI
	session    TokenSource
	categories CategorySource
}

// NewNoteManager wires a note manager. categories is read on every join.
func NewNoteManager(remote NoteAPI, session TokenSource, categories CategorySource, store kv.Store, opts ...Option) *NoteManager {
	log, policy := buildOptions(ClearOnFailure, opts)
	return &NoteManager{
		coll:       newCollection[Note]("note", "notes", NotesCacheKey, store, log, policy),
		remote:     remote,
		session:    session,
		categories: categories,
	}
}

// List returns a copy of the current notes.
func (m *NoteManager) List() []Note {
	return m.coll.list()
}

// Get returns the note with id from memory.
func (m *NoteManager) Get(id int64) (Note, bool) {
	return m.coll.get(id)
}

// FilterByCategory returns the notes carrying category id; id 0 returns all.
func (m *NoteManager) FilterByCategory(id int64) []Note {
	notes := m.coll.list()
	if id == 0 {
		return notes
	}
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.HasCategory(id) {
			out = append(out, n)
		}
	}
	return out
}

// Refresh shows the snapshot, fetches notes and joins their category ids
// against the categories currently held in memory.
func (m *NoteManager) Refresh(ctx context.Context) error {
	return m.coll.refresh(ctx, m.session.Token(), func(ctx context.Context, token string) ([]Note, error) {
		payload, err := m.remote.ListNotes(ctx, token)
		if err != nil {
			return nil, err
		}
		cats := m.categoryList()
		out := make([]Note, 0, len(payload))
		for _, p := range payload {
			out = append(out, joinNote(p, p.CategoryIDs, cats))
		}
		return out, nil
	})
}

// Create validates and posts a note, then prepends the joined result to
// state and snapshot.
func (m *NoteManager) Create(ctx context.Context, in NoteInput) (Note, error) {
	body, err := validateNote(in, "title and content are required")
	if err != nil {
		return Note{}, err
	}
	token := m.session.Token()
	if token == "" {
		return Note{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	payload, err := m.remote.CreateNote(ctx, token, body)
	if err != nil {
		return Note{}, m.coll.remoteError(err, "create")
	}
	if payload.ID == 0 {
		return Note{}, m.coll.remoteError(errMissingID, "create")
	}
	created := joinNote(payload, idsOrFallback(payload.CategoryIDs, body.CategoryIDs), m.categoryList())
	m.coll.prepend(created)
	m.coll.cacheUpsertFront(ctx, created)
	return created, nil
}

// Update validates and replaces note id.
func (m *NoteManager) Update(ctx context.Context, id int64, in NoteInput) (Note, error) {
	body, err := validateNote(in, "title and content are required to update a note")
	if err != nil {
		return Note{}, err
	}
	token := m.session.Token()
	if token == "" {
		return Note{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	payload, err := m.remote.UpdateNote(ctx, token, id, body)
	if err != nil {
		return Note{}, m.coll.remoteError(err, "update")
	}
	payload.ID = id
	updated := joinNote(payload, idsOrFallback(payload.CategoryIDs, body.CategoryIDs), m.categoryList())
	m.coll.replace(updated)
	m.coll.cacheReplace(ctx, updated)
	return updated, nil
}

// Delete removes note id remotely, then from state and snapshot.
func (m *NoteManager) Delete(ctx context.Context, id int64) error {
	token := m.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	if err := m.remote.DeleteNote(ctx, token, id); err != nil {
		return m.coll.remoteError(err, "delete")
	}
	m.coll.remove(id)
	m.coll.cacheRemove(ctx, id)
	return nil
}

func (m *NoteManager) categoryList() []Category {
	if m.categories == nil {
		return nil
	}
	return m.categories.List()
}

func validateNote(in NoteInput, msg string) (api.NoteInput, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return api.NoteInput{}, &ValidationError{Message: msg}
	}
	ids := in.CategoryIDs
	if ids == nil {
		ids = []int64{}
	}
	return api.NoteInput{Title: in.Title, Content: in.Content, CategoryIDs: ids}, nil
}

// joinNote resolves ids against cats, keeping the order of cats. Unknown ids
// are dropped.
func joinNote(p api.NotePayload, ids []int64, cats []Category) Note {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	joined := make([]Category, 0, len(ids))
	for _, c := range cats {
		if _, ok := wanted[c.ID]; ok {
			joined = append(joined, c)
		}
	}
	return Note{ID: p.ID, Title: p.Title, Content: p.Content, Categories: joined}
}

func idsOrFallback(fromServer, sent []int64) []int64 {
	if fromServer != nil {
		return fromServer
	}
	return sent
}
