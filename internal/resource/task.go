package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

// TasksCacheKey is the snapshot key of the task collection.
const TasksCacheKey = "cached_tasks"

// DefaultTaskTitle is sent when a task is written without a title.
const DefaultTaskTitle = "Untitled"

// TaskAPI is the remote surface used by TaskManager.
type TaskAPI interface {
	ListTasks(ctx context.Context, token string) ([]api.TaskPayload, error)
	CreateTask(ctx context.Context, token string, in api.TaskInput) (api.TaskPayload, error)
	UpdateTask(ctx context.Context, token string, id int64, in api.TaskInput) (api.TaskPayload, error)
	DeleteTask(ctx context.Context, token string, id int64) error
}

var _ TaskAPI = (*api.Client)(nil)

// TaskManager owns the task collection. A failed refresh falls back to the
// snapshot.
type TaskManager struct {
	coll    *collection[Task]
	remote  TaskAPI
	session TokenSource
}

// NewTaskManager wires a task manager to its remote, session and store.
func NewTaskManager(remote TaskAPI, session TokenSource, store kv.Store, opts ...Option) *TaskManager {
	log, policy := buildOptions(CacheOnFailure, opts)
	return &TaskManager{
		coll:    newCollection[Task]("task", "tasks", TasksCacheKey, store, log, policy),
		remote:  remote,
		session: session,
	}
}

// List returns a copy of the current tasks.
func (m *TaskManager) List() []Task {
	return m.coll.list()
}

// Get returns the task with id from memory.
func (m *TaskManager) Get(id int64) (Task, bool) {
	return m.coll.get(id)
}

// ForNote returns the tasks attached to note id.
func (m *TaskManager) ForNote(noteID int64) []Task {
	var out []Task
	for _, t := range m.coll.list() {
		if t.NoteID != nil && *t.NoteID == noteID {
			out = append(out, t)
		}
	}
	return out
}

// Refresh shows the snapshot, then replaces it with the normalized server
// list.
func (m *TaskManager) Refresh(ctx context.Context) error {
	return m.coll.refresh(ctx, m.session.Token(), func(ctx context.Context, token string) ([]Task, error) {
		payload, err := m.remote.ListTasks(ctx, token)
		if err != nil {
			return nil, err
		}
		out := make([]Task, 0, len(payload))
		for _, p := range payload {
			out = append(out, NormalizeTask(p))
		}
		return out, nil
	})
}

// Create validates and posts a task, then prepends the normalized result to
// state and snapshot. Completion is never sent on create.
func (m *TaskManager) Create(ctx context.Context, in TaskInput) (Task, error) {
	body, err := validateTask(in)
	if err != nil {
		return Task{}, err
	}
	body.Completed = nil
	token := m.session.Token()
	if token == "" {
		return Task{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	payload, err := m.remote.CreateTask(ctx, token, body)
	if err != nil {
		return Task{}, m.coll.remoteError(err, "create")
	}
	if payload.ID == 0 {
		return Task{}, m.coll.remoteError(errMissingID, "create")
	}
	created := NormalizeTask(payload)
	m.coll.prepend(created)
	m.coll.cacheUpsertFront(ctx, created)
	return created, nil
}

// Update validates and replaces task id.
func (m *TaskManager) Update(ctx context.Context, id int64, in TaskInput) (Task, error) {
	body, err := validateTask(in)
	if err != nil {
		return Task{}, err
	}
	token := m.session.Token()
	if token == "" {
		return Task{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	return m.update(ctx, token, id, body)
}

func (m *TaskManager) update(ctx context.Context, token string, id int64, body api.TaskInput) (Task, error) {
	payload, err := m.remote.UpdateTask(ctx, token, id, body)
	if err != nil {
		return Task{}, m.coll.remoteError(err, "update")
	}
	payload.ID = id
	updated := NormalizeTask(payload)
	m.coll.replace(updated)
	m.coll.cacheReplace(ctx, updated)
	return updated, nil
}

// SetCompleted marks task id done or not done, keeping its other fields.
func (m *TaskManager) SetCompleted(ctx context.Context, id int64, completed bool) (Task, error) {
	return m.edit(ctx, id, func(in *TaskInput) error {
		in.Completed = &completed
		return nil
	})
}

// ToggleSubtask flips the completion of one subtask of task id.
func (m *TaskManager) ToggleSubtask(ctx context.Context, id, subtaskID int64) (Task, error) {
	return m.edit(ctx, id, func(in *TaskInput) error {
		for i := range in.Subtasks {
			if in.Subtasks[i].ID == subtaskID {
				in.Subtasks[i].Completed = !in.Subtasks[i].Completed
				return nil
			}
		}
		return fmt.Errorf("subtask %d of task %d: %w", subtaskID, id, ErrNotFound)
	})
}

// edit applies mutate to the in-memory copy of task id and sends the result
// as a full update.
func (m *TaskManager) edit(ctx context.Context, id int64, mutate func(*TaskInput) error) (Task, error) {
	token := m.session.Token()
	if token == "" {
		return Task{}, ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	current, ok := m.coll.get(id)
	if !ok {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	in := InputFromTask(current)
	if err := mutate(&in); err != nil {
		return Task{}, err
	}
	body, err := validateTask(in)
	if err != nil {
		return Task{}, err
	}
	return m.update(ctx, token, id, body)
}

// Delete removes task id remotely, then from state and snapshot.
func (m *TaskManager) Delete(ctx context.Context, id int64) error {
	token := m.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	m.coll.op.Lock()
	defer m.coll.op.Unlock()

	if err := m.remote.DeleteTask(ctx, token, id); err != nil {
		return m.coll.remoteError(err, "delete")
	}
	m.coll.remove(id)
	m.coll.cacheRemove(ctx, id)
	return nil
}

// InputFromTask builds a write body reproducing t.
func InputFromTask(t Task) TaskInput {
	completed := t.Completed
	subtasks := make([]SubTask, len(t.Subtasks))
	copy(subtasks, t.Subtasks)
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Completed:   &completed,
		NoteID:      t.NoteID,
		Subtasks:    subtasks,
	}
}

// NormalizeTask turns a wire task into a Task with every optional field
// defaulted. It runs on network payloads only; snapshots are already
// normalized.
func NormalizeTask(p api.TaskPayload) Task {
	t := Task{
		ID:       p.ID,
		Subtasks: make([]SubTask, 0, len(p.Subtasks)),
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.NoteID != nil {
		id := *p.NoteID
		t.NoteID = &id
	}
	for _, s := range p.Subtasks {
		sub := SubTask{ID: s.ID}
		if s.Description != nil {
			sub.Description = *s.Description
		}
		if s.Completed != nil {
			sub.Completed = *s.Completed
		}
		t.Subtasks = append(t.Subtasks, sub)
	}
	return t
}

// validateTask builds the write body. A blank title becomes
// DefaultTaskTitle. New subtasks (zero ID) with a blank description are
// dropped; existing subtasks are always sent.
func validateTask(in TaskInput) (api.TaskInput, error) {
	if strings.TrimSpace(in.Description) == "" {
		return api.TaskInput{}, &ValidationError{Message: "description is required"}
	}
	body := api.TaskInput{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Completed:   in.Completed,
		NoteID:      in.NoteID,
	}
	if body.Title == "" {
		body.Title = DefaultTaskTitle
	}
	for _, s := range in.Subtasks {
		desc := strings.TrimSpace(s.Description)
		if desc == "" && s.ID == 0 {
			continue
		}
		body.Subtasks = append(body.Subtasks, api.SubTaskInput{ID: s.ID, Description: desc, Completed: s.Completed})
	}
	return body, nil
}
