package resource

// Record is implemented by every cached domain type.
type Record interface {
	RecordID() int64
}

// Category is a coloured label that notes can carry.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c Category) RecordID() int64 { return c.ID }

// Note is a note with its categories resolved from the category collection.
type Note struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Categories []Category `json:"categories"`
}

func (n Note) RecordID() int64 { return n.ID }

// HasCategory reports whether the note carries the category id.
func (n Note) HasCategory(id int64) bool {
	for _, c := range n.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CategoryIDs returns the ids of the note's resolved categories.
func (n Note) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(n.Categories))
	for _, c := range n.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Task is a to-do item, optionally attached to a note. Every field is
// defaulted when the task is decoded from the network.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	NoteID      *int64    `json:"note_id"`
	Subtasks    []SubTask `json:"subtasks"`
}

func (t Task) RecordID() int64 { return t.ID }

// Progress returns completed and total subtask counts.
func (t Task) Progress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// SubTask is a checklist entry of a task.
type SubTask struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// CategoryInput is the caller-supplied body for category writes.
type CategoryInput struct {
	Name  string
	Color string
}

// NoteInput is the caller-supplied body for note writes.
type NoteInput struct {
	Title       string
	Content     string
	CategoryIDs []int64
}

// TaskInput is the caller-supplied body for task writes. Subtasks with a zero
// ID are created by the server.
type TaskInput struct {
	Title       string
	Description string
	Completed   *bool
	NoteID      *int64
	Subtasks    []SubTask
}
