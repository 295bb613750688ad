package api

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse mirrors the login payload.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// User describes the authenticated account.
type User struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// CategoryPayload mirrors a category record.
type CategoryPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryInput is the write body for categories.
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NotePayload mirrors a note as the server returns it. Categories are only
// referenced by id.
type NotePayload struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	CategoryIDs []int64 `json:"category_ids"`
}

// NoteInput is the write body for notes.
type NoteInput struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	CategoryIDs []int64 `json:"category_ids"`
}

// TaskPayload mirrors a task as the server returns it. Every field but the
// id is optional on the wire.
type TaskPayload struct {
	ID          int64            `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Completed   *bool            `json:"completed"`
	NoteID      *int64           `json:"note_id"`
	Subtasks    []SubTaskPayload `json:"subtasks"`
}

// SubTaskPayload mirrors a subtask as the server returns it.
type SubTaskPayload struct {
	ID          int64   `json:"id"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskInput is the write body for tasks.
type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Completed   *bool          `json:"completed,omitempty"`
	NoteID      *int64         `json:"note_id,omitempty"`
	Subtasks    []SubTaskInput `json:"subtasks,omitempty"`
}

// SubTaskInput is the write body for a subtask. A zero ID asks the server to
// create it.
type SubTaskInput struct {
	ID          int64  `json:"id,omitempty"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}
