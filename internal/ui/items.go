package ui

import (
	"github.com/lezoo/keep/internal/resource"
)

// visibleNotes applies the category filter.
func (m Model) visibleNotes() []resource.Note {
	if m.categoryFilter == 0 {
		return m.snapshot.Notes
	}
	out := make([]resource.Note, 0, len(m.snapshot.Notes))
	for _, n := range m.snapshot.Notes {
		if n.HasCategory(m.categoryFilter) {
			out = append(out, n)
		}
	}
	return out
}

func (m Model) itemCount() int {
	switch m.tab {
	case TabNotes:
		return len(m.visibleNotes())
	case TabTasks:
		return len(m.snapshot.Tasks)
	default:
		return len(m.snapshot.Categories)
	}
}

func (m Model) selectedNote() (resource.Note, bool) {
	notes := m.visibleNotes()
	i := m.selected[TabNotes]
	if i < 0 || i >= len(notes) {
		return resource.Note{}, false
	}
	return notes[i], true
}

func (m Model) selectedTask() (resource.Task, bool) {
	i := m.selected[TabTasks]
	if i < 0 || i >= len(m.snapshot.Tasks) {
		return resource.Task{}, false
	}
	return m.snapshot.Tasks[i], true
}

func (m Model) selectedCategory() (resource.Category, bool) {
	i := m.selected[TabCategories]
	if i < 0 || i >= len(m.snapshot.Categories) {
		return resource.Category{}, false
	}
	return m.snapshot.Categories[i], true
}

// deleteTarget describes the selected record of the active tab.
func (m Model) deleteTarget() (pendingDelete, bool) {
	switch m.tab {
	case TabNotes:
		if n, ok := m.selectedNote(); ok {
			return pendingDelete{tab: TabNotes, id: n.ID, label: n.Title}, true
		}
	case TabTasks:
		if t, ok := m.selectedTask(); ok {
			return pendingDelete{tab: TabTasks, id: t.ID, label: taskLabel(t)}, true
		}
	case TabCategories:
		if c, ok := m.selectedCategory(); ok {
			return pendingDelete{tab: TabCategories, id: c.ID, label: c.Name}, true
		}
	}
	return pendingDelete{}, false
}

func (m Model) categoryName(id int64) string {
	for _, c := range m.snapshot.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (m Model) noteTitle(id int64) string {
	for _, n := range m.snapshot.Notes {
		if n.ID == id {
			return n.Title
		}
	}
	return ""
}

func (m Model) tasksForNote(id int64) []resource.Task {
	var out []resource.Task
	for _, t := range m.snapshot.Tasks {
		if t.NoteID != nil && *t.NoteID == id {
			out = append(out, t)
		}
	}
	return out
}

func (m Model) notesInCategory(id int64) int {
	n := 0
	for _, note := range m.snapshot.Notes {
		if note.HasCategory(id) {
			n++
		}
	}
	return n
}

// nextCategoryFilter cycles all -> each category in order -> all. A filter
// whose category vanished resets to all.
func nextCategoryFilter(cats []resource.Category, current int64) int64 {
	if len(cats) == 0 {
		return 0
	}
	if current == 0 {
		return cats[0].ID
	}
	for i, c := range cats {
		if c.ID == current {
			if i+1 < len(cats) {
				return cats[i+1].ID
			}
			return 0
		}
	}
	return 0
}

// taskLabel prefers the title and falls back to the description.
func taskLabel(t resource.Task) string {
	if t.Title != "" && t.Title != resource.DefaultTaskTitle {
		return t.Title
	}
	if t.Description != "" {
		return t.Description
	}
	return t.Title
}
