package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lezoo/keep/internal/prefs"
	"github.com/lezoo/keep/internal/resource"
	"github.com/lezoo/keep/internal/state"
)

// Tab is one of the three collections shown by the UI.
type Tab int

const (
	TabNotes Tab = iota
	TabTasks
	TabCategories
)

var tabNames = [...]string{"Notes", "Tasks", "Categories"}

var tabSingular = [...]string{"note", "task", "category"}

func (t Tab) String() string { return tabNames[t] }

func (t Tab) singular() string { return tabSingular[t] }

// prefName is the value stored in prefs.StartTab.
func (t Tab) prefName() string { return strings.ToLower(tabNames[t]) }

// ParseTab maps a prefs tab name to a Tab, defaulting to notes.
func ParseTab(name string) Tab {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case prefs.TabTasks:
		return TabTasks
	case prefs.TabCategories:
		return TabCategories
	default:
		return TabNotes
	}
}

// NoteService is the note write surface the UI needs.
type NoteService interface {
	Delete(ctx context.Context, id int64) error
}

// TaskService is the task write surface the UI needs.
type TaskService interface {
	Create(ctx context.Context, in resource.TaskInput) (resource.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (resource.Task, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryService is the category write surface the UI needs.
type CategoryService interface {
	Delete(ctx context.Context, id int64) error
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Notes      NoteService
	Tasks      TaskService
	Categories CategoryService
	Sync       func(context.Context) error // full refresh, publishes to Store
	Publish    func()                      // copies manager state into Store after a write
	Account    string
	PollTick   time.Duration
	ThemeName  string
	StartTab   string
	PrefsPath  string
}

// pendingDelete is a delete waiting for y/n.
type pendingDelete struct {
	tab   Tab
	id    int64
	label string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	notes      NoteService
	tasks      TaskService
	categories CategoryService
	sync       func(context.Context) error
	publish    func()
	account    string
	prefsPath  string
	pollTick   time.Duration

	// UI state
	theme  Theme
	keys   keyMap
	help   help.Model
	tab    Tab
	width  int
	height int
	ready  bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	selected       [len(tabNames)]int
	categoryFilter int64 // 0 shows every note

	detail viewport.Model

	showHelp bool
	confirm  *pendingDelete
	input    textinput.Model
	prompt   bool

	busy      bool
	status    string
	statusErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Default().Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "task description"
	input.CharLimit = 500

	return Model{
		ctx:        ctx,
		store:      opts.Store,
		notes:      opts.Notes,
		tasks:      opts.Tasks,
		categories: opts.Categories,
		sync:       opts.Sync,
		publish:    opts.Publish,
		account:    opts.Account,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		theme:      GetTheme(themeName),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		tab:        ParseTab(opts.StartTab),
		input:      input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.detail = viewport.New(0, 0)
		}
		m.ready = true
		m.updateDetailViewport()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		m.updateDetailViewport()
		return m, nil

	case syncDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(friendlyError(msg.err), true)
		} else {
			m.setStatus("synced", false)
		}
		return m, m.snapshotCmd()

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(friendlyError(msg.err), true)
		} else {
			m.setStatus(msg.status, false)
		}
		return m, m.snapshotCmd()
	}

	if m.prompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Overlays and prompts take the key
// before the global bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.prompt {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, m.keys.Refresh):
		if m.busy || m.sync == nil {
			return m, nil
		}
		m.busy = true
		m.setStatus("syncing...", false)
		return m, syncCmd(m.ctx, m.sync)

	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(Tab((int(m.tab) + 1) % len(tabNames)))
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(Tab((int(m.tab) + len(tabNames) - 1) % len(tabNames)))
	case key.Matches(msg, m.keys.Notes):
		m.switchTab(TabNotes)
	case key.Matches(msg, m.keys.Tasks):
		m.switchTab(TabTasks)
	case key.Matches(msg, m.keys.Categories):
		m.switchTab(TabCategories)

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.selected[m.tab] = 0
		m.updateDetailViewport()
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.tab] = m.itemCount() - 1
		m.clampSelection()
		m.updateDetailViewport()

	case key.Matches(msg, m.keys.CycleFilter):
		if m.tab == TabNotes {
			m.categoryFilter = nextCategoryFilter(m.snapshot.Categories, m.categoryFilter)
			m.selected[TabNotes] = 0
			m.updateDetailViewport()
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.tab != TabTasks || m.busy {
			return m, nil
		}
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.toggleTaskCmd(task)

	case key.Matches(msg, m.keys.NewTask):
		if m.tab != TabTasks {
			return m, nil
		}
		m.prompt = true
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if p, ok := m.deleteTarget(); ok {
			m.confirm = &p
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := *m.confirm
	m.confirm = nil
	if !key.Matches(msg, m.keys.Confirm) {
		m.setStatus("delete cancelled", false)
		return m, nil
	}
	m.busy = true
	return m, m.deleteCmd(p)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.prompt = false
		m.input.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		desc := strings.TrimSpace(m.input.Value())
		m.prompt = false
		m.input.Blur()
		if desc == "" {
			m.setStatus("description is required", true)
			return m, nil
		}
		m.busy = true
		return m, m.createTaskCmd(desc)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.clampSelection()
	m.updateDetailViewport()
}

func (m *Model) moveSelection(delta int) {
	m.selected[m.tab] += delta
	m.clampSelection()
	m.updateDetailViewport()
}

func (m *Model) clampSelection() {
	n := m.itemCount()
	for t := range m.selected {
		if Tab(t) != m.tab {
			continue
		}
		if m.selected[t] >= n {
			m.selected[t] = n - 1
		}
		if m.selected[t] < 0 {
			m.selected[t] = 0
		}
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, StartTab: m.tab.prefName()})
}

func (m Model) snapshotCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return fetchSnapshotCmd(m.store)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type syncDoneMsg struct{ err error }

type actionDoneMsg struct {
	status string
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func syncCmd(ctx context.Context, sync func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return syncDoneMsg{err: sync(ctx)}
	}
}

var errUnavailable = errors.New("action unavailable")

func (m Model) deleteCmd(p pendingDelete) tea.Cmd {
	ctx, publish := m.ctx, m.publish
	var del func(context.Context, int64) error
	switch p.tab {
	case TabNotes:
		if m.notes != nil {
			del = m.notes.Delete
		}
	case TabTasks:
		if m.tasks != nil {
			del = m.tasks.Delete
		}
	case TabCategories:
		if m.categories != nil {
			del = m.categories.Delete
		}
	}
	return func() tea.Msg {
		if del == nil {
			return actionDoneMsg{err: errUnavailable}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		if err := del(ctx, p.id); err != nil {
			return actionDoneMsg{err: err}
		}
		if publish != nil {
			publish()
		}
		return actionDoneMsg{status: fmt.Sprintf("deleted %q", p.label)}
	}
}

func (m Model) toggleTaskCmd(task resource.Task) tea.Cmd {
	ctx, tasks, publish := m.ctx, m.tasks, m.publish
	return func() tea.Msg {
		if tasks == nil {
			return actionDoneMsg{err: errUnavailable}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		updated, err := tasks.SetCompleted(ctx, task.ID, !task.Completed)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if publish != nil {
			publish()
		}
		verb := "reopened"
		if updated.Completed {
			verb = "completed"
		}
		return actionDoneMsg{status: fmt.Sprintf("%s %q", verb, taskLabel(updated))}
	}
}

func (m Model) createTaskCmd(desc string) tea.Cmd {
	ctx, tasks, publish := m.ctx, m.tasks, m.publish
	return func() tea.Msg {
		if tasks == nil {
			return actionDoneMsg{err: errUnavailable}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		created, err := tasks.Create(ctx, resource.TaskInput{Description: desc})
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if publish != nil {
			publish()
		}
		return actionDoneMsg{status: fmt.Sprintf("created %q", taskLabel(created))}
	}
}

// friendlyError keeps the message a user should see: validation text, the
// generic operation message, or a sign-in hint.
func friendlyError(err error) string {
	if errors.Is(err, resource.ErrNotAuthenticated) {
		return "not signed in: run `keep login`"
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i] + " (+more)"
	}
	return msg
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
