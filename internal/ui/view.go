package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lezoo/keep/internal/resource"
)

// chromeHeight is header + tabs + footer.
const chromeHeight = 3

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{bg.Render("keep", styles.Logo)}
	if m.account != "" {
		parts = append(parts, bg.Render(m.account, styles.MutedText))
	}

	done := 0
	for _, t := range snap.Tasks {
		if t.Completed {
			done++
		}
	}
	parts = append(parts,
		bg.Render(fmt.Sprintf("%d notes", len(snap.Notes)), styles.Text),
		bg.Render(fmt.Sprintf("%d/%d tasks done", done, len(snap.Tasks)), styles.Text),
	)

	switch {
	case m.busy:
		parts = append(parts, bg.Render("syncing...", styles.WarningText))
	case snap.IsOffline():
		parts = append(parts, bg.Render("OFFLINE showing cached data", styles.DangerText))
	case snap.LastError != nil:
		parts = append(parts, bg.Render(friendlyError(snap.LastError), styles.WarningText))
	case !snap.LastUpdated.IsZero():
		parts = append(parts, bg.Render("synced "+snap.LastUpdated.Format("15:04:05"), styles.FaintText))
	case !snap.HasData:
		parts = append(parts, bg.Render("loading...", styles.FaintText))
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	var tabs []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.tab == TabNotes {
		filter := "all categories"
		if name := m.categoryName(m.categoryFilter); m.categoryFilter != 0 && name != "" {
			filter = name
		}
		line += "  " + styles.FaintText.Render("filter: ") + styles.AccentText.Render(filter)
	}
	return lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(line)
}

func (m Model) contentHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) split() bool {
	return m.width >= LayoutSplitWidth
}

func (m Model) listWidth() int {
	if !m.split() {
		return m.width
	}
	return int(float64(m.width) * LayoutListRatio)
}

func (m Model) renderContent() string {
	height := m.contentHeight()
	list := lipgloss.NewStyle().
		Width(m.listWidth()).
		Height(height).
		MaxHeight(height).
		Render(m.renderList(height))
	if !m.split() {
		return list
	}
	pane := m.theme.Styles().Pane.
		Width(m.width - m.listWidth() - 4).
		Height(height - 2).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, list, pane)
}

func (m Model) renderList(height int) string {
	rows := m.listRows()
	styles := m.theme.Styles()
	if len(rows) == 0 {
		return styles.FaintText.Render(m.emptyText())
	}

	sel := m.selected[m.tab]
	start := 0
	if sel >= height {
		start = sel - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}

	width := m.listWidth()
	var b strings.Builder
	for i := start; i < end; i++ {
		row := lipgloss.NewStyle().MaxWidth(width).Render(rows[i])
		if i == sel {
			row = styles.Selected.Width(width).Render(row)
		}
		b.WriteString(row)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) emptyText() string {
	switch {
	case !m.snapshot.HasData:
		return "Waiting for first sync..."
	case m.tab == TabNotes && m.categoryFilter != 0:
		return "No notes in this category."
	default:
		return fmt.Sprintf("No %s yet.", strings.ToLower(m.tab.String()))
	}
}

func (m Model) listRows() []string {
	styles := m.theme.Styles()
	switch m.tab {
	case TabNotes:
		notes := m.visibleNotes()
		rows := make([]string, 0, len(notes))
		for _, n := range notes {
			row := " " + styles.Text.Render(n.Title)
			for _, c := range n.Categories {
				row += " " + styles.Chip(c.Name, c.Color)
			}
			rows = append(rows, row)
		}
		return rows
	case TabTasks:
		rows := make([]string, 0, len(m.snapshot.Tasks))
		for _, t := range m.snapshot.Tasks {
			rows = append(rows, " "+m.taskRow(t))
		}
		return rows
	default:
		rows := make([]string, 0, len(m.snapshot.Categories))
		for _, c := range m.snapshot.Categories {
			rows = append(rows, " "+styles.Chip(c.Name, c.Color)+" "+styles.FaintText.Render(c.Color))
		}
		return rows
	}
}

func (m Model) taskRow(t resource.Task) string {
	styles := m.theme.Styles()
	box := styles.MutedText.Render("[ ]")
	label := styles.Text.Render(taskLabel(t))
	if t.Completed {
		box = styles.SuccessText.Render("[x]")
		label = styles.FaintText.Strikethrough(true).Render(taskLabel(t))
	}
	row := box + " " + label
	if done, total := t.Progress(); total > 0 {
		row += " " + styles.InfoText.Render(fmt.Sprintf("%d/%d", done, total))
	}
	return row
}

// updateDetailViewport sizes the detail pane and fills it for the selection.
func (m *Model) updateDetailViewport() {
	if !m.ready {
		return
	}
	width := m.width - m.listWidth() - 6
	if width < 10 {
		width = 10
	}
	m.detail.Width = width
	m.detail.Height = m.contentHeight() - 2
	m.detail.SetContent(lipgloss.NewStyle().Width(width).Render(m.detailContent()))
	m.detail.GotoTop()
}

func (m Model) detailContent() string {
	styles := m.theme.Styles()
	var b strings.Builder
	switch m.tab {
	case TabNotes:
		n, ok := m.selectedNote()
		if !ok {
			return ""
		}
		b.WriteString(styles.AccentText.Bold(true).Render(n.Title))
		b.WriteString("\n")
		for _, c := range n.Categories {
			b.WriteString(styles.Chip(c.Name, c.Color) + " ")
		}
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render(n.Content))
		if tasks := m.tasksForNote(n.ID); len(tasks) > 0 {
			b.WriteString("\n\n")
			b.WriteString(styles.MutedText.Render("Tasks"))
			for _, t := range tasks {
				b.WriteString("\n" + m.taskRow(t))
			}
		}
	case TabTasks:
		t, ok := m.selectedTask()
		if !ok {
			return ""
		}
		b.WriteString(styles.AccentText.Bold(true).Render(t.Title))
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render(t.Description))
		if t.NoteID != nil {
			b.WriteString("\n\n")
			title := m.noteTitle(*t.NoteID)
			if title == "" {
				title = fmt.Sprintf("#%d", *t.NoteID)
			}
			b.WriteString(styles.MutedText.Render("Note: ") + styles.Text.Render(title))
		}
		if len(t.Subtasks) > 0 {
			b.WriteString("\n\n")
			b.WriteString(styles.MutedText.Render("Subtasks"))
			for _, s := range t.Subtasks {
				mark := styles.MutedText.Render("[ ]")
				if s.Completed {
					mark = styles.SuccessText.Render("[x]")
				}
				b.WriteString("\n" + mark + " " + styles.Text.Render(s.Description))
			}
		}
	default:
		c, ok := m.selectedCategory()
		if !ok {
			return ""
		}
		b.WriteString(styles.Chip(c.Name, c.Color))
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render("Color: ") + styles.Text.Render(c.Color))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Notes: ") + styles.Text.Render(fmt.Sprintf("%d", m.notesInCategory(c.ID))))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var content string
	switch {
	case m.confirm != nil:
		content = styles.DangerText.Render(fmt.Sprintf("Delete %s %q? ", m.confirm.tab.singular(), m.confirm.label)) +
			styles.Text.Render("y/n")
	case m.prompt:
		content = styles.AccentText.Render("New task: ") + m.input.View()
	case m.status != "":
		style := styles.MutedText
		if m.statusErr {
			style = styles.DangerText
		}
		content = style.Render(m.status) + "  " + m.help.ShortHelpView(m.keys.ShortHelp())
	default:
		content = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return styles.Footer.Width(m.width).MaxHeight(1).Render(content)
}
