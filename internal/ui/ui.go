package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"haru/internal/config"
	"haru/internal/controller"
	"haru/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeEdit
	modeConfirmSweep
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	completedStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

type (
	tasksMsg  []task.Task
	prefsMsg  task.FilterPreferences
	eventMsg  struct{ ev controller.Event }
	editorMsg struct{ ev controller.Event }
)

type Model struct {
	ctrl *controller.TaskList
	cfg  config.Config

	tasks  []task.Task
	filter task.FilterPreferences
	cursor int
	mode   mode

	editor    *controller.Editor
	important bool

	input       textinput.Model
	status      string
	lastDeleted *task.Task

	newEditor func(state *controller.State, existing *task.Task) *controller.Editor
	prefsCh   <-chan task.FilterPreferences
}

// Run drives the list screen until the user quits. ctx bounds the
// UI's subscriptions; the controller's own lifetime is the caller's
// concern.
func Run(ctx context.Context, ctrl *controller.TaskList, newEditor func(*controller.State, *task.Task) *controller.Editor, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ti := textinput.New()
	ti.Placeholder = "Task name"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctrl:      ctrl,
		cfg:       cfg,
		input:     ti,
		status:    "a add • / search • space toggle • d delete",
		mode:      modeList,
		newEditor: newEditor,
		prefsCh:   ctrl.Preferences().Subscribe(ctx),
	}

	program := tea.NewProgram(&m)
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitTasks(), m.waitPrefs(), m.waitEvents())
}

func (m *Model) waitTasks() tea.Cmd {
	return func() tea.Msg {
		ts, ok := <-m.ctrl.Tasks()
		if !ok {
			return nil
		}
		return tasksMsg(ts)
	}
}

func (m *Model) waitPrefs() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-m.prefsCh
		if !ok {
			return nil
		}
		return prefsMsg(p)
	}
}

func (m *Model) waitEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.ctrl.Events()
		if !ok {
			return nil
		}
		return eventMsg{ev}
	}
}

func (m *Model) waitEditor(e *controller.Editor) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-e.Events()
		if !ok {
			return nil
		}
		return editorMsg{ev}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksMsg:
		m.tasks = msg
		m.cursor = clampCursor(m.cursor, len(m.tasks))
		return m, m.waitTasks()
	case prefsMsg:
		m.filter = task.FilterPreferences(msg)
		return m, m.waitPrefs()
	case eventMsg:
		cmd := m.handleEvent(msg.ev)
		return m, tea.Batch(cmd, m.waitEvents())
	case editorMsg:
		if m.editor == nil {
			return m, nil
		}
		cmd := m.handleEditorEvent(msg.ev)
		if m.editor != nil {
			cmd = tea.Batch(cmd, m.waitEditor(m.editor))
		}
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// handleEvent consumes the list controller's one-shot events; an
// unknown variant means a missing case here and is logged.
func (m *Model) handleEvent(ev controller.Event) tea.Cmd {
	switch ev := ev.(type) {
	case controller.NavigateToAdd:
		return m.openEditor(nil)
	case controller.NavigateToEdit:
		t := ev.Task
		return m.openEditor(&t)
	case controller.ShowUndoDelete:
		t := ev.Task
		m.lastDeleted = &t
		m.status = fmt.Sprintf("Deleted %q • press %s to undo", t.Name, m.cfg.Keys.Undo)
	case controller.ShowSaved:
		m.status = ev.Message
	case controller.NavigateToDeleteAllCompleted:
		m.mode = modeConfirmSweep
		m.status = "Delete all completed tasks? y/n"
	case controller.ShowError:
		slog.Error("operation failed", "err", ev.Err)
		m.status = fmt.Sprintf("operation failed: %v", ev.Err)
	default:
		slog.Warn("unhandled event", "event", fmt.Sprintf("%T", ev))
	}
	return nil
}

func (m *Model) handleEditorEvent(ev controller.Event) tea.Cmd {
	switch ev := ev.(type) {
	case controller.ShowInvalidInput:
		m.status = ev.Message
	case controller.SavedResult:
		m.ctrl.OnSaveResult(ev.Kind)
		m.closeEditor()
	case controller.ShowError:
		slog.Error("save failed", "err", ev.Err)
		m.status = fmt.Sprintf("save failed: %v", ev.Err)
	default:
		slog.Warn("unhandled editor event", "event", fmt.Sprintf("%T", ev))
	}
	return nil
}

func (m *Model) openEditor(existing *task.Task) tea.Cmd {
	// Each editing session gets a fresh state bag.
	e := m.newEditor(controller.NewState(), existing)
	m.editor = e
	m.important = e.Important()
	m.mode = modeEdit
	m.input.SetValue(e.Name())
	m.input.Placeholder = "Task name"
	m.input.Focus()
	if existing == nil {
		m.status = "New task: type a name, tab toggles importance, enter saves"
	} else {
		m.status = "Edit task: enter saves, esc cancels"
	}
	return m.waitEditor(e)
}

func (m *Model) closeEditor() {
	if m.editor != nil {
		m.editor.Close()
		m.editor = nil
	}
	m.input.SetValue("")
	m.input.Blur()
	m.mode = modeList
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEdit:
		return m.updateEditMode(msg)
	case modeSearch:
		return m.updateSearchMode(msg)
	case modeConfirmSweep:
		return m.updateConfirmSweep(msg.String())
	default:
		return m.updateListMode(msg.String())
	}
}

func (m *Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case m.cfg.Keys.Add:
		m.ctrl.AddNewTask()
	case m.cfg.Keys.Toggle:
		if t, ok := m.current(); ok {
			m.ctrl.ToggleCompleted(t, !t.Completed)
		}
	case m.cfg.Keys.Delete:
		if t, ok := m.current(); ok {
			m.ctrl.SwipeToDelete(t)
		}
	case m.cfg.Keys.Undo:
		if m.lastDeleted != nil {
			m.ctrl.UndoDelete(*m.lastDeleted)
			m.lastDeleted = nil
			m.status = "Restored task"
		}
	case m.cfg.Keys.Edit:
		if t, ok := m.current(); ok {
			m.ctrl.SelectTask(t)
		}
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.ctrl.Search())
		m.input.Placeholder = "Search"
		m.input.Focus()
		m.status = "Search: type to filter, enter/esc to leave"
	case m.cfg.Keys.SortByName:
		m.ctrl.SetSortOrder(task.ByName)
	case m.cfg.Keys.SortByDate:
		m.ctrl.SetSortOrder(task.ByDate)
	case m.cfg.Keys.HideCompleted:
		m.ctrl.SetHideCompleted(!m.filter.HideCompleted)
	case m.cfg.Keys.DeleteCompleted:
		m.ctrl.RequestDeleteAllCompleted()
	}
	return m, nil
}

func (m *Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, m.cfg.Keys.Confirm:
		m.input.Blur()
		m.mode = modeList
		m.status = "a add • / search • space toggle • d delete"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetSearch(m.input.Value())
		return m, cmd
	}
}

func (m *Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor == nil {
		m.mode = modeList
		return m, nil
	}
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.closeEditor()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Important:
		m.important = !m.important
		m.editor.SetImportant(m.important)
		return m, nil
	case m.cfg.Keys.Confirm:
		m.editor.SetName(m.input.Value())
		m.editor.Save()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.editor.SetName(m.input.Value())
		return m, cmd
	}
}

func (m *Model) updateConfirmSweep(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", m.cfg.Keys.Confirm:
		m.ctrl.ConfirmDeleteAllCompleted()
		m.mode = modeList
		m.status = "Deleting completed tasks"
	case "n", "N", m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = "Cancelled"
	}
	return m, nil
}

func (m *Model) current() (task.Task, bool) {
	if len(m.tasks) == 0 {
		return task.Task{}, false
	}
	return m.tasks[clampCursor(m.cursor, len(m.tasks))], true
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(m.filterLine()))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(helpStyle.Render("No tasks. Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		for i, t := range m.tasks {
			cursor := " "
			if m.cursor == i && m.mode == modeList {
				cursor = ">"
			}
			checkbox := "[ ]"
			if t.Completed {
				checkbox = "[x]"
			}
			star := "  "
			if t.Important {
				star = importantStyle.Render("★ ")
			}
			line := fmt.Sprintf("%s %s %s%s", cursor, checkbox, star, t.Name)
			if t.Completed {
				line = completedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString(helpStyle.Render("  " + t.CreatedDate()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch m.mode {
	case modeSearch:
		b.WriteString("Search: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeEdit:
		label := "New task"
		if m.editor != nil && m.important {
			label += " " + importantStyle.Render("★")
		}
		b.WriteString(label + ": ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	default:
		if q := m.ctrl.Search(); q != "" {
			b.WriteString(helpStyle.Render(fmt.Sprintf("filter: %q", q)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m *Model) filterLine() string {
	sort := "by date"
	if m.filter.Sort == task.ByName {
		sort = "by name"
	}
	hide := "shown"
	if m.filter.HideCompleted {
		hide = "hidden"
	}
	return fmt.Sprintf("sorted %s • completed %s", sort, hide)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s undo • %s search • %s/%s sort • %s hide done • %s sweep • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Toggle, k.Delete, k.Undo, k.Search, k.SortByName, k.SortByDate, k.HideCompleted, k.DeleteCompleted, k.Quit)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
