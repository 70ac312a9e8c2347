package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/reconcile"
)

// ListModel is the task list screen: the merged view of fetched remote
// items and already-imported tasks for one repository+kind.
type ListModel struct {
	// Dependencies
	reconciler *reconcile.Reconciler
	ctx        context.Context

	// Filters
	repository string
	kind       domain.ItemKind

	// UI components
	keys    KeyMap
	spinner spinner.Model
	search  textinput.Model

	// State
	tasks     []domain.Task // Full merged list, fetch order
	visible   []domain.Task // After search filter
	cursor    int
	searching bool
	loading   bool
	errMsg    string
	statusMsg string

	// View dimensions
	width  int
	height int
}

// NewListModel creates the task list screen.
func NewListModel(reconciler *reconcile.Reconciler, ctx context.Context, repository string, kind domain.ItemKind) ListModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "search title, description, tags..."
	ti.CharLimit = 120

	if kind == "" {
		kind = domain.ItemKindIssue
	}

	return ListModel{
		reconciler: reconciler,
		ctx:        ctx,
		repository: repository,
		kind:       kind,
		keys:       DefaultKeyMap(),
		spinner:    sp,
		search:     ti,
		loading:    true,
	}
}

// Init starts the first refresh.
func (m ListModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

// Update handles messages for the list screen.
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tasksRefreshedMsg:
		m.loading = false
		m.tasks = msg.Tasks
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		} else {
			m.errMsg = ""
		}
		m.applyFilter()
		return m, nil

	case taskImportedMsg:
		// Swap the imported record into place so the marker updates
		// without a refetch.
		url := msg.Task.Source.Keys[domain.ExtensionGitHub]
		for i := range m.tasks {
			if m.tasks[i].Source.Keys[domain.ExtensionGitHub] == url {
				m.tasks[i] = msg.Task
			}
		}
		m.statusMsg = fmt.Sprintf("Imported %q", msg.Task.Title)
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m ListModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ApplySearch):
		m.searching = false
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.CancelSearch):
		m.searching = false
		m.search.SetValue("")
		m.search.Blur()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m ListModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, func() tea.Msg { return QuitMsg{} }

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.statusMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.refresh())

	case key.Matches(msg, m.keys.ToggleKind):
		if m.kind == domain.ItemKindIssue {
			m.kind = domain.ItemKindPullRequest
		} else {
			m.kind = domain.ItemKindIssue
		}
		m.loading = true
		m.cursor = 0
		m.statusMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.refresh())

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Import):
		if task, ok := m.selected(); ok {
			return m, m.importTask(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if task, ok := m.selected(); ok {
			return m, openInBrowser(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		if task, ok := m.selected(); ok {
			return m, func() tea.Msg { return openDetailMsg{Task: task} }
		}
		return m, nil
	}

	return m, nil
}

// View renders the task list.
func (m ListModel) View() string {
	var b strings.Builder

	kindLabel := "issues"
	if m.kind == domain.ItemKindPullRequest {
		kindLabel = "pull requests"
	}
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s — %s (%d)", m.repository, kindLabel, len(m.visible))))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(m.spinner.View() + " Fetching...\n")
	}

	if m.errMsg != "" {
		b.WriteString(ErrorStyle.Render(m.errMsg) + "\n")
	}

	for i, task := range m.visible {
		b.WriteString(m.renderRow(i, task))
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n" + ImportedMarkStyle.Render(m.statusMsg))
	}

	b.WriteString(HelpStyle.Render("enter details · i import · o open · r refresh · p issues/PRs · / search · q quit"))
	return b.String()
}

func (m ListModel) renderRow(i int, task domain.Task) string {
	mark := "  "
	if imported(task) {
		mark = ImportedMarkStyle.Render("✓ ")
	}

	line := fmt.Sprintf("%s[%s] %s", mark, task.Status, task.Title)
	if task.Priority != "" {
		line += fmt.Sprintf(" (%s)", task.Priority)
	}

	switch {
	case i == m.cursor:
		return SelectedItemStyle.Render("> " + line)
	case task.Done:
		return "  " + DoneStyle.Render(line)
	default:
		return "  " + NormalItemStyle.Render(line)
	}
}

// selected returns the task under the cursor.
func (m ListModel) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return domain.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m *ListModel) applyFilter() {
	m.visible = reconcile.Filter(m.tasks, m.search.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// refresh creates a command that fetches and merges tasks. A fetch error
// still delivers the imported tasks so the list never goes blank.
func (m ListModel) refresh() tea.Cmd {
	repository, kind := m.repository, m.kind
	return func() tea.Msg {
		tasks, err := m.reconciler.Refresh(m.ctx, repository, kind)
		return tasksRefreshedMsg{Tasks: tasks, Err: err}
	}
}

// importTask creates a command that persists a task to the store.
func (m ListModel) importTask(task domain.Task) tea.Cmd {
	return func() tea.Msg {
		imported, err := m.reconciler.Import(task)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("import failed: %w", err)}
		}
		return taskImportedMsg{Task: imported}
	}
}

func openInBrowser(task domain.Task) tea.Cmd {
	url := task.Source.Keys[domain.ExtensionGitHub]
	return func() tea.Msg {
		if url == "" {
			return nil
		}
		if err := browser.OpenURL(url); err != nil {
			return ErrorMsg{Err: fmt.Errorf("open browser: %w", err)}
		}
		return nil
	}
}

// imported reports whether a task is persisted locally. Drafts have no
// store-assigned timestamps.
func imported(task domain.Task) bool {
	return !task.CreatedAt.IsZero()
}
