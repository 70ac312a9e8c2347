package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tasksync/tasksync/internal/domain"
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))
)

// DetailModel shows one task's derived fields and the wrapped body of
// the remote item it came from.
type DetailModel struct {
	task     domain.Task
	keys     KeyMap
	viewport viewport.Model

	width  int
	height int
}

// NewDetailModel creates a detail view for a task.
func NewDetailModel(task domain.Task) DetailModel {
	vp := viewport.New(60, 20) // Resized on WindowSizeMsg
	vp.MouseWheelEnabled = true

	return DetailModel{
		task:     task,
		keys:     DefaultKeyMap(),
		viewport: vp,
	}
}

// Init requests the window size for layout.
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerLines := strings.Count(m.header(), "\n") + 2
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerLines-2, 3)
		m.viewport.SetContent(m.body())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return closeDetailMsg{} }
		case key.Matches(msg, m.keys.Quit):
			return m, func() tea.Msg { return QuitMsg{} }
		case key.Matches(msg, m.keys.Open):
			return m, openInBrowser(m.task)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail screen.
func (m DetailModel) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("o open in browser · esc back · q quit"))
	return b.String()
}

func (m DetailModel) header() string {
	t := m.task
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(field("Status", t.Status))
	b.WriteString(field("Category", t.Category))
	if t.Priority != "" {
		b.WriteString(field("Priority", t.Priority))
	}
	if t.Project != "" {
		b.WriteString(field("Project", t.Project))
	}
	if len(t.Areas) > 0 {
		b.WriteString(field("Areas", strings.Join(t.Areas, ", ")))
	}
	if url := t.Source.Keys[domain.ExtensionGitHub]; url != "" {
		b.WriteString(field("URL", url))
	}
	return b.String()
}

func (m DetailModel) body() string {
	body := m.task.Description
	if body == "" {
		body = "(no description)"
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return wordwrap.String(body, width)
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render(label+":"),
		detailValueStyle.Render(value))
}
