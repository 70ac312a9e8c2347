package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/reconcile"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenList AppScreen = iota
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions
// between the task list and the task detail view.
type AppModel struct {
	// Dependencies
	reconciler *reconcile.Reconciler
	ctx        context.Context

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error

	// Cached list model to preserve state across screen transitions
	listModel *ListModel
}

// NewAppModel creates the root model. Repository is the "owner/repo" to
// show first; kind selects issues or pull requests.
func NewAppModel(reconciler *reconcile.Reconciler, ctx context.Context, repository string, kind domain.ItemKind) AppModel {
	list := NewListModel(reconciler, ctx, repository, kind)
	return AppModel{
		reconciler:    reconciler,
		ctx:           ctx,
		currentScreen: ScreenList,
		currentModel:  list,
		listModel:     &list,
	}
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	return m.listModel.Init()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(msg.Task)
		m.currentModel = detail
		return m, detail.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenList
		m.currentModel = *m.listModel
		return m, tea.WindowSize()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		if m.currentScreen == ScreenList {
			if lm, ok := m.currentModel.(ListModel); ok {
				m.listModel = &lm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return "Loading...\n\nPress Ctrl+C to quit"
}
