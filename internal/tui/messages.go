// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import "github.com/tasksync/tasksync/internal/domain"

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// tasksRefreshedMsg carries the merged task list after a refresh. Err is
// set when the fetch failed; Tasks then holds only already-imported
// tasks, which stay visible alongside the error.
type tasksRefreshedMsg struct {
	Tasks []domain.Task
	Err   error
}

// taskImportedMsg is emitted after a task is persisted to the store.
type taskImportedMsg struct {
	Task domain.Task
}

// openDetailMsg asks the app to show the detail screen for a task.
type openDetailMsg struct {
	Task domain.Task
}

// closeDetailMsg returns from the detail screen to the list.
type closeDetailMsg struct{}
