package controller

import "haru/internal/task"

// Event is the closed set of one-shot notifications the controllers
// emit. Consumers type-switch over the variants and log anything
// unhandled.
type Event interface {
	isEvent()
}

// NavigateToAdd asks the presentation layer for a blank task form.
type NavigateToAdd struct{}

// NavigateToEdit asks for the task form pre-filled with Task.
type NavigateToEdit struct {
	Task task.Task
}

// ShowUndoDelete reports that Task was just removed and should be
// offered back to the user. Task carries everything needed to restore
// it exactly.
type ShowUndoDelete struct {
	Task task.Task
}

// ShowSaved confirms a completed add or edit.
type ShowSaved struct {
	Message string
}

// NavigateToDeleteAllCompleted asks for the destructive-sweep
// confirmation prompt.
type NavigateToDeleteAllCompleted struct{}

// ShowInvalidInput reports rejected form input. Nothing was persisted.
type ShowInvalidInput struct {
	Message string
}

// ShowError surfaces a failed persistence operation.
type ShowError struct {
	Err error
}

// SavedResult is the editor's terminal event: the task was persisted
// and the form can close.
type SavedResult struct {
	Kind SaveKind
}

// SaveKind distinguishes what kind of save just finished.
type SaveKind int

const (
	TaskAdded SaveKind = iota + 1
	TaskUpdated
)

func (NavigateToAdd) isEvent()                {}
func (NavigateToEdit) isEvent()               {}
func (ShowUndoDelete) isEvent()               {}
func (ShowSaved) isEvent()                    {}
func (NavigateToDeleteAllCompleted) isEvent() {}
func (ShowInvalidInput) isEvent()             {}
func (ShowError) isEvent()                    {}
func (SavedResult) isEvent()                  {}
