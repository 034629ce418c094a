package controller

import (
	"strings"

	"haru/internal/storage"
	"haru/internal/stream"
	"haru/internal/task"
)

const (
	stateTaskName      = "taskName"
	stateTaskImportant = "taskImportance"
)

// Editor drives the add/edit form for a single task. With a non-nil
// existing task it edits, otherwise it creates. Pending input is
// checkpointed into the state bag on every change.
type Editor struct {
	store    *storage.Store
	state    *State
	existing *task.Task

	name      string
	important bool
	events    *stream.Queue[Event]
}

func NewEditor(store *storage.Store, state *State, existing *task.Task) *Editor {
	name := ""
	important := false
	if existing != nil {
		name = existing.Name
		important = existing.Important
	}
	return &Editor{
		store:     store,
		state:     state,
		existing:  existing,
		name:      state.GetString(stateTaskName, name),
		important: state.GetBool(stateTaskImportant, important),
		events:    stream.NewQueue[Event](),
	}
}

func (e *Editor) Name() string {
	return e.name
}

func (e *Editor) SetName(name string) {
	e.name = name
	e.state.SetString(stateTaskName, name)
}

func (e *Editor) Important() bool {
	return e.important
}

func (e *Editor) SetImportant(important bool) {
	e.important = important
	e.state.SetBool(stateTaskImportant, important)
}

// Events delivers ShowInvalidInput, SavedResult and ShowError.
func (e *Editor) Events() <-chan Event {
	return e.events.Events()
}

// Save validates the pending input and persists. A blank name emits
// ShowInvalidInput and touches nothing. Edits keep the task's id,
// creation time and completion state; only name and importance change.
func (e *Editor) Save() {
	if strings.TrimSpace(e.name) == "" {
		e.events.Send(ShowInvalidInput{Message: "Name cannot be empty"})
		return
	}

	if e.existing != nil {
		updated := e.existing.WithName(e.name).WithImportant(e.important)
		go func() {
			if err := e.store.Update(updated); err != nil {
				e.events.Send(ShowError{Err: err})
				return
			}
			e.events.Send(SavedResult{Kind: TaskUpdated})
		}()
		return
	}

	created := task.New(e.name, e.important)
	go func() {
		if _, err := e.store.Insert(created); err != nil {
			e.events.Send(ShowError{Err: err})
			return
		}
		e.events.Send(SavedResult{Kind: TaskAdded})
	}()
}

// Close releases the event queue.
func (e *Editor) Close() {
	e.events.Close()
}
