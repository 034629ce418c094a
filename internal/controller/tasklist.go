// Package controller translates user intent into repository calls and
// keeps the presentation layer fed with one continuous task stream
// plus one-shot events.
package controller

import (
	"context"
	"log/slog"

	"haru/internal/prefs"
	"haru/internal/storage"
	"haru/internal/stream"
	"haru/internal/task"
)

const stateSearchQuery = "searchQuery"

// TaskList drives the main list screen. It combines the search text
// and the filter preferences into one live repository query with
// switch-to-latest semantics: any input change cancels the running
// query and starts a fresh one.
type TaskList struct {
	store *storage.Store
	prefs *prefs.Manager
	state *State

	// appCtx outlives the list screen; destructive confirmations run
	// on it.
	appCtx context.Context

	ctx    context.Context
	cancel context.CancelFunc

	search *stream.Value[string]
	tasks  chan []task.Task
	events *stream.Queue[Event]
}

func NewTaskList(appCtx context.Context, store *storage.Store, pm *prefs.Manager, state *State) *TaskList {
	ctx, cancel := context.WithCancel(context.Background())
	c := &TaskList{
		store:  store,
		prefs:  pm,
		state:  state,
		appCtx: appCtx,
		ctx:    ctx,
		cancel: cancel,
		search: stream.NewValue(state.GetString(stateSearchQuery, "")),
		tasks:  make(chan []task.Task, 1),
		events: stream.NewQueue[Event](),
	}
	go c.run()
	return c
}

// run is the query composer. It owns the single active repository
// watch; results are forwarded from the same select that reacts to
// input changes, so a superseded generation never delivers.
func (c *TaskList) run() {
	searchCh := c.search.Subscribe(c.ctx)
	prefsCh := c.prefs.Flow().Subscribe(c.ctx)

	query := <-searchCh
	filter := <-prefsCh

	qctx, qcancel := context.WithCancel(c.ctx)
	results := c.store.Watch(qctx, query, filter)
	defer func() { qcancel() }()

	restart := func() {
		qcancel()
		qctx, qcancel = context.WithCancel(c.ctx)
		results = c.store.Watch(qctx, query, filter)
	}

	for {
		select {
		case <-c.ctx.Done():
			return
		case q, ok := <-searchCh:
			if !ok {
				return
			}
			if q == query {
				continue
			}
			query = q
			restart()
		case p, ok := <-prefsCh:
			if !ok {
				return
			}
			if p == filter {
				continue
			}
			filter = p
			restart()
		case ts, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			c.offerTasks(ts)
		}
	}
}

// offerTasks publishes a result, displacing an unconsumed older one.
func (c *TaskList) offerTasks(ts []task.Task) {
	for {
		select {
		case c.tasks <- ts:
			return
		default:
			select {
			case <-c.tasks:
			default:
			}
		}
	}
}

// Tasks is the continuous list stream. It always reflects current
// state; a consumer that lags sees only the newest result.
func (c *TaskList) Tasks() <-chan []task.Task {
	return c.tasks
}

// Events is the one-shot event stream. Events queue until consumed
// and are delivered exactly once.
func (c *TaskList) Events() <-chan Event {
	return c.events.Events()
}

// Preferences exposes the live filter pair for menu-state rendering.
func (c *TaskList) Preferences() *stream.Value[task.FilterPreferences] {
	return c.prefs.Flow()
}

// Search returns the pending search text.
func (c *TaskList) Search() string {
	return c.search.Get()
}

// SetSearch updates the search text. The value is checkpointed so a
// rebuilt controller picks it back up.
func (c *TaskList) SetSearch(q string) {
	c.state.SetString(stateSearchQuery, q)
	c.search.Set(q)
}

// SelectTask asks the presentation layer to open the editor on t.
func (c *TaskList) SelectTask(t task.Task) {
	c.events.Send(NavigateToEdit{Task: t})
}

// ToggleCompleted persists a completion change. The list stream, not a
// return value, reflects the outcome.
func (c *TaskList) ToggleCompleted(t task.Task, checked bool) {
	go func() {
		if err := c.store.Update(t.WithCompleted(checked)); err != nil {
			c.events.Send(ShowError{Err: err})
		}
	}()
}

// SwipeToDelete removes t and offers the removed record back for undo.
func (c *TaskList) SwipeToDelete(t task.Task) {
	go func() {
		if err := c.store.Delete(t.ID); err != nil {
			c.events.Send(ShowError{Err: err})
			return
		}
		c.events.Send(ShowUndoDelete{Task: t})
	}()
}

// UndoDelete reinstates a task removed by SwipeToDelete. The record
// goes back under its original id and creation time.
func (c *TaskList) UndoDelete(t task.Task) {
	go func() {
		if _, err := c.store.Insert(t); err != nil {
			c.events.Send(ShowError{Err: err})
		}
	}()
}

// AddNewTask asks the presentation layer for a blank form.
func (c *TaskList) AddNewTask() {
	c.events.Send(NavigateToAdd{})
}

// OnSaveResult routes the editor's outcome into a user-visible
// confirmation.
func (c *TaskList) OnSaveResult(kind SaveKind) {
	switch kind {
	case TaskAdded:
		c.events.Send(ShowSaved{Message: "Task added"})
	case TaskUpdated:
		c.events.Send(ShowSaved{Message: "Task updated"})
	}
}

// RequestDeleteAllCompleted asks for the confirmation prompt.
func (c *TaskList) RequestDeleteAllCompleted() {
	c.events.Send(NavigateToDeleteAllCompleted{})
}

// ConfirmDeleteAllCompleted sweeps completed tasks, detached from the
// list subscription's lifetime.
func (c *TaskList) ConfirmDeleteAllCompleted() {
	go func() {
		n, err := c.store.DeleteAllCompleted()
		if err != nil {
			c.events.Send(ShowError{Err: err})
			return
		}
		slog.Info("deleted completed tasks", "count", n)
	}()
}

// SetSortOrder persists the sort order without blocking the caller.
func (c *TaskList) SetSortOrder(o task.SortOrder) {
	go func() {
		if err := c.prefs.SetSortOrder(c.appCtx, o); err != nil {
			c.events.Send(ShowError{Err: err})
		}
	}()
}

// SetHideCompleted persists the hide-completed flag without blocking
// the caller.
func (c *TaskList) SetHideCompleted(hide bool) {
	go func() {
		if err := c.prefs.SetHideCompleted(c.appCtx, hide); err != nil {
			c.events.Send(ShowError{Err: err})
		}
	}()
}

// Close releases the live query and the event queue. Mutations already
// submitted keep running to completion.
func (c *TaskList) Close() {
	c.cancel()
	c.events.Close()
}
