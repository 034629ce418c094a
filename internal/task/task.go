// Package task defines the task record and the list preferences that
// shape how records are presented.
package task

import "time"

// Task is one to-do item. It is value data: every change produces a
// replacement carrying the same ID, so two tasks compare equal exactly
// when nothing about them differs. ID and CreatedAt never change after
// the store assigns them.
type Task struct {
	ID        int64
	Name      string
	Important bool
	Completed bool
	CreatedAt int64 // unix milliseconds
}

// New returns an unsaved task stamped with the current time. The store
// assigns the ID on insert.
func New(name string, important bool) Task {
	return Task{
		Name:      name,
		Important: important,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// WithName returns a copy with the name replaced.
func (t Task) WithName(name string) Task {
	t.Name = name
	return t
}

// WithImportant returns a copy with the importance flag replaced.
func (t Task) WithImportant(important bool) Task {
	t.Important = important
	return t
}

// WithCompleted returns a copy with the completion flag replaced.
func (t Task) WithCompleted(completed bool) Task {
	t.Completed = completed
	return t
}

// CreatedDate renders the creation timestamp for display.
func (t Task) CreatedDate() string {
	return time.UnixMilli(t.CreatedAt).Format("Jan 2, 2006")
}

// SortOrder selects the secondary list ordering. Important tasks always
// sort first regardless of order.
type SortOrder string

const (
	ByDate SortOrder = "BY_DATE"
	ByName SortOrder = "BY_NAME"
)

// ParseSortOrder maps a persisted value back to a SortOrder. Anything
// unrecognized falls back to ByDate, the documented default.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == ByName {
		return ByName
	}
	return ByDate
}

// FilterPreferences is the pair of settings that, together with the
// search text, determines list composition.
type FilterPreferences struct {
	Sort          SortOrder
	HideCompleted bool
}

// DefaultFilterPreferences is used whenever persisted preferences are
// missing or unreadable.
func DefaultFilterPreferences() FilterPreferences {
	return FilterPreferences{Sort: ByDate, HideCompleted: false}
}
