// Package prefs persists the two list settings, sort order and
// hide-completed, and exposes them as a live stream. A missing or
// unreadable file means defaults, never an error.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"haru/internal/stream"
	"haru/internal/task"
)

type fileFormat struct {
	SortOrder     string `toml:"sort_order"`
	HideCompleted bool   `toml:"hide_completed"`
}

// Manager owns the preference file and the live FilterPreferences
// stream derived from it.
type Manager struct {
	path string
	flow *stream.Value[task.FilterPreferences]

	// mu serializes the read-modify-write of the pair; concurrent
	// setters must not erase each other's field.
	mu sync.Mutex
}

// Open reads the preference file at path. A missing or unreadable file
// seeds the stream with defaults.
func Open(path string) *Manager {
	return &Manager{path: path, flow: stream.NewValue(load(path))}
}

func load(path string) task.FilterPreferences {
	p := task.DefaultFilterPreferences()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("reading preferences failed, using defaults", "path", path, "err", err)
		}
		return p
	}
	var f fileFormat
	if err := toml.Unmarshal(data, &f); err != nil {
		slog.Warn("preferences file malformed, using defaults", "path", path, "err", err)
		return p
	}
	p.Sort = task.ParseSortOrder(f.SortOrder)
	p.HideCompleted = f.HideCompleted
	return p
}

// Flow returns the live preference pair. Subscribers get the current
// value immediately and every later change.
func (m *Manager) Flow() *stream.Value[task.FilterPreferences] {
	return m.flow
}

// SetSortOrder persists a new sort order and pushes the updated pair
// to subscribers.
func (m *Manager) SetSortOrder(ctx context.Context, o task.SortOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.flow.Get()
	p.Sort = o
	return m.write(ctx, p)
}

// SetHideCompleted persists the hide-completed flag and pushes the
// updated pair to subscribers.
func (m *Manager) SetHideCompleted(ctx context.Context, hide bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.flow.Get()
	p.HideCompleted = hide
	return m.write(ctx, p)
}

// write lands the pair on disk through a rename so a crash mid-write
// leaves the old file intact, then updates the stream. Callers hold
// m.mu.
func (m *Manager) write(ctx context.Context, p task.FilterPreferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := toml.Marshal(fileFormat{
		SortOrder:     string(p.Sort),
		HideCompleted: p.HideCompleted,
	})
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("write preferences: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	m.flow.Set(p)
	return nil
}
