// Package storage owns the durable task collection. It wraps a sqlite
// database and layers change notification on top so callers can hold
// live queries that re-evaluate after every mutation.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"haru/internal/task"
)

// ErrNotFound reports an update aimed at an id the store does not hold.
var ErrNotFound = errors.New("task not found")

type Store struct {
	db *sql.DB

	mu       sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, watchers: make(map[int]chan struct{})}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	// AUTOINCREMENT so deleted ids are never reused; a restored task
	// keeps its old id.
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	important INTEGER NOT NULL DEFAULT 0,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Seed inserts the given tasks if and only if the table is empty.
func (s *Store) Seed(tasks []task.Task) error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks;`).Scan(&n); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, t := range tasks {
		if _, err := s.Insert(t); err != nil {
			return err
		}
	}
	return nil
}

// Insert persists a task. A zero id gets a fresh one; an explicit id
// replaces any task already stored under it (the undo-restore path).
func (s *Store) Insert(t task.Task) (task.Task, error) {
	if t.ID == 0 {
		res, err := s.db.Exec(
			`INSERT INTO tasks (name, important, completed, created_at) VALUES (?, ?, ?, ?);`,
			t.Name, boolInt(t.Important), boolInt(t.Completed), t.CreatedAt)
		if err != nil {
			return task.Task{}, fmt.Errorf("insert: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return task.Task{}, fmt.Errorf("insert: %w", err)
		}
		t.ID = id
	} else {
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO tasks (id, name, important, completed, created_at) VALUES (?, ?, ?, ?, ?);`,
			t.ID, t.Name, boolInt(t.Important), boolInt(t.Completed), t.CreatedAt)
		if err != nil {
			return task.Task{}, fmt.Errorf("insert: %w", err)
		}
	}
	s.notify()
	return t, nil
}

// Update replaces the stored task carrying t's id. It returns
// ErrNotFound when no such task exists; it never upserts.
func (s *Store) Update(t task.Task) error {
	res, err := s.db.Exec(
		`UPDATE tasks SET name = ?, important = ?, completed = ?, created_at = ? WHERE id = ?;`,
		t.Name, boolInt(t.Important), boolInt(t.Completed), t.CreatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update id %d: %w", t.ID, ErrNotFound)
	}
	s.notify()
	return nil
}

// Delete removes the task with the given id. Deleting an absent id is
// a no-op.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	s.notify()
	return nil
}

// DeleteAllCompleted removes every completed task in one statement,
// so concurrent queries see the table before or after the sweep, and
// reports how many went.
func (s *Store) DeleteAllCompleted() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE completed = 1;`)
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	s.notify()
	return n, nil
}

// Two fixed query shapes, one per sort order. instr() rather than
// LIKE: the substring match is case-sensitive.
const (
	queryByName = `SELECT id, name, important, completed, created_at FROM tasks
WHERE (completed != ? OR completed = 0) AND (? = '' OR instr(name, ?) > 0)
ORDER BY important DESC, name ASC;`

	queryByDate = `SELECT id, name, important, completed, created_at FROM tasks
WHERE (completed != ? OR completed = 0) AND (? = '' OR instr(name, ?) > 0)
ORDER BY important DESC, created_at ASC;`
)

// Query returns the tasks whose name contains search as a substring,
// important tasks first, then ordered by the preferred sort key.
// HideCompleted suppresses completed tasks only; incomplete tasks
// always show.
func (s *Store) Query(search string, p task.FilterPreferences) ([]task.Task, error) {
	q := queryByDate
	if p.Sort == task.ByName {
		q = queryByName
	}
	rows, err := s.db.Query(q, boolInt(p.HideCompleted), search, search)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		var important, completed int
		if err := rows.Scan(&t.ID, &t.Name, &important, &completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		t.Important = important == 1
		t.Completed = completed == 1
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return tasks, nil
}

// Watch runs Query now and again after every mutation, delivering each
// result on the returned channel until ctx is cancelled. A consumer
// that falls behind sees only the newest result; failed refreshes are
// logged and skipped.
func (s *Store) Watch(ctx context.Context, search string, p task.FilterPreferences) <-chan []task.Task {
	tick := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = tick
	s.mu.Unlock()

	out := make(chan []task.Task, 1)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
			close(out)
		}()
		for {
			if tasks, err := s.Query(search, p); err != nil {
				slog.Warn("live query refresh failed", "err", err)
			} else {
				select {
				case out <- tasks:
				default:
					select {
					case <-out:
					default:
					}
					out <- tasks
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}
	}()
	return out
}

// notify wakes every live watcher after a successful mutation.
func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
