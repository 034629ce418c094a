package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"haru/internal/task"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustInsert(t *testing.T, s *Store, tk task.Task) task.Task {
	t.Helper()
	stored, err := s.Insert(tk)
	if err != nil {
		t.Fatalf("insert %q: %v", tk.Name, err)
	}
	return stored
}

func names(ts []task.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func equalNames(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertAssignsFreshIDs(t *testing.T) {
	s := openStore(t)
	a := mustInsert(t, s, task.Task{Name: "first", CreatedAt: 1})
	b := mustInsert(t, s, task.Task{Name: "second", CreatedAt: 2})
	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("ids not assigned: %d, %d", a.ID, b.ID)
	}
	if b.ID <= a.ID {
		t.Fatalf("ids not monotonic: %d then %d", a.ID, b.ID)
	}
}

func TestIDsNeverReused(t *testing.T) {
	s := openStore(t)
	a := mustInsert(t, s, task.Task{Name: "doomed", CreatedAt: 1})
	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	b := mustInsert(t, s, task.Task{Name: "next", CreatedAt: 2})
	if b.ID == a.ID {
		t.Fatalf("id %d was reused after delete", a.ID)
	}
}

func TestQuerySearchIsCaseSensitiveSubstring(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "Buy milk", CreatedAt: 1})
	mustInsert(t, s, task.Task{Name: "buy bread", CreatedAt: 2})
	mustInsert(t, s, task.Task{Name: "Call mom", CreatedAt: 3})

	p := task.DefaultFilterPreferences()

	got, err := s.Query("Buy", p)
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), "Buy milk") {
		t.Fatalf("search Buy = %v", names(got))
	}

	got, err = s.Query("", p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("empty search matched %d of 3", len(got))
	}
}

func TestQueryHideCompleted(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "open", CreatedAt: 1})
	mustInsert(t, s, task.Task{Name: "done", Completed: true, CreatedAt: 2})

	got, err := s.Query("", task.FilterPreferences{Sort: task.ByDate, HideCompleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), "open") {
		t.Fatalf("hide completed = %v", names(got))
	}

	got, err = s.Query("", task.FilterPreferences{Sort: task.ByDate, HideCompleted: false})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("unfiltered query returned %d of 2", len(got))
	}
}

func TestQueryOrderingByName(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "banana", CreatedAt: 1})
	mustInsert(t, s, task.Task{Name: "apple", CreatedAt: 2})
	mustInsert(t, s, task.Task{Name: "zebra", Important: true, CreatedAt: 3})

	got, err := s.Query("", task.FilterPreferences{Sort: task.ByName})
	if err != nil {
		t.Fatal(err)
	}
	// Important first, then alphabetical.
	if !equalNames(names(got), "zebra", "apple", "banana") {
		t.Fatalf("by-name order = %v", names(got))
	}
}

func TestQueryOrderingByDate(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "newest", CreatedAt: 300})
	mustInsert(t, s, task.Task{Name: "oldest", CreatedAt: 100})
	mustInsert(t, s, task.Task{Name: "starred", Important: true, CreatedAt: 200})

	got, err := s.Query("", task.FilterPreferences{Sort: task.ByDate})
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), "starred", "oldest", "newest") {
		t.Fatalf("by-date order = %v", names(got))
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openStore(t)
	a := mustInsert(t, s, task.Task{Name: "gone", CreatedAt: 1})
	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(a.ID); err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	got, err := s.Query("", task.DefaultFilterPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("store not empty after deletes: %v", names(got))
	}
}

func TestUndoRoundTripRestoresExactRecord(t *testing.T) {
	s := openStore(t)
	orig := mustInsert(t, s, task.Task{Name: "keep me", Important: true, CreatedAt: 424242})
	if err := s.Delete(orig.ID); err != nil {
		t.Fatal(err)
	}
	restored, err := s.Insert(orig)
	if err != nil {
		t.Fatal(err)
	}
	if restored != orig {
		t.Fatalf("restored = %+v, want %+v", restored, orig)
	}
	got, err := s.Query("", task.DefaultFilterPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != orig {
		t.Fatalf("stored = %+v, want %+v", got, orig)
	}
}

func TestInsertWithExistingIDReplaces(t *testing.T) {
	s := openStore(t)
	a := mustInsert(t, s, task.Task{Name: "before", CreatedAt: 1})
	if _, err := s.Insert(a.WithName("after")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Query("", task.DefaultFilterPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), "after") {
		t.Fatalf("after upsert = %v", names(got))
	}
}

func TestUpdateMissingIDReturnsNotFound(t *testing.T) {
	s := openStore(t)
	err := s.Update(task.Task{ID: 99, Name: "ghost", CreatedAt: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAllCompleted(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "a", Completed: true, CreatedAt: 1})
	mustInsert(t, s, task.Task{Name: "b", Completed: true, CreatedAt: 2})
	mustInsert(t, s, task.Task{Name: "c", Completed: true, CreatedAt: 3})
	mustInsert(t, s, task.Task{Name: "d", CreatedAt: 4})
	mustInsert(t, s, task.Task{Name: "e", CreatedAt: 5})

	n, err := s.DeleteAllCompleted()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("removed %d, want 3", n)
	}
	got, err := s.Query("", task.DefaultFilterPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), "d", "e") {
		t.Fatalf("remaining = %v", names(got))
	}
}

func TestWatchDeliversInitialAndRefreshedResults(t *testing.T) {
	s := openStore(t)
	mustInsert(t, s, task.Task{Name: "first", CreatedAt: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Watch(ctx, "", task.DefaultFilterPreferences())

	got := recvTasks(t, ch)
	if !equalNames(names(got), "first") {
		t.Fatalf("initial watch result = %v", names(got))
	}

	mustInsert(t, s, task.Task{Name: "second", CreatedAt: 2})
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got = <-ch:
			if equalNames(names(got), "first", "second") {
				return
			}
		case <-deadline:
			t.Fatalf("watch never reflected mutation, last = %v", names(got))
		}
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Watch(ctx, "", task.DefaultFilterPreferences())
	recvTasks(t, ch)
	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel never closed")
		}
	}
}

func TestSeedOnlyFillsEmptyStore(t *testing.T) {
	s := openStore(t)
	seed := []task.Task{{Name: "one", CreatedAt: 1}, {Name: "two", CreatedAt: 2}}
	if err := s.Seed(seed); err != nil {
		t.Fatal(err)
	}
	if err := s.Seed(seed); err != nil {
		t.Fatal(err)
	}
	got, err := s.Query("", task.DefaultFilterPreferences())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("seeded twice, have %d tasks", len(got))
	}
}

func recvTasks(t *testing.T, ch <-chan []task.Task) []task.Task {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch result")
		panic("unreachable")
	}
}
