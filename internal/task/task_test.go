package task

import "testing"

func TestCopyMethodsLeaveOriginalAlone(t *testing.T) {
	orig := Task{ID: 7, Name: "before", CreatedAt: 123}
	changed := orig.WithName("after").WithImportant(true).WithCompleted(true)

	if orig.Name != "before" || orig.Important || orig.Completed {
		t.Fatalf("original mutated: %+v", orig)
	}
	if changed.ID != orig.ID || changed.CreatedAt != orig.CreatedAt {
		t.Fatalf("identity fields changed: %+v", changed)
	}
	if changed == orig {
		t.Fatal("copy compares equal to original despite changes")
	}
}

func TestParseSortOrder(t *testing.T) {
	if got := ParseSortOrder("BY_NAME"); got != ByName {
		t.Fatalf("BY_NAME parsed as %q", got)
	}
	if got := ParseSortOrder("BY_DATE"); got != ByDate {
		t.Fatalf("BY_DATE parsed as %q", got)
	}
	if got := ParseSortOrder("garbage"); got != ByDate {
		t.Fatalf("unknown order parsed as %q, want BY_DATE fallback", got)
	}
}
