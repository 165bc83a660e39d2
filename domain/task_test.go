package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in   string
		want TaskStatus
	}{
		{"inprogress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"", StatusTodo},
		{"todo", StatusTodo},
		{"backlog", StatusBacklog},
		{"in-review", StatusInReview},
		{"done", StatusDone},
		{"garbage", TaskStatus("garbage")},
	}
	for _, tc := range cases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if TaskStatus("inprogress").Valid() {
		t.Fatal("legacy spelling must not be valid without normalization")
	}
	if TaskStatus("").Valid() {
		t.Fatal("empty status must not be valid")
	}
}

func TestTaskNormalizeFoldsLegacyStatus(t *testing.T) {
	task := Task{ID: "1", Status: "inprogress"}
	task.Normalize()
	if task.Status != StatusInProgress {
		t.Fatalf("expected in-progress, got %q", task.Status)
	}
}

func TestSortForDisplayPositionedFirst(t *testing.T) {
	tasks := []Task{
		{ID: "legacy-old", CreatedAt: "2023-01-01T00:00:00Z"},
		{ID: "pos2", Position: PositionOf(2), CreatedAt: "2024-06-01T00:00:00Z"},
		{ID: "legacy-new", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "pos0", Position: PositionOf(0), CreatedAt: "2024-06-03T00:00:00Z"},
		{ID: "pos1", Position: PositionOf(1), CreatedAt: "2024-06-02T00:00:00Z"},
	}
	SortForDisplay(tasks)

	want := []string{"pos0", "pos1", "pos2", "legacy-old", "legacy-new"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("position %d: got %q, want %q (order %v)", i, tasks[i].ID, id, ids(tasks))
		}
	}
}

func TestSortForDisplayTieBreakOnCreation(t *testing.T) {
	tasks := []Task{
		{ID: "b", Position: PositionOf(3), CreatedAt: "2024-02-01T00:00:00Z"},
		{ID: "a", Position: PositionOf(3), CreatedAt: "2024-01-01T00:00:00Z"},
	}
	SortForDisplay(tasks)
	if tasks[0].ID != "a" || tasks[1].ID != "b" {
		t.Fatalf("expected creation-time tie-break, got %v", ids(tasks))
	}
}

func TestSortForDisplayEmptyAndSingle(t *testing.T) {
	SortForDisplay(nil)
	one := []Task{{ID: "only"}}
	SortForDisplay(one)
	if one[0].ID != "only" {
		t.Fatalf("single-element sort changed the slice: %v", ids(one))
	}
}

func TestHasPosition(t *testing.T) {
	var task Task
	if task.HasPosition() {
		t.Fatal("zero task must not report a position")
	}
	task.Position = PositionOf(0)
	if !task.HasPosition() {
		t.Fatal("position zero is a real position")
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}
