package board

import (
	"testing"

	"taskboard-api/domain"
)

func fixtureTasks() []domain.Task {
	return []domain.Task{
		{ID: "t0", Status: domain.StatusTodo, Position: domain.PositionOf(0), CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "t1", Status: domain.StatusTodo, Position: domain.PositionOf(1), CreatedAt: "2024-01-02T00:00:00Z"},
		{ID: "t2", Status: domain.StatusTodo, Position: domain.PositionOf(2), CreatedAt: "2024-01-03T00:00:00Z"},
		{ID: "p0", Status: domain.StatusInProgress, Position: domain.PositionOf(0), CreatedAt: "2024-01-04T00:00:00Z"},
		{ID: "p1", Status: domain.StatusInProgress, Position: domain.PositionOf(1), CreatedAt: "2024-01-05T00:00:00Z"},
	}
}

func columnIDs(b *Board, s domain.TaskStatus) []string {
	col := b.Column(s)
	out := make([]string, len(col))
	for i := range col {
		out[i] = col[i].ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewBucketsAndSorts(t *testing.T) {
	tasks := []domain.Task{
		{ID: "b", Status: domain.StatusTodo, Position: domain.PositionOf(1)},
		{ID: "legacy", Status: "inprogress"},
		{ID: "a", Status: domain.StatusTodo, Position: domain.PositionOf(0)},
		{ID: "nopos", Status: domain.StatusTodo},
		{ID: "unknown", Status: "bogus"},
	}
	b := New(tasks)

	if !equalIDs(columnIDs(b, domain.StatusTodo), []string{"a", "b", "nopos", "unknown"}) {
		t.Fatalf("unexpected todo column: %v", columnIDs(b, domain.StatusTodo))
	}
	if !equalIDs(columnIDs(b, domain.StatusInProgress), []string{"legacy"}) {
		t.Fatalf("legacy record must land in in-progress: %v", columnIDs(b, domain.StatusInProgress))
	}
	if b.Len() != len(tasks) {
		t.Fatalf("Len() = %d, want %d", b.Len(), len(tasks))
	}
}

func TestMoveWithinColumn(t *testing.T) {
	b := New(fixtureTasks())
	next, err := b.MoveWithinColumn(domain.StatusTodo, 0, 2)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if !equalIDs(columnIDs(next, domain.StatusTodo), []string{"t1", "t2", "t0"}) {
		t.Fatalf("unexpected order after move: %v", columnIDs(next, domain.StatusTodo))
	}
	// The original board is the rollback snapshot and must be untouched.
	if !equalIDs(columnIDs(b, domain.StatusTodo), []string{"t0", "t1", "t2"}) {
		t.Fatalf("source board mutated: %v", columnIDs(b, domain.StatusTodo))
	}
}

func TestMoveWithinColumnNoOp(t *testing.T) {
	b := New(fixtureTasks())
	next, err := b.MoveWithinColumn(domain.StatusTodo, 1, 1)
	if err != nil {
		t.Fatalf("no-op move failed: %v", err)
	}
	if next != b {
		t.Fatal("equal indexes must return the receiver unchanged")
	}
}

func TestMoveWithinColumnOutOfRange(t *testing.T) {
	b := New(fixtureTasks())
	if _, err := b.MoveWithinColumn(domain.StatusTodo, 5, 0); err == nil {
		t.Fatal("expected error for out-of-range source")
	}
	if _, err := b.MoveWithinColumn(domain.StatusTodo, 0, 3); err == nil {
		t.Fatal("expected error for out-of-range destination")
	}
	if _, err := b.MoveWithinColumn(domain.StatusDone, 0, 0); err == nil {
		t.Fatal("expected error for move in empty column")
	}
}

func TestMoveWithinSingleTaskColumn(t *testing.T) {
	b := New([]domain.Task{{ID: "only", Status: domain.StatusDone}})
	next, err := b.MoveWithinColumn(domain.StatusDone, 0, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if next != b {
		t.Fatal("moving the only task onto itself is a no-op")
	}
}

func TestMoveAcrossColumns(t *testing.T) {
	b := New(fixtureTasks())
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 1, domain.StatusInProgress, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if !equalIDs(columnIDs(next, domain.StatusTodo), []string{"t0", "t2"}) {
		t.Fatalf("unexpected source column: %v", columnIDs(next, domain.StatusTodo))
	}
	if !equalIDs(columnIDs(next, domain.StatusInProgress), []string{"t1", "p0", "p1"}) {
		t.Fatalf("unexpected destination column: %v", columnIDs(next, domain.StatusInProgress))
	}
	moved := next.Column(domain.StatusInProgress)[0]
	if moved.Status != domain.StatusInProgress {
		t.Fatalf("moved task status = %q, want in-progress", moved.Status)
	}
	if next.Len() != b.Len() {
		t.Fatalf("move changed task count: %d -> %d", b.Len(), next.Len())
	}
}

func TestMoveAcrossColumnsAppend(t *testing.T) {
	b := New(fixtureTasks())
	// Destination index equal to the column length appends.
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 0, domain.StatusInProgress, 2)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !equalIDs(columnIDs(next, domain.StatusInProgress), []string{"p0", "p1", "t0"}) {
		t.Fatalf("unexpected destination column: %v", columnIDs(next, domain.StatusInProgress))
	}
}

func TestMoveAcrossColumnsIntoEmpty(t *testing.T) {
	b := New([]domain.Task{{ID: "only", Status: domain.StatusTodo}})
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 0, domain.StatusDone, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if len(next.Column(domain.StatusTodo)) != 0 {
		t.Fatal("source column should be empty")
	}
	if !equalIDs(columnIDs(next, domain.StatusDone), []string{"only"}) {
		t.Fatalf("unexpected destination: %v", columnIDs(next, domain.StatusDone))
	}
}

func TestMoveAcrossColumnsUnknownDestination(t *testing.T) {
	b := New(fixtureTasks())
	if _, err := b.MoveAcrossColumns(domain.StatusTodo, 0, "limbo", 0); err == nil {
		t.Fatal("expected error for unknown destination column")
	}
	// Nothing may leak into a phantom column: the board is untouched.
	if b.Len() != len(fixtureTasks()) || len(b.Flatten()) != b.Len() {
		t.Fatalf("board changed after rejected move: Len=%d Flatten=%d", b.Len(), len(b.Flatten()))
	}

	// A legacy destination spelling normalizes instead of erroring.
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 0, "inprogress", 0)
	if err != nil {
		t.Fatalf("legacy destination spelling rejected: %v", err)
	}
	if next.Column(domain.StatusInProgress)[0].ID != "t0" {
		t.Fatalf("unexpected destination column: %v", columnIDs(next, domain.StatusInProgress))
	}
}

func TestMoveAcrossColumnsSameStatusDelegates(t *testing.T) {
	b := New(fixtureTasks())
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 0, domain.StatusTodo, 2)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !equalIDs(columnIDs(next, domain.StatusTodo), []string{"t1", "t2", "t0"}) {
		t.Fatalf("unexpected order: %v", columnIDs(next, domain.StatusTodo))
	}
}

// A long random walk of moves must conserve the task set.
func TestMovesConserveTasks(t *testing.T) {
	b := New(fixtureTasks())
	moves := []struct {
		fromStatus domain.TaskStatus
		from       int
		toStatus   domain.TaskStatus
		to         int
	}{
		{domain.StatusTodo, 2, domain.StatusInProgress, 0},
		{domain.StatusInProgress, 1, domain.StatusDone, 0},
		{domain.StatusTodo, 0, domain.StatusTodo, 1},
		{domain.StatusDone, 0, domain.StatusTodo, 2},
		{domain.StatusInProgress, 1, domain.StatusInProgress, 0},
	}

	cur := b
	for i, mv := range moves {
		next, err := cur.MoveAcrossColumns(mv.fromStatus, mv.from, mv.toStatus, mv.to)
		if err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
		cur = next
	}

	if cur.Len() != b.Len() {
		t.Fatalf("task count changed: %d -> %d", b.Len(), cur.Len())
	}
	seen := map[string]bool{}
	for _, task := range cur.Flatten() {
		if seen[task.ID] {
			t.Fatalf("task %q duplicated", task.ID)
		}
		seen[task.ID] = true
	}
	for _, task := range fixtureTasks() {
		if !seen[task.ID] {
			t.Fatalf("task %q lost", task.ID)
		}
	}
}

// Without any moves, flattening a freshly built board reproduces the tasks
// column by column in display order: columns in their fixed sequence, each
// ordered by ascending position.
func TestFlattenWithoutMovesReproducesDisplayOrder(t *testing.T) {
	tasks := []domain.Task{
		{ID: "done0", Status: domain.StatusDone, Position: domain.PositionOf(0)},
		{ID: "todo1", Status: domain.StatusTodo, Position: domain.PositionOf(1)},
		{ID: "prog0", Status: "inprogress", Position: domain.PositionOf(0)},
		{ID: "todo0", Status: domain.StatusTodo, Position: domain.PositionOf(0)},
		{ID: "back0", Status: domain.StatusBacklog, Position: domain.PositionOf(2)},
		{ID: "todo-nopos", Status: domain.StatusTodo},
	}
	flat := New(tasks).Flatten()

	want := []string{"back0", "todo0", "todo1", "todo-nopos", "prog0", "done0"}
	if len(flat) != len(want) {
		t.Fatalf("flatten lost tasks: got %d, want %d", len(flat), len(want))
	}
	for i, id := range want {
		if flat[i].ID != id {
			got := make([]string, len(flat))
			for j := range flat {
				got[j] = flat[j].ID
			}
			t.Fatalf("flatten order %v, want %v", got, want)
		}
	}
}

func TestBuildReorderBatch(t *testing.T) {
	b := New(fixtureTasks())
	next, err := b.MoveAcrossColumns(domain.StatusTodo, 1, domain.StatusInProgress, 0)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}

	updates := BuildReorderBatch(next, domain.StatusTodo, domain.StatusInProgress)
	// 2 remaining in todo plus 3 in in-progress.
	if len(updates) != 5 {
		t.Fatalf("expected 5 updates, got %d", len(updates))
	}

	byID := map[string]domain.ReorderUpdate{}
	for _, u := range updates {
		if u.Status == nil || u.Position == nil {
			t.Fatalf("update %q missing status or position", u.ID)
		}
		byID[u.ID] = u
	}

	check := func(id string, status domain.TaskStatus, pos int) {
		t.Helper()
		u, ok := byID[id]
		if !ok {
			t.Fatalf("no update for %q", id)
		}
		if *u.Status != status || *u.Position != pos {
			t.Fatalf("update %q = (%s, %d), want (%s, %d)", id, *u.Status, *u.Position, status, pos)
		}
	}
	check("t0", domain.StatusTodo, 0)
	check("t2", domain.StatusTodo, 1)
	check("t1", domain.StatusInProgress, 0)
	check("p0", domain.StatusInProgress, 1)
	check("p1", domain.StatusInProgress, 2)
}

func TestBuildReorderBatchDedupesColumns(t *testing.T) {
	b := New(fixtureTasks())
	updates := BuildReorderBatch(b, domain.StatusTodo, domain.StatusTodo)
	if len(updates) != 3 {
		t.Fatalf("duplicate column argument must not duplicate updates, got %d", len(updates))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New(fixtureTasks())
	clone := b.Clone()
	next, err := clone.MoveWithinColumn(domain.StatusTodo, 0, 2)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	_ = next
	if !equalIDs(columnIDs(b, domain.StatusTodo), []string{"t0", "t1", "t2"}) {
		t.Fatalf("original board affected by clone move: %v", columnIDs(b, domain.StatusTodo))
	}
}

func TestTxLifecycle(t *testing.T) {
	tx := Begin(42)
	if tx.Settled() {
		t.Fatal("fresh tx must not be settled")
	}
	if tx.Snapshot() != 42 {
		t.Fatalf("snapshot = %d, want 42", tx.Snapshot())
	}
	if got := tx.Revert(); got != 42 {
		t.Fatalf("revert = %d, want 42", got)
	}
	if !tx.Settled() {
		t.Fatal("reverted tx must be settled")
	}

	tx2 := Begin("before")
	tx2.Commit()
	if !tx2.Settled() {
		t.Fatal("committed tx must be settled")
	}
}
