// Package board holds the client-side view of a workspace's tasks grouped by
// status column, and the optimistic protocol that persists drag gestures.
package board

import (
	"fmt"
	"sort"

	"taskboard-api/domain"
)

// Board is a session-local grouping of tasks by status column in display
// order. It is rebuilt wholesale from every fetch and, between fetches,
// changed only through explicit move operations. Moves never mutate the
// receiver; they return a fresh board, so the old value doubles as the
// rollback snapshot.
type Board struct {
	columns map[domain.TaskStatus][]domain.Task
}

// New buckets tasks into the fixed columns. Tasks are normalized first, so a
// legacy "inprogress" record lands in the in-progress column. Within a column
// tasks with a position come first in ascending order; positionless tasks
// follow in fetch order.
func New(tasks []domain.Task) *Board {
	b := &Board{columns: make(map[domain.TaskStatus][]domain.Task, len(domain.Statuses))}
	for _, s := range domain.Statuses {
		b.columns[s] = []domain.Task{}
	}
	for i := range tasks {
		t := tasks[i]
		t.Normalize()
		if !t.Status.Valid() {
			t.Status = domain.StatusTodo
		}
		b.columns[t.Status] = append(b.columns[t.Status], t)
	}
	for s := range b.columns {
		sortColumn(b.columns[s])
	}
	return b
}

// sortColumn orders by ascending position; ties and positionless tasks keep
// their relative fetch order.
func sortColumn(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		switch {
		case a.Position != nil && b.Position != nil:
			return *a.Position < *b.Position
		case a.Position != nil:
			return true
		default:
			return false
		}
	})
}

// Column returns a copy of one column's tasks in display order.
func (b *Board) Column(status domain.TaskStatus) []domain.Task {
	col := b.columns[status]
	out := make([]domain.Task, len(col))
	copy(out, col)
	return out
}

// Len returns the total number of tasks on the board.
func (b *Board) Len() int {
	n := 0
	for _, col := range b.columns {
		n += len(col)
	}
	return n
}

// Flatten re-linearizes the board column by column in display order.
func (b *Board) Flatten() []domain.Task {
	out := make([]domain.Task, 0, b.Len())
	for _, s := range domain.Statuses {
		out = append(out, b.columns[s]...)
	}
	return out
}

// Clone returns a deep copy sharing no column slices with the receiver.
func (b *Board) Clone() *Board {
	next := &Board{columns: make(map[domain.TaskStatus][]domain.Task, len(b.columns))}
	for s, col := range b.columns {
		cp := make([]domain.Task, len(col))
		copy(cp, col)
		next.columns[s] = cp
	}
	return next
}

// MoveWithinColumn removes the task at from and reinserts it at to within the
// same column, returning the resulting board. Equal indexes are a no-op that
// returns the receiver unchanged.
func (b *Board) MoveWithinColumn(status domain.TaskStatus, from, to int) (*Board, error) {
	status = domain.NormalizeStatus(string(status))
	col := b.columns[status]
	if from < 0 || from >= len(col) {
		return nil, fmt.Errorf("board: source index %d out of range for column %s (%d tasks)", from, status, len(col))
	}
	if to < 0 || to >= len(col) {
		return nil, fmt.Errorf("board: destination index %d out of range for column %s (%d tasks)", to, status, len(col))
	}
	if from == to {
		return b, nil
	}

	next := b.Clone()
	nc := next.columns[status]
	moved := nc[from]
	nc = append(nc[:from], nc[from+1:]...)
	nc = append(nc, domain.Task{})
	copy(nc[to+1:], nc[to:])
	nc[to] = moved
	next.columns[status] = nc
	return next, nil
}

// MoveAcrossColumns removes the task at from in the source column, sets its
// status to the destination column and inserts it at to. The destination
// index may equal the destination length (append).
func (b *Board) MoveAcrossColumns(fromStatus domain.TaskStatus, from int, toStatus domain.TaskStatus, to int) (*Board, error) {
	fromStatus = domain.NormalizeStatus(string(fromStatus))
	toStatus = domain.NormalizeStatus(string(toStatus))
	if !toStatus.Valid() {
		return nil, fmt.Errorf("board: unknown destination column %s", toStatus)
	}
	if fromStatus == toStatus {
		return b.MoveWithinColumn(fromStatus, from, to)
	}
	src := b.columns[fromStatus]
	if from < 0 || from >= len(src) {
		return nil, fmt.Errorf("board: source index %d out of range for column %s (%d tasks)", from, fromStatus, len(src))
	}
	dst := b.columns[toStatus]
	if to < 0 || to > len(dst) {
		return nil, fmt.Errorf("board: destination index %d out of range for column %s (%d tasks)", to, toStatus, len(dst))
	}

	next := b.Clone()
	ns := next.columns[fromStatus]
	moved := ns[from]
	moved.Status = toStatus
	next.columns[fromStatus] = append(ns[:from], ns[from+1:]...)

	nd := next.columns[toStatus]
	nd = append(nd, domain.Task{})
	copy(nd[to+1:], nd[to:])
	nd[to] = moved
	next.columns[toStatus] = nd
	return next, nil
}

// BuildReorderBatch produces the dense (id, status, position) triples for the
// given columns: every task of each column re-indexed from 0 in its current
// visual order.
func BuildReorderBatch(b *Board, columns ...domain.TaskStatus) []domain.ReorderUpdate {
	seen := make(map[domain.TaskStatus]struct{}, len(columns))
	updates := make([]domain.ReorderUpdate, 0, 16)
	for _, status := range columns {
		status = domain.NormalizeStatus(string(status))
		if _, done := seen[status]; done {
			continue
		}
		seen[status] = struct{}{}
		for idx, t := range b.columns[status] {
			updates = append(updates, domain.ReorderUpdate{
				ID:       t.ID,
				Status:   domain.StatusOf(status),
				Position: domain.PositionOf(idx),
			})
		}
	}
	return updates
}
