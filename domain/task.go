package domain

import "sort"

// TaskStatus identifies a board column.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusInReview   TaskStatus = "in-review"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []TaskStatus{StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone}

// legacyInProgress is the historical spelling still present on old records.
const legacyInProgress = "inprogress"

// NormalizeStatus folds legacy spellings and defaults an empty status to todo.
// It runs on every read and write path so the rest of the system only ever
// sees canonical column names.
func NormalizeStatus(s string) TaskStatus {
	switch s {
	case legacyInProgress:
		return StatusInProgress
	case "":
		return StatusTodo
	}
	return TaskStatus(s)
}

// Valid reports whether the status names one of the fixed board columns.
func (s TaskStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// TaskPriority is the urgency attached to a task. Opaque to ordering.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the known levels.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single board item. Position is a pointer because legacy records
// predate the ordering schema and carry none; position zero is meaningful.
type Task struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspaceId"`
	ProjectID   string       `json:"projectId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Position    *int         `json:"position,omitempty"`
	AssigneeID  string       `json:"assigneeId,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	// CreatedAt is an RFC 3339 UTC timestamp; lexical order is chronological.
	CreatedAt string `json:"createdAt"`
}

// Normalize applies the read-path cleanup for records written under older
// schemas. All normalization lives here rather than scattered at call sites.
func (t *Task) Normalize() {
	t.Status = NormalizeStatus(string(t.Status))
}

// HasPosition reports whether an ordering position was ever assigned.
func (t *Task) HasPosition() bool {
	return t.Position != nil
}

// PositionOf returns a pointer to v, for building tasks and updates inline.
func PositionOf(v int) *int {
	return &v
}

// SortForDisplay orders a mixed result set: tasks with a position first,
// ascending, then positionless tasks by creation time. Position is only
// meaningful within one (workspace, status) bucket, so across buckets this
// is an approximation; the tie-break on creation time keeps it stable.
func SortForDisplay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		switch {
		case a.Position != nil && b.Position != nil:
			if *a.Position != *b.Position {
				return *a.Position < *b.Position
			}
			return a.CreatedAt < b.CreatedAt
		case a.Position != nil:
			return true
		case b.Position != nil:
			return false
		default:
			return a.CreatedAt < b.CreatedAt
		}
	})
}
