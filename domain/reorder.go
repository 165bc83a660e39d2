package domain

// ReorderUpdate is one (task, status, position) triple of a reorder batch.
// Status and Position are pointers: the server applies whichever fields are
// present and rejects an update carrying neither.
type ReorderUpdate struct {
	ID       string      `json:"id"`
	Status   *TaskStatus `json:"status,omitempty"`
	Position *int        `json:"position,omitempty"`
}

// StatusOf returns a pointer to s, for building updates inline.
func StatusOf(s TaskStatus) *TaskStatus {
	return &s
}
