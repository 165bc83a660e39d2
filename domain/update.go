package domain

// TaskUpdate carries the optional fields of a partial task update. A nil
// field is left untouched; Position distinguishes "unset" from position zero.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	DueDate     *string       `json:"dueDate,omitempty"`
	AssigneeID  *string       `json:"assigneeId,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	ProjectID   *string       `json:"projectId,omitempty"`
	Position    *int          `json:"position,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.DueDate == nil && u.AssigneeID == nil && u.Priority == nil &&
		u.ProjectID == nil && u.Position == nil
}

// Normalize folds a legacy status spelling before the update is applied.
func (u *TaskUpdate) Normalize() {
	if u.Status != nil {
		s := NormalizeStatus(string(*u.Status))
		u.Status = &s
	}
}

// ProjectUpdate carries the optional fields of a partial project update.
type ProjectUpdate struct {
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *ProjectUpdate) Empty() bool {
	return u.Name == nil && u.ImageURL == nil
}
