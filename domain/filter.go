package domain

// Filter narrows a workspace's task set by facet values. Within one facet the
// listed values are alternatives; across facets all must match. An empty
// facet matches everything.
type Filter struct {
	ProjectIDs  []string
	AssigneeIDs []string
	Statuses    []TaskStatus
	DueDate     string
}

// NewFilter builds a filter with status values normalized, so legacy
// spellings in query parameters match canonical stored statuses.
func NewFilter(projectIDs, assigneeIDs, statuses []string, dueDate string) Filter {
	f := Filter{
		ProjectIDs:  projectIDs,
		AssigneeIDs: assigneeIDs,
		DueDate:     dueDate,
	}
	for _, s := range statuses {
		f.Statuses = append(f.Statuses, NormalizeStatus(s))
	}
	return f
}

// Match reports whether a single task satisfies every facet.
func (f Filter) Match(t *Task) bool {
	if f.DueDate != "" && t.DueDate != f.DueDate {
		return false
	}
	if len(f.ProjectIDs) > 0 && !containsString(f.ProjectIDs, t.ProjectID) {
		return false
	}
	if len(f.AssigneeIDs) > 0 && !containsString(f.AssigneeIDs, t.AssigneeID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, NormalizeStatus(string(t.Status))) {
		return false
	}
	return true
}

// Apply returns the matching tasks, deduplicated by id. The input order is
// preserved for the first occurrence of each id.
func (f Filter) Apply(tasks []Task) []Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		t := tasks[i]
		t.Normalize()
		if _, dup := seen[t.ID]; dup {
			continue
		}
		if !f.Match(&t) {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Counts holds per-facet totals over one filtered result set, used to render
// facet badges.
type Counts struct {
	Statuses  map[TaskStatus]int `json:"statuses"`
	Projects  map[string]int     `json:"projects"`
	Assignees map[string]int     `json:"assignees"`
}

// CountFacets aggregates totals per status, project and assignee. Every board
// column appears in Statuses even when zero.
func CountFacets(tasks []Task) Counts {
	c := Counts{
		Statuses:  make(map[TaskStatus]int, len(Statuses)),
		Projects:  make(map[string]int),
		Assignees: make(map[string]int),
	}
	for _, s := range Statuses {
		c.Statuses[s] = 0
	}
	for i := range tasks {
		t := &tasks[i]
		c.Statuses[NormalizeStatus(string(t.Status))]++
		if t.ProjectID != "" {
			c.Projects[t.ProjectID]++
		}
		if t.AssigneeID != "" {
			c.Assignees[t.AssigneeID]++
		}
	}
	return c
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsStatus(values []TaskStatus, v TaskStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
