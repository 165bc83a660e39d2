package api

import (
	"context"

	"taskboard-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, workspaceID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, workspaceID, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, workspaceID, id string) error
	ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]domain.Task, error)
	NextPosition(ctx context.Context, workspaceID string, status domain.TaskStatus) (int, error)

	GetMember(ctx context.Context, workspaceID, userID string) (domain.Member, error)
	ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error)
	UpsertMember(ctx context.Context, m domain.Member) error
	DeleteMember(ctx context.Context, workspaceID, userID string) error

	CreateWorkspace(ctx context.Context, ws domain.Workspace, owner domain.Member) error
	GetWorkspace(ctx context.Context, id string) (domain.Workspace, error)
	ListWorkspacesFor(ctx context.Context, userID string) ([]domain.Workspace, error)

	CreateProject(ctx context.Context, p domain.Project) error
	GetProject(ctx context.Context, workspaceID, id string) (domain.Project, error)
	ListProjects(ctx context.Context, workspaceID string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, workspaceID, id string, upd domain.ProjectUpdate) (domain.Project, error)
	DeleteProject(ctx context.Context, workspaceID, id string) error

	EnqueueEvents(ctx context.Context, userID string, events []domain.TaskEvent) error
}

// NotFoundError is implemented by storage errors for records that do not
// resolve.
type NotFoundError interface {
	error
	NotFound()
}

// UnknownAttributeError is implemented by storage errors for writes the table
// schema rejected. It drives the position assigner's degrade path and the
// reorder endpoint's distinguished invalid-field response.
type UnknownAttributeError interface {
	error
	UnknownAttribute()
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents re-publishing of duplicate activity events.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when publishing fails.
	Remove(ctx context.Context, userID, key string) error
}
