// Package storage persists taskboard records in Azure Table Storage and
// publishes activity events to an Azure Queue.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskboard-api/domain"
)

// Config names the tables and queue backing one deployment.
type Config struct {
	TasksTable      string
	ProjectsTable   string
	WorkspacesTable string
	MembersTable    string
	EventQueue      string
}

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	tasks      *aztables.Client
	projects   *aztables.Client
	workspaces *aztables.Client
	members    *aztables.Client
	eventQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr string, cfg Config) (*Storage, error) {
	tableOpts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tableOpts)
	if err != nil {
		return nil, err
	}
	queueOpts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, cfg.EventQueue, &queueOpts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		tasks:      svc.NewClient(cfg.TasksTable),
		projects:   svc.NewClient(cfg.ProjectsTable),
		workspaces: svc.NewClient(cfg.WorkspacesTable),
		members:    svc.NewClient(cfg.MembersTable),
		eventQueue: eq,
	}, nil
}

// Tasks are partitioned by workspace; RowKey is the task id, so the
// (workspace, status) bucket is one partition scan with a status predicate.
type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description,omitempty"`
	Status      string `json:"Status"`
	Position    *int   `json:"Position,omitempty"`
	ProjectID   string `json:"ProjectId,omitempty"`
	AssigneeID  string `json:"AssigneeId,omitempty"`
	Priority    string `json:"Priority,omitempty"`
	DueDate     string `json:"DueDate,omitempty"`
	CreatedAt   string `json:"CreatedAt"`
}

func taskFromEntity(raw []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:          ent.RowKey,
		WorkspaceID: ent.PartitionKey,
		ProjectID:   ent.ProjectID,
		Title:       ent.Title,
		Description: ent.Description,
		Status:      domain.TaskStatus(ent.Status),
		Position:    ent.Position,
		AssigneeID:  ent.AssigneeID,
		Priority:    domain.TaskPriority(ent.Priority),
		DueDate:     ent.DueDate,
		CreatedAt:   ent.CreatedAt,
	}
	t.Normalize()
	return t, nil
}

func entityFromTask(t domain.Task) taskEntity {
	return taskEntity{
		Entity: aztables.Entity{
			PartitionKey: t.WorkspaceID,
			RowKey:       t.ID,
		},
		Title:       t.Title,
		Description: t.Description,
		Status:      string(domain.NormalizeStatus(string(t.Status))),
		Position:    t.Position,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
	}
}

// escapeQuotes makes a value safe inside a single-quoted OData literal.
func escapeQuotes(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// CreateTask stores a new task. A write rejected over the Position attribute
// surfaces as UnknownAttributeError so the caller can degrade.
func (s *Storage) CreateTask(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(entityFromTask(t))
	if err != nil {
		return err
	}
	if _, err := s.tasks.AddEntity(ctx, data, nil); err != nil {
		return classifyWriteError(err, "Position")
	}
	return nil
}

// GetTask fetches one task by id within its workspace.
func (s *Storage) GetTask(ctx context.Context, workspaceID, id string) (domain.Task, error) {
	resp, err := s.tasks.GetEntity(ctx, workspaceID, id, nil)
	if err != nil {
		if isNotFoundResponse(err) {
			return domain.Task{}, &NotFoundError{Table: "tasks", Key: id}
		}
		return domain.Task{}, err
	}
	return taskFromEntity(resp.Value)
}

// UpdateTask merges the provided fields into an existing task and returns the
// updated record.
func (s *Storage) UpdateTask(ctx context.Context, workspaceID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	upd.Normalize()
	props := map[string]any{
		"PartitionKey": workspaceID,
		"RowKey":       id,
	}
	if upd.Title != nil {
		props["Title"] = *upd.Title
	}
	if upd.Description != nil {
		props["Description"] = *upd.Description
	}
	if upd.Status != nil {
		props["Status"] = string(*upd.Status)
	}
	if upd.DueDate != nil {
		props["DueDate"] = *upd.DueDate
	}
	if upd.AssigneeID != nil {
		props["AssigneeId"] = *upd.AssigneeID
	}
	if upd.Priority != nil {
		props["Priority"] = string(*upd.Priority)
	}
	if upd.ProjectID != nil {
		props["ProjectId"] = *upd.ProjectID
	}
	if upd.Position != nil {
		props["Position"] = *upd.Position
	}

	data, err := json.Marshal(props)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.tasks.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge}); err != nil {
		if isNotFoundResponse(err) {
			return domain.Task{}, &NotFoundError{Table: "tasks", Key: id}
		}
		return domain.Task{}, classifyWriteError(err, "Position")
	}
	return s.GetTask(ctx, workspaceID, id)
}

// DeleteTask removes one task.
func (s *Storage) DeleteTask(ctx context.Context, workspaceID, id string) error {
	if _, err := s.tasks.DeleteEntity(ctx, workspaceID, id, nil); err != nil {
		if isNotFoundResponse(err) {
			return &NotFoundError{Table: "tasks", Key: id}
		}
		return err
	}
	return nil
}

// ListWorkspaceTasks retrieves every task in the workspace, normalized.
func (s *Storage) ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + escapeQuotes(workspaceID) + "'"
	pager := s.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := taskFromEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// NextPosition computes the append position for a new task in the
// (workspace, status) bucket: one past the highest observed position, or 0
// when the bucket holds none. Concurrent creators may tie; the next explicit
// reorder rewrites the column densely and heals the drift.
func (s *Storage) NextPosition(ctx context.Context, workspaceID string, status domain.TaskStatus) (int, error) {
	status = domain.NormalizeStatus(string(status))
	filter := "PartitionKey eq '" + escapeQuotes(workspaceID) + "' and Status eq '" + escapeQuotes(string(status)) + "'"
	pager := s.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	bucket := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, e := range resp.Entities {
			t, err := taskFromEntity(e)
			if err != nil {
				return 0, err
			}
			bucket = append(bucket, t)
		}
	}
	return maxPosition(bucket) + 1, nil
}

// maxPosition returns the highest assigned position in the bucket, or -1 when
// no task carries one. Absent positions are ignored, not treated as zero.
func maxPosition(tasks []domain.Task) int {
	max := -1
	for i := range tasks {
		if p := tasks[i].Position; p != nil && *p > max {
			max = *p
		}
	}
	return max
}

type memberEntity struct {
	aztables.Entity
	Role      string `json:"Role"`
	CreatedAt string `json:"CreatedAt"`
}

// GetMember resolves the caller's membership record; NotFoundError means the
// user is not a member of the workspace.
func (s *Storage) GetMember(ctx context.Context, workspaceID, userID string) (domain.Member, error) {
	resp, err := s.members.GetEntity(ctx, workspaceID, userID, nil)
	if err != nil {
		if isNotFoundResponse(err) {
			return domain.Member{}, &NotFoundError{Table: "members", Key: userID}
		}
		return domain.Member{}, err
	}
	var ent memberEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Member{}, err
	}
	return domain.Member{
		WorkspaceID: ent.PartitionKey,
		UserID:      ent.RowKey,
		Role:        domain.MemberRole(ent.Role),
		CreatedAt:   ent.CreatedAt,
	}, nil
}

// ListMembers returns every member of a workspace.
func (s *Storage) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	filter := "PartitionKey eq '" + escapeQuotes(workspaceID) + "'"
	pager := s.members.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	members := []domain.Member{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent memberEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			members = append(members, domain.Member{
				WorkspaceID: ent.PartitionKey,
				UserID:      ent.RowKey,
				Role:        domain.MemberRole(ent.Role),
				CreatedAt:   ent.CreatedAt,
			})
		}
	}
	return members, nil
}

// UpsertMember writes a membership record, replacing any existing role.
func (s *Storage) UpsertMember(ctx context.Context, m domain.Member) error {
	ent := memberEntity{
		Entity: aztables.Entity{
			PartitionKey: m.WorkspaceID,
			RowKey:       m.UserID,
		},
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.members.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// DeleteMember removes a user from a workspace.
func (s *Storage) DeleteMember(ctx context.Context, workspaceID, userID string) error {
	if _, err := s.members.DeleteEntity(ctx, workspaceID, userID, nil); err != nil {
		if isNotFoundResponse(err) {
			return &NotFoundError{Table: "members", Key: userID}
		}
		return err
	}
	return nil
}

type workspaceEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	OwnerID   string `json:"OwnerId"`
	CreatedAt string `json:"CreatedAt"`
}

// CreateWorkspace stores a workspace and its owning admin member.
func (s *Storage) CreateWorkspace(ctx context.Context, ws domain.Workspace, owner domain.Member) error {
	ent := workspaceEntity{
		Entity: aztables.Entity{
			PartitionKey: ws.ID,
			RowKey:       ws.ID,
		},
		Name:      ws.Name,
		OwnerID:   ws.OwnerID,
		CreatedAt: ws.CreatedAt,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := s.workspaces.AddEntity(ctx, data, nil); err != nil {
		return err
	}
	return s.UpsertMember(ctx, owner)
}

// GetWorkspace fetches one workspace by id.
func (s *Storage) GetWorkspace(ctx context.Context, id string) (domain.Workspace, error) {
	resp, err := s.workspaces.GetEntity(ctx, id, id, nil)
	if err != nil {
		if isNotFoundResponse(err) {
			return domain.Workspace{}, &NotFoundError{Table: "workspaces", Key: id}
		}
		return domain.Workspace{}, err
	}
	var ent workspaceEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Workspace{}, err
	}
	return domain.Workspace{ID: ent.RowKey, Name: ent.Name, OwnerID: ent.OwnerID, CreatedAt: ent.CreatedAt}, nil
}

// ListWorkspacesFor returns the workspaces the user belongs to, resolved
// through the members table.
func (s *Storage) ListWorkspacesFor(ctx context.Context, userID string) ([]domain.Workspace, error) {
	filter := "RowKey eq '" + escapeQuotes(userID) + "'"
	pager := s.members.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	workspaces := []domain.Workspace{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent memberEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			ws, err := s.GetWorkspace(ctx, ent.PartitionKey)
			if err != nil {
				var nf *NotFoundError
				if errors.As(err, &nf) {
					continue
				}
				return nil, err
			}
			workspaces = append(workspaces, ws)
		}
	}
	return workspaces, nil
}

type projectEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	ImageURL  string `json:"ImageUrl,omitempty"`
	CreatedAt string `json:"CreatedAt"`
}

// CreateProject stores a new project.
func (s *Storage) CreateProject(ctx context.Context, p domain.Project) error {
	ent := projectEntity{
		Entity: aztables.Entity{
			PartitionKey: p.WorkspaceID,
			RowKey:       p.ID,
		},
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.projects.AddEntity(ctx, data, nil)
	return err
}

// GetProject fetches one project by id within its workspace.
func (s *Storage) GetProject(ctx context.Context, workspaceID, id string) (domain.Project, error) {
	resp, err := s.projects.GetEntity(ctx, workspaceID, id, nil)
	if err != nil {
		if isNotFoundResponse(err) {
			return domain.Project{}, &NotFoundError{Table: "projects", Key: id}
		}
		return domain.Project{}, err
	}
	var ent projectEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Project{}, err
	}
	return domain.Project{
		ID:          ent.RowKey,
		WorkspaceID: ent.PartitionKey,
		Name:        ent.Name,
		ImageURL:    ent.ImageURL,
		CreatedAt:   ent.CreatedAt,
	}, nil
}

// ListProjects returns every project in the workspace.
func (s *Storage) ListProjects(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	filter := "PartitionKey eq '" + escapeQuotes(workspaceID) + "'"
	pager := s.projects.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	projects := []domain.Project{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent projectEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			projects = append(projects, domain.Project{
				ID:          ent.RowKey,
				WorkspaceID: ent.PartitionKey,
				Name:        ent.Name,
				ImageURL:    ent.ImageURL,
				CreatedAt:   ent.CreatedAt,
			})
		}
	}
	return projects, nil
}

// UpdateProject merges the provided fields and returns the updated record.
func (s *Storage) UpdateProject(ctx context.Context, workspaceID, id string, upd domain.ProjectUpdate) (domain.Project, error) {
	props := map[string]any{
		"PartitionKey": workspaceID,
		"RowKey":       id,
	}
	if upd.Name != nil {
		props["Name"] = *upd.Name
	}
	if upd.ImageURL != nil {
		props["ImageUrl"] = *upd.ImageURL
	}
	data, err := json.Marshal(props)
	if err != nil {
		return domain.Project{}, err
	}
	if _, err := s.projects.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge}); err != nil {
		if isNotFoundResponse(err) {
			return domain.Project{}, &NotFoundError{Table: "projects", Key: id}
		}
		return domain.Project{}, err
	}
	return s.GetProject(ctx, workspaceID, id)
}

// DeleteProject removes one project.
func (s *Storage) DeleteProject(ctx context.Context, workspaceID, id string) error {
	if _, err := s.projects.DeleteEntity(ctx, workspaceID, id, nil); err != nil {
		if isNotFoundResponse(err) {
			return &NotFoundError{Table: "projects", Key: id}
		}
		return err
	}
	return nil
}

// EnqueueEvents publishes the given activity events to the event queue.
func (s *Storage) EnqueueEvents(ctx context.Context, userID string, events []domain.TaskEvent) error {
	for _, ev := range events {
		env := domain.EventEnvelope{UserID: userID, Event: ev}
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := s.eventQueue.EnqueueMessage(ctx, string(data), nil); err != nil {
			return err
		}
	}
	return nil
}
