package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	AssigneeID  string `json:"assigneeId"`
	ProjectID   string `json:"projectId"`
	WorkspaceID string `json:"workspaceId"`
	Position    *int   `json:"position"`
}

func (r *createTaskRequest) validate() string {
	switch {
	case r.Title == "":
		return "title is required"
	case r.WorkspaceID == "":
		return "workspaceId required"
	case r.ProjectID == "":
		return "projectId is required"
	case r.AssigneeID == "":
		return "assigneeId is required"
	case r.DueDate == "":
		return "dueDate is required"
	case r.Priority == "":
		return "priority is required"
	case !domain.TaskPriority(r.Priority).Valid():
		return "invalid priority"
	}
	if !domain.NormalizeStatus(r.Status).Valid() {
		return "invalid status"
	}
	return ""
}

func createTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		var req createTaskRequest
		if err := decodeJSON(c, &req, true); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if msg := req.validate(); msg != "" {
			return jsonError(c, http.StatusBadRequest, msg)
		}

		if _, err := requireMember(ctx, store, req.WorkspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		status := domain.NormalizeStatus(req.Status)
		task := domain.Task{
			ID:          uuid.NewString(),
			WorkspaceID: req.WorkspaceID,
			ProjectID:   req.ProjectID,
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			Position:    req.Position,
			AssigneeID:  req.AssigneeID,
			Priority:    domain.TaskPriority(req.Priority),
			DueDate:     req.DueDate,
			CreatedAt:   nowRFC3339(),
		}

		// Append to the end of the (workspace, status) bucket so a fresh task
		// needs no separate reorder. Best effort: a failed scan leaves the
		// position unset and ordering falls back to creation time.
		if task.Position == nil {
			pos, posErr := store.NextPosition(ctx, task.WorkspaceID, status)
			if posErr != nil {
				logger.WithFields(log.Fields{
					"workspace": task.WorkspaceID,
					"status":    string(status),
				}).Warnf("could not compute default position: %v", posErr)
			} else {
				task.Position = &pos
			}
		}

		if err := store.CreateTask(ctx, task); err != nil {
			// A store whose schema lacks the Position attribute must not
			// block creation; retry without ordering metadata.
			if isUnknownAttribute(err) && task.Position != nil {
				logger.Warnf("store rejected position attribute, creating without it: %v", err)
				task.Position = nil
				err = store.CreateTask(ctx, task)
			}
			if err != nil {
				c.Logger().Error(err)
				return jsonError(c, http.StatusInternalServerError, "Failed to create task")
			}
		}

		emitTaskEvent(userID, task.WorkspaceID, "task-created", task.ID, task)
		return c.JSON(http.StatusOK, dataResponse{Data: task})
	}
}

func getTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		id := c.Param("id")
		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		if _, err := requireMember(ctx, store, workspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		task, err := store.GetTask(ctx, workspaceID, id)
		if err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to fetch task")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: task})
	}
}

type updateTaskRequest struct {
	domain.TaskUpdate
	WorkspaceID *string `json:"workspaceId,omitempty"`
}

func updateTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		id := c.Param("id")
		var req updateTaskRequest
		if err := decodeJSON(c, &req, true); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}

		workspaceID := c.QueryParam("workspaceId")
		if req.WorkspaceID != nil {
			workspaceID = *req.WorkspaceID
		}
		if workspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		if _, err := requireMember(ctx, store, workspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		upd := req.TaskUpdate
		upd.Normalize()
		if upd.Status != nil && !upd.Status.Valid() {
			return jsonError(c, http.StatusBadRequest, "invalid status")
		}
		if upd.Priority != nil && !upd.Priority.Valid() {
			return jsonError(c, http.StatusBadRequest, "invalid priority")
		}
		if upd.Empty() {
			return jsonError(c, http.StatusBadRequest, "No update fields provided")
		}

		task, err := store.UpdateTask(ctx, workspaceID, id, upd)
		if err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			if isUnknownAttribute(err) {
				return jsonErrorDetails(c, http.StatusBadRequest, invalidFieldMessage, invalidFieldDetails)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to update")
		}

		emitTaskEvent(userID, workspaceID, "task-updated", id, upd)
		return c.JSON(http.StatusOK, dataResponse{Data: task})
	}
}

func deleteTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		id := c.Param("id")
		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		if _, err := requireMember(ctx, store, workspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		if err := store.DeleteTask(ctx, workspaceID, id); err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to delete")
		}

		emitTaskEvent(userID, workspaceID, "task-deleted", id, nil)
		return c.JSON(http.StatusOK, dataResponse{Data: map[string]string{"id": id}})
	}
}

type reorderRequest struct {
	WorkspaceID string                 `json:"workspaceId"`
	Updates     []domain.ReorderUpdate `json:"updates"`
}

type reorderItemResult struct {
	ID    string       `json:"id"`
	OK    bool         `json:"ok"`
	Data  *domain.Task `json:"data,omitempty"`
	Error string       `json:"error,omitempty"`
}

type reorderResponse struct {
	Results []reorderItemResult `json:"results"`
}

// reorderTasks persists one drag gesture: a batch of (id, status, position)
// updates applied independently per record. Partial application is tolerated
// and reported per item; a schema missing the Position attribute fails the
// whole request with the distinguished invalid-field body.
func reorderTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		var req reorderRequest
		if err := decodeJSON(c, &req, false); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}

		workspaceID := req.WorkspaceID
		if workspaceID == "" {
			workspaceID = c.QueryParam("workspaceId")
		}
		if workspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		if _, err := requireMember(ctx, store, workspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		if len(req.Updates) == 0 {
			return jsonError(c, http.StatusBadRequest, "No updates provided")
		}

		results := make([]reorderItemResult, 0, len(req.Updates))
		applied := false
		for _, u := range req.Updates {
			upd := domain.TaskUpdate{Position: u.Position}
			if u.Status != nil {
				normalized := domain.NormalizeStatus(string(*u.Status))
				upd.Status = &normalized
			}
			if upd.Empty() {
				results = append(results, reorderItemResult{ID: u.ID, Error: "No fields to update"})
				continue
			}

			task, updErr := store.UpdateTask(ctx, workspaceID, u.ID, upd)
			if updErr != nil {
				if isUnknownAttribute(updErr) {
					return jsonErrorDetails(c, http.StatusBadRequest, invalidFieldMessage, invalidFieldDetails)
				}
				if isNotFound(updErr) {
					results = append(results, reorderItemResult{ID: u.ID, Error: "Not found"})
				} else {
					c.Logger().Error(updErr)
					results = append(results, reorderItemResult{ID: u.ID, Error: "Failed to update"})
				}
				continue
			}
			results = append(results, reorderItemResult{ID: u.ID, OK: true, Data: &task})
			applied = true
		}

		// A batch where nothing changed is not an activity.
		if applied {
			emitTaskEvent(userID, workspaceID, "tasks-reordered", workspaceID, req.Updates)
		}
		return c.JSON(http.StatusOK, reorderResponse{Results: results})
	}
}

// emitTaskEvent publishes an activity event, marshaling payload as the event
// data. Best effort only.
func emitTaskEvent(userID, workspaceID, eventType, entityID string, payload any) {
	ev := domain.TaskEvent{
		WorkspaceID: workspaceID,
		EntityType:  "task",
		Type:        eventType,
		EntityID:    entityID,
	}
	if payload != nil {
		if data, err := sonic.Marshal(payload); err == nil {
			ev.Data = data
		}
	}
	publishTaskEvent(userID, ev)
}
