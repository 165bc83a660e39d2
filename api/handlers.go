package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, auth, logger))
	e.POST("/api/tasks", createTask(store, auth, logger))
	e.POST("/api/tasks/reorder", reorderTasks(store, auth))
	e.GET("/api/tasks/:id", getTask(store, auth))
	e.PUT("/api/tasks/:id", updateTask(store, auth))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth))

	e.GET("/api/projects", listProjects(store, auth))
	e.POST("/api/projects", createProject(store, auth))
	e.PUT("/api/projects/:id", updateProject(store, auth))
	e.DELETE("/api/projects/:id", deleteProject(store, auth))

	e.GET("/api/workspaces", listWorkspaces(store, auth))
	e.POST("/api/workspaces", createWorkspace(store, auth))

	e.GET("/api/members", listMembers(store, auth))
	e.PATCH("/api/members/:userId", updateMemberRole(store, auth))
	e.DELETE("/api/members/:userId", deleteMember(store, auth))

	e.GET("/healthz", healthz(store))

	initEventPublisher(store, deduper, logger)
}

type listData[T any] struct {
	Documents []T `json:"documents"`
	Total     int `json:"total"`
}

type taskListResponse struct {
	Data   listData[domain.Task] `json:"data"`
	Counts domain.Counts         `json:"counts"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeJSON reads a size-limited request body. Strict decoding rejects
// unknown fields.
func decodeJSON(c echo.Context, v any, strict bool) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}

// requireMember resolves the caller's membership in the workspace. A missing
// record is the normal "not a member" outcome.
func requireMember(ctx context.Context, store Storage, workspaceID, userID string) (domain.Member, error) {
	return store.GetMember(ctx, workspaceID, userID)
}

func getTasks(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskQueryMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = unauthorized(c)
			return err
		}

		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			metrics.SetErrorStage("validation")
			err = jsonError(c, http.StatusBadRequest, "workspaceId required")
			return err
		}

		memberStart := time.Now()
		_, memberErr := requireMember(ctx, store, workspaceID, userID)
		metrics.ObserveMembership(time.Since(memberStart))
		if memberErr != nil {
			if isNotFound(memberErr) {
				metrics.SetErrorStage("membership")
				err = unauthorized(c)
				return err
			}
			metrics.SetErrorStage("storage")
			c.Logger().Error(memberErr)
			err = jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
			return err
		}

		params := c.QueryParams()
		projectIDs := params["projectId"]
		assigneeIDs := params["assigneeId"]
		statuses := params["status"]
		dueDate := c.QueryParam("dueDate")
		filter := domain.NewFilter(projectIDs, assigneeIDs, statuses, dueDate)
		metrics.SetFacetsApplied(len(projectIDs)+len(assigneeIDs)+len(statuses) > 0 || dueDate != "")

		fetchStart := time.Now()
		all, fetchErr := store.ListWorkspaceTasks(ctx, workspaceID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = jsonError(c, http.StatusInternalServerError, "failed to fetch tasks")
			return err
		}

		tasks := filter.Apply(all)
		domain.SortForDisplay(tasks)
		metrics.SetTasksReturned(len(tasks))

		resp := taskListResponse{
			Data:   listData[domain.Task]{Documents: tasks, Total: len(tasks)},
			Counts: domain.CountFacets(tasks),
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}
