package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	WorkspaceID string `json:"workspaceId"`
}

func createProject(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		var req createProjectRequest
		if err := decodeJSON(c, &req, true); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Name == "" {
			return jsonError(c, http.StatusBadRequest, "name is required")
		}
		if req.WorkspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		if _, err := requireMember(ctx, store, req.WorkspaceID, userID); err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}

		project := domain.Project{
			ID:          uuid.NewString(),
			WorkspaceID: req.WorkspaceID,
			Name:        req.Name,
			ImageURL:    req.ImageURL,
			CreatedAt:   nowRFC3339(),
		}
		if err := store.CreateProject(ctx, project); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to create project")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: project})
	}
}

func listProjects(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

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

		projects, err := store.ListProjects(ctx, workspaceID)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to fetch projects")
		}
		return c.JSON(http.StatusOK, dataResponse{
			Data: listData[domain.Project]{Documents: projects, Total: len(projects)},
		})
	}
}

type updateProjectRequest struct {
	domain.ProjectUpdate
	WorkspaceID *string `json:"workspaceId,omitempty"`
}

func updateProject(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		id := c.Param("id")
		var req updateProjectRequest
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

		if req.ProjectUpdate.Empty() {
			return jsonError(c, http.StatusBadRequest, "No update fields provided")
		}

		project, err := store.UpdateProject(ctx, workspaceID, id, req.ProjectUpdate)
		if err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to update")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: project})
	}
}

func deleteProject(store Storage, auth Authenticator) echo.HandlerFunc {
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

		if err := store.DeleteProject(ctx, workspaceID, id); err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to delete")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: map[string]string{"id": id}})
	}
}
