package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

func createWorkspace(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		var req createWorkspaceRequest
		if err := decodeJSON(c, &req, true); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Name == "" {
			return jsonError(c, http.StatusBadRequest, "name is required")
		}

		now := nowRFC3339()
		ws := domain.Workspace{
			ID:        uuid.NewString(),
			Name:      req.Name,
			OwnerID:   userID,
			CreatedAt: now,
		}
		owner := domain.Member{
			WorkspaceID: ws.ID,
			UserID:      userID,
			Role:        domain.RoleAdmin,
			CreatedAt:   now,
		}
		if err := store.CreateWorkspace(ctx, ws, owner); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to create workspace")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: ws})
	}
}

func listWorkspaces(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		workspaces, err := store.ListWorkspacesFor(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to fetch workspaces")
		}
		return c.JSON(http.StatusOK, dataResponse{
			Data: listData[domain.Workspace]{Documents: workspaces, Total: len(workspaces)},
		})
	}
}
