package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

func listMembers(store Storage, auth Authenticator) echo.HandlerFunc {
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

		members, err := store.ListMembers(ctx, workspaceID)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to fetch members")
		}
		return c.JSON(http.StatusOK, dataResponse{
			Data: listData[domain.Member]{Documents: members, Total: len(members)},
		})
	}
}

type updateMemberRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role"`
}

func updateMemberRole(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		targetID := c.Param("userId")
		var req updateMemberRequest
		if err := decodeJSON(c, &req, true); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if req.WorkspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}
		role := domain.MemberRole(req.Role)
		if role != domain.RoleAdmin && role != domain.RoleMember {
			return jsonError(c, http.StatusBadRequest, "invalid role")
		}

		caller, err := requireMember(ctx, store, req.WorkspaceID, userID)
		if err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}
		if !caller.IsAdmin() {
			return unauthorized(c)
		}

		target, err := store.GetMember(ctx, req.WorkspaceID, targetID)
		if err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve member")
		}

		target.Role = role
		if err := store.UpsertMember(ctx, target); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to update")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: target})
	}
}

func deleteMember(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		targetID := c.Param("userId")
		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			return jsonError(c, http.StatusBadRequest, "workspaceId required")
		}

		caller, err := requireMember(ctx, store, workspaceID, userID)
		if err != nil {
			if isNotFound(err) {
				return unauthorized(c)
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "failed to resolve membership")
		}
		// Admins may remove anyone; a regular member may only leave.
		if !caller.IsAdmin() && targetID != userID {
			return unauthorized(c)
		}

		if err := store.DeleteMember(ctx, workspaceID, targetID); err != nil {
			if isNotFound(err) {
				return jsonError(c, http.StatusNotFound, "Not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "Failed to delete")
		}
		return c.JSON(http.StatusOK, dataResponse{Data: map[string]string{"userId": targetID}})
	}
}
