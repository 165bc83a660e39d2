package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// invalidFieldMessage is the distinguished error for a tasks table whose
	// schema lacks the position attribute. Clients treat it as actionable
	// configuration trouble rather than a transient fault.
	invalidFieldMessage = "Invalid update field"
	invalidFieldDetails = "The tasks table has no numeric 'position' attribute. Add one to persist ordering."
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Error: msg})
}

func jsonErrorDetails(c echo.Context, status int, msg, details string) error {
	return c.JSON(status, errorBody{Error: msg, Details: details})
}

func isNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

func isUnknownAttribute(err error) bool {
	var ua UnknownAttributeError
	return errors.As(err, &ua)
}

// unauthorized is the uniform 401 body for missing workspace membership.
func unauthorized(c echo.Context) error {
	return jsonError(c, http.StatusUnauthorized, "Unauthorized")
}
