package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// NotFoundError reports a record id that did not resolve.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s record %q not found", e.Table, e.Key)
}

// NotFound marks the error for interface-based matching in the api layer.
func (e *NotFoundError) NotFound() {}

// UnknownAttributeError reports a write rejected because the entity carried a
// property the table schema does not define. The position attribute missing
// from a tasks table is the case the API distinguishes for callers.
type UnknownAttributeError struct {
	Attribute string
	cause     error
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("table schema has no attribute %q: %v", e.Attribute, e.cause)
}

// UnknownAttribute marks the error for interface-based matching in the api layer.
func (e *UnknownAttributeError) UnknownAttribute() {}

func (e *UnknownAttributeError) Unwrap() error { return e.cause }

// isNotFoundResponse reports whether the service answered 404.
func isNotFoundResponse(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// isUnknownAttributeResponse detects the store's "unknown attribute" error
// shape: either the table service's invalid-property code or the message
// document stores emit for writes outside the collection schema.
func isUnknownAttributeResponse(err error) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == "PropertiesNeedValue" {
		return true
	}
	if errors.As(err, &respErr) && respErr.ErrorCode == "PropertyNameInvalid" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown attribute")
}

// classifyWriteError wraps a store error for a write that may have tripped
// over a missing schema attribute.
func classifyWriteError(err error, attribute string) error {
	if err == nil {
		return nil
	}
	if isUnknownAttributeResponse(err) {
		return &UnknownAttributeError{Attribute: attribute, cause: err}
	}
	return err
}
