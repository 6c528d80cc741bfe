package core

import "net/http"

// HTTPError represents an HTTP error with a status code and a stable
// machine-readable code clients can branch on.
type HTTPError struct {
	Status int    // HTTP status code
	Code   string // error code (e.g. "subscription_exists", "unauthorized")
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Code
}

var (
	ErrBadRequest         = HTTPError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrUnauthorized       = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrForbidden          = HTTPError{Status: http.StatusForbidden, Code: "forbidden"}
	ErrNotFound           = HTTPError{Status: http.StatusNotFound, Code: "not_found"}
	ErrMethodNotAllowed   = HTTPError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed"}
	ErrConflict           = HTTPError{Status: http.StatusConflict, Code: "conflict"}
	ErrInternalError      = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error"}
	ErrServiceUnavailable = HTTPError{Status: http.StatusServiceUnavailable, Code: "service_unavailable"}
)

// NewHTTPError creates a custom HTTP error with the given status and code.
func NewHTTPError(status int, code string) HTTPError {
	return HTTPError{Status: status, Code: code}
}
