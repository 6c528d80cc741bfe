package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the structured error envelope every endpoint returns.
// All three fields are strings so a client can branch on Error and show
// Message; Details carries upstream diagnostics when present.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders a structured JSON error.
func WriteError(w http.ResponseWriter, status int, code, message, details string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// WriteErrorFrom maps an error onto the envelope. HTTPError values keep
// their status and code; anything else becomes a 500 internal_error with
// the error text in details.
func WriteErrorFrom(w http.ResponseWriter, err error, message string) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		WriteError(w, httpErr.Status, httpErr.Code, message, "")
		return
	}
	WriteError(w, http.StatusInternalServerError, ErrInternalError.Code, message, err.Error())
}
