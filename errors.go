package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrNotFound is returned when a record is absent for the requesting owner.
// Records belonging to other owners surface identically, so existence is
// never leaked across identities.
var ErrNotFound = errors.New("record not found")

// ErrAuthInvalid is returned when a credential is missing, malformed, or
// rejected by the identity provider.
var ErrAuthInvalid = errors.New("invalid credentials")

// ErrAuthUnreachable is returned when the identity provider cannot be
// reached.
var ErrAuthUnreachable = errors.New("identity provider unreachable")

// ErrorCode identifies a failure class. The same code is produced for the
// same logical failure regardless of which operation triggered it.
type ErrorCode string

const (
	CodeMissingAuthToken ErrorCode = "MISSING_AUTH_TOKEN"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeMissingResource  ErrorCode = "MISSING_RESOURCE"
	CodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	CodeUndefined        ErrorCode = "UNDEFINED"
)

// apiError is the stable JSON error body returned for every failure.
type apiError struct {
	Code    int       `json:"code"`
	Errno   ErrorCode `json:"errno"`
	Title   string    `json:"error"`
	Message string    `json:"message"`
	Info    string    `json:"info,omitempty"`
}

// writeError writes a structured error body with the given HTTP status.
func writeError(w http.ResponseWriter, status int, errno ErrorCode, title, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{
		Code:    status,
		Errno:   errno,
		Title:   title,
		Message: message,
	})
}

// writeNotFound writes the stable absence body used for every operation,
// whether the record is missing or belongs to another owner.
func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, CodeMissingResource, "Not Found",
		"The resource you are looking for could not be found.")
}

// writeJSON writes a success body with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
