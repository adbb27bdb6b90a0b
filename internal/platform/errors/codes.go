package errors

import (
	stderrors "errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Submission errors
	CodeMalformedBody               Code = "MALFORMED_BODY"
	CodeSubmissionRequesterRequired Code = "SUBMISSION_REQUESTER_REQUIRED"
	CodeSubmissionTargetRequired    Code = "SUBMISSION_TARGET_REQUIRED"
	CodeSubmissionMessageRequired   Code = "SUBMISSION_MESSAGE_REQUIRED"
	CodeSubmissionMessageTooLong    Code = "SUBMISSION_MESSAGE_TOO_LONG"
	CodeSubmissionInvalidUrgency    Code = "SUBMISSION_INVALID_URGENCY"

	// Workspace errors
	CodeWorkspaceNotFound      Code = "WORKSPACE_NOT_FOUND"
	CodeWorkspaceNameRequired  Code = "WORKSPACE_NAME_REQUIRED"
	CodeWorkspaceOwnerRequired Code = "WORKSPACE_OWNER_REQUIRED"

	// Token errors
	CodeTokenInvalid  Code = "TOKEN_INVALID"
	CodeTokenMismatch Code = "TOKEN_MISMATCH"
	CodeTokenExpired  Code = "TOKEN_EXPIRED"

	// Bearer auth errors
	CodeBearerMissing Code = "BEARER_MISSING"
	CodeBearerInvalid Code = "BEARER_INVALID"

	// Workflow errors
	CodeRequestNotFound Code = "REQUEST_NOT_FOUND"
	CodeStateConflict   Code = "STATE_CONFLICT"

	// Storage errors
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad Request - validation failures, user-correctable input
	case CodeMalformedBody,
		CodeSubmissionRequesterRequired,
		CodeSubmissionTargetRequired,
		CodeSubmissionMessageRequired,
		CodeSubmissionMessageTooLong,
		CodeSubmissionInvalidUrgency,
		CodeWorkspaceNameRequired,
		CodeWorkspaceOwnerRequired:
		return http.StatusBadRequest

	// Unauthorized - unknown, consumed, or expired tokens
	case CodeTokenInvalid, CodeTokenExpired, CodeBearerMissing, CodeBearerInvalid:
		return http.StatusUnauthorized

	// Forbidden - a real token presented for the wrong request or role
	case CodeTokenMismatch:
		return http.StatusForbidden

	// Not Found
	case CodeRequestNotFound, CodeWorkspaceNotFound:
		return http.StatusNotFound

	// Conflict - the request is no longer in the required state
	case CodeStateConflict:
		return http.StatusConflict

	// Service Unavailable - infrastructure failure, safe to retry
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// HTTPStatus maps any error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}
