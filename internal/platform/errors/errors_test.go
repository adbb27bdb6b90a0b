package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeTokenInvalid, "token is invalid")
	other := New(CodeTokenInvalid, "different message, same code")

	if !stderrors.Is(base, other) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(base, New(CodeStateConflict, "conflict")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk failure")
	err := Wrap(CodeStoreUnavailable, "query requests", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if GetCode(err) != CodeStoreUnavailable {
		t.Fatalf("code = %v, want %v", GetCode(err), CodeStoreUnavailable)
	}
}

func TestGetCodeUnknownForPlainErrors(t *testing.T) {
	if code := GetCode(fmt.Errorf("plain")); code != CodeUnknown {
		t.Fatalf("code = %v, want %v", code, CodeUnknown)
	}
	if code := GetCode(nil); code != CodeUnknown {
		t.Fatalf("code = %v, want %v", code, CodeUnknown)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeSubmissionMessageRequired, http.StatusBadRequest},
		{CodeSubmissionMessageTooLong, http.StatusBadRequest},
		{CodeSubmissionInvalidUrgency, http.StatusBadRequest},
		{CodeTokenInvalid, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeBearerMissing, http.StatusUnauthorized},
		{CodeTokenMismatch, http.StatusForbidden},
		{CodeRequestNotFound, http.StatusNotFound},
		{CodeWorkspaceNotFound, http.StatusNotFound},
		{CodeStateConflict, http.StatusConflict},
		{CodeStoreUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestHTTPStatusForErrors(t *testing.T) {
	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("HTTPStatus(nil) = %d, want %d", got, http.StatusOK)
	}
	if got := HTTPStatus(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus(plain) = %d, want %d", got, http.StatusInternalServerError)
	}
	wrapped := fmt.Errorf("handler: %w", New(CodeStateConflict, "already resolved"))
	if got := HTTPStatus(wrapped); got != http.StatusConflict {
		t.Fatalf("HTTPStatus(wrapped) = %d, want %d", got, http.StatusConflict)
	}
}
