package token

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMintProducesDistinctTokens(t *testing.T) {
	svc := NewService(0, nil, nil)
	first, err := svc.Mint()
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	second, err := svc.Mint()
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first == "" || second == "" {
		t.Fatal("expected non-empty tokens")
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}
}

func TestValidateAcceptsBoundToken(t *testing.T) {
	svc := NewService(0, nil, nil)
	bindings := []Binding{{Role: RoleHubOwner, Token: "approval-token"}}

	if err := svc.Validate("approval-token", RoleHubOwner, bindings); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsUnknownToken(t *testing.T) {
	svc := NewService(0, nil, nil)
	bindings := []Binding{{Role: RoleHubOwner, Token: "approval-token"}}

	err := svc.Validate("forged", RoleHubOwner, bindings)
	if !apperrors.IsCode(err, apperrors.CodeTokenInvalid) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeTokenInvalid)
	}
	err = svc.Validate("", RoleHubOwner, bindings)
	if !apperrors.IsCode(err, apperrors.CodeTokenInvalid) {
		t.Fatalf("empty token error = %v, want %s", err, apperrors.CodeTokenInvalid)
	}
}

func TestValidateRejectsRoleMismatch(t *testing.T) {
	svc := NewService(0, nil, nil)
	bindings := []Binding{
		{Role: RoleHubOwner, Token: "approval-token"},
		{Role: RoleTarget, Token: "consent-token"},
	}

	err := svc.Validate("consent-token", RoleHubOwner, bindings)
	if !apperrors.IsCode(err, apperrors.CodeTokenMismatch) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeTokenMismatch)
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected domain error")
	}
	if appErr.Metadata["got"] != string(RoleTarget) {
		t.Fatalf("metadata got = %q, want %q", appErr.Metadata["got"], RoleTarget)
	}
}

func TestValidateHonorsTTL(t *testing.T) {
	issued := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	bindings := []Binding{{Role: RoleTarget, Token: "consent-token", IssuedAt: issued}}

	fresh := NewService(time.Hour, fixedClock(issued.Add(30*time.Minute)), nil)
	if err := fresh.Validate("consent-token", RoleTarget, bindings); err != nil {
		t.Fatalf("validate within ttl: %v", err)
	}

	stale := NewService(time.Hour, fixedClock(issued.Add(2*time.Hour)), nil)
	err := stale.Validate("consent-token", RoleTarget, bindings)
	if !apperrors.IsCode(err, apperrors.CodeTokenExpired) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeTokenExpired)
	}
}

func TestValidateZeroTTLNeverExpires(t *testing.T) {
	issued := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	bindings := []Binding{{Role: RoleHubOwner, Token: "approval-token", IssuedAt: issued}}

	svc := NewService(0, fixedClock(issued.AddDate(10, 0, 0)), nil)
	if err := svc.Validate("approval-token", RoleHubOwner, bindings); err != nil {
		t.Fatalf("validate without ttl: %v", err)
	}
}

func TestRoleOf(t *testing.T) {
	bindings := []Binding{
		{Role: RoleHubOwner, Token: "approval-token"},
		{Role: RoleTarget, Token: "consent-token"},
	}

	role, ok := RoleOf("consent-token", bindings)
	if !ok || role != RoleTarget {
		t.Fatalf("RoleOf = (%v, %v), want (%v, true)", role, ok, RoleTarget)
	}
	if _, ok := RoleOf("missing", bindings); ok {
		t.Fatal("expected unknown token to resolve no role")
	}
	if _, ok := RoleOf("", bindings); ok {
		t.Fatal("expected empty token to resolve no role")
	}
}
