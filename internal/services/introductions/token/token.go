// Package token issues and validates single-purpose workflow tokens.
//
// Each token is an opaque identifier generated at the moment its role
// becomes actionable and bound to exactly one (request, role) pair. A token
// authorizes exactly one transition; the workflow engine invalidates it by
// resolving the decision field it guards.
package token

import (
	"crypto/subtle"
	"strings"
	"time"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
	"github.com/louisbranch/introhub/internal/platform/id"
)

// Role names the party a token is scoped to.
type Role string

const (
	// RoleHubOwner scopes a token to the hub owner's approval decision.
	RoleHubOwner Role = "h1"
	// RoleTarget scopes a token to the target's consent decision.
	RoleTarget Role = "s2"
)

// Binding associates an issued token with its role and issue time.
type Binding struct {
	Role     Role
	Token    string
	IssuedAt time.Time
}

// Service mints and validates opaque workflow tokens. A zero TTL means
// tokens stay valid until consumed.
type Service struct {
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewService constructs a token service. TTL of zero disables expiry.
func NewService(ttl time.Duration, now func() time.Time, newToken func() (string, error)) *Service {
	if now == nil {
		now = time.Now
	}
	if newToken == nil {
		newToken = id.NewID
	}
	return &Service{ttl: ttl, now: now, newToken: newToken}
}

// Mint generates a fresh opaque token.
func (s *Service) Mint() (string, error) {
	if s == nil || s.newToken == nil {
		return id.NewID()
	}
	return s.newToken()
}

// Validate checks a presented token against the request's issued bindings
// for the wanted role. It distinguishes unknown tokens (TOKEN_INVALID) from
// tokens issued for the other role or decision (TOKEN_MISMATCH) and from
// tokens past their TTL (TOKEN_EXPIRED).
func (s *Service) Validate(presented string, want Role, bindings []Binding) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return apperrors.New(apperrors.CodeTokenInvalid, "token is required")
	}

	var matched *Binding
	for idx := range bindings {
		if bindings[idx].Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(bindings[idx].Token), []byte(presented)) == 1 {
			matched = &bindings[idx]
			break
		}
	}
	if matched == nil {
		return apperrors.New(apperrors.CodeTokenInvalid, "token is unknown for this request")
	}
	if matched.Role != want {
		return apperrors.WithMetadata(
			apperrors.CodeTokenMismatch,
			"token is bound to a different role",
			map[string]string{"want": string(want), "got": string(matched.Role)},
		)
	}
	if s != nil && s.ttl > 0 && !matched.IssuedAt.IsZero() {
		now := time.Now
		if s.now != nil {
			now = s.now
		}
		if now().UTC().After(matched.IssuedAt.UTC().Add(s.ttl)) {
			return apperrors.New(apperrors.CodeTokenExpired, "token has expired")
		}
	}
	return nil
}

// RoleOf resolves which role a presented token is bound to, if any.
func RoleOf(presented string, bindings []Binding) (Role, bool) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return "", false
	}
	for _, binding := range bindings {
		if binding.Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(binding.Token), []byte(presented)) == 1 {
			return binding.Role, true
		}
	}
	return "", false
}
