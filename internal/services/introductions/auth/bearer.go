// Package auth verifies the signed bearer credentials presented by
// authenticated dashboard callers.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/introhub/internal/platform/errors"
	"github.com/louisbranch/introhub/internal/services/introductions/domain"
)

// bearerEnv holds raw env values before post-parse validation.
type bearerEnv struct {
	Issuer    string `env:"INTROHUB_AUTH_ISSUER"`
	Audience  string `env:"INTROHUB_AUTH_AUDIENCE"`
	PublicKey string `env:"INTROHUB_AUTH_PUBLIC_KEY"`
}

// Config defines how bearer credentials are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Claims captures a validated bearer credential.
type Claims struct {
	UserID    string
	Profile   domain.Profile
	Issuer    string
	JWTID     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Identity returns the claims as a workflow identity.
func (c Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Profile: c.Profile}
}

// bearerClaims is the internal claims type used for JWT parsing.
type bearerClaims struct {
	jwt.RegisteredClaims
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	PictureURL  string `json:"picture_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// LoadConfigFromEnv reads bearer verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw bearerEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("INTROHUB_AUTH_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("INTROHUB_AUTH_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("INTROHUB_AUTH_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Verifier validates bearer credentials against a trusted signing key.
type Verifier struct {
	cfg Config
}

// NewVerifier constructs a bearer verifier.
func NewVerifier(cfg Config) *Verifier {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}
}

// BearerFromHeader extracts the credential from an Authorization header
// value. Empty when the header is absent or not a bearer scheme.
func BearerFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Verify validates a bearer credential and returns its claims.
func (v *Verifier) Verify(bearer string) (Claims, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return Claims{}, apperrors.New(apperrors.CodeBearerMissing, "bearer credential is required")
	}
	if v == nil || v.cfg.Issuer == "" || v.cfg.Audience == "" || len(v.cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("bearer verifier is not configured")
	}

	var parsed bearerClaims
	_, err := jwt.ParseWithClaims(bearer, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.cfg.Issuer {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer issuer mismatch")
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer audience mismatch")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer exp is required")
	}

	now := v.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer credential is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeBearerInvalid, "bearer credential not active yet")
	}

	claims := Claims{
		UserID: parsed.Subject,
		Profile: domain.Profile{
			Name:        parsed.Name,
			Title:       parsed.Title,
			Company:     parsed.Company,
			PictureURL:  parsed.PictureURL,
			LinkedInURL: parsed.LinkedInURL,
		},
		Issuer:    parsed.Issuer,
		JWTID:     parsed.ID,
		ExpiresAt: exp,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeBearerInvalid, "bearer signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeBearerInvalid, "bearer alg is invalid")
	}
	return apperrors.New(apperrors.CodeBearerInvalid, "bearer credential is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return nil, errors.New("value is not valid base64")
}
