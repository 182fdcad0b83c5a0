package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants. Access tokens are deliberately short-lived:
// they cannot be revoked before expiry, so the TTL bounds the blast radius
// of a leaked token. Refresh tokens are long-lived but one-time-use.
const (
	DefaultAccessTokenTTL = 15 * time.Minute

	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the token claims used across the service. Access tokens carry
// Role and Username; refresh tokens carry TID (the registry key). Keeping
// one struct for both classes mirrors the wire format - the class is decided
// by which secret signed the token, never by the payload.
type Claims struct {
	jwt.RegisteredClaims

	// Role of the authenticated user ("user" or "admin"). Access tokens only.
	Role string `json:"role,omitempty"`

	// TID is the one-time refresh token id tracked by the refresh registry.
	// Refresh tokens only.
	TID string `json:"tid,omitempty"`

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(
	subject, role, username string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, ttl, issuer, audience, now),
		Role:             role,
		Username:         username,
	}
}

// NewRefreshClaims builds refresh token claims bound to a registry token id.
func NewRefreshClaims(
	subject, tid string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, ttl, issuer, audience, now),
		TID:              tid,
	}
}

func registered(
	subject string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings(audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}
