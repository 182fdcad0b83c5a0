package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates JWTs signed using HS256. The algorithm is pinned:
// a token asserting any other "alg" header is rejected before the signature
// is even considered, so an RS256/none confusion attack never reaches the
// key material.
type HS256Verifier struct {
	secret []byte
	issuer string
	aud    []string

	// Now is the clock used for exp/nbf checks. Overridable for tests.
	Now func() time.Time
}

// NewVerifierHS256 creates a verifier bound to a secret, issuer, and audience.
func NewVerifierHS256(secret []byte, issuer string, aud []string) *HS256Verifier {
	return &HS256Verifier{
		secret: secret,
		issuer: issuer,
		aud:    aud,
		Now:    time.Now,
	}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.Now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// WithValidMethods already pinned the alg; this is belt-and-braces
		// against a parser behaviour change.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}

	// Now check all the claim requirements.
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return nil, err
	}

	return claims, nil
}

// mapParseError collapses golang-jwt's error surface onto our sentinels so
// callers can switch on errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Keyfunc refusal, which for this verifier means a pinned-alg
		// violation.
		return ErrAlgMismatch
	default:
		return ErrInvalidSig
	}
}
