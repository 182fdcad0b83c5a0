package domain

import "time"

// TokenPair is what a successful login or refresh produces: the short-lived
// access token (self-contained JWT) and the long-lived refresh token (JWT
// whose tid must also be live in the refresh registry).
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}
