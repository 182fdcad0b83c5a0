package authsdk

// TokenResponse is the body returned by the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the signed refresh token. Present on login and on
	// body-transport refresh; absent when the cookie transport is in use.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`
}

// ErrorResponse is the uniform {error, error_description} failure body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// WhoamiResponse is the verified principal returned by GET /v1/whoami.
type WhoamiResponse struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Issuer   string `json:"issuer"`
	Expires  int64  `json:"expires_at"`
}

// RevokeAllResponse reports how many sessions logout-all retired.
type RevokeAllResponse struct {
	Revoked int64 `json:"revoked"`
}
