package http

// TokenResponse is the success body for login and refresh. RefreshToken is
// only present when the caller used body transport; cookie-transport
// responses carry the rotated token in the Set-Cookie header instead.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// WhoamiResponse echoes the verified principal.
type WhoamiResponse struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Issuer   string `json:"issuer"`
	Expires  int64  `json:"expires_at"`
}

// HealthChecks reports the state of each critical dependency.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Registry string `json:"registry,omitempty"`
}

// HealthResponse is the body for the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// RevokeAllResponse reports how many sessions logout-all retired.
type RevokeAllResponse struct {
	Revoked int64 `json:"revoked"`
}
