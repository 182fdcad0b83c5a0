package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the gatekeep authentication service.
// It provides the unauthenticated operations and can create authenticated
// Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates a username/password pair and returns a Session
// holding the issued token pair.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	tokenResp, err := c.loginRequest(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// NewSessionFromTokens creates a session from previously stored tokens.
// The session still auto-refreshes once the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second) // refresh a little early

	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
	}
}

// RefreshToken exchanges a refresh token for a new pair without building a
// Session. Most callers want Session and its automatic rotation instead.
func (c *SDKClient) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	return c.postJSON(ctx, "/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
}

// Logout retires a refresh token. Always succeeds against a healthy server,
// even when the token is already spent.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.postJSON(ctx, "/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	})
	return err
}

// Livez reports whether the service process is up.
func (c *SDKClient) Livez(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/livez"), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}
	return nil
}

func (c *SDKClient) loginRequest(ctx context.Context, username, password string) (TokenResponse, error) {
	return c.postJSON(ctx, "/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// postJSON sends an unauthenticated JSON POST and decodes a TokenResponse.
func (c *SDKClient) postJSON(ctx context.Context, path string, body any) (TokenResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return TokenResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), &buf)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, errorFromResponse(resp)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return TokenResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return tokenResp, nil
}
