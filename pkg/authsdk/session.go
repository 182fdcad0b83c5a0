package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Session is an authenticated session against the service. It holds the
// current token pair and refreshes the access token shortly before expiry;
// each refresh also rotates the stored refresh token, so a Session must not
// be copied.
type Session struct {
	client *SDKClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(c *SDKClient, tokenResp TokenResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second) // refresh a little early

	return &Session{
		client:       c,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		expiresAt:    expiresAt,
	}
}

// AccessToken returns the current access token. It may already be expired;
// use the request methods for automatic refresh.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token, e.g. for persisting the
// session across restarts.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// Refresh forces a rotation regardless of the access token's remaining
// lifetime.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Whoami returns the verified identity behind this session's access token.
func (s *Session) Whoami(ctx context.Context) (WhoamiResponse, error) {
	var out WhoamiResponse
	err := s.getJSON(ctx, "/v1/whoami", &out)
	return out, err
}

// Logout retires this session's refresh token. The session is unusable
// afterwards once the access token expires.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.client.Logout(ctx, token)
}

// LogoutAll revokes every refresh token belonging to this session's subject
// and reports how many were retired.
func (s *Session) LogoutAll(ctx context.Context) (int64, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url("/v1/auth/logout-all"), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errorFromResponse(resp)
	}

	var out RevokeAllResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	// Our own refresh token is among the revoked.
	s.mu.Lock()
	s.refreshToken = ""
	s.mu.Unlock()

	return out.Revoked, nil
}

// getValidToken returns an access token with lifetime remaining, refreshing
// the pair when needed.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().After(s.expiresAt) {
		if err := s.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return s.accessToken, nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Code: "invalid_grant",
			Description: "session has no refresh token"}
	}

	tokenResp, err := s.client.RefreshToken(ctx, s.refreshToken)
	if err != nil {
		return err
	}

	s.accessToken = tokenResp.AccessToken
	s.refreshToken = tokenResp.RefreshToken
	s.expiresAt = time.Now().
		Add(time.Duration(tokenResp.ExpiresIn) * time.Second).
		Add(-30 * time.Second)
	return nil
}

func (s *Session) getJSON(ctx context.Context, path string, out any) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.url(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
