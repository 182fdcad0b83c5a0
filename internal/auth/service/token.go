package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/pkg/cryptox"
	"github.com/sentinelhq/gatekeep/pkg/jwtx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

// decoyHash is a syntactically valid Argon2id hash verified against when
// login hits an unknown username, so the handler spends the same time on
// unknown and known users and response latency never confirms a username.
const decoyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// registerRetries bounds the number of fresh token ids tried when Register
// reports a duplicate. With 256-bit ids a single retry is already paranoia.
const registerRetries = 3

// TokenService implements the token lifecycle: login, refresh (with
// rotation), logout, and logout-everywhere.
//
// The access and refresh classes are signed with independent secrets, so the
// refresh verifier rejects access tokens outright and vice versa. All
// authentication failures on the refresh path collapse into
// ErrInvalidRefresh; only infrastructure errors (store or registry down)
// pass through, so handlers can distinguish 401 from 503.
type TokenService struct {
	AccessSigner    jwtx.Signer
	RefreshSigner   jwtx.Signer
	RefreshVerifier jwtx.Verifier

	Store    store.Store
	Registry registry.Registry

	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock used for claim timestamps. Overridable for tests;
	// nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login verifies a username/password pair and issues a fresh token pair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *TokenService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing cost as a real verification.
			_ = cryptox.VerifyPassword(password, decoyHash)
			l.Info("login failed", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("login failed", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u, now)
	if err != nil {
		return nil, err
	}

	l.Info("login succeeded",
		slog.String("username", u.Username),
		slog.String("role", u.Role.String()),
	)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token's id is retired and a
// brand new pair is issued. The user's role is re-read from the store on
// every rotation, so promotions, demotions, and deletions take effect here
// rather than waiting out the refresh TTL.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	claims, err := s.RefreshVerifier.Verify(refreshToken)
	if err != nil {
		l.Info("refresh rejected", slog.String("reason", "verification"), slog.Any("error", err))
		return nil, ErrInvalidRefresh
	}
	if claims.TID == "" {
		// A token from our refresh secret but without a registry id is not
		// a refresh token.
		return nil, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// User deleted since issuance. Retire the orphaned id so it
			// stops occupying the registry.
			_ = s.Registry.Revoke(ctx, claims.TID)
			l.Info("refresh rejected", slog.String("reason", "unknown subject"))
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	// Sign the replacement pair before touching the registry: a signing
	// failure here must not consume the presented token.
	nextTID, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	pair, err := s.signPair(u, nextTID, now)
	if err != nil {
		return nil, err
	}

	next := registry.Entry{
		TokenID:   nextTID,
		Identity:  u.Username,
		CreatedAt: now,
	}
	if err := s.Registry.Rotate(ctx, claims.TID, u.Username, next); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			// Spent, revoked, or raced by a concurrent refresh.
			l.Warn("refresh rejected",
				slog.String("reason", "token id not live"),
				slog.String("tid_fp", cryptox.FingerprintToken(claims.TID)),
			)
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	l.Info("refresh succeeded",
		slog.String("username", u.Username),
		slog.String("tid_fp", cryptox.FingerprintToken(nextTID)),
	)
	return pair, nil
}

// Logout retires the presented refresh token. Revocation is idempotent:
// logging out twice with the same token succeeds both times. The access
// token cannot be recalled and simply ages out.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.RefreshVerifier.Verify(refreshToken)
	if err != nil || claims.TID == "" {
		return ErrInvalidRefresh
	}

	if err := s.Registry.Revoke(ctx, claims.TID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("logout",
		slog.String("username", claims.Subject),
		slog.String("tid_fp", cryptox.FingerprintToken(claims.TID)),
	)
	return nil
}

// RevokeAll retires every live refresh token owned by the given username
// ("log out everywhere") and reports how many were retired.
func (s *TokenService) RevokeAll(ctx context.Context, username string) (int64, error) {
	n, err := s.Registry.RevokeAll(ctx, username)
	if err != nil {
		return 0, err
	}

	slogx.FromContext(ctx).Info("revoked all sessions",
		slog.String("username", username),
		slog.Int64("count", n),
	)
	return n, nil
}

// issuePair mints and registers a fresh pair for a verified user. A
// duplicate token id from the registry is retried with a fresh id.
func (s *TokenService) issuePair(ctx context.Context, u domain.User, now time.Time) (*domain.TokenPair, error) {
	for attempt := 0; attempt < registerRetries; attempt++ {
		tid, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}

		err = s.Registry.Register(ctx, registry.Entry{
			TokenID:   tid,
			Identity:  u.Username,
			CreatedAt: now,
		})
		if errors.Is(err, registry.ErrDuplicateID) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return s.signPair(u, tid, now)
	}
	return nil, registry.ErrDuplicateID
}

func (s *TokenService) signPair(u domain.User, tid string, now time.Time) (*domain.TokenPair, error) {
	access, err := s.AccessSigner.Sign(jwtx.NewAccessClaims(
		u.Username,      // subject
		u.Role.String(), // role
		u.Username,      // username
		s.AccessTTL,
		s.Issuer,
		s.Audience,
		now,
	))
	if err != nil {
		return nil, err
	}

	refresh, err := s.RefreshSigner.Sign(jwtx.NewRefreshClaims(
		u.Username, // subject
		tid,        // registry token id
		s.RefreshTTL,
		s.Issuer,
		s.Audience,
		now,
	))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}
