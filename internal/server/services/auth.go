// Package services holds the authentication gateway: the orchestration
// between lockout control, credential verification and session issuance.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avolkova/discograph/internal/common"
	"github.com/avolkova/discograph/internal/logging"
	"github.com/avolkova/discograph/internal/server/auth"
	"github.com/avolkova/discograph/internal/server/config"
	"github.com/avolkova/discograph/internal/server/lockout"
	"github.com/avolkova/discograph/internal/server/repositories/accounts"
	"github.com/avolkova/discograph/internal/server/sessioncookie"
	"github.com/avolkova/discograph/internal/server/sessiontoken"
)

// CredentialVerifier validates a submitted credential and returns the
// account id. Implementations return common.ErrorUnauthorized for a wrong
// or unknown credential. The default is the argon2 PasswordVerifier; a
// deployment may substitute an external identity provider.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, identifier, secret string) (string, error)
}

// LoginResult is a successful login: the cookie descriptor to set on the
// response and the claims that were sealed into it.
type LoginResult struct {
	Cookie *http.Cookie
	Claims *sessiontoken.Claims
}

type AuthService struct {
	repo             accounts.Repository
	tracker          *lockout.Tracker
	codec            *sessiontoken.Codec
	verifier         CredentialVerifier
	cookieCfg        sessioncookie.Config
	jwtSecret        []byte
	apiTokenValidity time.Duration
	logger           logging.Logger
	now              func() time.Time
}

func NewAuthService(repo accounts.Repository, tracker *lockout.Tracker, codec *sessiontoken.Codec,
	verifier CredentialVerifier, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		repo:             repo,
		tracker:          tracker,
		codec:            codec,
		verifier:         verifier,
		cookieCfg:        sessioncookie.Config{Secure: cfg.SecureCookies, Lifetime: cfg.SessionLifetime},
		jwtSecret:        []byte(cfg.SessionSecret),
		apiTokenValidity: cfg.APITokenValidityDuration,
		logger:           logger,
		now:              time.Now,
	}
}

// Login runs the gateway sequence: lockout check, credential verification,
// then either a recorded failure or a minted session. A locked account is
// reported via *lockout.LockedError before the credential is ever checked,
// and a failure that trips the threshold is reported the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	// The lockout record rides on the account row; an unknown email simply
	// has no record and falls through to credential verification.
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if account != nil {
		st, err := s.tracker.CheckLockout(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if st.Locked {
			return nil, &lockout.LockedError{Remaining: st.Remaining}
		}
	}

	accountID, err := s.verifier.VerifyCredential(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorNotFound) {
			if account != nil {
				st, ferr := s.tracker.RecordFailure(ctx, account.ID)
				if ferr != nil {
					return nil, ferr
				}
				if st.Locked {
					return nil, &lockout.LockedError{Remaining: st.Remaining}
				}
			}
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := s.tracker.RecordSuccess(ctx, accountID); err != nil {
		return nil, err
	}

	claims := &sessiontoken.Claims{Subject: accountID}
	if account != nil {
		claims.Name = account.DisplayName
		claims.Email = account.Email
		claims.Role = account.Role
	}

	token, err := s.codec.Encrypt(claims)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		Cookie: sessioncookie.Issue(token, s.now(), s.cookieCfg),
		Claims: claims,
	}, nil
}

// Logout returns the descriptor expiring the session cookie. There is no
// server-side session state to tear down.
func (s *AuthService) Logout() *http.Cookie {
	return sessioncookie.Clear(s.cookieCfg)
}

// Session validates a serialized session token. The distinct failure modes
// are logged for operability but callers must present all of them to the
// user as one uniform "invalid session".
func (s *AuthService) Session(ctx context.Context, token string) (*sessiontoken.Claims, error) {
	claims, err := s.codec.Decrypt(token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			s.logger.Debug(ctx, "session rejected", "code", "expired")
		case errors.Is(err, common.ErrAuthenticationFailed):
			s.logger.Warn(ctx, "session rejected", "code", "bad_tag")
		case errors.Is(err, common.ErrUnsupportedAlgorithm):
			s.logger.Warn(ctx, "session rejected", "code", "unsupported_alg")
		default:
			s.logger.Warn(ctx, "session rejected", "code", "malformed_token")
		}
		return nil, err
	}
	return claims, nil
}

// APIToken mints a short-lived HS256 bearer token for programmatic clients.
func (s *AuthService) APIToken(ctx context.Context, accountID string) (string, error) {
	return auth.GenerateToken(accountID, s.jwtSecret, s.apiTokenValidity)
}

// VerifyAPIToken validates a bearer token and returns the account id.
func (s *AuthService) VerifyAPIToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}
