package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther coordinates credentials, the token codec, and the session epoch.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewAuthenticator returns a new Auther.
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther.
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies email + password and mints a session assertion embedding
// the current session epoch. Unknown email and wrong password both surface
// as ErrInvalidCredentials so responses cannot be used to enumerate
// accounts.
func (s *Auther) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.Users().FindByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch", "email", email)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Logout rotates the session epoch, invalidating every outstanding
// assertion for the identity at once. There is no token blacklist; this is
// the only revocation mechanism.
func (s *Auther) Logout(ctx context.Context, user *User) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().InvalidateSessionsTx(ctx, tx, user)
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to invalidate sessions")
	}

	s.logger.Info("sessions invalidated", "user_id", user.ID)
	return nil
}

// SessionFromToken decodes and verifies a raw bearer assertion.
func (s *Auther) SessionFromToken(token string) (*JWTClaims, error) {
	return s.tokens.Validate(token)
}

// IdentityFromClaims resolves the claims' subject against the store and
// checks the epoch snapshot against the identity's current session epoch.
// Unknown subject, malformed id, and stale epoch all collapse into
// ErrTokenInvalid.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims *JWTClaims) (*User, error) {
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.repo.Users().FindByID(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity")
	}

	if claims.SessionEpoch() != user.JTI {
		s.logger.Debug("session epoch mismatch", "user_id", user.ID)
		return nil, ErrTokenInvalid
	}

	return user, nil
}
