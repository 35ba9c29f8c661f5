package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	ctx := context.Background()

	seeded := seedUser(t, repo, "login@example.com", "correct-horse", true)

	token, user, err := auther.Login(ctx, "login@example.com", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, seeded.ID, user.ID)

	claims, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.JTI, claims.SessionEpoch())

	resolved, err := auther.IdentityFromClaims(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, resolved.ID)
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	ctx := context.Background()

	seedUser(t, repo, "exists@example.com", "correct-horse", true)

	// Wrong password and unknown email are indistinguishable.
	_, _, err := auther.Login(ctx, "exists@example.com", "battery-staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auther.Login(ctx, "unknown@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesOutstandingTokens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	ctx := context.Background()

	seedUser(t, repo, "logout@example.com", "correct-horse", true)

	token, user, err := auther.Login(ctx, "logout@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, auther.Logout(ctx, user))

	// The token still decodes; the epoch comparison is what rejects it.
	claims, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	_, err = auther.IdentityFromClaims(ctx, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// A fresh login works and mints against the new epoch.
	token2, _, err := auther.Login(ctx, "logout@example.com", "correct-horse")
	require.NoError(t, err)
	claims2, err := auther.SessionFromToken(token2)
	require.NoError(t, err)
	_, err = auther.IdentityFromClaims(ctx, claims2)
	assert.NoError(t, err)
}

func TestLoginMintsAgainstResolvedIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	ctx := context.Background()

	seeded := seedUser(t, repo, "minted@example.com", "correct-horse", true)

	tokens := new(MockTokenService)
	tokens.On("Generate", mock.MatchedBy(func(u *User) bool {
		return u.ID == seeded.ID && u.JTI == seeded.JTI
	})).Return("minted-token", nil)

	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"}).
		WithTokenService(tokens)

	token, _, err := auther.Login(ctx, "minted@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "minted-token", token)

	tokens.AssertExpectations(t)
}

func TestIdentityFromClaimsRejectsUnknownSubject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})

	user := tokenUser()
	token, err := auther.TokenService().Generate(user)
	require.NoError(t, err)

	claims, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	_, err = auther.IdentityFromClaims(context.Background(), claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
