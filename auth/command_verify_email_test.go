package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type verifyFixture struct {
	repo     RepositoryManager
	handler  *VerifyEmailHandler
	notifier *stubNotifier
	tokens   TokenService
	user     *User
	code     string
}

func setupVerify(t *testing.T, db *bun.DB, email string, ttl time.Duration) *verifyFixture {
	t.Helper()

	repo := NewRepositoryManager(db)
	notifier := &stubNotifier{}
	tokens := testTokenService(1)
	handler := NewVerifyEmailHandler(repo, &stubProvisioner{}, tokens, notifier, nil)

	user := seedUser(t, repo, email, "password-1", false)

	var issued *UserVerification
	err := repo.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		issued, err = repo.Verifications().IssueTx(ctx, tx, user.ID, ttl)
		return err
	})
	require.NoError(t, err)

	return &verifyFixture{
		repo:     repo,
		handler:  handler,
		notifier: notifier,
		tokens:   tokens,
		user:     user,
		code:     issued.OTPCode,
	}
}

func TestVerifyEmailSuccess(t *testing.T) {
	db := setupTestDB(t)
	fx := setupVerify(t, db, "happy@example.com", 10*time.Minute)
	ctx := context.Background()

	var resp *VerifyEmailResponse
	msg := VerifyEmailMessage{
		Email:      "happy@example.com",
		OTP:        fx.code,
		OnResponse: func(r *VerifyEmailResponse) { resp = r },
	}

	require.NoError(t, fx.handler.Execute(ctx, msg))
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.Token)

	// The minted assertion decodes and references the verified identity.
	claims, err := fx.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, fx.user.ID.String(), claims.UserID())

	found, err := fx.repo.Users().FindByID(ctx, fx.user.ID)
	require.NoError(t, err)
	assert.True(t, found.EmailVerified)

	require.Len(t, fx.notifier.welcomes, 1)
	assert.Equal(t, "happy@example.com", fx.notifier.welcomes[0])
}

func TestVerifyEmailWrongCode(t *testing.T) {
	db := setupTestDB(t)
	fx := setupVerify(t, db, "wrongcode@example.com", 10*time.Minute)

	wrong := "000000"
	if wrong == fx.code {
		wrong = "000001"
	}

	err := fx.handler.Execute(context.Background(), VerifyEmailMessage{
		Email: "wrongcode@example.com",
		OTP:   wrong,
	})
	assert.ErrorIs(t, err, ErrOTPInvalid)

	found, err := fx.repo.Users().FindByID(context.Background(), fx.user.ID)
	require.NoError(t, err)
	assert.False(t, found.EmailVerified)
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	db := setupTestDB(t)
	fx := setupVerify(t, db, "expired@example.com", -time.Minute)

	// The right code after expiry fails with the same error as a wrong
	// code, the caller can not tell the two apart.
	err := fx.handler.Execute(context.Background(), VerifyEmailMessage{
		Email: "expired@example.com",
		OTP:   fx.code,
	})
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyEmailUnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	handler := NewVerifyEmailHandler(repo, &stubProvisioner{}, testTokenService(1), &stubNotifier{}, nil)

	err := handler.Execute(context.Background(), VerifyEmailMessage{
		Email: "ghost@example.com",
		OTP:   "123456",
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerifyEmailReplayIsConflict(t *testing.T) {
	db := setupTestDB(t)
	fx := setupVerify(t, db, "replay@example.com", 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, fx.handler.Execute(ctx, VerifyEmailMessage{
		Email: "replay@example.com",
		OTP:   fx.code,
	}))

	err := fx.handler.Execute(ctx, VerifyEmailMessage{
		Email: "replay@example.com",
		OTP:   fx.code,
	})
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}
