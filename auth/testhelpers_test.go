package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	err = db.ResetModel(ctx, (*User)(nil), (*UserVerification)(nil))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func seedUser(t *testing.T, repo RepositoryManager, email, password string, verified bool) *User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := &User{
		ID:            uuid.New(),
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         email,
		PasswordHash:  hash,
		DateOfBirth:   mustDate(t, "1990-12-10"),
		Country:       44,
		EmailVerified: verified,
	}
	user.RegenerateJTI()

	_, err = repo.Users().Create(context.Background(), user)
	require.NoError(t, err)

	return user
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

// stubProvisioner records provisioning calls so command tests can assert
// lists are requested without pulling in the lists package.
type stubProvisioner struct {
	calls []uuid.UUID
	fail  error
}

func (s *stubProvisioner) EnsureDefaultsTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error {
	if s.fail != nil {
		return s.fail
	}
	s.calls = append(s.calls, ownerID)
	return nil
}

// stubNotifier captures outbound mail without touching the network.
type stubNotifier struct {
	verifications []string
	welcomes      []string
	otps          []string
	fail          bool
}

func (s *stubNotifier) SendVerification(ctx context.Context, email, firstName, otpCode string) DeliveryResult {
	if s.fail {
		return DeliveryResult{Success: false, Message: "smtp unavailable"}
	}
	s.verifications = append(s.verifications, email)
	s.otps = append(s.otps, otpCode)
	return DeliveryResult{Success: true, Message: "sent"}
}

func (s *stubNotifier) SendWelcome(ctx context.Context, user *User) DeliveryResult {
	if s.fail {
		return DeliveryResult{Success: false, Message: "smtp unavailable"}
	}
	s.welcomes = append(s.welcomes, user.Email)
	return DeliveryResult{Success: true, Message: "sent"}
}

// MockTokenService implements TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(user *User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(token string) (*JWTClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*JWTClaims)
	return claims, args.Error(1)
}

type testConfig struct {
	signingKey string
}

func (c testConfig) GetSigningKey() string         { return c.signingKey }
func (c testConfig) GetTokenExpiration() int       { return 1 }
func (c testConfig) GetIssuer() string             { return "cinephile-test" }
func (c testConfig) GetAudience() []string         { return []string{"cinephile-test"} }
func (c testConfig) GetContextKey() string         { return DefaultContextKey }
func (c testConfig) GetAuthScheme() string         { return "Bearer" }
func (c testConfig) GetOTPLifetime() time.Duration { return 10 * time.Minute }
