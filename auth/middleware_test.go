package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractBearerToken("Bearer abc.def.ghi"))
	assert.Equal(t, "", ExtractBearerToken(""))
	assert.Equal(t, "", ExtractBearerToken("Basic dXNlcjpwYXNz"))
	assert.Equal(t, "", ExtractBearerToken("Bearer"))
	assert.Equal(t, "", ExtractBearerToken("Bearer one two"))
	assert.Equal(t, "", ExtractBearerToken("bearer abc"))
}

func guardedApp(t *testing.T, auther *Auther) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Get("/private", Protected(auther, DefaultContextKey, nil), func(c *fiber.Ctx) error {
		user, err := CurrentUser(c, DefaultContextKey)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"email": user.Email})
	})
	return app
}

func TestGuardRejectsMissingToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	app := guardedApp(t, auther)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Authorization token is missing", body["error"])
}

func TestGuardRejectsGarbageToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	app := guardedApp(t, auther)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestGuardAcceptsValidToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	app := guardedApp(t, auther)
	ctx := context.Background()

	seedUser(t, repo, "guard@example.com", "correct-horse", true)
	token, _, err := auther.Login(ctx, "guard@example.com", "correct-horse")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "guard@example.com", body["email"])
}

func TestGuardRejectsTokenAfterLogout(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepositoryManager(db)
	auther := NewAuthenticator(repo, testConfig{signingKey: "test-signing-key"})
	app := guardedApp(t, auther)
	ctx := context.Background()

	seedUser(t, repo, "replayed@example.com", "correct-horse", true)
	token, user, err := auther.Login(ctx, "replayed@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, auther.Logout(ctx, user))

	// The replayed token still has a valid signature and expiry; the
	// epoch mismatch is what kills it.
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
