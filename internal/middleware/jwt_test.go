package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenManager(accessTTL, refreshTTL time.Duration) *TokenManager {
	return NewTokenManager(&config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	access, err := tm.GenerateAccessToken(userID)
	require.NoError(t, err)
	refresh, err := tm.GenerateRefreshToken(userID)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := tm.ValidateToken(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	claims, err = tm.ValidateToken(refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestTokenTypeMismatch(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)

	refresh, err := tm.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	// A refresh token is not a bearer credential.
	_, err = tm.ValidateToken(refresh, TokenTypeAccess)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

func TestExpiredToken(t *testing.T) {
	tm := testTokenManager(-time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = tm.ValidateToken(token, TokenTypeAccess)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

func TestTamperedToken(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)
	other := NewTokenManager(&config.AuthConfig{
		JWTSecret:       "different-secret",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})

	token, err := other.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = tm.ValidateToken(token, TokenTypeAccess)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

// stubStore satisfies database.Store through embedding; only GetUser is
// implemented, anything else panics loudly if touched.
type stubStore struct {
	database.Store
	user *models.User
}

func (s *stubStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func TestRequireAuth(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)
	user := &models.User{ID: uuid.New(), Role: types.RoleUser, IsActive: true}
	auth := NewAuthenticator(tm, &stubStore{user: user})

	var got types.Caller
	handler := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No header.
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token resolves the caller.
	token, err := tm.GenerateAccessToken(user.ID)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, got.Authenticated)
	assert.Equal(t, user.ID, got.ID)

	// Token for a vanished account.
	orphan, err := tm.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+orphan)
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthInactiveAccount(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)
	user := &models.User{ID: uuid.New(), Role: types.RoleUser, IsActive: false}
	auth := NewAuthenticator(tm, &stubStore{user: user})

	handler := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	token, err := tm.GenerateAccessToken(user.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptionalAuthDegradesToAnonymous(t *testing.T) {
	tm := testTokenManager(30*time.Minute, 7*24*time.Hour)
	user := &models.User{ID: uuid.New(), Role: types.RoleUser, IsActive: true}
	auth := NewAuthenticator(tm, &stubStore{user: user})

	var got types.Caller
	handler := auth.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No credentials: anonymous, not rejected.
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, got.Authenticated)

	// Garbage credentials also degrade to anonymous.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, got.Authenticated)

	// Real credentials resolve.
	token, err := tm.GenerateAccessToken(user.ID)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler(w, req)
	assert.True(t, got.Authenticated)
	assert.Equal(t, user.ID, got.ID)
}
