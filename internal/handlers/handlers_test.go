package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore satisfies database.Store through embedding; only GetUser is
// implemented.
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

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.DefaultConfig(),
		Database: &config.DatabaseConfig{},
		Auth: &config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			GoogleClientID:  "client-123",
		},
		Media: &config.MediaConfig{},
	}
}

func testServer(user *models.User) *Server {
	cfg := testConfig()
	tokens := middleware.NewTokenManager(cfg.Auth)
	return &Server{
		Store:          &stubStore{user: user},
		Tokens:         tokens,
		Config:         cfg,
		RequestTimeout: time.Second,
	}
}

func TestParseListQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/posts?page=3&limit=20&status=published&category=go&tags=a,%20b,&search=actor", nil)

	filter, err := parseListQuery(req)
	require.NoError(t, err)
	assert.Equal(t, 40, filter.Skip)
	assert.Equal(t, 20, filter.Limit)
	assert.Equal(t, "published", filter.Status)
	assert.Equal(t, "go", filter.Category)
	assert.Equal(t, []string{"a", "b"}, filter.Tags)
	assert.Equal(t, "actor", filter.Search)
	assert.Nil(t, filter.AuthorID)
}

func TestParseListQueryDefaultsAndBounds(t *testing.T) {
	filter, err := parseListQuery(httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, filter.Skip)
	assert.Equal(t, defaultPageSize, filter.Limit)

	// Oversized limits are clamped, not rejected.
	filter, err = parseListQuery(httptest.NewRequest(http.MethodGet, "/api/v1/posts?limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, filter.Limit)

	for _, raw := range []string{"page=0", "page=x", "limit=-1", "author_id=abc"} {
		_, err := parseListQuery(httptest.NewRequest(http.MethodGet, "/api/v1/posts?"+raw, nil))
		assert.Error(t, err, raw)
	}
}

func TestParseCommentPage(t *testing.T) {
	skip, limit, err := parseCommentPage(httptest.NewRequest(http.MethodGet, "/api/v1/comments/post/x", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, skip)
	assert.Equal(t, defaultCommentPageSize, limit)

	skip, limit, err = parseCommentPage(httptest.NewRequest(http.MethodGet, "/api/v1/comments/post/x?skip=10&limit=25", nil))
	require.NoError(t, err)
	assert.Equal(t, 10, skip)
	assert.Equal(t, 25, limit)

	// Oversized limits are clamped, not rejected.
	_, limit, err = parseCommentPage(httptest.NewRequest(http.MethodGet, "/api/v1/comments/post/x?limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, maxCommentPageSize, limit)

	for _, raw := range []string{"skip=-1", "skip=x", "limit=0", "limit=y"} {
		_, _, err := parseCommentPage(httptest.NewRequest(http.MethodGet, "/api/v1/comments/post/x?"+raw, nil))
		assert.Error(t, err, raw)
	}
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{utils.ErrNotFound, http.StatusNotFound},
		{utils.ErrInvalidInput, http.StatusBadRequest},
		{utils.ErrUnauthorized, http.StatusUnauthorized},
		{utils.ErrForbidden, http.StatusForbidden},
		{utils.ErrUserAlreadyExists, http.StatusConflict},
		{utils.ErrUpstream, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		respondError(w, utils.NewAppError(tc.code, "boom", nil))
		assert.Equal(t, tc.want, w.Code, tc.code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "boom", body.Error)
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	user := &models.User{
		ID:       uuid.New(),
		Email:    "me@example.com",
		Username: "me",
		Role:     types.RoleUser,
		IsActive: true,
	}
	s := testServer(user)

	refresh, err := s.Tokens.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refresh})
	w := httptest.NewRecorder()
	s.HandleRefresh()(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, user.ID.String(), resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// The new access token is valid and typed correctly.
	claims, err := s.Tokens.ValidateToken(resp.AccessToken, middleware.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// A fresh http-only cookie was set.
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, resp.RefreshToken, cookie.Value)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: types.RoleUser, IsActive: true}
	s := testServer(user)

	// No cookie at all.
	w := httptest.NewRecorder()
	s.HandleRefresh()(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// An access token in the refresh cookie is rejected.
	access, err := s.Tokens.GenerateAccessToken(user.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: access})
	w = httptest.NewRecorder()
	s.HandleRefresh()(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A refresh token for a deactivated account is rejected.
	user.IsActive = false
	refresh, err := s.Tokens.GenerateRefreshToken(user.ID)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refresh})
	w = httptest.NewRecorder()
	s.HandleRefresh()(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := testServer(nil)

	w := httptest.NewRecorder()
	s.HandleLogout()(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestVerifyGoogleToken(t *testing.T) {
	info := googleTokenInfo{
		Sub:     "sub-1",
		Aud:     "client-123",
		Email:   "g@example.com",
		Name:    "G Person",
		Picture: "https://img.example.com/g.png",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good-token" {
			http.Error(w, "invalid", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(info)
	}))
	defer server.Close()

	s := testServer(nil)
	s.GoogleTokenURL = server.URL

	got, err := s.verifyGoogleToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.Sub)
	assert.Equal(t, "g@example.com", got.Email)

	// Google refuses the token.
	_, err = s.verifyGoogleToken(context.Background(), "bad-token")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))

	// Audience mismatch.
	s.Config.Auth.GoogleClientID = "someone-else"
	_, err = s.verifyGoogleToken(context.Background(), "good-token")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))

	// Unconfigured client ID.
	s.Config.Auth.GoogleClientID = ""
	_, err = s.verifyGoogleToken(context.Background(), "good-token")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}
