package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"inkwell/internal/engine/actors"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"
)

const refreshCookieName = "refresh_token"

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents a credential login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the Google-issued ID token
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// issueTokens mints an access/refresh pair for the user and sets the
// refresh cookie.
func (s *Server) issueTokens(w http.ResponseWriter, user *models.User) (*types.TokenResponse, error) {
	access, err := s.Tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to generate token", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to generate token", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/",
		MaxAge:   int(s.Tokens.RefreshTTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return &types.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		User: types.AuthUser{
			ID:       user.ID.String(),
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
			IsActive: user.IsActive,
		},
	}, nil
}

// HandleRegister creates an account and logs it straight in.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Email:    req.Email,
			Username: req.Username,
			FullName: req.FullName,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			respondError(w, appErr)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			log.Printf("Unexpected register result type: %T", result)
			respondError(w, utils.NewAppError(utils.ErrDatabase, "Internal server error", nil))
			return
		}

		tokens, err := s.issueTokens(w, user)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, tokens)
	}
}

// HandleLogin authenticates with email and password.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			respondError(w, appErr)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			log.Printf("Unexpected login result type: %T", result)
			respondError(w, utils.NewAppError(utils.ErrDatabase, "Internal server error", nil))
			return
		}

		tokens, err := s.issueTokens(w, user)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tokens)
	}
}

// googleTokenInfo is the slice of Google's tokeninfo response we use.
type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// verifyGoogleToken checks an ID token against Google's tokeninfo endpoint
// and the configured client ID.
func (s *Server) verifyGoogleToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	if s.Config.Auth.GoogleClientID == "" {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "Google login is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s?id_token=%s", s.GoogleTokenURL, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "Could not reach Google", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid Google token", nil)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "Malformed Google response", err)
	}

	// The token must have been minted for this application.
	if info.Aud != s.Config.Auth.GoogleClientID {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Token audience mismatch", nil)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Incomplete Google identity", nil)
	}

	return &info, nil
}

// HandleGoogleLogin signs in with a verified Google ID token, provisioning
// or linking an account as needed.
func (s *Server) HandleGoogleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GoogleLoginRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.IDToken == "" {
			respondError(w, utils.NewValidationError("id_token", "must not be empty"))
			return
		}

		info, err := s.verifyGoogleToken(r.Context(), req.IDToken)
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GoogleLoginMsg{
			GoogleID: info.Sub,
			Email:    info.Email,
			FullName: info.Name,
			Picture:  info.Picture,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			respondError(w, appErr)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			log.Printf("Unexpected google login result type: %T", result)
			respondError(w, utils.NewAppError(utils.ErrDatabase, "Internal server error", nil))
			return
		}

		tokens, err := s.issueTokens(w, user)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tokens)
	}
}

// HandleRefresh rotates the token pair using the refresh cookie.
func (s *Server) HandleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, utils.NewUnauthorizedError("Missing refresh token"))
			return
		}

		claims, err := s.Tokens.ValidateToken(cookie.Value, middleware.TokenTypeRefresh)
		if err != nil {
			respondError(w, err)
			return
		}

		user, err := s.Store.GetUser(r.Context(), claims.UserID)
		if err != nil {
			respondError(w, utils.NewUnauthorizedError("Account no longer exists"))
			return
		}
		if !user.IsActive {
			respondError(w, utils.NewAppError(utils.ErrInactiveAccount, "Account is deactivated", nil))
			return
		}

		tokens, err := s.issueTokens(w, user)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tokens)
	}
}

// HandleLogout clears the refresh cookie. The access token simply expires.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     refreshCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		respondJSON(w, http.StatusOK, &types.StatusResponse{Success: true, Message: "Logged out"})
	}
}

// HandleMe returns the authenticated account.
func (s *Server) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserMsg{UserID: caller.ID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}
