// internal/middleware/jwt.go
package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTypeAccess marks short-lived bearer tokens.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived tokens accepted only by the
	// refresh endpoint.
	TokenTypeRefresh = "refresh"

	tokenIssuer = "inkwell-api"
)

// Claims represents the JWT claims for our application
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the two token types. The secret and
// lifetimes come from configuration.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(cfg *config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// RefreshTTL exposes the refresh lifetime for cookie expiry.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

func (tm *TokenManager) generate(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// GenerateAccessToken creates a short-lived bearer token for the user.
func (tm *TokenManager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return tm.generate(userID, TokenTypeAccess, tm.accessTTL)
}

// GenerateRefreshToken creates a long-lived token for session renewal.
func (tm *TokenManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return tm.generate(userID, TokenTypeRefresh, tm.refreshTTL)
}

// ValidateToken parses a token and checks its signature, expiry and type.
func (tm *TokenManager) ValidateToken(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secret, nil
		},
	)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid token", nil)
	}
	if claims.TokenType != wantType {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Wrong token type", nil)
	}

	return claims, nil
}

// Define a custom context key type to avoid collisions
type contextKey string

const callerKey contextKey = "caller"

// SetCallerInContext saves the resolved caller in the request context
func SetCallerInContext(ctx context.Context, caller types.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext retrieves the caller from the context. The zero value
// is an anonymous caller.
func CallerFromContext(ctx context.Context) types.Caller {
	if caller, ok := ctx.Value(callerKey).(types.Caller); ok {
		return caller
	}
	return types.Anonymous()
}

// Authenticator resolves bearer tokens into callers, checking the account
// still exists and is active.
type Authenticator struct {
	Tokens *TokenManager
	Store  database.Store
}

func NewAuthenticator(tokens *TokenManager, store database.Store) *Authenticator {
	return &Authenticator{Tokens: tokens, Store: store}
}

func (a *Authenticator) resolve(r *http.Request) (types.Caller, *utils.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return types.Anonymous(), utils.NewUnauthorizedError("Authorization header required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return types.Anonymous(), utils.NewUnauthorizedError("Invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := a.Tokens.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		appErr, ok := err.(*utils.AppError)
		if !ok {
			appErr = utils.NewAppError(utils.ErrInvalidToken, "Invalid token", err)
		}
		return types.Anonymous(), appErr
	}

	user, err := a.Store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		return types.Anonymous(), utils.NewUnauthorizedError("Account no longer exists")
	}
	if !user.IsActive {
		return types.Anonymous(), utils.NewAppError(utils.ErrInactiveAccount, "Account is deactivated", nil)
	}

	return types.Authenticated(user.ID, user.Role), nil
}

// RequireAuth rejects requests without a valid access token.
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, appErr := a.resolve(r)
		if appErr != nil {
			log.Printf("Auth rejected %s %s: %s", r.Method, r.URL.Path, appErr.Message)
			status := utils.AppErrorToHTTPStatus(appErr.Code)
			http.Error(w, appErr.Message, status)
			return
		}

		ctx := SetCallerInContext(r.Context(), caller)
		next(w, r.WithContext(ctx))
	}
}

// OptionalAuth resolves a caller when credentials are present but lets the
// request through anonymously when they are absent or invalid.
func (a *Authenticator) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, appErr := a.resolve(r)
		if appErr != nil {
			caller = types.Anonymous()
		}

		ctx := SetCallerInContext(r.Context(), caller)
		next(w, r.WithContext(ctx))
	}
}
