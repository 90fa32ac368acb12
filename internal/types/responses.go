package types

// AuthUser is the caller-facing slice of a user account returned alongside
// tokens.
type AuthUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// TokenResponse is the body returned by register/login/refresh endpoints.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	User         AuthUser `json:"user"`
}

// StatusResponse is a generic success/message envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
