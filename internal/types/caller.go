package types

import "github.com/google/uuid"

// Caller identifies who is making a request: either an anonymous visitor or
// an authenticated user with a role. It is passed explicitly to every
// operation that needs it rather than living in global state.
type Caller struct {
	ID            uuid.UUID `json:"id"`
	Role          string    `json:"role"`
	Authenticated bool      `json:"authenticated"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Anonymous returns the caller value for unauthenticated requests.
func Anonymous() Caller {
	return Caller{}
}

// Authenticated returns a caller for a logged-in user.
func Authenticated(id uuid.UUID, role string) Caller {
	return Caller{ID: id, Role: role, Authenticated: true}
}

func (c Caller) IsAdmin() bool {
	return c.Authenticated && c.Role == RoleAdmin
}

// Owns reports whether the caller is the given owner.
func (c Caller) Owns(ownerID uuid.UUID) bool {
	return c.Authenticated && c.ID == ownerID
}
