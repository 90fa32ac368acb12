package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	GoogleID       string    `json:"-"` // External identity, populated for Google-linked accounts
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// UserUpdate carries a partial profile patch. Nil fields are left unchanged.
type UserUpdate struct {
	Email          *string `json:"email,omitempty"`
	Username       *string `json:"username,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	Bio            *string `json:"bio,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (u *UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Username == nil && u.FullName == nil &&
		u.ProfilePicture == nil && u.Bio == nil
}

// PublicView strips email, role and external-identity details for public
// profile endpoints.
func (u *User) PublicView() *User {
	return &User{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		Role:           "user",
		IsActive:       u.IsActive,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserProfile is a user plus post statistics, as returned by profile
// endpoints.
type UserProfile struct {
	User                *User `json:"user"`
	PostsCount          int64 `json:"posts_count"`
	PublishedPostsCount int64 `json:"published_posts_count"`
	DraftPostsCount     int64 `json:"draft_posts_count"`
}
