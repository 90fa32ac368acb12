package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	// StatusAll is a filter token, never a stored status.
	StatusAll = "all"
)

type Post struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	Excerpt        string      `json:"excerpt,omitempty"`
	CoverImage     string      `json:"cover_image,omitempty"`
	Tags           []string    `json:"tags"`
	Category       string      `json:"category,omitempty"`
	Status         string      `json:"status"`
	AuthorID       uuid.UUID   `json:"author_id"`
	AuthorUsername string      `json:"author_username,omitempty"` // Populated from join
	AuthorFullName string      `json:"author_full_name,omitempty"`
	LikesCount     int         `json:"likes_count"`
	CommentsCount  int         `json:"comments_count"`
	ViewsCount     int         `json:"views_count"`
	LikedBy        []uuid.UUID `json:"-"` // Never serialized; stripped for privacy
	IsLiked        bool        `json:"is_liked"` // Relative to the requesting viewer
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at,omitempty"`
}

// PostSummary is the trimmed listing shape: no body, no liker data.
type PostSummary struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Excerpt        string    `json:"excerpt,omitempty"`
	CoverImage     string    `json:"cover_image,omitempty"`
	Tags           []string  `json:"tags"`
	Category       string    `json:"category,omitempty"`
	Status         string    `json:"status"`
	AuthorID       uuid.UUID `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorFullName string    `json:"author_full_name,omitempty"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int       `json:"comments_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostUpdate carries a partial post patch. Nil fields are left unchanged.
type PostUpdate struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Excerpt    *string   `json:"excerpt,omitempty"`
	CoverImage *string   `json:"cover_image,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Category   *string   `json:"category,omitempty"`
	Status     *string   `json:"status,omitempty"`
}

func (p *PostUpdate) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.CoverImage == nil && p.Tags == nil && p.Category == nil && p.Status == nil
}

// PostFilter describes a listing query. The policy layer normalizes it
// before it reaches the store so draft visibility rules are always applied.
type PostFilter struct {
	Status   string // "draft", "published", or "" for all statuses in scope
	Category string
	Tags     []string
	Search   string // Case-insensitive substring over title/content/excerpt
	AuthorID *uuid.UUID

	// DraftsOwner restricts which drafts may appear when Status is "".
	// Nil with AllDrafts false means published only; a non-nil value unions
	// published posts with that one user's drafts.
	DraftsOwner *uuid.UUID
	AllDrafts   bool // Admin scope: no draft restriction

	Skip  int
	Limit int
}
