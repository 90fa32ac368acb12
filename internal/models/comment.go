package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one node of a post's comment forest. ParentID is nil for root
// comments. Replies is populated only on read paths that materialize the
// tree; it is never persisted.
type Comment struct {
	ID                   uuid.UUID  `json:"id"`
	Content              string     `json:"content"`
	PostID               uuid.UUID  `json:"post_id"`
	AuthorID             uuid.UUID  `json:"author_id"`
	ParentID             *uuid.UUID `json:"parent_id,omitempty"`
	AuthorUsername       string     `json:"author_username,omitempty"` // Populated from join
	AuthorFullName       string     `json:"author_full_name,omitempty"`
	AuthorProfilePicture string     `json:"author_profile_picture,omitempty"`
	IsEdited             bool       `json:"is_edited"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at,omitempty"`
	Replies              []*Comment `json:"replies"`
}

const (
	// Comment body length bounds, inclusive.
	CommentMinLength = 1
	CommentMaxLength = 1000
)
