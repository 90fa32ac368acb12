package database

import (
	"context"

	"inkwell/internal/models"

	"github.com/google/uuid"
)

// Store defines the common interface for database operations. The MongoDB
// implementation is the production backend; tests substitute an in-memory
// implementation.
type Store interface {
	// Connection
	Close(ctx context.Context) error
	Ping(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch *models.UserUpdate) (*models.User, error)
	CountUserPosts(ctx context.Context, authorID uuid.UUID, status string) (int64, error)

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, filter *models.PostFilter) ([]*models.PostSummary, error)
	CountPosts(ctx context.Context, filter *models.PostFilter) (int64, error)
	// UpdatePost and DeletePost restrict to the given author unless authorID
	// is nil (admin scope). They report whether a row matched.
	UpdatePost(ctx context.Context, id uuid.UUID, patch *models.PostUpdate, authorID *uuid.UUID) (bool, error)
	DeletePost(ctx context.Context, id uuid.UUID, authorID *uuid.UUID) (bool, error)
	LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	IncrementPostViews(ctx context.Context, postID uuid.UUID) error
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctTags(ctx context.Context) ([]string, error)

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetPostComments(ctx context.Context, postID uuid.UUID, skip, limit int, includeReplies bool) ([]*models.Comment, error)
	// UpdateCommentContent restricts to the given author unless authorID is
	// nil (admin scope); a false result conflates missing and not-owned.
	UpdateCommentContent(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, content string) (bool, error)
	CountCommentTree(ctx context.Context, id uuid.UUID) (int, error)
	DeleteCommentTree(ctx context.Context, id uuid.UUID) error
	CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error)
	DeletePostComments(ctx context.Context, postID uuid.UUID) (int64, error)
	AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error
}
