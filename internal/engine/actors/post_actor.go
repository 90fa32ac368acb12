package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/policy"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

const (
	postTitleMaxLength = 200
)

// Message types for PostActor
type (
	CreatePostMsg struct {
		Title      string    `json:"title"`
		Content    string    `json:"content"`
		Excerpt    string    `json:"excerpt,omitempty"`
		CoverImage string    `json:"coverImage,omitempty"`
		Tags       []string  `json:"tags,omitempty"`
		Category   string    `json:"category,omitempty"`
		Status     string    `json:"status,omitempty"`
		AuthorID   uuid.UUID `json:"authorId"`
	}

	GetPostMsg struct {
		PostID uuid.UUID    `json:"postId"`
		Caller types.Caller `json:"caller"`
	}

	ListPostsMsg struct {
		Caller types.Caller       `json:"caller"`
		Filter *models.PostFilter `json:"filter"`
	}

	UpdatePostMsg struct {
		PostID uuid.UUID          `json:"postId"`
		Caller types.Caller       `json:"caller"`
		Patch  *models.PostUpdate `json:"patch"`
	}

	DeletePostMsg struct {
		PostID uuid.UUID    `json:"postId"`
		Caller types.Caller `json:"caller"`
	}

	LikePostMsg struct {
		PostID uuid.UUID `json:"postId"`
		UserID uuid.UUID `json:"userId"`
		Unlike bool      `json:"unlike,omitempty"`
	}

	ListCategoriesMsg struct{}

	ListTagsMsg struct{}
)

// PostListResult pairs a page of summaries with the unpaginated total.
type PostListResult struct {
	Posts []*models.PostSummary `json:"posts"`
	Total int64                 `json:"total"`
}

// LikeResult reports the outcome of a like or unlike. Changed is false
// when the operation was a no-op repeat.
type LikeResult struct {
	Changed bool `json:"changed"`
	Liked   bool `json:"liked"`
}

// PostActor handles post operations against the store. Visibility and
// ownership rules are applied here so every caller path gets the same
// policy.
type PostActor struct {
	db      database.Store
	metrics *utils.MetricsCollector
}

func NewPostActor(db database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{db: db, metrics: metrics}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started with PID: %v", context.Self())

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)

	case *GetPostMsg:
		a.handleGetPost(context, msg)

	case *ListPostsMsg:
		a.handleListPosts(context, msg)

	case *UpdatePostMsg:
		a.handleUpdatePost(context, msg)

	case *DeletePostMsg:
		a.handleDeletePost(context, msg)

	case *LikePostMsg:
		a.handleLikePost(context, msg)

	case *ListCategoriesMsg:
		a.handleListCategories(context)

	case *ListTagsMsg:
		a.handleListTags(context)
	}
}

func validPostStatus(status string) bool {
	return status == models.StatusDraft || status == models.StatusPublished
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	title := strings.TrimSpace(msg.Title)
	if title == "" || utf8.RuneCountInString(title) > postTitleMaxLength {
		context.Respond(utils.NewValidationError("title", "must be 1 to 200 characters"))
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewValidationError("content", "must not be empty"))
		return
	}

	status := msg.Status
	if status == "" {
		status = models.StatusPublished
	}
	if !validPostStatus(status) {
		context.Respond(utils.NewValidationError("status", "must be draft or published"))
		return
	}

	tags := msg.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &models.Post{
		ID:         uuid.New(),
		Title:      title,
		Content:    msg.Content,
		Excerpt:    msg.Excerpt,
		CoverImage: msg.CoverImage,
		Tags:       tags,
		Category:   msg.Category,
		Status:     status,
		AuthorID:   msg.AuthorID,
		CreatedAt:  time.Now(),
	}

	if err := a.db.SavePost(ctx, post); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to save post", err))
		return
	}

	// Re-read to pick up the joined author fields.
	saved, err := a.db.GetPost(ctx, post.ID, &msg.AuthorID)
	if err != nil {
		log.Printf("Error re-reading post %s after create: %v", post.ID, err)
		saved = post
	}

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(saved)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()

	var viewerID *uuid.UUID
	if msg.Caller.Authenticated {
		id := msg.Caller.ID
		viewerID = &id
	}

	post, err := a.db.GetPost(ctx, msg.PostID, viewerID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch post", err))
		return
	}

	// Drafts read as missing to anyone but their owner or an admin, so
	// their existence never leaks.
	if !policy.CanReadPost(msg.Caller, post.AuthorID, post.Status) {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
		return
	}

	if policy.ShouldCountView(post.Status) {
		if err := a.db.IncrementPostViews(ctx, post.ID); err != nil {
			log.Printf("Error incrementing views for post %s: %v", post.ID, err)
		}
	}

	context.Respond(post)
}

func (a *PostActor) handleListPosts(context actor.Context, msg *ListPostsMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	filter := msg.Filter
	if filter == nil {
		filter = &models.PostFilter{}
	}

	if err := policy.NormalizeListFilter(msg.Caller, filter); err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, err.Error(), err))
		return
	}

	posts, err := a.db.ListPosts(ctx, filter)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list posts", err))
		return
	}

	total, err := a.db.CountPosts(ctx, filter)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to count posts", err))
		return
	}

	a.metrics.AddOperationLatency("list_posts", time.Since(startTime))
	context.Respond(&PostListResult{Posts: posts, Total: total})
}

func (a *PostActor) handleUpdatePost(context actor.Context, msg *UpdatePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Patch == nil || msg.Patch.IsEmpty() {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "No fields to update", nil))
		return
	}
	if msg.Patch.Title != nil {
		title := strings.TrimSpace(*msg.Patch.Title)
		if title == "" || utf8.RuneCountInString(title) > postTitleMaxLength {
			context.Respond(utils.NewValidationError("title", "must be 1 to 200 characters"))
			return
		}
	}
	if msg.Patch.Content != nil && strings.TrimSpace(*msg.Patch.Content) == "" {
		context.Respond(utils.NewValidationError("content", "must not be empty"))
		return
	}
	if msg.Patch.Status != nil && !validPostStatus(*msg.Patch.Status) {
		context.Respond(utils.NewValidationError("status", "must be draft or published"))
		return
	}

	// Non-admins can only match their own rows; the store enforces it in
	// the update filter so there is no read-then-write gap.
	var authorScope *uuid.UUID
	if !msg.Caller.IsAdmin() {
		id := msg.Caller.ID
		authorScope = &id
	}

	matched, err := a.db.UpdatePost(ctx, msg.PostID, msg.Patch, authorScope)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update post", err))
		return
	}
	if !matched {
		context.Respond(a.postWriteDenied(ctx, msg.PostID, msg.Caller))
		return
	}

	viewerID := msg.Caller.ID
	post, err := a.db.GetPost(ctx, msg.PostID, &viewerID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch updated post", err))
		return
	}

	a.metrics.AddOperationLatency("update_post", time.Since(startTime))
	context.Respond(post)
}

// postWriteDenied picks the error for a write that matched no rows. A post
// the caller could read but not touch is Forbidden; a missing post, or a
// draft the caller cannot see, reads as not found.
func (a *PostActor) postWriteDenied(ctx stdctx.Context, postID uuid.UUID, caller types.Caller) *utils.AppError {
	post, err := a.db.GetPost(ctx, postID, nil)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok && appErr.Code == utils.ErrNotFound {
			return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
		}
		return utils.NewAppError(utils.ErrDatabase, "Failed to fetch post", err)
	}
	if policy.CanReadPost(caller, post.AuthorID, post.Status) {
		return utils.NewForbiddenError("Not the post author")
	}
	return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	var authorScope *uuid.UUID
	if !msg.Caller.IsAdmin() {
		id := msg.Caller.ID
		authorScope = &id
	}

	deleted, err := a.db.DeletePost(ctx, msg.PostID, authorScope)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete post", err))
		return
	}
	if !deleted {
		context.Respond(a.postWriteDenied(ctx, msg.PostID, msg.Caller))
		return
	}

	// Comments cannot outlive their post.
	removed, err := a.db.DeletePostComments(ctx, msg.PostID)
	if err != nil {
		log.Printf("Error removing comments for deleted post %s: %v", msg.PostID, err)
	} else if removed > 0 {
		log.Printf("Removed %d comments with post %s", removed, msg.PostID)
	}

	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	context.Respond(&types.StatusResponse{Success: true, Message: "Post deleted"})
}

func (a *PostActor) handleLikePost(context actor.Context, msg *LikePostMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	var changed bool
	var err error
	if msg.Unlike {
		changed, err = a.db.UnlikePost(ctx, msg.PostID, msg.UserID)
	} else {
		changed, err = a.db.LikePost(ctx, msg.PostID, msg.UserID)
	}
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update like", err))
		return
	}

	a.metrics.AddOperationLatency("like_post", time.Since(startTime))
	context.Respond(&LikeResult{Changed: changed, Liked: !msg.Unlike})
}

func (a *PostActor) handleListCategories(context actor.Context) {
	ctx := stdctx.Background()

	categories, err := a.db.DistinctCategories(ctx)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list categories", err))
		return
	}
	context.Respond(categories)
}

func (a *PostActor) handleListTags(context actor.Context) {
	ctx := stdctx.Background()

	tags, err := a.db.DistinctTags(ctx)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list tags", err))
		return
	}
	context.Respond(tags)
}
