package actors

import (
	stdctx "context"
	"fmt"
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

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Content  string       `json:"content"`
		PostID   uuid.UUID    `json:"postId"`
		ParentID *uuid.UUID   `json:"parentId,omitempty"`
		Caller   types.Caller `json:"caller"`
	}

	EditCommentMsg struct {
		CommentID uuid.UUID    `json:"commentId"`
		Content   string       `json:"content"`
		Caller    types.Caller `json:"caller"`
	}

	DeleteCommentMsg struct {
		CommentID uuid.UUID    `json:"commentId"`
		Caller    types.Caller `json:"caller"`
	}

	GetCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
	}

	GetPostCommentsMsg struct {
		PostID         uuid.UUID `json:"postId"`
		Skip           int       `json:"skip"`
		Limit          int       `json:"limit"`
		IncludeReplies bool      `json:"includeReplies"`
	}

	GetCommentCountMsg struct {
		PostID uuid.UUID `json:"postId"`
	}
)

// DeleteCommentResult reports how many comments went away with the target:
// the comment itself plus every descendant.
type DeleteCommentResult struct {
	Deleted int `json:"deleted"`
}

// CommentActor handles comment operations. Like the other actors it keeps
// no state; the comment forest lives entirely in the store.
type CommentActor struct {
	db      database.Store
	metrics *utils.MetricsCollector
}

func NewCommentActor(db database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &CommentActor{db: db, metrics: metrics}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started with PID: %v", context.Self())

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)

	case *EditCommentMsg:
		a.handleEditComment(context, msg)

	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)

	case *GetCommentMsg:
		a.handleGetComment(context, msg)

	case *GetPostCommentsMsg:
		a.handleGetPostComments(context, msg)

	case *GetCommentCountMsg:
		a.handleGetCommentCount(context, msg)
	}
}

func validateCommentBody(content string) *utils.AppError {
	length := utf8.RuneCountInString(strings.TrimSpace(content))
	if length < models.CommentMinLength || length > models.CommentMaxLength {
		return utils.NewValidationError("content",
			fmt.Sprintf("must be %d to %d characters", models.CommentMinLength, models.CommentMaxLength))
	}
	return nil
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if appErr := validateCommentBody(msg.Content); appErr != nil {
		context.Respond(appErr)
		return
	}

	post, err := a.db.GetPost(ctx, msg.PostID, nil)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch post", err))
		return
	}
	if !policy.CanReadPost(msg.Caller, post.AuthorID, post.Status) {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
		return
	}

	if msg.ParentID != nil {
		parent, err := a.db.GetComment(ctx, *msg.ParentID)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				context.Respond(utils.NewAppError(utils.ErrNotFound, "Parent comment not found", nil))
				return
			}
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch parent comment", err))
			return
		}
		// A reply cannot cross into another post's thread.
		if parent.PostID != msg.PostID {
			context.Respond(utils.NewValidationError("parent_id", "parent comment belongs to a different post"))
			return
		}
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		Content:   msg.Content,
		PostID:    msg.PostID,
		AuthorID:  msg.Caller.ID,
		ParentID:  msg.ParentID,
		CreatedAt: time.Now(),
		Replies:   []*models.Comment{},
	}

	if err := a.db.SaveComment(ctx, comment); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to save comment", err))
		return
	}

	// Counter drift here is acceptable; the live count endpoint reads the
	// comments collection directly.
	if err := a.db.AdjustPostCommentCount(ctx, msg.PostID, 1); err != nil {
		log.Printf("Error bumping comment count for post %s: %v", msg.PostID, err)
	}

	saved, err := a.db.GetComment(ctx, comment.ID)
	if err != nil {
		log.Printf("Error re-reading comment %s after create: %v", comment.ID, err)
		saved = comment
	}

	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	context.Respond(saved)
}

func (a *CommentActor) handleEditComment(context actor.Context, msg *EditCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if appErr := validateCommentBody(msg.Content); appErr != nil {
		context.Respond(appErr)
		return
	}

	var authorScope *uuid.UUID
	if !msg.Caller.IsAdmin() {
		id := msg.Caller.ID
		authorScope = &id
	}

	matched, err := a.db.UpdateCommentContent(ctx, msg.CommentID, authorScope, msg.Content)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update comment", err))
		return
	}
	if !matched {
		// Missing and not-owned read the same from here; neither leaks.
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}

	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch updated comment", err))
		return
	}

	a.metrics.AddOperationLatency("edit_comment", time.Since(startTime))
	context.Respond(comment)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch comment", err))
		return
	}

	if !policy.CanModify(msg.Caller, comment.AuthorID) {
		context.Respond(utils.NewForbiddenError("Not the comment author"))
		return
	}

	subtree, err := a.db.CountCommentTree(ctx, msg.CommentID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to measure comment thread", err))
		return
	}

	if err := a.db.DeleteCommentTree(ctx, msg.CommentID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete comment thread", err))
		return
	}

	if err := a.db.AdjustPostCommentCount(ctx, comment.PostID, -subtree); err != nil {
		log.Printf("Error adjusting comment count for post %s: %v", comment.PostID, err)
	}

	a.metrics.AddOperationLatency("delete_comment", time.Since(startTime))
	context.Respond(&DeleteCommentResult{Deleted: subtree})
}

func (a *CommentActor) handleGetComment(context actor.Context, msg *GetCommentMsg) {
	ctx := stdctx.Background()

	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch comment", err))
		return
	}
	context.Respond(comment)
}

func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetPostCommentsMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	comments, err := a.db.GetPostComments(ctx, msg.PostID, msg.Skip, msg.Limit, msg.IncludeReplies)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch comments", err))
		return
	}

	a.metrics.AddOperationLatency("get_post_comments", time.Since(startTime))
	context.Respond(comments)
}

func (a *CommentActor) handleGetCommentCount(context actor.Context, msg *GetCommentCountMsg) {
	ctx := stdctx.Background()

	count, err := a.db.CountPostComments(ctx, msg.PostID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to count comments", err))
		return
	}
	context.Respond(count)
}
