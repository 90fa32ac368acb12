package handlers

import (
	"net/http"
	"strconv"

	"inkwell/internal/engine/actors"
	"inkwell/internal/middleware"
	"inkwell/internal/utils"

	"github.com/google/uuid"
)

const (
	defaultCommentPageSize = 50
	maxCommentPageSize     = 100
)

// CreateCommentRequest represents a request to create a new comment
type CreateCommentRequest struct {
	Content  string `json:"content"`
	PostID   string `json:"post_id"`
	ParentID string `json:"parent_id,omitempty"`
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	Content string `json:"content"`
}

// HandleCreateComment creates a comment or a reply.
func (s *Server) HandleCreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCommentRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			respondError(w, utils.NewValidationError("post_id", "must be a valid UUID"))
			return
		}

		var parentID *uuid.UUID
		if req.ParentID != "" {
			parsed, err := uuid.Parse(req.ParentID)
			if err != nil {
				respondError(w, utils.NewValidationError("parent_id", "must be a valid UUID"))
				return
			}
			parentID = &parsed
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
			Content:  req.Content,
			PostID:   postID,
			ParentID: parentID,
			Caller:   caller,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusCreated, result)
	}
}

// HandleGetComment serves a single comment.
func (s *Server) HandleGetComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetCommentActor(), &actors.GetCommentMsg{CommentID: commentID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleEditComment rewrites a comment's body.
func (s *Server) HandleEditComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req EditCommentRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetCommentActor(), &actors.EditCommentMsg{
			CommentID: commentID,
			Content:   req.Content,
			Caller:    caller,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleDeleteComment deletes a comment together with its replies.
func (s *Server) HandleDeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
			CommentID: commentID,
			Caller:    caller,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// parseCommentPage reads the skip/limit window for root comments. The
// limit defaults to 50 and is capped at 100.
func parseCommentPage(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	skip := 0
	if raw := q.Get("skip"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, utils.NewValidationError("skip", "must be a non-negative integer")
		}
		skip = parsed
	}
	limit := defaultCommentPageSize
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, 0, utils.NewValidationError("limit", "must be a positive integer")
		}
		if parsed > maxCommentPageSize {
			parsed = maxCommentPageSize
		}
		limit = parsed
	}
	return skip, limit, nil
}

// HandlePostComments lists a post's comment threads. Pagination applies to
// root comments; include_replies=true attaches each root's full tree.
func (s *Server) HandlePostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "postID")
		if err != nil {
			respondError(w, err)
			return
		}

		skip, limit, err := parseCommentPage(r)
		if err != nil {
			respondError(w, err)
			return
		}
		includeReplies := r.URL.Query().Get("include_replies") != "false"

		result, err := s.ask(s.Engine.GetCommentActor(), &actors.GetPostCommentsMsg{
			PostID:         postID,
			Skip:           skip,
			Limit:          limit,
			IncludeReplies: includeReplies,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandlePostCommentCount serves a live comment count for a post.
func (s *Server) HandlePostCommentCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "postID")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetCommentActor(), &actors.GetCommentCountMsg{PostID: postID})
		if err != nil {
			respondError(w, err)
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			respondError(w, appErr)
			return
		}

		count, _ := result.(int64)
		respondJSON(w, http.StatusOK, map[string]int64{"count": count})
	}
}
