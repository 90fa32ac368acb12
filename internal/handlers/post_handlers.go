package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"inkwell/internal/engine/actors"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreatePostRequest represents a request to create a post
type CreatePostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt,omitempty"`
	CoverImage string   `json:"cover_image,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Category   string   `json:"category,omitempty"`
	Status     string   `json:"status,omitempty"`
}

// PostsResponse is the paginated listing envelope.
type PostsResponse struct {
	Posts      []*models.PostSummary `json:"posts"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int64                 `json:"total_pages"`
}

// parseListQuery reads the shared listing query parameters into a filter.
// Visibility normalization happens later, in the actor.
func parseListQuery(r *http.Request) (*models.PostFilter, error) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, utils.NewValidationError("page", "must be a positive integer")
		}
		page = parsed
	}

	limit := defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, utils.NewValidationError("limit", "must be a positive integer")
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		limit = parsed
	}

	filter := &models.PostFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		Skip:     (page - 1) * limit,
		Limit:    limit,
	}

	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	if raw := q.Get("author_id"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			return nil, utils.NewValidationError("author_id", "must be a valid UUID")
		}
		filter.AuthorID = &authorID
	}

	return filter, nil
}

// listPosts runs a normalized listing through the post actor and writes
// the paginated envelope.
func (s *Server) listPosts(w http.ResponseWriter, r *http.Request, caller types.Caller, filter *models.PostFilter) {
	result, err := s.ask(s.Engine.GetPostActor(), &actors.ListPostsMsg{
		Caller: caller,
		Filter: filter,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if appErr, ok := result.(*utils.AppError); ok {
		respondError(w, appErr)
		return
	}

	listing, ok := result.(*actors.PostListResult)
	if !ok {
		respondError(w, utils.NewAppError(utils.ErrDatabase, "Internal server error", nil))
		return
	}

	limit := filter.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	page := filter.Skip/limit + 1
	totalPages := (listing.Total + int64(limit) - 1) / int64(limit)

	respondJSON(w, http.StatusOK, &PostsResponse{
		Posts:      listing.Posts,
		Total:      listing.Total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// HandleListPosts serves the public post listing.
func (s *Server) HandleListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseListQuery(r)
		if err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		s.listPosts(w, r, caller, filter)
	}
}

// HandleCreatePost creates a post for the caller.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())

		var req CreatePostRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.CreatePostMsg{
			Title:      req.Title,
			Content:    req.Content,
			Excerpt:    req.Excerpt,
			CoverImage: req.CoverImage,
			Tags:       req.Tags,
			Category:   req.Category,
			Status:     req.Status,
			AuthorID:   caller.ID,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusCreated, result)
	}
}

// HandleGetPost serves a single post. Published posts are public; drafts
// only resolve for their owner or an admin.
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetPostActor(), &actors.GetPostMsg{
			PostID: postID,
			Caller: caller,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleUpdatePost applies a partial patch to a post.
func (s *Server) HandleUpdatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var patch models.PostUpdate
		if err := decodeJSON(r, &patch); err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetPostActor(), &actors.UpdatePostMsg{
			PostID: postID,
			Caller: caller,
			Patch:  &patch,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleDeletePost deletes a post and its comment threads.
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetPostActor(), &actors.DeletePostMsg{
			PostID: postID,
			Caller: caller,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			respondError(w, appErr)
			return
		}
		respondJSON(w, http.StatusNoContent, nil)
	}
}

// HandleLikePost likes (POST) or unlikes (DELETE) a post. Repeats are
// no-ops, not errors.
func (s *Server) HandleLikePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		caller := middleware.CallerFromContext(r.Context())
		result, err := s.ask(s.Engine.GetPostActor(), &actors.LikePostMsg{
			PostID: postID,
			UserID: caller.ID,
			Unlike: r.Method == http.MethodDelete,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleListCategories serves the distinct categories of published posts.
func (s *Server) HandleListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetPostActor(), &actors.ListCategoriesMsg{})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleListTags serves the distinct tags of published posts.
func (s *Server) HandleListTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetPostActor(), &actors.ListTagsMsg{})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}
