package actors

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/google/uuid"
)

var _ database.Store = (*memStore)(nil)

// memStore is an in-memory database.Store used by the actor tests. It
// mirrors the MongoDB implementation's observable behavior, including the
// draft visibility filter and the guarded like updates.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID]*models.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*models.User),
		posts:    make(map[uuid.UUID]*models.Post),
		comments: make(map[uuid.UUID]*models.Comment),
	}
}

func (s *memStore) Close(ctx context.Context) error { return nil }
func (s *memStore) Ping(ctx context.Context) error  { return nil }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (s *memStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *memStore) findUser(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *memStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *memStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *memStore) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (s *memStore) UpdateUser(ctx context.Context, id uuid.UUID, patch *models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.ProfilePicture != nil {
		u.ProfilePicture = *patch.ProfilePicture
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (s *memStore) CountUserPosts(ctx context.Context, authorID uuid.UUID, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.posts {
		if p.AuthorID == authorID && (status == "" || p.Status == status) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) clonePost(p *models.Post, viewerID *uuid.UUID) *models.Post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.LikedBy = nil
	c.IsLiked = false
	if viewerID != nil {
		for _, liker := range p.LikedBy {
			if liker == *viewerID {
				c.IsLiked = true
				break
			}
		}
	}
	if author, ok := s.users[p.AuthorID]; ok {
		c.AuthorUsername = author.Username
		c.AuthorFullName = author.FullName
	}
	return &c
}

func (s *memStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *post
	c.Tags = append([]string(nil), post.Tags...)
	c.LikedBy = append([]uuid.UUID(nil), post.LikedBy...)
	s.posts[post.ID] = &c
	return nil
}

func (s *memStore) GetPost(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return s.clonePost(p, viewerID), nil
}

func postMatchesFilter(p *models.Post, filter *models.PostFilter) bool {
	switch {
	case filter.Status != "":
		if p.Status != filter.Status {
			return false
		}
	case filter.AllDrafts:
		// All statuses visible.
	case filter.DraftsOwner != nil:
		if p.Status != models.StatusPublished &&
			!(p.Status == models.StatusDraft && p.AuthorID == *filter.DraftsOwner) {
			return false
		}
	default:
		if p.Status != models.StatusPublished {
			return false
		}
	}

	if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.Category != "" && p.Category != filter.Category {
		return false
	}
	if len(filter.Tags) > 0 {
		found := false
		for _, want := range filter.Tags {
			for _, have := range p.Tags {
				if want == have {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(p.Title + " " + p.Content + " " + p.Excerpt)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func (s *memStore) matchingPosts(filter *models.PostFilter) []*models.Post {
	var matched []*models.Post
	for _, p := range s.posts {
		if postMatchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func (s *memStore) ListPosts(ctx context.Context, filter *models.PostFilter) ([]*models.PostSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchingPosts(filter)
	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Skip:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	summaries := []*models.PostSummary{}
	for _, p := range matched {
		view := s.clonePost(p, nil)
		summaries = append(summaries, &models.PostSummary{
			ID:             view.ID,
			Title:          view.Title,
			Excerpt:        view.Excerpt,
			CoverImage:     view.CoverImage,
			Tags:           view.Tags,
			Category:       view.Category,
			Status:         view.Status,
			AuthorID:       view.AuthorID,
			AuthorUsername: view.AuthorUsername,
			AuthorFullName: view.AuthorFullName,
			LikesCount:     view.LikesCount,
			CommentsCount:  view.CommentsCount,
			CreatedAt:      view.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *memStore) CountPosts(ctx context.Context, filter *models.PostFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matchingPosts(filter))), nil
}

func (s *memStore) UpdatePost(ctx context.Context, id uuid.UUID, patch *models.PostUpdate, authorID *uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || (authorID != nil && p.AuthorID != *authorID) {
		return false, nil
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.CoverImage != nil {
		p.CoverImage = *patch.CoverImage
	}
	if patch.Tags != nil {
		p.Tags = append([]string(nil), *patch.Tags...)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) DeletePost(ctx context.Context, id uuid.UUID, authorID *uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || (authorID != nil && p.AuthorID != *authorID) {
		return false, nil
	}
	delete(s.posts, id)
	return true, nil
}

func (s *memStore) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for _, liker := range p.LikedBy {
		if liker == userID {
			return false, nil
		}
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.LikesCount++
	return true, nil
}

func (s *memStore) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for i, liker := range p.LikedBy {
		if liker == userID {
			p.LikedBy = append(p.LikedBy[:i], p.LikedBy[i+1:]...)
			p.LikesCount--
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) IncrementPostViews(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		p.ViewsCount++
	}
	return nil
}

func (s *memStore) DistinctCategories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var categories []string
	for _, p := range s.posts {
		if p.Status == models.StatusPublished && p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *memStore) DistinctTags(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var tags []string
	for _, p := range s.posts {
		if p.Status != models.StatusPublished {
			continue
		}
		for _, tag := range p.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *memStore) cloneComment(c *models.Comment) *models.Comment {
	out := *c
	out.Replies = []*models.Comment{}
	if c.ParentID != nil {
		parent := *c.ParentID
		out.ParentID = &parent
	}
	if author, ok := s.users[c.AuthorID]; ok {
		out.AuthorUsername = author.Username
		out.AuthorFullName = author.FullName
		out.AuthorProfilePicture = author.ProfilePicture
	}
	return &out
}

func (s *memStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *comment
	c.Replies = nil
	s.comments[comment.ID] = &c
	return nil
}

func (s *memStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return s.cloneComment(c), nil
}

func (s *memStore) childrenOf(id uuid.UUID) []*models.Comment {
	var children []*models.Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == id {
			children = append(children, c)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
	return children
}

func (s *memStore) attachReplies(node *models.Comment) {
	for _, child := range s.childrenOf(node.ID) {
		reply := s.cloneComment(child)
		s.attachReplies(reply)
		node.Replies = append(node.Replies, reply)
	}
}

func (s *memStore) GetPostComments(ctx context.Context, postID uuid.UUID, skip, limit int, includeReplies bool) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var roots []*models.Comment
	for _, c := range s.comments {
		if c.PostID == postID && c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].CreatedAt.Before(roots[j].CreatedAt)
	})

	if skip > 0 {
		if skip >= len(roots) {
			roots = nil
		} else {
			roots = roots[skip:]
		}
	}
	if limit > 0 && len(roots) > limit {
		roots = roots[:limit]
	}

	out := []*models.Comment{}
	for _, root := range roots {
		node := s.cloneComment(root)
		if includeReplies {
			s.attachReplies(node)
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *memStore) UpdateCommentContent(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || (authorID != nil && c.AuthorID != *authorID) {
		return false, nil
	}
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) subtreeIDs(id uuid.UUID) []uuid.UUID {
	ids := []uuid.UUID{id}
	for _, child := range s.childrenOf(id) {
		ids = append(ids, s.subtreeIDs(child.ID)...)
	}
	return ids
}

func (s *memStore) CountCommentTree(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return 0, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return len(s.subtreeIDs(id)), nil
}

func (s *memStore) DeleteCommentTree(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, victim := range s.subtreeIDs(id) {
		delete(s.comments, victim)
	}
	return nil
}

func (s *memStore) CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, c := range s.comments {
		if c.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) DeletePostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memStore) AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	p.CommentsCount += delta
	return nil
}
