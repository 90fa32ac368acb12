// internal/database/post_repository.go
package database

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID            string    `bson:"_id"`
	Title         string    `bson:"title"`
	Content       string    `bson:"content"`
	Excerpt       string    `bson:"excerpt,omitempty"`
	CoverImage    string    `bson:"coverImage,omitempty"`
	Tags          []string  `bson:"tags"`
	Category      string    `bson:"category,omitempty"`
	Status        string    `bson:"status"`
	AuthorID      string    `bson:"authorId"`
	LikesCount    int       `bson:"likesCount"`
	CommentsCount int       `bson:"commentsCount"`
	ViewsCount    int       `bson:"viewsCount"`
	LikedBy       []string  `bson:"likedBy"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt,omitempty"`
}

// postWithAuthor is the shape produced by the author $lookup stage.
type postWithAuthor struct {
	PostDocument `bson:",inline"`
	Author       []UserDocument `bson:"author"`
}

func postModelToDocument(post *models.Post) *PostDocument {
	likedBy := make([]string, len(post.LikedBy))
	for i, id := range post.LikedBy {
		likedBy[i] = id.String()
	}

	return &PostDocument{
		ID:            post.ID.String(),
		Title:         post.Title,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		CoverImage:    post.CoverImage,
		Tags:          post.Tags,
		Category:      post.Category,
		Status:        post.Status,
		AuthorID:      post.AuthorID.String(),
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		ViewsCount:    post.ViewsCount,
		LikedBy:       likedBy,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}

func postDocumentToModel(doc *postWithAuthor, viewerID *uuid.UUID) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}

	post := &models.Post{
		ID:            id,
		Title:         doc.Title,
		Content:       doc.Content,
		Excerpt:       doc.Excerpt,
		CoverImage:    doc.CoverImage,
		Tags:          doc.Tags,
		Category:      doc.Category,
		Status:        doc.Status,
		AuthorID:      authorID,
		LikesCount:    doc.LikesCount,
		CommentsCount: doc.CommentsCount,
		ViewsCount:    doc.ViewsCount,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	if len(doc.Author) > 0 {
		post.AuthorUsername = doc.Author[0].Username
		post.AuthorFullName = doc.Author[0].FullName
	}

	// The liker list never leaves the store; only the viewer's own
	// membership is surfaced.
	if viewerID != nil {
		viewer := viewerID.String()
		for _, liker := range doc.LikedBy {
			if liker == viewer {
				post.IsLiked = true
				break
			}
		}
	}

	return post, nil
}

// authorLookupStage joins the post's author record from the users collection.
func authorLookupStage() bson.M {
	return bson.M{"$lookup": bson.M{
		"from":         "users",
		"localField":   "authorId",
		"foreignField": "_id",
		"as":           "author",
	}}
}

// SavePost creates or updates a post in MongoDB.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postModelToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	_, err := m.Posts.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetPost retrieves a post by its ID with the author joined in. When a
// viewer is given, IsLiked reflects that viewer's like state.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*models.Post, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"_id": id.String()}},
		authorLookupStage(),
	}

	cursor, err := m.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}

	var doc postWithAuthor
	if err := cursor.Decode(&doc); err != nil {
		return nil, err
	}

	return postDocumentToModel(&doc, viewerID)
}

// buildPostMatch translates a normalized PostFilter into a $match document.
func buildPostMatch(filter *models.PostFilter) bson.M {
	var clauses []bson.M

	switch {
	case filter.Status != "":
		clauses = append(clauses, bson.M{"status": filter.Status})
	case filter.AllDrafts:
		// Admin scope: every status visible.
	case filter.DraftsOwner != nil:
		clauses = append(clauses, bson.M{"$or": []bson.M{
			{"status": models.StatusPublished},
			{"status": models.StatusDraft, "authorId": filter.DraftsOwner.String()},
		}})
	default:
		clauses = append(clauses, bson.M{"status": models.StatusPublished})
	}

	if filter.AuthorID != nil {
		clauses = append(clauses, bson.M{"authorId": filter.AuthorID.String()})
	}
	if filter.Category != "" {
		clauses = append(clauses, bson.M{"category": filter.Category})
	}
	if len(filter.Tags) > 0 {
		clauses = append(clauses, bson.M{"tags": bson.M{"$in": filter.Tags}})
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		clauses = append(clauses, bson.M{"$or": []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"content": bson.M{"$regex": pattern, "$options": "i"}},
			{"excerpt": bson.M{"$regex": pattern, "$options": "i"}},
		}})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

// ListPosts returns post summaries matching the filter, newest first. The
// filter must already be normalized for the caller's visibility.
func (m *MongoDB) ListPosts(ctx context.Context, filter *models.PostFilter) ([]*models.PostSummary, error) {
	pipeline := []bson.M{
		{"$match": buildPostMatch(filter)},
		{"$sort": bson.D{{Key: "createdAt", Value: -1}}},
	}
	if filter.Skip > 0 {
		pipeline = append(pipeline, bson.M{"$skip": filter.Skip})
	}
	if filter.Limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": filter.Limit})
	}
	pipeline = append(pipeline, authorLookupStage())

	cursor, err := m.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("post listing query failed: %v", err)
	}
	defer cursor.Close(ctx)

	summaries := []*models.PostSummary{}
	for cursor.Next(ctx) {
		var doc postWithAuthor
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding post document: %v", err)
			continue
		}

		post, err := postDocumentToModel(&doc, nil)
		if err != nil {
			log.Printf("Error converting post document: %v", err)
			continue
		}

		summaries = append(summaries, &models.PostSummary{
			ID:             post.ID,
			Title:          post.Title,
			Excerpt:        post.Excerpt,
			CoverImage:     post.CoverImage,
			Tags:           post.Tags,
			Category:       post.Category,
			Status:         post.Status,
			AuthorID:       post.AuthorID,
			AuthorUsername: post.AuthorUsername,
			AuthorFullName: post.AuthorFullName,
			LikesCount:     post.LikesCount,
			CommentsCount:  post.CommentsCount,
			CreatedAt:      post.CreatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration failed: %v", err)
	}

	return summaries, nil
}

// CountPosts counts posts matching the filter, ignoring pagination.
func (m *MongoDB) CountPosts(ctx context.Context, filter *models.PostFilter) (int64, error) {
	return m.Posts.CountDocuments(ctx, buildPostMatch(filter))
}

// UpdatePost applies a partial patch to a post. A non-nil authorID limits
// the update to that author's own post; the boolean reports whether any
// post matched.
func (m *MongoDB) UpdatePost(ctx context.Context, id uuid.UUID, patch *models.PostUpdate, authorID *uuid.UUID) (bool, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		set["excerpt"] = *patch.Excerpt
	}
	if patch.CoverImage != nil {
		set["coverImage"] = *patch.CoverImage
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if len(set) == 0 {
		return false, utils.NewAppError(utils.ErrInvalidInput, "No fields to update", nil)
	}
	set["updatedAt"] = time.Now()

	filter := bson.M{"_id": id.String()}
	if authorID != nil {
		filter["authorId"] = authorID.String()
	}

	result, err := m.Posts.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// DeletePost removes a post. A non-nil authorID limits the delete to that
// author's own post; the boolean reports whether a post was removed.
func (m *MongoDB) DeletePost(ctx context.Context, id uuid.UUID, authorID *uuid.UUID) (bool, error) {
	filter := bson.M{"_id": id.String()}
	if authorID != nil {
		filter["authorId"] = authorID.String()
	}

	result, err := m.Posts.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// LikePost records a like. The update is guarded so a repeated like from
// the same user changes nothing; the boolean reports whether the state
// changed.
func (m *MongoDB) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	exists, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}

	filter := bson.M{
		"_id":     postID.String(),
		"likedBy": bson.M{"$ne": userID.String()},
	}
	update := bson.M{
		"$addToSet": bson.M{"likedBy": userID.String()},
		"$inc":      bson.M{"likesCount": 1},
	}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// UnlikePost removes a like, mirroring LikePost's guard.
func (m *MongoDB) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	exists, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}

	filter := bson.M{
		"_id":     postID.String(),
		"likedBy": userID.String(),
	}
	update := bson.M{
		"$pull": bson.M{"likedBy": userID.String()},
		"$inc":  bson.M{"likesCount": -1},
	}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// IncrementPostViews bumps the view counter. Missing posts are ignored so
// the caller can fire and forget.
func (m *MongoDB) IncrementPostViews(ctx context.Context, postID uuid.UUID) error {
	_, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$inc": bson.M{"viewsCount": 1}},
	)
	return err
}

// DistinctCategories lists the categories in use across published posts.
func (m *MongoDB) DistinctCategories(ctx context.Context) ([]string, error) {
	filter := bson.M{
		"status":   models.StatusPublished,
		"category": bson.M{"$nin": []interface{}{nil, ""}},
	}

	values, err := m.Posts.Distinct(ctx, "category", filter)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// DistinctTags lists the tags in use across published posts.
func (m *MongoDB) DistinctTags(ctx context.Context) ([]string, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"status": models.StatusPublished}},
		{"$unwind": "$tags"},
		{"$group": bson.M{"_id": "$tags"}},
		{"$sort": bson.D{{Key: "_id", Value: 1}}},
	}

	cursor, err := m.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tags []string
	for cursor.Next(ctx) {
		var row struct {
			Tag string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			log.Printf("Error decoding tag row: %v", err)
			continue
		}
		tags = append(tags, row.Tag)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
