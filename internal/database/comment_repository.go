// internal/database/comment_repository.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxTreeDepth caps how many reply levels any traversal will walk. A
// thread deeper than this is served truncated rather than looping on a
// corrupted parent chain.
const maxTreeDepth = 32

// CommentDocument represents the MongoDB schema for a comment.
type CommentDocument struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	PostID    string    `bson:"postId"`
	AuthorID  string    `bson:"authorId"`
	ParentID  *string   `bson:"parentId"`
	IsEdited  bool      `bson:"isEdited"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty"`
}

type commentWithAuthor struct {
	CommentDocument `bson:",inline"`
	Author          []UserDocument `bson:"author"`
}

func commentModelToDocument(comment *models.Comment) *CommentDocument {
	doc := &CommentDocument{
		ID:        comment.ID.String(),
		Content:   comment.Content,
		PostID:    comment.PostID.String(),
		AuthorID:  comment.AuthorID.String(),
		IsEdited:  comment.IsEdited,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.ParentID != nil {
		parent := comment.ParentID.String()
		doc.ParentID = &parent
	}
	return doc
}

func commentDocumentToModel(doc *commentWithAuthor) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}

	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}

	comment := &models.Comment{
		ID:        id,
		Content:   doc.Content,
		PostID:    postID,
		AuthorID:  authorID,
		IsEdited:  doc.IsEdited,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Replies:   []*models.Comment{},
	}

	if doc.ParentID != nil {
		parentID, err := uuid.Parse(*doc.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent comment ID: %v", err)
		}
		comment.ParentID = &parentID
	}

	if len(doc.Author) > 0 {
		comment.AuthorUsername = doc.Author[0].Username
		comment.AuthorFullName = doc.Author[0].FullName
		comment.AuthorProfilePicture = doc.Author[0].ProfilePicture
	}

	return comment, nil
}

// SaveComment creates or updates a comment in MongoDB.
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	doc := commentModelToDocument(comment)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	_, err := m.Comments.UpdateOne(ctx, filter, update, opts)
	return err
}

// aggregateComments runs a comment pipeline and converts the results.
func (m *MongoDB) aggregateComments(ctx context.Context, pipeline []bson.M) ([]*models.Comment, error) {
	cursor, err := m.Comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc commentWithAuthor
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("Error decoding comment document: %v", err)
			continue
		}

		comment, err := commentDocumentToModel(&doc)
		if err != nil {
			log.Printf("Error converting comment document: %v", err)
			continue
		}
		comments = append(comments, comment)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetComment retrieves a single comment by its ID with the author joined.
func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"_id": id.String()}},
		authorLookupStage(),
	}

	comments, err := m.aggregateComments(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return comments[0], nil
}

// GetPostComments returns a post's top-level comments in creation order,
// paginated. With includeReplies the full reply tree is attached to each
// root, fetched one level at a time.
func (m *MongoDB) GetPostComments(ctx context.Context, postID uuid.UUID, skip, limit int, includeReplies bool) ([]*models.Comment, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"postId": postID.String(), "parentId": nil}},
		{"$sort": bson.D{{Key: "createdAt", Value: 1}}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.M{"$skip": skip})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": limit})
	}
	pipeline = append(pipeline, authorLookupStage())

	roots, err := m.aggregateComments(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("comment listing query failed: %v", err)
	}
	if roots == nil {
		roots = []*models.Comment{}
	}

	if !includeReplies || len(roots) == 0 {
		return roots, nil
	}

	// Level-order descent: resolve each generation of replies with one
	// query, attaching them to their parents before walking deeper.
	byID := make(map[string]*models.Comment, len(roots))
	frontier := make([]string, 0, len(roots))
	for _, root := range roots {
		key := root.ID.String()
		byID[key] = root
		frontier = append(frontier, key)
	}

	for depth := 0; depth < maxTreeDepth && len(frontier) > 0; depth++ {
		replyPipeline := []bson.M{
			{"$match": bson.M{"parentId": bson.M{"$in": frontier}}},
			{"$sort": bson.D{{Key: "createdAt", Value: 1}}},
			authorLookupStage(),
		}

		replies, err := m.aggregateComments(ctx, replyPipeline)
		if err != nil {
			return nil, fmt.Errorf("reply query failed: %v", err)
		}

		next := make([]string, 0, len(replies))
		for _, reply := range replies {
			key := reply.ID.String()
			if _, seen := byID[key]; seen {
				continue
			}
			parent := byID[reply.ParentID.String()]
			if parent == nil {
				continue
			}
			parent.Replies = append(parent.Replies, reply)
			byID[key] = reply
			next = append(next, key)
		}
		frontier = next
	}

	return roots, nil
}

// UpdateCommentContent rewrites a comment's body and marks it edited. A
// non-nil authorID limits the update to that author's own comment; the
// boolean reports whether any comment matched.
func (m *MongoDB) UpdateCommentContent(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, content string) (bool, error) {
	filter := bson.M{"_id": id.String()}
	if authorID != nil {
		filter["authorId"] = authorID.String()
	}

	update := bson.M{"$set": bson.M{
		"content":   content,
		"isEdited":  true,
		"updatedAt": time.Now(),
	}}

	result, err := m.Comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// collectCommentTree gathers the IDs of a comment and all its descendants,
// level by level.
func (m *MongoDB) collectCommentTree(ctx context.Context, id uuid.UUID) ([]string, error) {
	root := id.String()
	seen := map[string]bool{root: true}
	ids := []string{root}
	frontier := []string{root}

	for depth := 0; depth < maxTreeDepth && len(frontier) > 0; depth++ {
		cursor, err := m.Comments.Find(ctx,
			bson.M{"parentId": bson.M{"$in": frontier}},
			options.Find().SetProjection(bson.M{"_id": 1}),
		)
		if err != nil {
			return nil, err
		}

		var next []string
		for cursor.Next(ctx) {
			var row struct {
				ID string `bson:"_id"`
			}
			if err := cursor.Decode(&row); err != nil {
				continue
			}
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true
			ids = append(ids, row.ID)
			next = append(next, row.ID)
		}
		err = cursor.Err()
		cursor.Close(ctx)
		if err != nil {
			return nil, err
		}
		frontier = next
	}

	return ids, nil
}

// CountCommentTree counts a comment plus all of its descendants. The root
// must exist.
func (m *MongoDB) CountCommentTree(ctx context.Context, id uuid.UUID) (int, error) {
	exists, err := m.Comments.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}

	ids, err := m.collectCommentTree(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteCommentTree removes a comment and all of its descendants.
func (m *MongoDB) DeleteCommentTree(ctx context.Context, id uuid.UUID) error {
	ids, err := m.collectCommentTree(ctx, id)
	if err != nil {
		return err
	}

	_, err = m.Comments.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// CountPostComments counts every comment on a post, replies included.
func (m *MongoDB) CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	return m.Comments.CountDocuments(ctx, bson.M{"postId": postID.String()})
}

// DeletePostComments removes every comment on a post and reports how many
// were deleted. Used when the post itself is being removed.
func (m *MongoDB) DeletePostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	result, err := m.Comments.DeleteMany(ctx, bson.M{"postId": postID.String()})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// AdjustPostCommentCount shifts a post's denormalized comment counter.
func (m *MongoDB) AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$inc": bson.M{"commentsCount": delta}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}
