// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	Username       string    `bson:"username"`
	FullName       string    `bson:"fullName,omitempty"`
	HashedPassword string    `bson:"hashedPassword"`
	Role           string    `bson:"role"`
	IsActive       bool      `bson:"isActive"`
	ProfilePicture string    `bson:"profilePicture,omitempty"`
	Bio            string    `bson:"bio,omitempty"`
	GoogleID       string    `bson:"googleId,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt,omitempty"`
}

func userDocumentToModel(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}

	return &models.User{
		ID:             id,
		Email:          doc.Email,
		Username:       doc.Username,
		FullName:       doc.FullName,
		HashedPassword: doc.HashedPassword,
		Role:           doc.Role,
		IsActive:       doc.IsActive,
		ProfilePicture: doc.ProfilePicture,
		Bio:            doc.Bio,
		GoogleID:       doc.GoogleID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// SaveUser creates or updates a user in MongoDB
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:             user.ID.String(),
		Email:          user.Email,
		Username:       user.Username,
		FullName:       user.FullName,
		HashedPassword: user.HashedPassword,
		Role:           user.Role,
		IsActive:       user.IsActive,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
		GoogleID:       user.GoogleID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	_, err := m.Users.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "Email or username already taken", err)
	}
	return err
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}
	return userDocumentToModel(&doc)
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user from MongoDB by username
func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

// GetUserByGoogleID retrieves a Google-linked user by external identity id
func (m *MongoDB) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"googleId": googleID})
}

// UpdateUser applies a partial profile patch and returns the updated user.
// Only fields present in the patch are written; updatedAt is set on any
// accepted change.
func (m *MongoDB) UpdateUser(ctx context.Context, id uuid.UUID, patch *models.UserUpdate) (*models.User, error) {
	set := bson.M{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.FullName != nil {
		set["fullName"] = *patch.FullName
	}
	if patch.ProfilePicture != nil {
		set["profilePicture"] = *patch.ProfilePicture
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}

	if len(set) > 0 {
		set["updatedAt"] = time.Now()
		result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.NewAppError(utils.ErrDuplicate, "Email or username already taken", err)
		}
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
		}
	}

	return m.GetUser(ctx, id)
}

// CountUserPosts counts a user's posts, optionally restricted to a status.
func (m *MongoDB) CountUserPosts(ctx context.Context, authorID uuid.UUID, status string) (int64, error) {
	filter := bson.M{"authorId": authorID.String()}
	if status != "" {
		filter["status"] = status
	}
	return m.Posts.CountDocuments(ctx, filter)
}
