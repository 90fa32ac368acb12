package actors

import (
	stdctx "context"
	"fmt"
	"log"
	"strings"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordMinLength    = 8
	usernameSuffixBound  = 1000
	provisionDefaultRole = types.RoleUser
)

// Message types for UserActor
type (
	RegisterUserMsg struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		FullName string `json:"fullName,omitempty"`
		Password string `json:"password"`
	}

	LoginMsg struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// GoogleLoginMsg carries an identity already verified against Google.
	// Token verification happens before the message is sent.
	GoogleLoginMsg struct {
		GoogleID string `json:"googleId"`
		Email    string `json:"email"`
		FullName string `json:"fullName,omitempty"`
		Picture  string `json:"picture,omitempty"`
	}

	GetUserMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetPublicUserMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	UpdateProfileMsg struct {
		UserID uuid.UUID          `json:"userId"`
		Patch  *models.UserUpdate `json:"patch"`
	}
)

// UserActor handles account operations. It holds no state of its own;
// every message is resolved against the store.
type UserActor struct {
	db      database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(db database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{db: db, metrics: metrics}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started with PID: %v", context.Self())

	case *RegisterUserMsg:
		a.handleRegister(context, msg)

	case *LoginMsg:
		a.handleLogin(context, msg)

	case *GoogleLoginMsg:
		a.handleGoogleLogin(context, msg)

	case *GetUserMsg:
		a.handleGetUser(context, msg.UserID, false)

	case *GetPublicUserMsg:
		a.handleGetUser(context, msg.UserID, true)

	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)

	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	}
}

func validateRegistration(msg *RegisterUserMsg) *utils.AppError {
	if !strings.Contains(msg.Email, "@") {
		return utils.NewValidationError("email", "must be a valid email address")
	}
	if msg.Username == "" {
		return utils.NewValidationError("username", "must not be empty")
	}
	if len(msg.Password) < passwordMinLength {
		return utils.NewValidationError("password",
			fmt.Sprintf("must be at least %d characters", passwordMinLength))
	}
	return nil
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if appErr := validateRegistration(msg); appErr != nil {
		context.Respond(appErr)
		return
	}

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	username := strings.TrimSpace(msg.Username)

	if _, err := a.db.GetUserByEmail(ctx, email); err == nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}
	if _, err := a.db.GetUserByUsername(ctx, username); err == nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Username already taken", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to hash password", err))
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          email,
		Username:       username,
		FullName:       strings.TrimSpace(msg.FullName),
		HashedPassword: string(hashed),
		Role:           types.RoleUser,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}

	if err := a.db.SaveUser(ctx, user); err != nil {
		if utils.IsErrorCode(err, utils.ErrUserAlreadyExists) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to save user", err))
		return
	}

	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	log.Printf("Registered user %s (%s)", user.Username, user.ID)
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Incorrect email or password", nil))
		return
	}

	// Google-provisioned accounts carry no password hash and cannot use
	// credential login.
	if user.HashedPassword == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Incorrect email or password", nil))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Incorrect email or password", nil))
		return
	}
	if !user.IsActive {
		context.Respond(utils.NewAppError(utils.ErrInactiveAccount, "Account is deactivated", nil))
		return
	}

	a.metrics.AddOperationLatency("login", time.Since(startTime))
	context.Respond(user)
}

// provisionUsername derives a free username from the email local-part,
// appending a counter on collision.
func (a *UserActor) provisionUsername(ctx stdctx.Context, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; i < usernameSuffixBound; i++ {
		if _, err := a.db.GetUserByUsername(ctx, candidate); err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				return candidate, nil
			}
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", utils.NewAppError(utils.ErrDatabase, "Could not derive a free username", nil)
}

func (a *UserActor) handleGoogleLogin(context actor.Context, msg *GoogleLoginMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	// Known external identity?
	user, err := a.db.GetUserByGoogleID(ctx, msg.GoogleID)
	if err != nil && !utils.IsErrorCode(err, utils.ErrUserNotFound) {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to look up account", err))
		return
	}

	email := strings.ToLower(strings.TrimSpace(msg.Email))

	if user == nil {
		// Same email registered earlier with a password: link the Google
		// identity to that account.
		existing, err := a.db.GetUserByEmail(ctx, email)
		if err == nil {
			existing.GoogleID = msg.GoogleID
			existing.UpdatedAt = time.Now()
			if existing.ProfilePicture == "" {
				existing.ProfilePicture = msg.Picture
			}
			if err := a.db.SaveUser(ctx, existing); err != nil {
				context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to link account", err))
				return
			}
			user = existing
		} else if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to look up account", err))
			return
		}
	}

	if user == nil {
		username, err := a.provisionUsername(ctx, email)
		if err != nil {
			context.Respond(err)
			return
		}

		user = &models.User{
			ID:             uuid.New(),
			Email:          email,
			Username:       username,
			FullName:       msg.FullName,
			Role:           provisionDefaultRole,
			IsActive:       true,
			ProfilePicture: msg.Picture,
			GoogleID:       msg.GoogleID,
			CreatedAt:      time.Now(),
		}
		if err := a.db.SaveUser(ctx, user); err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to provision account", err))
			return
		}
		log.Printf("Provisioned Google account %s (%s)", user.Username, user.ID)
	}

	if !user.IsActive {
		context.Respond(utils.NewAppError(utils.ErrInactiveAccount, "Account is deactivated", nil))
		return
	}

	a.metrics.AddOperationLatency("google_login", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleGetUser(context actor.Context, userID uuid.UUID, public bool) {
	ctx := stdctx.Background()

	user, err := a.db.GetUser(ctx, userID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrUserNotFound) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err))
		return
	}

	if public {
		context.Respond(user.PublicView())
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx := stdctx.Background()

	user, err := a.db.GetUser(ctx, msg.UserID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrUserNotFound) {
			context.Respond(err)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to fetch user", err))
		return
	}

	total, err := a.db.CountUserPosts(ctx, user.ID, "")
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to count posts", err))
		return
	}
	published, err := a.db.CountUserPosts(ctx, user.ID, models.StatusPublished)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to count posts", err))
		return
	}

	context.Respond(&models.UserProfile{
		User:                user,
		PostsCount:          total,
		PublishedPostsCount: published,
		DraftPostsCount:     total - published,
	})
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Patch == nil || msg.Patch.IsEmpty() {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "No fields to update", nil))
		return
	}
	if msg.Patch.Email != nil && !strings.Contains(*msg.Patch.Email, "@") {
		context.Respond(utils.NewValidationError("email", "must be a valid email address"))
		return
	}
	if msg.Patch.Username != nil && strings.TrimSpace(*msg.Patch.Username) == "" {
		context.Respond(utils.NewValidationError("username", "must not be empty"))
		return
	}

	// Reject takeovers of another account's email or username before
	// hitting the unique indexes, for a cleaner error.
	if msg.Patch.Email != nil {
		if other, err := a.db.GetUserByEmail(ctx, strings.ToLower(*msg.Patch.Email)); err == nil && other.ID != msg.UserID {
			context.Respond(utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil))
			return
		}
	}
	if msg.Patch.Username != nil {
		if other, err := a.db.GetUserByUsername(ctx, *msg.Patch.Username); err == nil && other.ID != msg.UserID {
			context.Respond(utils.NewAppError(utils.ErrDuplicate, "Username already taken", nil))
			return
		}
	}

	user, err := a.db.UpdateUser(ctx, msg.UserID, msg.Patch)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update profile", err))
		return
	}

	a.metrics.AddOperationLatency("update_profile", time.Since(startTime))
	context.Respond(user)
}
