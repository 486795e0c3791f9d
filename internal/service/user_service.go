package service

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
	"pulse/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService implements accounts and the follow graph.
type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	notify  *NotificationService
}

// NewUserService creates a user service.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository, notify *NotificationService) *UserService {
	return &UserService{users: users, follows: follows, notify: notify}
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if username == "" || email == "" || input.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, models.NewConflictError("Username already taken")
	} else if !models.IsCode(err, "NOT_FOUND") {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(input.DisplayName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetProfile returns the user by ID.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetByUsername returns the user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// UpdateProfileInput carries a profile update. Nil fields are untouched.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	IsPrivate   *bool
}

// UpdateProfile applies partial profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Bio != nil {
		if len(*input.Bio) > 500 {
			return nil, models.NewValidationError("Bio must be at most 500 characters")
		}
		user.Bio = *input.Bio
	}
	if input.IsPrivate != nil {
		user.IsPrivate = *input.IsPrivate
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Follow creates a follow edge. Following a private account creates a
// pending request the followee must accept; a public account accepts
// immediately.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	if followerID == followeeID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	followee, err := s.users.GetByID(ctx, followeeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.follows.GetEdge(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	status := models.FollowStatusAccepted
	notificationType := models.NotificationFollow
	if followee.IsPrivate {
		status = models.FollowStatusPending
		notificationType = models.NotificationFollowRequest
	}

	follow := &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Status:     status,
	}
	if err := s.follows.Create(ctx, follow); err != nil {
		return nil, err
	}

	actor := followerID
	if err := s.notify.Notify(ctx, followeeID, notificationType, &actor, nil, nil); err != nil {
		observability.Logger.WarnContext(ctx, "failed to send follow notification",
			"followee_id", followeeID, "error", err)
	}
	return follow, nil
}

// Unfollow removes the follow edge, pending or accepted.
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.follows.Delete(ctx, followerID, followeeID)
}

// AcceptFollow accepts a pending request addressed to the followee.
func (s *UserService) AcceptFollow(ctx context.Context, followeeID, followerID uint) error {
	edge, err := s.follows.GetEdge(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Status != models.FollowStatusPending {
		return models.NewNotFoundError("Follow request", followerID)
	}
	if err := s.follows.UpdateStatus(ctx, edge.ID, models.FollowStatusAccepted); err != nil {
		return err
	}

	actor := followeeID
	if err := s.notify.Notify(ctx, followerID, models.NotificationFollow, &actor, nil, nil); err != nil {
		observability.Logger.WarnContext(ctx, "failed to send follow accepted notification",
			"follower_id", followerID, "error", err)
	}
	return nil
}

// RejectFollow drops a pending request addressed to the followee.
func (s *UserService) RejectFollow(ctx context.Context, followeeID, followerID uint) error {
	edge, err := s.follows.GetEdge(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Status != models.FollowStatusPending {
		return models.NewNotFoundError("Follow request", followerID)
	}
	return s.follows.Delete(ctx, followerID, followeeID)
}

// PendingRequests lists pending follow requests addressed to the user.
func (s *UserService) PendingRequests(ctx context.Context, followeeID uint) ([]models.Follow, error) {
	return s.follows.PendingRequests(ctx, followeeID)
}
