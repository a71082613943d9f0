package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finchsocial/finch/internal/models"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetBrowserOTP(ctx context.Context, userID string, otp *models.BrowserOTP) error
	ClearBrowserOTP(ctx context.Context, userID string) error
	SetLanguageOTP(ctx context.Context, userID string, otp *models.LanguageOTP) error
	ClearLanguageOTP(ctx context.Context, userID string) error
	SetLanguage(ctx context.Context, userID, language string, markPhoneVerified bool) error
	SetPhoneNumber(ctx context.Context, userID, phone string) error
	UpdateSecuritySettings(ctx context.Context, userID string, s models.SecuritySettings) error
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}

// FollowRepository defines the interface for follow graph operations
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	Counts(ctx context.Context, userID string) (followers, following int, err error)
	ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
}

// UserService handles profiles and the follow graph
type UserService struct {
	users   UserRepository
	follows FollowRepository
	logger  *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserRepository, follows FollowRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:   users,
		follows: follows,
		logger:  logger,
	}
}

// ProfileResponse is a public profile with follow counts.
type ProfileResponse struct {
	*UserResponse
	Followers  int  `json:"followers"`
	Following  int  `json:"following"`
	IsFollowed bool `json:"is_followed,omitempty"`
}

// GetProfile returns a profile by username. viewerID may be empty.
func (s *UserService) GetProfile(ctx context.Context, username, viewerID string) (*ProfileResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	followers, following, err := s.follows.Counts(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to get follow counts",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := &ProfileResponse{
		UserResponse: userModelToResponse(user),
		Followers:    followers,
		Following:    following,
	}

	if viewerID != "" && viewerID != user.ID {
		followed, err := s.follows.IsFollowing(ctx, viewerID, user.ID)
		if err == nil {
			resp.IsFollowed = followed
		}
	}

	return resp, nil
}

// UpdateProfileInput carries the editable profile fields. Nil means keep.
type UpdateProfileInput struct {
	Name           *string
	Bio            *string
	ProfilePicture *string
	CoverPicture   *string
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = *input.ProfilePicture
	}
	if input.CoverPicture != nil {
		user.CoverPicture = *input.CoverPicture
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

// UpdateSecuritySettings replaces the user's step-up configuration.
func (s *UserService) UpdateSecuritySettings(ctx context.Context, userID string, settings models.SecuritySettings) error {
	if settings.MobileAccessStartHour < 0 || settings.MobileAccessStartHour > 23 ||
		settings.MobileAccessEndHour < 1 || settings.MobileAccessEndHour > 24 ||
		settings.MobileAccessStartHour >= settings.MobileAccessEndHour {
		return models.ErrBadRequest
	}

	if err := s.users.UpdateSecuritySettings(ctx, userID, settings); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to update security settings",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// SetPhoneNumber stores a new phone number pending SMS verification.
func (s *UserService) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	if !IsValidPhoneNumber(phone) {
		return models.ErrBadRequest
	}

	if err := s.users.SetPhoneNumber(ctx, userID, phone); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to set phone number",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Search finds users by username or name substring.
func (s *UserService) Search(ctx context.Context, query string) ([]*UserResponse, error) {
	const searchLimit = 20

	users, err := s.users.Search(ctx, query, searchLimit)
	if err != nil {
		s.logger.Error("failed to search users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userModelToResponse(u))
	}
	return responses, nil
}

// Follow adds a follow edge. Following yourself or an already-followed user
// is rejected.
func (s *UserService) Follow(ctx context.Context, followerID, username string) error {
	followee, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if followee.ID == followerID {
		return models.ErrSelfFollow
	}

	if err := s.follows.Follow(ctx, followerID, followee.ID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.ErrAlreadyFollowing
		}
		s.logger.Error("failed to follow",
			slog.String("follower_id", followerID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Unfollow removes a follow edge.
func (s *UserService) Unfollow(ctx context.Context, followerID, username string) error {
	followee, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.follows.Unfollow(ctx, followerID, followee.ID); err != nil {
		if errors.Is(err, models.ErrNotFollowing) {
			return models.ErrNotFollowing
		}
		s.logger.Error("failed to unfollow",
			slog.String("follower_id", followerID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Followers lists the users following username.
func (s *UserService) Followers(ctx context.Context, username string, limit, offset int) ([]*UserResponse, error) {
	return s.listFollowUsers(ctx, username, limit, offset, s.follows.ListFollowers)
}

// Following lists the users username follows.
func (s *UserService) Following(ctx context.Context, username string, limit, offset int) ([]*UserResponse, error) {
	return s.listFollowUsers(ctx, username, limit, offset, s.follows.ListFollowing)
}

func (s *UserService) listFollowUsers(
	ctx context.Context,
	username string,
	limit, offset int,
	list func(ctx context.Context, userID string, limit, offset int) ([]*models.User, error),
) ([]*UserResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	users, err := list(ctx, user.ID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list follow users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userModelToResponse(u))
	}
	return responses, nil
}
