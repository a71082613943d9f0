package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(users *MockUserRepository, follows *MockFollowRepository) *UserService {
	if users == nil {
		users = &MockUserRepository{}
	}
	if follows == nil {
		follows = &MockFollowRepository{}
	}
	return NewUserService(users, follows, slog.Default())
}

func TestUserService_GetProfile_WithCounts(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "user123", Username: username, CreatedAt: time.Now(), UpdatedAt: time.Now()}, nil
		},
	}
	mockFollows := &MockFollowRepository{
		CountsFunc: func(ctx context.Context, userID string) (int, int, error) {
			return 12, 7, nil
		},
		IsFollowingFunc: func(ctx context.Context, followerID, followeeID string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestUserService(mockUserRepo, mockFollows)

	profile, err := svc.GetProfile(context.Background(), "jdoe", "viewer456")

	require.NoError(t, err)
	assert.Equal(t, 12, profile.Followers)
	assert.Equal(t, 7, profile.Following)
	assert.True(t, profile.IsFollowed)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc := newTestUserService(nil, nil)

	profile, err := svc.GetProfile(context.Background(), "ghost", "")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, profile)
}

func TestUserService_UpdateProfile_Partial(t *testing.T) {
	var saved *models.User
	mockUserRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Name: "Old Name", Bio: "old bio", CreatedAt: time.Now(), UpdatedAt: time.Now()}, nil
		},
		UpdateProfileFunc: func(ctx context.Context, user *models.User) error {
			saved = user
			return nil
		},
	}

	svc := newTestUserService(mockUserRepo, nil)

	newBio := "new bio"
	resp, err := svc.UpdateProfile(context.Background(), "user123", UpdateProfileInput{Bio: &newBio})

	require.NoError(t, err)
	assert.Equal(t, "new bio", resp.Bio)
	require.NotNil(t, saved)
	// Fields left nil stay untouched.
	assert.Equal(t, "Old Name", saved.Name)
}

func TestUserService_UpdateSecuritySettings_InvalidHours(t *testing.T) {
	svc := newTestUserService(nil, nil)

	tests := []struct {
		name     string
		settings models.SecuritySettings
	}{
		{"start after end", models.SecuritySettings{MobileAccessStartHour: 15, MobileAccessEndHour: 10}},
		{"start out of range", models.SecuritySettings{MobileAccessStartHour: -1, MobileAccessEndHour: 13}},
		{"end out of range", models.SecuritySettings{MobileAccessStartHour: 10, MobileAccessEndHour: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateSecuritySettings(context.Background(), "user123", tt.settings)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestUserService_UpdateSecuritySettings_Success(t *testing.T) {
	var saved models.SecuritySettings
	mockUserRepo := &MockUserRepository{
		UpdateSecuritySettingsFunc: func(ctx context.Context, userID string, s models.SecuritySettings) error {
			saved = s
			return nil
		},
	}

	svc := newTestUserService(mockUserRepo, nil)

	settings := models.SecuritySettings{
		RequireOTPForChrome:    false,
		MobileAccessRestricted: true,
		MobileAccessStartHour:  9,
		MobileAccessEndHour:    18,
	}

	err := svc.UpdateSecuritySettings(context.Background(), "user123", settings)

	require.NoError(t, err)
	assert.Equal(t, settings, saved)
}

func TestUserService_SetPhoneNumber_InvalidFormat(t *testing.T) {
	svc := newTestUserService(nil, nil)

	tests := []string{"9876543210", "+0123", "not-a-number", ""}
	for _, phone := range tests {
		err := svc.SetPhoneNumber(context.Background(), "user123", phone)
		assert.ErrorIs(t, err, models.ErrBadRequest, "phone %q", phone)
	}
}

func TestUserService_Follow_Self(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "user123", Username: username}, nil
		},
	}

	svc := newTestUserService(mockUserRepo, nil)

	err := svc.Follow(context.Background(), "user123", "jdoe")
	assert.ErrorIs(t, err, models.ErrSelfFollow)
}

func TestUserService_Follow_AlreadyFollowing(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "other456", Username: username}, nil
		},
	}
	mockFollows := &MockFollowRepository{
		FollowFunc: func(ctx context.Context, followerID, followeeID string) error {
			return models.ErrConflict
		},
	}

	svc := newTestUserService(mockUserRepo, mockFollows)

	err := svc.Follow(context.Background(), "user123", "jdoe")
	assert.ErrorIs(t, err, models.ErrAlreadyFollowing)
}

func TestUserService_Unfollow_NotFollowing(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "other456", Username: username}, nil
		},
	}
	mockFollows := &MockFollowRepository{
		UnfollowFunc: func(ctx context.Context, followerID, followeeID string) error {
			return models.ErrNotFollowing
		},
	}

	svc := newTestUserService(mockUserRepo, mockFollows)

	err := svc.Unfollow(context.Background(), "user123", "jdoe")
	assert.ErrorIs(t, err, models.ErrNotFollowing)
}

func TestUserService_Search(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		SearchFunc: func(ctx context.Context, query string, limit int) ([]*models.User, error) {
			assert.Equal(t, 20, limit)
			return []*models.User{
				{ID: "u1", Username: "jdoe", CreatedAt: time.Now(), UpdatedAt: time.Now()},
				{ID: "u2", Username: "jdoe2", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			}, nil
		},
	}

	svc := newTestUserService(mockUserRepo, nil)

	results, err := svc.Search(context.Background(), "jdoe")

	require.NoError(t, err)
	assert.Len(t, results, 2)
}
