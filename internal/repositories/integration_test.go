package repositories_test

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/config"
	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a postgres container, applies migrations, and returns a
// live pool. The container is torn down with the test.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("finch"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Host:              host,
		Port:              portNum,
		User:              "postgres",
		Password:          "postgres",
		Name:              "finch",
		SSLMode:           "disable",
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   5 * time.Minute,
		MaxConnIdleTime:   time.Minute,
		HealthCheckPeriod: time.Minute,
	}

	logger := slog.Default()
	require.NoError(t, database.Migrate(cfg, logger))

	db, err := database.NewConnection(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func createTestUser(t *testing.T, users *repositories.UserRepository, username string) *models.User {
	t.Helper()
	user, err := users.Create(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Name:         "Test " + username,
		Security:     models.DefaultSecuritySettings(),
	})
	require.NoError(t, err)
	return user
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	ctx := context.Background()

	created := createTestUser(t, users, "alice")
	assert.NotEmpty(t, created.ID)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "en", byEmail.PreferredLanguage)

	byUsername, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, users, "bob")

	_, err := users.Create(ctx, &models.User{
		Username:     "bob2",
		Email:        "bob@example.com",
		PasswordHash: "hash",
		Security:     models.DefaultSecuritySettings(),
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLoginHistoryRepository_AppendEvictsBeyondCap(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	history := repositories.NewLoginHistoryRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "carol")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < models.MaxLoginHistory+5; i++ {
		entry := &models.LoginHistoryEntry{
			UserID:        user.ID,
			LoginTime:     base.Add(time.Duration(i) * time.Second),
			IPAddress:     "203.0.113.9",
			BrowserName:   "Chrome",
			Device:        models.DeviceDesktop,
			Country:       "Unknown",
			City:          "Unknown",
			Region:        "Unknown",
			Timezone:      "Unknown",
			AccessGranted: true,
			SessionID:     fmt.Sprintf("session-%d", i),
		}
		require.NoError(t, history.Append(ctx, entry))
	}

	entries, err := history.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, entries, models.MaxLoginHistory)

	// Newest first; the oldest five were evicted.
	assert.Equal(t, fmt.Sprintf("session-%d", models.MaxLoginHistory+4), entries[0].SessionID)
	assert.Equal(t, "session-5", entries[len(entries)-1].SessionID)
}

func TestLoginHistoryRepository_SetLogoutTime(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	history := repositories.NewLoginHistoryRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "dave")

	entry := &models.LoginHistoryEntry{
		UserID:        user.ID,
		LoginTime:     time.Now(),
		Device:        models.DeviceDesktop,
		Country:       "Unknown",
		City:          "Unknown",
		Region:        "Unknown",
		Timezone:      "Unknown",
		AccessGranted: true,
		SessionID:     "session-logout",
	}
	require.NoError(t, history.Append(ctx, entry))

	require.NoError(t, history.SetLogoutTime(ctx, user.ID, "session-logout"))

	entries, err := history.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotNil(t, entries[0].LogoutTime)
}

func TestFollowRepository_FollowAndCounts(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	follows := repositories.NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))

	following, err := follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Duplicate follow surfaces as a conflict.
	assert.ErrorIs(t, follows.Follow(ctx, alice.ID, bob.ID), models.ErrConflict)

	followers, followingCount, err := follows.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, followers)
	assert.Equal(t, 0, followingCount)

	require.NoError(t, follows.Unfollow(ctx, alice.ID, bob.ID))
	following, err = follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestSubscriptionRepository_IncrementTweetsUsed(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	subs := repositories.NewSubscriptionRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "erin")

	sub := models.NewFreeSubscription(user.ID, time.Now())
	created, err := subs.Create(ctx, &sub)
	require.NoError(t, err)

	require.NoError(t, subs.IncrementTweetsUsed(ctx, user.ID))

	got, err := subs.GetByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, got.TweetsUsed)

	// Free tier allows one tweet; the second increment hits the limit.
	assert.ErrorIs(t, subs.IncrementTweetsUsed(ctx, user.ID), models.ErrTweetLimitReached)
}

func TestTweetRepository_CreateLikeAndCounts(t *testing.T) {
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	tweets := repositories.NewTweetRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	created, err := tweets.Create(ctx, &models.Tweet{
		AuthorID: alice.ID,
		Content:  "hello world",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	require.NoError(t, tweets.Like(ctx, created.ID, bob.ID))
	assert.ErrorIs(t, tweets.Like(ctx, created.ID, bob.ID), models.ErrConflict)

	got, err := tweets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, "hello world", got.Content)
}
