package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTweetService(tweets *MockTweetRepository, subs *MockSubscriptionRepository) *TweetService {
	if tweets == nil {
		tweets = &MockTweetRepository{}
	}
	if subs == nil {
		subs = &MockSubscriptionRepository{
			GetByUserFunc: func(ctx context.Context, userID string) (*models.Subscription, error) {
				return &models.Subscription{UserID: userID, PlanType: models.PlanBronze, TweetsLimit: 3, TweetsUsed: 0, IsActive: true}, nil
			},
		}
	}

	logger := slog.Default()
	return NewTweetService(tweets, NewSubscriptionService(subs, logger), logger)
}

func TestTweetService_Create_Success(t *testing.T) {
	var created *models.Tweet
	mockTweets := &MockTweetRepository{
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			tweet.ID = "tweet-1"
			created = tweet
			return tweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{Content: "hello world"})

	require.NoError(t, err)
	assert.Equal(t, "tweet-1", result.Tweet.ID)
	assert.Equal(t, 2, result.TweetsRemaining)
	assert.Equal(t, 3, result.TweetsLimit)
	require.NotNil(t, created)
	assert.Equal(t, "user123", created.AuthorID)
}

func TestTweetService_Create_QuotaExhausted(t *testing.T) {
	mockSubs := &MockSubscriptionRepository{
		GetByUserFunc: func(ctx context.Context, userID string) (*models.Subscription, error) {
			return &models.Subscription{UserID: userID, PlanType: models.PlanFree, TweetsLimit: 1, TweetsUsed: 1, IsActive: true}, nil
		},
	}

	svc := newTestTweetService(nil, mockSubs)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{Content: "hello"})

	assert.ErrorIs(t, err, models.ErrTweetLimitReached)
	assert.Nil(t, result)
}

func TestTweetService_Create_EmptyTweet(t *testing.T) {
	svc := newTestTweetService(nil, nil)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{})

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestTweetService_Create_TooLong(t *testing.T) {
	svc := newTestTweetService(nil, nil)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{
		Content: strings.Repeat("a", models.MaxTweetLength+1),
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestTweetService_Create_MultibyteContentCountsRunes(t *testing.T) {
	mockTweets := &MockTweetRepository{
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			tweet.ID = "tweet-1"
			return tweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	// Exactly at the limit in characters, well over it in bytes.
	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{
		Content: strings.Repeat("é", models.MaxTweetLength),
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Tweet)

	result, err = svc.Create(context.Background(), "user123", CreateTweetInput{
		Content: strings.Repeat("é", models.MaxTweetLength+1),
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestTweetService_Create_FailedInsertKeepsQuota(t *testing.T) {
	increments := 0
	mockSubs := &MockSubscriptionRepository{
		GetByUserFunc: func(ctx context.Context, userID string) (*models.Subscription, error) {
			return &models.Subscription{UserID: userID, PlanType: models.PlanBronze, TweetsLimit: 3, TweetsUsed: 0, IsActive: true}, nil
		},
		IncrementTweetsUsedFunc: func(ctx context.Context, userID string) error {
			increments++
			return nil
		},
	}
	mockTweets := &MockTweetRepository{
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			return nil, models.ErrInternalServer
		},
	}

	svc := newTestTweetService(mockTweets, mockSubs)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{Content: "hello"})

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Nil(t, result)
	assert.Equal(t, 0, increments)
}

func TestTweetService_Create_ImagesOnly(t *testing.T) {
	mockTweets := &MockTweetRepository{
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			tweet.ID = "tweet-1"
			return tweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{
		Images: []string{"https://media.example.com/a.png"},
	})

	require.NoError(t, err)
	assert.NotNil(t, result.Tweet)
}

func TestTweetService_Create_AudioTooLong(t *testing.T) {
	svc := newTestTweetService(nil, nil)

	result, err := svc.Create(context.Background(), "user123", CreateTweetInput{
		Audio: &models.Audio{URL: "https://media.example.com/a.mp3", Duration: models.MaxAudioDurationSecs + 1, Size: 1024},
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Nil(t, result)
}

func TestTweetService_Reply_Success(t *testing.T) {
	parent := &models.Tweet{ID: "tweet-parent", AuthorID: "other", Content: "original"}

	var created *models.Tweet
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return parent, nil
		},
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			tweet.ID = "tweet-2"
			created = tweet
			return tweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	result, err := svc.Reply(context.Background(), "user123", "tweet-parent", CreateTweetInput{Content: "reply"})

	require.NoError(t, err)
	assert.NotNil(t, result.Tweet)
	require.NotNil(t, created)
	assert.True(t, created.IsReply)
	require.NotNil(t, created.ReplyToID)
	assert.Equal(t, "tweet-parent", *created.ReplyToID)
}

func TestTweetService_Reply_ParentMissing(t *testing.T) {
	svc := newTestTweetService(nil, nil)

	result, err := svc.Reply(context.Background(), "user123", "missing", CreateTweetInput{Content: "reply"})

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, result)
}

func TestTweetService_Get_RetweetIncludesOriginal(t *testing.T) {
	originalID := "tweet-original"
	retweet := &models.Tweet{ID: "tweet-rt", AuthorID: "user123", Content: "original text", IsRetweet: true, OriginalTweetID: &originalID}
	original := &models.Tweet{ID: originalID, AuthorID: "other", Content: "original text"}

	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			if id == originalID {
				return original, nil
			}
			return retweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	detail, err := svc.Get(context.Background(), "tweet-rt")

	require.NoError(t, err)
	require.NotNil(t, detail.Original)
	assert.Equal(t, originalID, detail.Original.ID)
}

func TestTweetService_Delete_SomeoneElsesTweet(t *testing.T) {
	mockTweets := &MockTweetRepository{
		DeleteFunc: func(ctx context.Context, id, authorID string) error {
			return models.ErrNotFound
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return &models.Tweet{ID: id, AuthorID: "someone-else"}, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	err := svc.Delete(context.Background(), "tweet-1", "user123")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTweetService_Delete_Missing(t *testing.T) {
	mockTweets := &MockTweetRepository{
		DeleteFunc: func(ctx context.Context, id, authorID string) error {
			return models.ErrNotFound
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	err := svc.Delete(context.Background(), "tweet-1", "user123")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTweetService_Like_AlreadyLiked(t *testing.T) {
	likeCalled := false
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return &models.Tweet{ID: id}, nil
		},
		HasLikedFunc: func(ctx context.Context, tweetID, userID string) (bool, error) {
			return true, nil
		},
		LikeFunc: func(ctx context.Context, tweetID, userID string) error {
			likeCalled = true
			return nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	err := svc.Like(context.Background(), "tweet-1", "user123")
	assert.ErrorIs(t, err, models.ErrAlreadyLiked)
	assert.False(t, likeCalled)
}

func TestTweetService_Like_ConcurrentDuplicate(t *testing.T) {
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return &models.Tweet{ID: id}, nil
		},
		LikeFunc: func(ctx context.Context, tweetID, userID string) error {
			return models.ErrConflict
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	err := svc.Like(context.Background(), "tweet-1", "user123")
	assert.ErrorIs(t, err, models.ErrAlreadyLiked)
}

func TestTweetService_Unlike_NotLiked(t *testing.T) {
	mockTweets := &MockTweetRepository{
		UnlikeFunc: func(ctx context.Context, tweetID, userID string) error {
			return models.ErrNotLiked
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	err := svc.Unlike(context.Background(), "tweet-1", "user123")
	assert.ErrorIs(t, err, models.ErrNotLiked)
}

func TestTweetService_Retweet_Success(t *testing.T) {
	original := &models.Tweet{ID: "tweet-1", AuthorID: "other", Content: "worth sharing"}

	var created *models.Tweet
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return original, nil
		},
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			tweet.ID = "tweet-rt"
			created = tweet
			return tweet, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	result, err := svc.Retweet(context.Background(), "tweet-1", "user123")

	require.NoError(t, err)
	assert.NotNil(t, result.Tweet)
	require.NotNil(t, created)
	assert.True(t, created.IsRetweet)
	assert.Equal(t, "worth sharing", created.Content)
	require.NotNil(t, created.OriginalTweetID)
	assert.Equal(t, "tweet-1", *created.OriginalTweetID)
}

func TestTweetService_Retweet_AlreadyRetweeted(t *testing.T) {
	increments := 0
	mockSubs := &MockSubscriptionRepository{
		GetByUserFunc: func(ctx context.Context, userID string) (*models.Subscription, error) {
			return &models.Subscription{UserID: userID, PlanType: models.PlanBronze, TweetsLimit: 3, TweetsUsed: 0, IsActive: true}, nil
		},
		IncrementTweetsUsedFunc: func(ctx context.Context, userID string) error {
			increments++
			return nil
		},
	}

	createCalled := false
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return &models.Tweet{ID: id, AuthorID: "other"}, nil
		},
		GetRetweetFunc: func(ctx context.Context, originalTweetID, userID string) (*models.Tweet, error) {
			return &models.Tweet{ID: "tweet-rt", AuthorID: userID, IsRetweet: true}, nil
		},
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			createCalled = true
			return nil, models.ErrConflict
		},
	}

	svc := newTestTweetService(mockTweets, mockSubs)

	result, err := svc.Retweet(context.Background(), "tweet-1", "user123")

	assert.ErrorIs(t, err, models.ErrAlreadyRetweeted)
	assert.Nil(t, result)
	assert.False(t, createCalled)
	assert.Equal(t, 0, increments)
}

func TestTweetService_Retweet_ConcurrentDuplicateKeepsQuota(t *testing.T) {
	// The duplicate lands between the pre-check and the insert.
	increments := 0
	mockSubs := &MockSubscriptionRepository{
		GetByUserFunc: func(ctx context.Context, userID string) (*models.Subscription, error) {
			return &models.Subscription{UserID: userID, PlanType: models.PlanBronze, TweetsLimit: 3, TweetsUsed: 0, IsActive: true}, nil
		},
		IncrementTweetsUsedFunc: func(ctx context.Context, userID string) error {
			increments++
			return nil
		},
	}
	mockTweets := &MockTweetRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Tweet, error) {
			return &models.Tweet{ID: id, AuthorID: "other"}, nil
		},
		CreateFunc: func(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
			return nil, models.ErrConflict
		},
	}

	svc := newTestTweetService(mockTweets, mockSubs)

	result, err := svc.Retweet(context.Background(), "tweet-1", "user123")

	assert.ErrorIs(t, err, models.ErrAlreadyRetweeted)
	assert.Nil(t, result)
	assert.Equal(t, 0, increments)
}

func TestTweetService_Feed_CapsLimit(t *testing.T) {
	var gotLimit int
	mockTweets := &MockTweetRepository{
		ListFeedFunc: func(ctx context.Context, userID string, limit, offset int) ([]*models.Tweet, error) {
			gotLimit = limit
			return []*models.Tweet{{ID: "tweet-1", CreatedAt: time.Now()}}, nil
		},
	}

	svc := newTestTweetService(mockTweets, nil)

	tweets, err := svc.Feed(context.Background(), "user123")

	require.NoError(t, err)
	assert.Len(t, tweets, 1)
	assert.Equal(t, 50, gotLimit)
}
