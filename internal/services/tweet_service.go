package services

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/finchsocial/finch/internal/models"
)

// TweetRepository defines the interface for tweet persistence
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error)
	GetByID(ctx context.Context, id string) (*models.Tweet, error)
	Delete(ctx context.Context, id, authorID string) error
	ListPublic(ctx context.Context, limit, offset int) ([]*models.Tweet, error)
	ListReplies(ctx context.Context, tweetID string) ([]*models.Tweet, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error)
	ListFeed(ctx context.Context, userID string, limit, offset int) ([]*models.Tweet, error)
	Like(ctx context.Context, tweetID, userID string) error
	Unlike(ctx context.Context, tweetID, userID string) error
	HasLiked(ctx context.Context, tweetID, userID string) (bool, error)
	GetRetweet(ctx context.Context, originalTweetID, userID string) (*models.Tweet, error)
}

// TweetService owns posting (quota-gated), timelines, and interactions
type TweetService struct {
	tweets TweetRepository
	subs   *SubscriptionService
	logger *slog.Logger
}

// NewTweetService creates a new TweetService
func NewTweetService(tweets TweetRepository, subs *SubscriptionService, logger *slog.Logger) *TweetService {
	return &TweetService{
		tweets: tweets,
		subs:   subs,
		logger: logger,
	}
}

// CreateTweetInput carries a new tweet. Media URLs are produced by the
// upload endpoints beforehand.
type CreateTweetInput struct {
	Content string
	Images  []string
	Audio   *models.Audio
}

// TweetWithQuota bundles a created tweet with the remaining quota.
type TweetWithQuota struct {
	Tweet           *models.Tweet `json:"tweet"`
	TweetsRemaining int           `json:"tweets_remaining"`
	TweetsLimit     int           `json:"tweets_limit"`
}

func validateTweetInput(input CreateTweetInput) error {
	t := models.Tweet{Content: input.Content, Images: input.Images, Audio: input.Audio}
	if !t.HasContent() {
		return models.ErrBadRequest
	}
	if utf8.RuneCountInString(input.Content) > models.MaxTweetLength {
		return models.ErrBadRequest
	}
	if input.Audio != nil {
		if input.Audio.Duration > models.MaxAudioDurationSecs || input.Audio.Size > models.MaxAudioSizeBytes {
			return models.ErrBadRequest
		}
	}
	return nil
}

// recordPosted burns quota for a tweet that now exists. A lost increment is
// logged rather than orphaning the tweet.
func (s *TweetService) recordPosted(ctx context.Context, sub *models.Subscription, authorID string) {
	if err := s.subs.ConsumeTweetQuota(ctx, authorID); err != nil {
		s.logger.Warn("tweet posted without quota increment",
			slog.String("author_id", authorID), slog.Any("error", err))
		return
	}
	sub.TweetsUsed++
}

// Create posts a tweet, consuming one tweet of subscription quota.
func (s *TweetService) Create(ctx context.Context, authorID string, input CreateTweetInput) (*TweetWithQuota, error) {
	if err := validateTweetInput(input); err != nil {
		return nil, err
	}

	sub, err := s.subs.CheckTweetQuota(ctx, authorID)
	if err != nil {
		return nil, err
	}

	tweet, err := s.tweets.Create(ctx, &models.Tweet{
		AuthorID: authorID,
		Content:  input.Content,
		Images:   input.Images,
		Audio:    input.Audio,
	})
	if err != nil {
		s.logger.Error("failed to create tweet",
			slog.String("author_id", authorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordPosted(ctx, sub, authorID)

	return &TweetWithQuota{
		Tweet:           tweet,
		TweetsRemaining: sub.TweetsRemaining(),
		TweetsLimit:     sub.TweetsLimit,
	}, nil
}

// Reply posts a reply to an existing tweet. Replies consume quota like any
// other tweet.
func (s *TweetService) Reply(ctx context.Context, authorID, tweetID string, input CreateTweetInput) (*TweetWithQuota, error) {
	if err := validateTweetInput(input); err != nil {
		return nil, err
	}

	parent, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get tweet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sub, err := s.subs.CheckTweetQuota(ctx, authorID)
	if err != nil {
		return nil, err
	}

	tweet, err := s.tweets.Create(ctx, &models.Tweet{
		AuthorID:  authorID,
		Content:   input.Content,
		Images:    input.Images,
		Audio:     input.Audio,
		IsReply:   true,
		ReplyToID: &parent.ID,
	})
	if err != nil {
		s.logger.Error("failed to create reply",
			slog.String("author_id", authorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordPosted(ctx, sub, authorID)

	return &TweetWithQuota{
		Tweet:           tweet,
		TweetsRemaining: sub.TweetsRemaining(),
		TweetsLimit:     sub.TweetsLimit,
	}, nil
}

// TweetDetail is a tweet with its replies and, for retweets, the original.
type TweetDetail struct {
	Tweet    *models.Tweet   `json:"tweet"`
	Replies  []*models.Tweet `json:"replies"`
	Original *models.Tweet   `json:"original,omitempty"`
}

// Get returns a tweet with its replies. For a retweet the original is
// attached too.
func (s *TweetService) Get(ctx context.Context, tweetID string) (*TweetDetail, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get tweet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	replies, err := s.tweets.ListReplies(ctx, tweetID)
	if err != nil {
		s.logger.Error("failed to list replies", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	detail := &TweetDetail{Tweet: tweet, Replies: replies}

	if tweet.IsRetweet && tweet.OriginalTweetID != nil {
		original, err := s.tweets.GetByID(ctx, *tweet.OriginalTweetID)
		if err == nil {
			detail.Original = original
		} else if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("failed to load original tweet", slog.Any("error", err))
		}
	}

	return detail, nil
}

// List returns the public timeline.
func (s *TweetService) List(ctx context.Context, limit, offset int) ([]*models.Tweet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	tweets, err := s.tweets.ListPublic(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tweets", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tweets, nil
}

// ListByAuthor returns a user's tweets newest first.
func (s *TweetService) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	tweets, err := s.tweets.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tweets", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tweets, nil
}

// Feed returns recent tweets from the user and everyone they follow.
func (s *TweetService) Feed(ctx context.Context, userID string) ([]*models.Tweet, error) {
	const feedLimit = 50

	tweets, err := s.tweets.ListFeed(ctx, userID, feedLimit, 0)
	if err != nil {
		s.logger.Error("failed to list feed",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return tweets, nil
}

// Delete removes the caller's own tweet.
func (s *TweetService) Delete(ctx context.Context, tweetID, authorID string) error {
	if err := s.tweets.Delete(ctx, tweetID, authorID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Distinguish missing tweet from someone else's tweet.
			if _, getErr := s.tweets.GetByID(ctx, tweetID); getErr == nil {
				return models.ErrForbidden
			}
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete tweet", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Like records a like. Liking twice fails.
func (s *TweetService) Like(ctx context.Context, tweetID, userID string) error {
	if _, err := s.tweets.GetByID(ctx, tweetID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get tweet", slog.Any("error", err))
		return models.ErrInternalServer
	}

	liked, err := s.tweets.HasLiked(ctx, tweetID, userID)
	if err != nil {
		s.logger.Error("failed to check like", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if liked {
		return models.ErrAlreadyLiked
	}

	if err := s.tweets.Like(ctx, tweetID, userID); err != nil {
		// Concurrent like that slipped past the pre-check.
		if errors.Is(err, models.ErrConflict) {
			return models.ErrAlreadyLiked
		}
		s.logger.Error("failed to like tweet", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Unlike removes a like. Unliking something never liked fails.
func (s *TweetService) Unlike(ctx context.Context, tweetID, userID string) error {
	if err := s.tweets.Unlike(ctx, tweetID, userID); err != nil {
		if errors.Is(err, models.ErrNotLiked) {
			return models.ErrNotLiked
		}
		s.logger.Error("failed to unlike tweet", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Retweet reposts a tweet. One retweet per user per tweet; retweets consume
// quota.
func (s *TweetService) Retweet(ctx context.Context, tweetID, userID string) (*TweetWithQuota, error) {
	original, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get tweet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.tweets.GetRetweet(ctx, original.ID, userID); err == nil {
		return nil, models.ErrAlreadyRetweeted
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check retweet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sub, err := s.subs.CheckTweetQuota(ctx, userID)
	if err != nil {
		return nil, err
	}

	tweet, err := s.tweets.Create(ctx, &models.Tweet{
		AuthorID:        userID,
		Content:         original.Content,
		IsRetweet:       true,
		OriginalTweetID: &original.ID,
	})
	if err != nil {
		// Concurrent retweet that slipped past the pre-check.
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrAlreadyRetweeted
		}
		s.logger.Error("failed to create retweet", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordPosted(ctx, sub, userID)

	return &TweetWithQuota{
		Tweet:           tweet,
		TweetsRemaining: sub.TweetsRemaining(),
		TweetsLimit:     sub.TweetsLimit,
	}, nil
}
