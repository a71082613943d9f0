package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/finchsocial/finch/internal/database"
	"github.com/finchsocial/finch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TweetRepository struct {
	pool *pgxpool.Pool
}

func NewTweetRepository(db *database.DB) *TweetRepository {
	return &TweetRepository{pool: db.Pool}
}

// tweetColumns includes like and retweet counts computed per row.
const tweetColumns = `
	t.id, t.author_id, t.content, t.images,
	t.audio_url, t.audio_duration, t.audio_size,
	t.is_reply, t.reply_to_id, t.is_retweet, t.original_tweet_id,
	t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM tweet_likes l WHERE l.tweet_id = t.id) AS likes,
	(SELECT COUNT(*) FROM tweets rt WHERE rt.original_tweet_id = t.id AND rt.is_retweet) AS retweets`

func scanTweetRow(scanner rowScanner) (*models.Tweet, error) {
	var t models.Tweet
	var audioURL *string
	var audioDuration *int
	var audioSize *int64

	err := scanner.Scan(
		&t.ID, &t.AuthorID, &t.Content, &t.Images,
		&audioURL, &audioDuration, &audioSize,
		&t.IsReply, &t.ReplyToID, &t.IsRetweet, &t.OriginalTweetID,
		&t.CreatedAt, &t.UpdatedAt,
		&t.Likes, &t.Retweets,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if audioURL != nil {
		t.Audio = &models.Audio{URL: *audioURL}
		if audioDuration != nil {
			t.Audio.Duration = *audioDuration
		}
		if audioSize != nil {
			t.Audio.Size = *audioSize
		}
	}

	return &t, nil
}

func scanTweetRows(rows pgx.Rows) ([]*models.Tweet, error) {
	defer rows.Close()

	tweets := make([]*models.Tweet, 0)

	for rows.Next() {
		tweet, err := scanTweetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tweet: %w", err)
		}
		tweets = append(tweets, tweet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tweets, nil
}

func (r *TweetRepository) Create(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
	tweet.ID = uuid.New().String()

	now := time.Now()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now

	if tweet.Images == nil {
		tweet.Images = []string{}
	}

	var audioURL *string
	var audioDuration *int
	var audioSize *int64
	if tweet.Audio != nil {
		audioURL = &tweet.Audio.URL
		audioDuration = &tweet.Audio.Duration
		audioSize = &tweet.Audio.Size
	}

	query := `
		INSERT INTO tweets (
			id, author_id, content, images,
			audio_url, audio_duration, audio_size,
			is_reply, reply_to_id, is_retweet, original_tweet_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		tweet.ID, tweet.AuthorID, tweet.Content, tweet.Images,
		audioURL, audioDuration, audioSize,
		tweet.IsReply, tweet.ReplyToID, tweet.IsRetweet, tweet.OriginalTweetID,
		tweet.CreatedAt, tweet.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return tweet, nil
}

func (r *TweetRepository) GetByID(ctx context.Context, id string) (*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets t WHERE t.id = $1`
	return scanTweetRow(r.pool.QueryRow(ctx, query, id))
}

func (r *TweetRepository) Delete(ctx context.Context, id, authorID string) error {
	query := `DELETE FROM tweets WHERE id = $1 AND author_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, authorID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListPublic returns the global timeline of non-reply tweets, newest first.
func (r *TweetRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + `
		FROM tweets t
		WHERE NOT t.is_reply
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tweets: %w", err)
	}
	return scanTweetRows(rows)
}

// ListReplies returns the replies to a tweet, oldest first.
func (r *TweetRepository) ListReplies(ctx context.Context, tweetID string) ([]*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + `
		FROM tweets t
		WHERE t.reply_to_id = $1 AND t.is_reply
		ORDER BY t.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, tweetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	return scanTweetRows(rows)
}

func (r *TweetRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + `
		FROM tweets t
		WHERE t.author_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tweets: %w", err)
	}
	return scanTweetRows(rows)
}

// ListFeed returns non-reply tweets by the user and everyone they follow,
// newest first.
func (r *TweetRepository) ListFeed(ctx context.Context, userID string, limit, offset int) ([]*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + `
		FROM tweets t
		WHERE NOT t.is_reply
		  AND (t.author_id = $1
		   OR t.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $1))
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	return scanTweetRows(rows)
}

func (r *TweetRepository) Like(ctx context.Context, tweetID, userID string) error {
	query := `INSERT INTO tweet_likes (tweet_id, user_id) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, tweetID, userID)
	return database.MapPostgresError(err)
}

func (r *TweetRepository) Unlike(ctx context.Context, tweetID, userID string) error {
	query := `DELETE FROM tweet_likes WHERE tweet_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, tweetID, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotLiked
	}
	return nil
}

func (r *TweetRepository) HasLiked(ctx context.Context, tweetID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tweet_likes WHERE tweet_id = $1 AND user_id = $2)`

	var liked bool
	if err := r.pool.QueryRow(ctx, query, tweetID, userID).Scan(&liked); err != nil {
		return false, database.MapPostgresError(err)
	}
	return liked, nil
}

// GetRetweet returns the user's retweet of a tweet, if any.
func (r *TweetRepository) GetRetweet(ctx context.Context, originalTweetID, userID string) (*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + `
		FROM tweets t
		WHERE t.original_tweet_id = $1 AND t.author_id = $2 AND t.is_retweet
	`
	return scanTweetRow(r.pool.QueryRow(ctx, query, originalTweetID, userID))
}
