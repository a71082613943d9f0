package models

import "time"

const (
	MaxTweetLength       = 280
	MaxAudioDurationSecs = 300
	MaxAudioSizeBytes    = 100 * 1024 * 1024
	MaxImageSizeBytes    = 5 * 1024 * 1024
)

// Audio is a single audio attachment on a tweet.
type Audio struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"` // seconds
	Size     int64  `json:"size"`     // bytes
}

// Tweet is a post with text, images, or audio. Likes and Retweets are
// counts computed at read time; replies and retweets reference their
// parent tweet.
type Tweet struct {
	ID              string
	Content         string
	AuthorID        string
	Images          []string
	Audio           *Audio
	Likes           int
	Retweets        int
	IsReply         bool
	ReplyToID       *string
	IsRetweet       bool
	OriginalTweetID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasContent reports whether the tweet carries at least one of text,
// images, or audio.
func (t *Tweet) HasContent() bool {
	return t.Content != "" || len(t.Images) > 0 || t.Audio != nil
}
