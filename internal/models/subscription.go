package models

import "time"

// Plan tiers. UnlimitedTweets marks a tier without a quota.
const (
	PlanFree   = "free"
	PlanBronze = "bronze"
	PlanSilver = "silver"
	PlanGold   = "gold"

	UnlimitedTweets = -1
)

// Plan describes a purchasable tier. Amount is in the gateway's smallest
// currency unit (paise); DisplayAmount is in rupees.
type Plan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Amount        int64    `json:"amount"`
	DisplayAmount int64    `json:"displayAmount"`
	TweetsLimit   int      `json:"tweetsLimit"`
	Features      []string `json:"features"`
}

// Subscription is the one-per-user plan state. TweetsUsed increases
// monotonically within a billing period and resets on plan change or
// expiry reconciliation.
type Subscription struct {
	ID            string
	UserID        string
	PlanType      string
	PlanName      string
	Amount        int64
	TweetsLimit   int
	TweetsUsed    int
	IsActive      bool
	StartDate     time.Time
	EndDate       *time.Time
	OrderID       string
	PaymentID     string
	Signature     string
	PaymentStatus string // pending, completed, failed
	LastPaymentAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsExpired reports whether the plan has lapsed. A nil EndDate (free tier)
// never expires by date.
func (s *Subscription) IsExpired(now time.Time) bool {
	if s.EndDate == nil {
		return false
	}
	return now.After(*s.EndDate)
}

// CanPostTweet reports whether another tweet fits within the plan.
func (s *Subscription) CanPostTweet(now time.Time) bool {
	if s.IsExpired(now) {
		return false
	}
	if s.TweetsLimit == UnlimitedTweets {
		return true
	}
	return s.TweetsUsed < s.TweetsLimit
}

// TweetsRemaining returns the remaining quota, or UnlimitedTweets.
func (s *Subscription) TweetsRemaining() int {
	if s.TweetsLimit == UnlimitedTweets {
		return UnlimitedTweets
	}
	remaining := s.TweetsLimit - s.TweetsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reconcile returns the subscription state as of now: an expired paid plan
// collapses back to the free tier with usage zeroed. Callable both lazily
// on read and from the background sweep so the two paths cannot drift.
func Reconcile(s Subscription, now time.Time) Subscription {
	if !s.IsExpired(now) {
		return s
	}
	s.PlanType = PlanFree
	s.PlanName = "Free Plan"
	s.Amount = 0
	s.TweetsLimit = 1
	s.TweetsUsed = 0
	s.IsActive = true
	s.StartDate = now
	s.EndDate = nil
	s.PaymentStatus = "pending"
	return s
}

// NewFreeSubscription returns the default subscription created on first
// access for a user without one.
func NewFreeSubscription(userID string, now time.Time) Subscription {
	return Subscription{
		UserID:        userID,
		PlanType:      PlanFree,
		PlanName:      "Free Plan",
		Amount:        0,
		TweetsLimit:   1,
		TweetsUsed:    0,
		IsActive:      true,
		StartDate:     now,
		PaymentStatus: "pending",
	}
}
