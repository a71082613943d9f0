package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
)

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	IncrementTweetsUsed(ctx context.Context, userID string) error
}

// PlanCatalog is the purchasable tier list, in display order.
var PlanCatalog = []models.Plan{
	{
		ID: models.PlanFree, Name: "Free Plan", Amount: 0, DisplayAmount: 0,
		TweetsLimit: 1,
		Features:    []string{"1 tweet"},
	},
	{
		ID: models.PlanBronze, Name: "Bronze Plan", Amount: 10000, DisplayAmount: 100,
		TweetsLimit: 3,
		Features:    []string{"3 tweets"},
	},
	{
		ID: models.PlanSilver, Name: "Silver Plan", Amount: 30000, DisplayAmount: 300,
		TweetsLimit: 5,
		Features:    []string{"5 tweets"},
	},
	{
		ID: models.PlanGold, Name: "Gold Plan", Amount: 100000, DisplayAmount: 1000,
		TweetsLimit: models.UnlimitedTweets,
		Features:    []string{"unlimited tweets"},
	},
}

// PlanByID returns the catalog entry for a plan id.
func PlanByID(id string) (models.Plan, bool) {
	for _, p := range PlanCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

// SubscriptionService owns plan state and the tweet quota gate.
type SubscriptionService struct {
	subs   SubscriptionRepository
	logger *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(subs SubscriptionRepository, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		logger: logger,
	}
}

// SubscriptionResponse is the client view of a subscription.
type SubscriptionResponse struct {
	PlanType        string     `json:"plan_type"`
	PlanName        string     `json:"plan_name"`
	TweetsLimit     int        `json:"tweets_limit"`
	TweetsUsed      int        `json:"tweets_used"`
	TweetsRemaining int        `json:"tweets_remaining"`
	IsActive        bool       `json:"is_active"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	PaymentStatus   string     `json:"payment_status"`
}

func subscriptionToResponse(sub *models.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		PlanType:        sub.PlanType,
		PlanName:        sub.PlanName,
		TweetsLimit:     sub.TweetsLimit,
		TweetsUsed:      sub.TweetsUsed,
		TweetsRemaining: sub.TweetsRemaining(),
		IsActive:        sub.IsActive,
		StartDate:       sub.StartDate,
		EndDate:         sub.EndDate,
		PaymentStatus:   sub.PaymentStatus,
	}
}

// GetOrCreate returns the user's subscription, creating the free tier on
// first access and lazily reconciling expiry.
func (s *SubscriptionService) GetOrCreate(ctx context.Context, userID string) (*models.Subscription, error) {
	now := time.Now()

	sub, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			free := models.NewFreeSubscription(userID, now)
			created, err := s.subs.Create(ctx, &free)
			if err != nil {
				// Lost a concurrent create; read the winner.
				if errors.Is(err, models.ErrConflict) {
					return s.subs.GetByUser(ctx, userID)
				}
				s.logger.Error("failed to create free subscription",
					slog.String("user_id", userID), slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			return created, nil
		}
		s.logger.Error("failed to get subscription",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if sub.IsExpired(now) {
		reconciled := models.Reconcile(*sub, now)
		reconciled.ID = sub.ID
		if err := s.subs.Update(ctx, &reconciled); err != nil {
			s.logger.Error("failed to reconcile subscription",
				slog.String("user_id", userID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		return &reconciled, nil
	}

	return sub, nil
}

// MySubscription returns the client view of the user's plan.
func (s *SubscriptionService) MySubscription(ctx context.Context, userID string) (*SubscriptionResponse, error) {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return subscriptionToResponse(sub), nil
}

// CheckTweetQuota verifies the plan gate without touching usage.
// Returns ErrSubscriptionExpired or ErrTweetLimitReached when blocked.
func (s *SubscriptionService) CheckTweetQuota(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if sub.IsExpired(now) {
		return nil, models.ErrSubscriptionExpired
	}
	if !sub.CanPostTweet(now) {
		return nil, models.ErrTweetLimitReached
	}

	return sub, nil
}

// ConsumeTweetQuota burns one tweet of quota. Callers invoke it only after
// the tweet row exists, so a failed insert never costs quota.
func (s *SubscriptionService) ConsumeTweetQuota(ctx context.Context, userID string) error {
	if err := s.subs.IncrementTweetsUsed(ctx, userID); err != nil {
		if errors.Is(err, models.ErrTweetLimitReached) {
			return models.ErrTweetLimitReached
		}
		s.logger.Error("failed to increment tweet usage",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Activate moves the subscription onto a paid plan after a verified payment.
// Usage resets and the plan runs for validityDays.
func (s *SubscriptionService) Activate(ctx context.Context, userID string, plan models.Plan, orderID, paymentID, signature string, validityDays int) (*models.Subscription, error) {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	end := now.AddDate(0, 0, validityDays)

	sub.PlanType = plan.ID
	sub.PlanName = plan.Name
	sub.Amount = plan.Amount
	sub.TweetsLimit = plan.TweetsLimit
	sub.TweetsUsed = 0
	sub.IsActive = true
	sub.StartDate = now
	sub.EndDate = &end
	sub.OrderID = orderID
	sub.PaymentID = paymentID
	sub.Signature = signature
	sub.PaymentStatus = "completed"
	sub.LastPaymentAt = &now

	if err := s.subs.Update(ctx, sub); err != nil {
		s.logger.Error("failed to activate subscription",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return sub, nil
}
