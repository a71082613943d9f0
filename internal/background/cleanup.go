package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/repositories"
)

// trusted devices unused for this long are dropped
const trustedDeviceMaxIdle = 90 * 24 * time.Hour

// CleanupManager periodically sweeps expired OTP slots, verification codes,
// reset tokens, lapsed paid subscriptions, and stale trusted devices.
type CleanupManager struct {
	users    *repositories.UserRepository
	otps     *repositories.OTPRepository
	resets   *repositories.PasswordResetRepository
	subs     *repositories.SubscriptionRepository
	devices  *repositories.TrustedDeviceRepository
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	users *repositories.UserRepository,
	otps *repositories.OTPRepository,
	resets *repositories.PasswordResetRepository,
	subs *repositories.SubscriptionRepository,
	devices *repositories.TrustedDeviceRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		users:    users,
		otps:     otps,
		resets:   resets,
		subs:     subs,
		devices:  devices,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	if n, err := cm.users.ClearExpiredOTPSlots(cleanupCtx); err != nil {
		cm.logger.Error("failed to clear expired otp slots", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("cleared expired otp slots", slog.Int64("rows", n))
	}

	if n, err := cm.otps.DeleteExpired(cleanupCtx); err != nil {
		cm.logger.Error("failed to delete expired upload codes", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("deleted expired upload codes", slog.Int64("rows", n))
	}

	if n, err := cm.resets.DeleteExpired(cleanupCtx); err != nil {
		cm.logger.Error("failed to delete expired reset tokens", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("deleted expired reset tokens", slog.Int64("rows", n))
	}

	if n, err := cm.devices.PruneStale(cleanupCtx, now.Add(-trustedDeviceMaxIdle)); err != nil {
		cm.logger.Error("failed to prune stale trusted devices", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("pruned stale trusted devices", slog.Int64("rows", n))
	}

	cm.reconcileExpiredSubscriptions(cleanupCtx, now)
}

// reconcileExpiredSubscriptions collapses lapsed paid plans back to the free
// tier. Reads also reconcile lazily; the sweep keeps rows from drifting for
// users who never come back.
func (cm *CleanupManager) reconcileExpiredSubscriptions(ctx context.Context, now time.Time) {
	expired, err := cm.subs.ListExpired(ctx, now)
	if err != nil {
		cm.logger.Error("failed to list expired subscriptions", slog.Any("error", err))
		return
	}

	for _, sub := range expired {
		reconciled := models.Reconcile(*sub, now)
		if err := cm.subs.Update(ctx, &reconciled); err != nil {
			cm.logger.Error("failed to downgrade expired subscription",
				slog.String("user_id", sub.UserID), slog.Any("error", err))
			continue
		}
		cm.logger.Info("downgraded expired subscription",
			slog.String("user_id", sub.UserID),
			slog.String("previous_plan", sub.PlanType))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
