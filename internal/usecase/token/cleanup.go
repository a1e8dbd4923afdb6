package token

import (
	"context"
	"time"

	"consultant-access/internal/logger"

	"go.uber.org/zap"
)

// StartCleanupJob periodically drops expired setup tokens until ctx is done.
func (i *Issuer) StartCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Setup token cleanup job started",
		zap.Duration("interval", interval),
	)

	i.cleanupExpired(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Setup token cleanup job stopped")
			return
		case <-ticker.C:
			i.cleanupExpired(ctx)
		}
	}
}

func (i *Issuer) cleanupExpired(ctx context.Context) {
	cleared, err := i.repo.ClearExpiredResetTokens(ctx, i.now())
	if err != nil {
		logger.Error("Failed to clear expired setup tokens", zap.Error(err))
		return
	}

	logger.Debug("Expired setup tokens cleared",
		zap.Int64("cleared", cleared),
	)
}
