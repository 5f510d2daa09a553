/**
 * @description
 * Scheduled job implementations for the payment-service.
 */
package app

import (
	"context"
	"log/slog"
	"time"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	store  MirrorStore
	logger *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(store MirrorStore, logger *slog.Logger) *Jobs {
	return &Jobs{store: store, logger: logger}
}

// LapseExpiredSubscriptions marks active subscriptions whose billing period
// ended as lapsed. The webhook stream normally keeps subscription state
// current; this sweep catches subscriptions whose terminal webhook was lost.
func (j *Jobs) LapseExpiredSubscriptions() {
	j.logger.Info("starting subscription lapse sweep")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	lapsed, err := j.store.LapseExpiredSubscriptions(ctx)
	if err != nil {
		j.logger.Error("subscription lapse sweep failed", "error", err)
		return
	}

	j.logger.Info("subscription lapse sweep finished", "lapsed", lapsed)
}
