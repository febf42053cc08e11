package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/qtrack-api/internal/repository"
	"github.com/jwalitptl/qtrack-api/pkg/logger"
)

// NotificationCleanupWorker prunes read notifications older than the
// retention window. Unread notifications are kept until cleared.
type NotificationCleanupWorker struct {
	repo      repository.NotificationRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewNotificationCleanupWorker(repo repository.NotificationRepository, retention, interval time.Duration, logger *logger.Logger) *NotificationCleanupWorker {
	return &NotificationCleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (w *NotificationCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.retention)
			deleted, err := w.repo.DeleteReadBefore(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "Failed to prune read notifications")
				continue
			}
			if deleted > 0 {
				w.logger.Info("Pruned read notifications", "deleted", deleted)
			}
		}
	}
}

// OutboxCleanupWorker deletes processed outbox rows past retention.
type OutboxCleanupWorker struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, interval time.Duration, logger *logger.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.retention)
			if _, err := w.repo.DeleteProcessedBefore(ctx, cutoff); err != nil {
				w.logger.Error(err, "Failed to prune processed outbox events")
			}
		}
	}
}
