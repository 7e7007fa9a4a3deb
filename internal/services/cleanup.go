package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/irfndi/fdtrend-go/internal/logging"
	"github.com/sirupsen/logrus"
)

// CleanupConfig defines prediction log retention.
type CleanupConfig struct {
	PredictionRetentionHours int
	CleanupIntervalMinutes   int
}

// Enabled reports whether old predictions should be pruned at all.
func (c CleanupConfig) Enabled() bool {
	return c.PredictionRetentionHours > 0
}

func (c CleanupConfig) interval() time.Duration {
	if c.CleanupIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}

// CleanupService periodically prunes the prediction log.
type CleanupService struct {
	predictions PredictionStore
	config      CleanupConfig
	logger      *logrus.Entry
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(predictions PredictionStore, config CleanupConfig, logger *logrus.Logger) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		predictions: predictions,
		config:      config,
		logger:      logging.WithComponent(logger, "cleanup"),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs an initial cleanup and then one per interval until Stop.
// It does nothing when retention is disabled.
func (c *CleanupService) Start() {
	if !c.config.Enabled() {
		c.logger.Info("Prediction cleanup disabled")
		return
	}

	c.logger.WithFields(logrus.Fields{
		"retention_hours":  c.config.PredictionRetentionHours,
		"interval_minutes": int(c.config.interval().Minutes()),
	}).Info("Starting cleanup service")

	ticker := time.NewTicker(c.config.interval())
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()

		if _, err := c.RunCleanup(c.ctx); err != nil {
			c.logger.WithError(err).Error("Initial cleanup failed")
		}
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.RunCleanup(c.ctx); err != nil {
					c.logger.WithError(err).Error("Cleanup failed")
				}
			}
		}
	}()
}

// Stop stops the cleanup service and waits for an in-flight run.
func (c *CleanupService) Stop() {
	c.logger.Info("Stopping cleanup service")
	c.cancel()
	c.wg.Wait()
}

// RunCleanup deletes predictions older than the retention window and returns the count.
func (c *CleanupService) RunCleanup(ctx context.Context) (int64, error) {
	if !c.config.Enabled() {
		return 0, nil
	}

	cutoff := c.now().Add(-time.Duration(c.config.PredictionRetentionHours) * time.Hour)
	deleted, err := c.predictions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup predictions: %w", err)
	}

	if deleted > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted":         deleted,
			"retention_hours": c.config.PredictionRetentionHours,
		}).Info("Cleaned up old predictions")
	}
	return deleted, nil
}
