package service

import (
	"context"
	"time"

	"roomchat/internal/constants"

	"github.com/sirupsen/logrus"
)

// Janitor periodically drops expired cached history pages from the local
// database.
type Janitor struct {
	engine   *Engine
	interval time.Duration
	ttl      time.Duration
	logger   *logrus.Logger
	stopCh   chan struct{}
}

func NewJanitor(engine *Engine, interval, ttl time.Duration, logger *logrus.Logger) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = constants.DefaultHistoryCacheTTLSec * time.Second
	}
	return &Janitor{
		engine:   engine,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the cleanup loop until the context is cancelled or Stop is
// called. An initial sweep runs immediately.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.runCleanup(ctx)
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stopCh)
}

func (j *Janitor) runCleanup(ctx context.Context) {
	if err := j.engine.CleanupCache(ctx, j.ttl); err != nil {
		j.logger.WithError(err).Warn("Failed to clean up expired cache pages")
	}
}
