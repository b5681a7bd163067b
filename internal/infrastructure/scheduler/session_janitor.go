package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// ShopperEvictor is the part of the shopper registry the janitor drives.
type ShopperEvictor interface {
	EvictIdle(ctx context.Context, ttl time.Duration) int
	Len() int
}

// SessionJanitor periodically drops shoppers that have been idle longer than
// the TTL. Their checkout sessions are closed; persisted carts stay.
type SessionJanitor struct {
	registry ShopperEvictor
	logger   *logger.Logger
	ttl      time.Duration
	interval time.Duration
	report   func(active int)
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessionJanitor(registry ShopperEvictor, logger *logger.Logger, ttl, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		registry: registry,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
		report:   monitoring.UpdateActiveShoppers,
		stopChan: make(chan struct{}),
	}
}

func (j *SessionJanitor) Start(ctx context.Context) {
	j.logger.Info("Starting session janitor", "ttl", j.ttl.String(), "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Session janitor stopped")
			return
		case <-j.stopChan:
			j.logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

func (j *SessionJanitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
}

// Sweep runs one eviction pass and returns how many shoppers were dropped.
func (j *SessionJanitor) Sweep(ctx context.Context) int {
	evicted := j.registry.EvictIdle(ctx, j.ttl)
	j.report(j.registry.Len())
	return evicted
}
