// Package polling re-reads a tenant's orders on a timer and hands them to a
// subscriber as a full refresh, covering signals a watcher may have missed.
package polling

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
)

const DefaultInterval = 10 * time.Second

// TenantLister is the read side of the order repository used by the timer.
type TenantLister interface {
	ListForTenant(ctx context.Context, restaurantID string) ([]models.Order, error)
}

// Start ticks every interval (DefaultInterval when interval <= 0) until ctx
// ends or stop is called. stop waits for an in-flight tick, so handler is
// never called after stop returns.
func Start(ctx context.Context, lister TenantLister, restaurantID string, handler notify.Handler, interval time.Duration, logger *zap.Logger) (stop func()) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			orders, err := lister.ListForTenant(ctx, restaurantID)
			if err != nil {
				logger.Warn("Order poll failed",
					zap.String("restaurant_id", restaurantID),
					zap.Error(err))
				continue
			}
			if ctx.Err() != nil {
				return
			}
			handler(notify.Refresh{Orders: orders})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
