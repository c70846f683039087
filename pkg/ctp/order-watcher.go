package ctp

import (
	"time"

	"go.uber.org/zap"
)

// OrderWatcher periodically evicts terminal orders that have not changed
// for the retention duration, keeping the registry bounded on long runs.
type OrderWatcher struct {
	trader    Trader
	logger    *zap.Logger
	retention time.Duration
}

func NewOrderWatcher(logger *zap.Logger, trader Trader, retention time.Duration) *OrderWatcher {
	watcher := &OrderWatcher{
		trader:    trader,
		logger:    logger,
		retention: retention,
	}
	go func() {
		for range time.NewTicker(retention).C {
			watcher.release()
		}
	}()
	return watcher
}

func (w *OrderWatcher) release() {
	evicted := w.trader.EvictOrders(time.Now().Add(-w.retention))
	if evicted > 0 {
		w.logger.Info("ctp: evicted terminal orders", zap.Int("count", evicted))
	}
}
