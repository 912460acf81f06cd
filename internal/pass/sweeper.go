package pass

import (
	"context"
	"time"

	"studioslot/internal/logger"
)

// Sweep marks lapsed passes expired, once immediately and then every
// interval, until ctx is cancelled.
func Sweep(ctx context.Context, ledger Ledger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := ledger.ExpireStale(ctx, time.Now().UTC())
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("pass sweep failed", "error", err)
		case n > 0:
			logger.Info("expired lapsed passes", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
