// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"
)

// Run starts the fixed-interval ticker loop.
// One cycle at a time. No retries, no jitter, no backoff: an unreachable
// device fails every tick at the same cadence.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.life.Done():
			return
		case <-ticker.C:
			// Cycle failures live in State; only teardown reaches here.
			if _, err := c.RequestRefresh(ctx); err != nil {
				if errors.Is(err, ErrClosed) || ctx.Err() != nil {
					return
				}
				c.logger.Error("refresh failed", "err", err)
			}
		}
	}
}
