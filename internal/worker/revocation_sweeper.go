package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
)

// StartRevocationSweeper periodically purges expired entries from the
// in-memory revocation registry. Lazy purge on lookup already keeps reads
// correct; the sweep only bounds memory for identifiers nobody looks up
// again. Stops when the context is cancelled.
func StartRevocationSweeper(ctx context.Context, registry *auth.MemoryRegistry, interval time.Duration, logger *zap.Logger) {
	if registry == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := registry.Sweep(now); removed > 0 {
					logger.Debug("swept expired revocation entries", zap.Int("removed", removed))
				}
			}
		}
	}()
}
