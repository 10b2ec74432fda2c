package statusbar

import (
	"context"
	"errors"

	"github.com/axondata/go-statusbar/internal/unix"
)

// ForceRefresh makes every worker drop its cache and asks the producer to
// re-emit at once. Calls closer than RefreshRateLimit to the previous
// forced refresh (or to construction) are ignored. It reports whether the
// refresh happened.
func (c *Compositor) ForceRefresh(ctx context.Context) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	now := c.now()
	if now.Sub(c.lastRefresh) < c.RefreshRateLimit {
		c.log.Info("refresh rate limit in effect, ignoring request")
		return false
	}
	c.lastRefresh = now
	c.log.Info("forcing refresh")

	if err := c.sup.Signal(unix.RefreshSignal); err != nil && !errors.Is(err, ErrNoProcess) {
		c.log.Warn("failed to signal producer", "error", err)
	}
	if err := c.registry.ClearCache(ctx); err != nil {
		c.log.Warn("failed to clear worker caches", "error", err)
	}
	return true
}
