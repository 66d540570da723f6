package ratelimit

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"kalaklub-site/internal/shared/telemetry"
)

// StartSweeper schedules periodic expiry of MemoryStore entries.
// Callers stop it with the returned cron's Stop.
func StartSweeper(store *MemoryStore, schedule string, now func() time.Time) (*cron.Cron, error) {
	if now == nil {
		now = time.Now
	}
	if schedule == "" {
		schedule = "@every 5m"
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if removed := store.Sweep(now()); removed > 0 {
			telemetry.Info("ratelimit.sweep", map[string]any{
				"removed":   removed,
				"remaining": store.Len(),
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cron.AddFunc(%q): %w", schedule, err)
	}
	c.Start()
	return c, nil
}
