package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kalaklub-site/internal/ratelimit"
	"kalaklub-site/internal/shared/server/respond"
	"kalaklub-site/internal/shared/telemetry"
)

// CooldownConfig gates a route group by client address.
type CooldownConfig struct {
	Limiter  *ratelimit.Limiter
	Cooldown time.Duration
	// GroupFor names the rate-limit category for a request. An empty result
	// lets the request through untouched.
	GroupFor func(*gin.Context) string
	// OnDeny runs before the 429 is written.
	OnDeny func(c *gin.Context, retryAfter time.Duration)
}

// Cooldown allows one request per client per category every Cooldown.
func Cooldown(cfg CooldownConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		group := ""
		if cfg.GroupFor != nil {
			group = strings.TrimSpace(cfg.GroupFor(c))
		}
		if group == "" {
			c.Next()
			return
		}
		key := ratelimit.Key(group, c.ClientIP())
		decision, err := cfg.Limiter.Check(c.Request.Context(), key, cfg.Cooldown)
		if err != nil {
			telemetry.Error("ratelimit.check_failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"group":      group,
				"error":      err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			return
		}
		if decision.Allowed {
			c.Next()
			return
		}
		if cfg.OnDeny != nil {
			cfg.OnDeny(c, decision.RetryAfter)
		}
		retryAfterSeconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Please wait before trying again.", gin.H{
			"retryAfterMs": decision.RetryAfter.Milliseconds(),
		})
	}
}
