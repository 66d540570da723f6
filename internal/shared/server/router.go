package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"kalaklub-site/internal/downloads"
	"kalaklub-site/internal/ratelimit"
	"kalaklub-site/internal/services/health"
	"kalaklub-site/internal/shared/config"
	"kalaklub-site/internal/shared/metrics"
	"kalaklub-site/internal/shared/server/middleware"
	"kalaklub-site/internal/shared/server/respond"
	"kalaklub-site/internal/submissions"
)

// RouterDeps are the handlers and services the router mounts.
type RouterDeps struct {
	Config      config.Config
	Limiter     *ratelimit.Limiter
	Application *submissions.Handler
	Contact     *submissions.Handler
	Downloads   *downloads.Handler
	Health      *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})

	if deps.Application != nil {
		r.POST("/apply", deps.Application.Submit)
		r.POST("/apply.php", deps.Application.Submit)
	}
	if deps.Contact != nil {
		r.POST("/contact", deps.Contact.Submit)
		r.POST("/contact.php", deps.Contact.Submit)
	}
	if deps.Downloads != nil {
		gate := middleware.Cooldown(middleware.CooldownConfig{
			Limiter:  deps.Limiter,
			Cooldown: deps.Config.DownloadCooldown,
			GroupFor: deps.Downloads.GroupFor,
			OnDeny:   deps.Downloads.OnDeny,
		})
		r.GET("/downloads", gate, deps.Downloads.Download)
		r.GET("/downloadables/download.php", gate, deps.Downloads.Download)
	}

	return r, nil
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
