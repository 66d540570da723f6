package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"kalaklub-site/internal/ratelimit"
)

func newCooldownRouter(now *time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(time.Hour), func() time.Time { return *now })

	r := gin.New()
	r.Use(Cooldown(CooldownConfig{
		Limiter:  limiter,
		Cooldown: time.Minute,
		GroupFor: func(c *gin.Context) string {
			if c.Query("file") == "" {
				return ""
			}
			return ratelimit.CategoryDownload
		},
	}))
	r.GET("/downloads", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "198.51.100.4:5555"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCooldownDeniesSecondRequestInWindow(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newCooldownRouter(&now)

	if resp := get(r, "/downloads?file=syllabus"); resp.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp.Code)
	}
	resp := get(r, "/downloads?file=brochure")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}

	now = now.Add(time.Minute)
	if resp := get(r, "/downloads?file=syllabus"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after cooldown, got %d", resp.Code)
	}
}

func TestCooldownSkipsWhenNoGroup(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newCooldownRouter(&now)

	for i := 0; i < 3; i++ {
		if resp := get(r, "/downloads"); resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.Code)
		}
	}
}
