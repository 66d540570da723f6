package downloads

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kalaklub-site/internal/ratelimit"
	"kalaklub-site/internal/records"
	"kalaklub-site/internal/shared/metrics"
	"kalaklub-site/internal/shared/server/middleware"
	"kalaklub-site/internal/shared/server/respond"
	"kalaklub-site/internal/shared/storage/object"
	"kalaklub-site/internal/shared/telemetry"
)

// Handler serves catalog files.
type Handler struct {
	Catalog  Catalog
	Store    object.Store
	Log      *records.Appender
	LogPath  string
	Location *time.Location
	Now      func() time.Time
}

// NewHandler wires a handler that logs to logPath in pipe format.
func NewHandler(catalog Catalog, store object.Store, logPath string, loc *time.Location) *Handler {
	return &Handler{
		Catalog:  catalog,
		Store:    store,
		Log:      records.NewAppender(records.FormatPipe),
		LogPath:  logPath,
		Location: loc,
	}
}

// GroupFor puts known keys under the download cooldown. Unknown keys pass
// through so Download can answer 404 without spending the cooldown.
func (h *Handler) GroupFor(c *gin.Context) string {
	if _, ok := h.Catalog.Lookup(c.Query("file")); ok {
		return ratelimit.CategoryDownload
	}
	return ""
}

// OnDeny counts cooldown denials.
func (h *Handler) OnDeny(c *gin.Context, _ time.Duration) {
	metrics.IncDownload(c.Query("file"), "rate_limited")
}

// Download handles GET ?file=<key>.
func (h *Handler) Download(c *gin.Context) {
	key := c.Query("file")
	entry, ok := h.Catalog.Lookup(key)
	if !ok {
		metrics.IncDownload("unknown", "not_found")
		respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
		return
	}

	rc, size, err := h.Store.Open(c.Request.Context(), entry.Filename)
	if err != nil {
		metrics.IncDownload(key, "missing")
		fields := map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"file":       key,
			"filename":   entry.Filename,
			"error":      err,
		}
		if errors.Is(err, object.ErrNotFound) {
			telemetry.Error("download.missing", fields)
		} else {
			telemetry.Error("download.open_failed", fields)
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "File temporarily unavailable", nil)
		return
	}
	defer rc.Close()

	h.logDownload(c, key, entry)
	metrics.IncDownload(key, "served")

	c.DataFromReader(http.StatusOK, size, entry.ContentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", entry.Filename),
		"Cache-Control":       "private, max-age=0, must-revalidate",
		"Pragma":              "public",
	})
}

func (h *Handler) logDownload(c *gin.Context, key string, entry Entry) {
	if h.Log == nil || h.LogPath == "" {
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	at := now()
	if h.Location != nil {
		at = at.In(h.Location)
	}
	row := []string{
		at.Format("2006-01-02 15:04:05"),
		c.ClientIP(),
		orDefault(c.Request.UserAgent(), "Unknown"),
		key,
		entry.Filename,
		orDefault(c.Request.Referer(), "Direct"),
	}
	if err := h.Log.Append(row, h.LogPath); err != nil {
		telemetry.Warn("download.log_failed", map[string]any{
			"file":  key,
			"error": err,
		})
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
