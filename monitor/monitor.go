package monitor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultTailBytes = 64 << 10
	maxTailBytes     = 1 << 20
	pingTimeout      = 2 * time.Second
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports whether the process is serving and the database answers.
func Health(db Pinger, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		body := gin.H{
			"status":         "ok",
			"message":        "Diwan API is running",
			"database":       "up",
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		}
		if db == nil {
			body["database"] = "unknown"
			c.JSON(http.StatusOK, body)
			return
		}
		if err := db.PingContext(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

// LogTail serves the end of the application log file. The caller picks the
// window with ?bytes=N, capped at 1 MiB.
func LogTail(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := int64(defaultTailBytes)
		if raw := c.Query("bytes"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bytes must be a positive integer"})
				return
			}
			limit = n
		}
		if limit > maxTailBytes {
			limit = maxTailBytes
		}

		data, err := tail(path, limit)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				c.JSON(http.StatusNotFound, gin.H{"error": "log file not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
	}
}

func tail(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := info.Size() - limit
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
