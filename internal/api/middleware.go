package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	settingsKey     = "request_settings"
)

// RequestSettings is derived per request; nothing about it is process-global.
type RequestSettings struct {
	Secure  bool
	Scheme  string
	BaseURL string
}

// requestSettings detects the scheme behind a proxy and marks secure
// responses with HSTS.
func requestSettings() gin.HandlerFunc {
	return func(c *gin.Context) {
		secure := isSecure(c.Request)
		scheme := "http"
		if secure {
			scheme = "https"
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Set(settingsKey, RequestSettings{
			Secure:  secure,
			Scheme:  scheme,
			BaseURL: scheme + "://" + c.Request.Host,
		})
		c.Next()
	}
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first := strings.TrimSpace(strings.Split(proto, ",")[0])
		return strings.EqualFold(first, "https")
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Ssl"), "on")
}

func settingsFrom(c *gin.Context) RequestSettings {
	if v, ok := c.Get(settingsKey); ok {
		if s, ok := v.(RequestSettings); ok {
			return s
		}
	}
	return RequestSettings{Scheme: "http", BaseURL: "http://" + c.Request.Host}
}

// callbackURL is where the gateway sends the user after checkout. A
// configured frontend wins over the request's own origin.
func callbackURL(c *gin.Context, frontendURL string) string {
	base := strings.TrimRight(frontendURL, "/")
	if base == "" {
		base = settingsFrom(c).BaseURL
	}
	return base + "/payment/callback"
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
