package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/camuig/signal-desk/internal/logger"
)

const (
	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"
	headerEditorPass    = "X-Editor-Password"

	correlationIDKey = "correlation_id"
	loggerKey        = "logger"
)

// correlationID reuses the caller's request or correlation ID, or mints one,
// and stores a request logger tagged with it.
func correlationID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = c.GetHeader(headerCorrelationID)
		}
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(correlationIDKey, id)
		c.Set(loggerKey, log.With(correlationIDKey, id))
		c.Header(headerCorrelationID, id)
		c.Next()
	}
}

// requestLogger returns the logger stored by correlationID, or fallback.
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if rl, ok := l.(*logger.Logger); ok {
			return rl
		}
	}
	return fallback
}

func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestLogger(c, log).Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// editorGate requires X-Editor-Password on mutating requests when a digest
// is configured. It keeps casual visitors out of edit mode and nothing more.
func editorGate(digest string) gin.HandlerFunc {
	want := []byte(strings.ToLower(strings.TrimSpace(digest)))
	return func(c *gin.Context) {
		if len(want) == 0 || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		sum := sha256.Sum256([]byte(c.GetHeader(headerEditorPass)))
		got := []byte(hex.EncodeToString(sum[:]))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "editor password required"})
			return
		}
		c.Next()
	}
}
