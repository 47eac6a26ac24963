package handlers

import (
	"time"

	"github.com/iwtcode/ct400Adapter/internal/middleware/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// LoggingMiddleware присваивает запросу ID и пишет одну строку лога на запрос.
// Уровень зависит от статуса ответа: 5xx - Error, 4xx - Warn.
func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", kv...)
		case status >= 400:
			logger.Warn("Request rejected", kv...)
		default:
			// свипы и опрос мощности часты, детали только на Debug
			logger.Debug("Request completed", kv...)
		}
	}
}
