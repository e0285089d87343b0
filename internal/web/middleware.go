package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/polysoccer/internal/logger"
)

// requestLogger logs every request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			logger.Warn("%s %s %d %v", c.Request.Method, c.Request.URL.Path, status, latency)
			return
		}
		logger.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, status, latency)
	}
}
