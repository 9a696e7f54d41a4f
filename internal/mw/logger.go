package mw

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger logs one line per request through entry.
func Logger(entry *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= 500:
			entry.WithFields(fields).Error("request failed")
		case c.Writer.Status() >= 400:
			entry.WithFields(fields).Info("request rejected")
		default:
			entry.WithFields(fields).Debug("request served")
		}
	}
}
