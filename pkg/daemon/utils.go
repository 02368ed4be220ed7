package daemon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLogger is the logrus request logger of the calibration API. Client
// errors are logged as warnings, server errors as errors, the rest at debug.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// handlers may rewrite the request path
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		start := time.Now()
		c.Next()
		latency := time.Since(start).Milliseconds()
		statusCode := c.Writer.Status()

		fields := logrus.Fields{
			"statusCode": statusCode,
			"latency":    latency,
			"method":     c.Request.Method,
			"path":       path,
			"dataLength": max(c.Writer.Size(), 0),
		}
		if query != "" {
			fields["query"] = query
		}
		entry := logger.WithFields(fields)

		msg := fmt.Sprintf("%s %s %d (%dms)", c.Request.Method, path, statusCode, latency)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			msg += ": " + errs.String()
		}
		entry.Log(requestLevel(statusCode), msg)
	}
}

func requestLevel(statusCode int) logrus.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case statusCode >= http.StatusBadRequest:
		return logrus.WarnLevel
	default:
		return logrus.DebugLevel
	}
}
