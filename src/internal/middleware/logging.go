package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger logs every request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody string
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.Body != nil {
				body, err := io.ReadAll(c.Request.Body)
				if err == nil {
					requestBody = string(body)
				}
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
			}
		}

		writer := &bodyLogWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		fields := logrus.Fields{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"query_string":  c.Request.URL.RawQuery,
			"remote_addr":   c.ClientIP(),
			"status":        c.Writer.Status(),
			"user_agent":    c.Request.UserAgent(),
			"latency_ms":    time.Since(start).Milliseconds(),
			"response_body": writer.body.String(),
		}
		if requestBody != "" {
			fields["request_body"] = requestBody
		}
		if routeName, ok := c.Get("route_name"); ok {
			fields["route"] = routeName
		}
		if userID := c.GetHeader("user_id"); userID != "" {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Received request")
		} else {
			entry.Info("Received request")
		}
	}
}
