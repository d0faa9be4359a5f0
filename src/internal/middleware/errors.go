package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"activity-alerts-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const genericErrorMessage = "Something went wrong"

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// ErrorHandler renders the last error a handler attached to the context and
// recovers panics. In debug mode unexpected errors expose their type, message
// and stack frames.
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := pkgerrors.Errorf("panic: %v", r)
				logrus.WithError(err).Error("Recovered from panic")
				renderError(c, err, debug)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err, debug)
	}
}

func renderError(c *gin.Context, err error, debug bool) {
	status, body := DescribeError(err, debug)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// DescribeError maps err to a status code and response body.
func DescribeError(err error, debug bool) (int, gin.H) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, gin.H{
			"code":    http.StatusUnprocessableEntity,
			"message": models.ValidationFailedMsg,
			"errors":  verr.Fields,
		}
	case errors.Is(err, models.ErrNonPositiveAmount):
		return http.StatusBadRequest, gin.H{"error": models.MsgNonPositiveAmount}
	case errors.Is(err, models.ErrInvalidUserID):
		return http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()}
	case errors.Is(err, models.ErrLockTimeout):
		return http.StatusConflict, gin.H{"code": http.StatusConflict, "message": err.Error()}
	}

	if !debug {
		return http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": genericErrorMessage,
		}
	}

	return http.StatusInternalServerError, gin.H{
		"class":     fmt.Sprintf("%T", err),
		"message":   err.Error(),
		"code":      http.StatusInternalServerError,
		"traceback": traceback(err),
	}
}

func traceback(err error) []string {
	frames := make([]string, 0)

	var tracer stackTracer
	if !errors.As(err, &tracer) {
		return frames
	}

	for _, f := range tracer.StackTrace() {
		frames = append(frames, fmt.Sprintf("%s:%d: %n", f, f, f))
	}
	return frames
}
