package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"activity-alerts-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDescribeError(t *testing.T) {
	verr := models.NewValidationError()
	verr.Add("amount", models.MsgInvalidNumber)

	tests := []struct {
		name   string
		err    error
		status int
		body   gin.H
	}{
		{
			name:   "validation",
			err:    verr,
			status: http.StatusUnprocessableEntity,
			body: gin.H{
				"code":    http.StatusUnprocessableEntity,
				"message": "Validation failed",
				"errors":  map[string][]string{"amount": {models.MsgInvalidNumber}},
			},
		},
		{
			name:   "non-positive amount",
			err:    models.ErrNonPositiveAmount,
			status: http.StatusBadRequest,
			body:   gin.H{"error": "Amount must be greater than 0"},
		},
		{
			name:   "invalid user id",
			err:    models.ErrInvalidUserID,
			status: http.StatusBadRequest,
			body:   gin.H{"code": http.StatusBadRequest, "message": "invalid user id"},
		},
		{
			name:   "wrapped lock timeout",
			err:    fmt.Errorf("user 1: %w", models.ErrLockTimeout),
			status: http.StatusConflict,
			body:   gin.H{"code": http.StatusConflict, "message": "user 1: timed out waiting for user lock"},
		},
		{
			name:   "unexpected",
			err:    fmt.Errorf("%w: boom", models.ErrHistoryUnavailable),
			status: http.StatusInternalServerError,
			body:   gin.H{"code": http.StatusInternalServerError, "message": "Something went wrong"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := DescribeError(tc.err, false)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestDescribeError_Debug(t *testing.T) {
	err := pkgerrors.WithStack(errors.New("connection reset"))

	status, body := DescribeError(err, true)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "connection reset", body["message"])
	assert.Equal(t, http.StatusInternalServerError, body["code"])
	assert.Equal(t, "*errors.withStack", body["class"])

	frames, ok := body["traceback"].([]string)
	require.True(t, ok)
	require.NotEmpty(t, frames)
	assert.Contains(t, frames[0], "errors_test.go")
}

func TestDescribeError_DebugWithoutStack(t *testing.T) {
	_, body := DescribeError(errors.New("plain"), true)
	assert.Equal(t, []string{}, body["traceback"])
}

func TestErrorHandler_RendersContextError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(false))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(models.ErrInvalidUserID)
		c.Abort()
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code": 400, "message": "invalid user id"}`, w.Body.String())
}

func TestErrorHandler_LeavesWrittenResponses(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(false))
	router.GET("/partial", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"ok": false})
		_ = c.Error(errors.New("late failure"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/partial", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.JSONEq(t, `{"ok": false}`, w.Body.String())
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(true))
	router.GET("/panic", func(c *gin.Context) {
		panic("nil map")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "panic: nil map")
	assert.Contains(t, w.Body.String(), "traceback")
}
