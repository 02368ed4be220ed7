package daemon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/signalcheck/signalcheck/pkg/report"
)

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		code int
		want logrus.Level
	}{
		{http.StatusOK, logrus.DebugLevel},
		{http.StatusCreated, logrus.DebugLevel},
		{http.StatusBadRequest, logrus.WarnLevel},
		{http.StatusConflict, logrus.WarnLevel},
		{http.StatusInternalServerError, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.code); got != tt.want {
			t.Fatalf("requestLevel(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestGinLoggerRecordsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	router := gin.New()
	router.Use(ginLogger(logger))
	router.GET("/report", func(c *gin.Context) {
		abort(c, http.StatusConflict, report.ErrNotReady)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report?format=pdf", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("no log entry written")
	}
	if entry.Level != logrus.WarnLevel {
		t.Fatalf("level = %s, want warning", entry.Level)
	}
	if !strings.Contains(entry.Message, "GET /report 409") || !strings.Contains(entry.Message, report.ErrNotReady.Error()) {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.Data["query"] != "format=pdf" {
		t.Fatalf("query field = %v", entry.Data["query"])
	}
}
