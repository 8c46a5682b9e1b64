package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAccessLogRouter(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Next()
	})
	r.Use(AccessLog(log))
	r.GET("/contracts/:id", func(c *gin.Context) {
		FromGin(c).Info("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/broken", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return r
}

func TestAccessLog_LevelsByStatus(t *testing.T) {
	tests := []struct {
		path  string
		level zapcore.Level
	}{
		{"/contracts/7", zapcore.InfoLevel},
		{"/missing", zapcore.WarnLevel},
		{"/broken", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			r := newAccessLogRouter(zap.New(core))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			access := logs.FilterMessage("HTTP Request").All()
			require.Len(t, access, 1)
			assert.Equal(t, tt.level, access[0].Level)
			assert.Equal(t, "req-1", access[0].ContextMap()["request_id"])
		})
	}
}

func TestAccessLog_HandlerLoggerCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newAccessLogRouter(zap.New(core))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contracts/9", nil))

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	fields := inside[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/contracts/9", fields["path"])
}
