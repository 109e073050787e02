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

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(handler gin.HandlerFunc, logs **observer.ObservedLogs) *httptest.ResponseRecorder {
		log, observed := newObservedLogger()
		*logs = observed

		engine := gin.New()
		engine.Use(func(c *gin.Context) {
			c.Set("request_id", "req-123")
		})
		engine.Use(GinMiddleware(log))
		engine.GET("/quotes", handler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/quotes?limit=5", nil)
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("logs completed request at info", func(t *testing.T) {
		var logs *observer.ObservedLogs
		serve(func(c *gin.Context) { c.Status(http.StatusOK) }, &logs)

		entries := logs.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

		fields := entries[0].ContextMap()
		assert.Equal(t, "req-123", fields["request_id"])
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/quotes", fields["path"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, "limit=5", fields["query"])
	})

	t.Run("4xx logs at warn", func(t *testing.T) {
		var logs *observer.ObservedLogs
		serve(func(c *gin.Context) { c.Status(http.StatusNotFound) }, &logs)

		entries := logs.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("5xx logs at error with gin errors attached", func(t *testing.T) {
		var logs *observer.ObservedLogs
		serve(func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		}, &logs)

		entries := logs.FilterMessage("request completed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Contains(t, entries[0].ContextMap(), "errors")
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	log, logs := newObservedLogger()
	engine := gin.New()
	engine.Use(Recovery(log))
	engine.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kaboom", entries[0].ContextMap()["panic"])
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns request-scoped logger set by middleware", func(t *testing.T) {
		log, logs := newObservedLogger()
		engine := gin.New()
		engine.Use(GinMiddleware(log))
		engine.GET("/quotes", func(c *gin.Context) {
			GetGinLogger(c).Info("handler log")
			c.Status(http.StatusOK)
		})

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quotes", nil))

		entries := logs.FilterMessage("handler log").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "/quotes", entries[0].ContextMap()["path"])
	})

	t.Run("falls back to no-op without middleware", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.NotNil(t, GetGinLogger(c))
	})
}
