package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a recording tracer provider for the test.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func newTracedRouter(status int) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(TracingWithConfig(TracingConfig{ServiceName: "test-service", Enabled: true}))
	r.Use(TracingAttributeInjector())
	r.Use(SpanErrorMarker())
	r.GET("/leases/:id", func(c *gin.Context) {
		c.Status(status)
	})
	return r
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_TagsRequestID(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/leases/abc", nil)
	req.Header.Set(RequestIDHeader, "req-trace")
	w := httptest.NewRecorder()
	newTracedRouter(http.StatusOK).ServeHTTP(w, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/leases/:id")

	v, ok := spanAttr(spans[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-trace", v.AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestSpanErrorMarker(t *testing.T) {
	t.Run("5xx marks the span as error", func(t *testing.T) {
		sr := setupTestTracer(t)
		w := httptest.NewRecorder()
		newTracedRouter(http.StatusInternalServerError).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leases/x", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("4xx records the status only", func(t *testing.T) {
		sr := setupTestTracer(t)
		w := httptest.NewRecorder()
		newTracedRouter(http.StatusConflict).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leases/x", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		v, ok := spanAttr(spans[0], "http.status_code")
		require.True(t, ok)
		assert.Equal(t, int64(http.StatusConflict), v.AsInt64())
	})
}
