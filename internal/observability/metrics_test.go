package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saferoute/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ReportSubmitted("theft", "low")
	m.HelpfulMarked(true)
	m.Moderated("reports", "verify", 3)
	m.RateLimitHit()
	m.SetMapClients(2)
	assert.NotNil(t, m.Handler())
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/reports/:id/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/"+id+"/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	m.ReportSubmitted("theft", "high")
	m.HelpfulMarked(false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	text := string(body)
	assert.Contains(t, text, `saferoute_http_requests_total{method="GET",route="/reports/:id/",status="200"} 2`)
	assert.Contains(t, text, `saferoute_reports_submitted_total{category="theft",severity="high"} 1`)
	assert.Contains(t, text, `saferoute_helpful_marks_total{outcome="duplicate"} 1`)
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestInitTracing_None(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TelemetryConfig{TraceExporter: "none"}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(context.Background(), config.TelemetryConfig{TraceExporter: "zipkin"}, "test")
	assert.Error(t, err)
}
