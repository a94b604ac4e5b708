package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := newHTTPMetrics(prometheus.NewRegistry(), Config{})
	if err != nil {
		t.Fatalf("newHTTPMetrics: %v", err)
	}

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/sessions/:id", http.MethodGet, "200")); got != 3 {
		t.Fatalf("expected 3 requests on the route template, got %v", got)
	}
}
