package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLogin(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLogin(LoginFailed)
	m.RecordLogin(LoginFailed)
	m.RecordLogin(LoginSuccess)

	if got := testutil.ToFloat64(m.LoginAttempts.WithLabelValues(LoginFailed)); got != 2 {
		t.Errorf("failed logins = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LoginAttempts.WithLabelValues(LoginSuccess)); got != 1 {
		t.Errorf("successful logins = %v, want 1", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/users/:id", "204")); got != 1 {
		t.Errorf("request counter = %v, want 1", got)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hospital_auth_http_requests_total") {
		t.Error("metrics output should include the request counter")
	}
}
