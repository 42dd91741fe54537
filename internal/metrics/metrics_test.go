package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "disabled metrics must be a NoopMetrics")
}

func TestInit(t *testing.T) {
	m1 := Init(true)
	m2 := Init(true)

	_, ok := m1.(*Metrics)
	assert.True(t, ok)
	assert.Same(t, m1, m2, "collectors must only be registered once")
	assert.Same(t, m1, GetMetrics())
}

func TestRecordTokenIssued(t *testing.T) {
	m := newTestMetrics()

	m.RecordTokenIssued("access", "password", 3*time.Millisecond)
	m.RecordTokenIssued("refresh", "password", 3*time.Millisecond)
	m.RecordTokenIssued("access", "client_credentials", time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("access", "password")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("refresh", "password")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.TokenGenerationDuration))
}

func TestRecordGrantFailure(t *testing.T) {
	m := newTestMetrics()

	m.RecordGrantFailure("refresh_token", "invalid_grant")
	m.RecordGrantFailure("refresh_token", "invalid_grant")

	assert.InDelta(t, 2,
		testutil.ToFloat64(m.GrantFailuresTotal.WithLabelValues("refresh_token", "invalid_grant")), 0)
}

func TestRecordClientAuthFailure(t *testing.T) {
	m := newTestMetrics()
	m.RecordClientAuthFailure("client_credentials")

	assert.InDelta(t, 1, testutil.ToFloat64(m.ClientAuthFailuresTotal.WithLabelValues("client_credentials")), 0)
}

func TestRecordTokenRevokedAndValidation(t *testing.T) {
	m := newTestMetrics()

	m.RecordTokenRevoked("access", "client_request")
	m.RecordTokenValidation("valid")
	m.RecordTokenValidation("expired")
	m.RecordTokenValidation("expired")

	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensRevokedTotal.WithLabelValues("access", "client_request")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.TokenValidationTotal.WithLabelValues("expired")), 0)
}

func TestSetActiveTokensCount(t *testing.T) {
	m := newTestMetrics()

	m.SetActiveTokensCount("access", 10)
	m.SetActiveTokensCount("access", 4)

	assert.InDelta(t, 4, testutil.ToFloat64(m.TokensActive.WithLabelValues("access")), 0)
}

func TestRecordDatabaseQueryError(t *testing.T) {
	m := newTestMetrics()
	m.RecordDatabaseQueryError("issue_tokens")

	assert.InDelta(t, 1, testutil.ToFloat64(m.DatabaseQueryErrorsTotal.WithLabelValues("issue_tokens")), 0)
}

func TestNoopMetrics(t *testing.T) {
	n := NewNoopMetrics()
	assert.NotPanics(t, func() {
		n.RecordTokenIssued("access", "password", time.Second)
		n.RecordGrantFailure("password", "invalid_grant")
		n.RecordClientAuthFailure("password")
		n.RecordTokenRevoked("access", "x")
		n.RecordTokenValidation("valid")
		n.SetActiveTokensCount("access", 1)
		n.RecordDatabaseQueryError("op")
	})
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unknown", normalizePath(""))
	assert.Equal(t, "/oauth/token", normalizePath("/oauth/token"))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics()

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.POST("/oauth/token", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/oauth/token", "/oauth/token", "/metrics"} {
		method := http.MethodPost
		if path == "/metrics" {
			method = http.MethodGet
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	}

	assert.InDelta(t, 2,
		testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/oauth/token", "400")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.HTTPRequestsInFlight), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestsTotal), "/metrics must not be recorded")
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
