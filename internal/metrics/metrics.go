package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/go-authgate/tokenserver/internal/core"
)

// Recorder is the interface the services record against.
type Recorder = core.Recorder

var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus collectors of the token server.
type Metrics struct {
	// Token endpoint
	TokensIssuedTotal       *prometheus.CounterVec
	TokenGenerationDuration *prometheus.HistogramVec
	GrantFailuresTotal      *prometheus.CounterVec
	ClientAuthFailuresTotal *prometheus.CounterVec

	// Token lifecycle
	TokensRevokedTotal   *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec
	TokensActive         *prometheus.GaugeVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the process-wide Prometheus recorder registered on the default
// registry, or a NoopMetrics when disabled. Collectors are registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// GetMetrics returns the default Metrics, or nil before Init(true).
func GetMetrics() *Metrics {
	return defaultMetrics
}

// NewMetrics registers a fresh set of collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TokensIssuedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"token_type", "grant_type"},
		),
		TokenGenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth_token_generation_duration_seconds",
				Help:    "Time spent signing and persisting a token response",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"grant_type"},
		),
		GrantFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_grant_failures_total",
				Help: "Token requests rejected, by grant and OAuth error code",
			},
			[]string{"grant_type", "error"},
		),
		ClientAuthFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_client_auth_failures_total",
				Help: "Client authentication failures on the token endpoint",
			},
			[]string{"grant_type"},
		),
		TokensRevokedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
			[]string{"token_type", "reason"},
		),
		TokenValidationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_token_validation_total",
				Help: "Access token validations by result",
			},
			[]string{"result"},
		),
		TokensActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oauth_tokens_active",
				Help: "Unrevoked, unexpired tokens in the store",
			},
			[]string{"token_type"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests being served",
			},
		),
		DatabaseQueryErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Database operations that returned an error",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) RecordTokenIssued(tokenType, grantType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType, grantType).Inc()
	// Observed once per response, on the access token.
	if tokenType == "access" {
		m.TokenGenerationDuration.WithLabelValues(grantType).Observe(generationTime.Seconds())
	}
}

func (m *Metrics) RecordGrantFailure(grantType, errorCode string) {
	m.GrantFailuresTotal.WithLabelValues(grantType, errorCode).Inc()
}

func (m *Metrics) RecordClientAuthFailure(grantType string) {
	m.ClientAuthFailuresTotal.WithLabelValues(grantType).Inc()
}

func (m *Metrics) RecordTokenRevoked(tokenType, reason string) {
	m.TokensRevokedTotal.WithLabelValues(tokenType, reason).Inc()
}

func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveTokensCount(tokenType string, count int) {
	m.TokensActive.WithLabelValues(tokenType).Set(float64(count))
}

func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
