package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Token issuance
	RecordTokenIssued(tokenType, grantType string, generationTime time.Duration)
	RecordGrantFailure(grantType, errorCode string)
	RecordClientAuthFailure(grantType string)

	// Token lifecycle
	RecordTokenRevoked(tokenType, reason string)
	RecordTokenValidation(result string)

	// Gauge Setters (for periodic updates)
	SetActiveTokensCount(tokenType string, count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the metrics cache wrapper.
type MetricsStore interface {
	CountActiveTokensByCategory(category string) (int64, error)
}
