package metrics

import "time"

// NoopMetrics discards everything; used when METRICS_ENABLED is false.
type NoopMetrics struct{}

var _ Recorder = (*NoopMetrics)(nil)

func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordTokenIssued(string, string, time.Duration) {}
func (n *NoopMetrics) RecordGrantFailure(string, string)               {}
func (n *NoopMetrics) RecordClientAuthFailure(string)                  {}
func (n *NoopMetrics) RecordTokenRevoked(string, string)               {}
func (n *NoopMetrics) RecordTokenValidation(string)                    {}
func (n *NoopMetrics) SetActiveTokensCount(string, int)                {}
func (n *NoopMetrics) RecordDatabaseQueryError(string)                 {}
