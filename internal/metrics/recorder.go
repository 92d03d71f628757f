package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for bundle and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBundleDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBundleOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObserveCommandDuration(command string, d time.Duration, success bool)
	AddAssetsEncoded(n int, bytes int64)
	SetRouteCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)         {}
func (NoopRecorder) ObserveBundleDuration(time.Duration)                {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                 {}
func (NoopRecorder) IncBundleOutcome(string)                            {}
func (NoopRecorder) ObserveCommandDuration(string, time.Duration, bool) {}
func (NoopRecorder) AddAssetsEncoded(int, int64)                        {}
func (NoopRecorder) SetRouteCount(int)                                  {}
