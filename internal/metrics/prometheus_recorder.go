package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "next2gas"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	reg             *prom.Registry
	stageDuration   *prom.HistogramVec
	bundleDuration  prom.Histogram
	stageResults    *prom.CounterVec
	bundleOutcome   *prom.CounterVec
	commandDuration *prom.HistogramVec
	assetsEncoded   prom.Counter
	assetBytes      prom.Counter
	routes          prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual bundle stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.bundleDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_duration_seconds",
			Help:      "Total bundle duration",
			Buckets:   prom.ExponentialBuckets(1, 2, 10),
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.bundleOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_outcomes_total",
			Help:      "Bundle outcomes by final status",
		}, []string{"outcome"})
		pr.commandDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of external install/build commands",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}, []string{"command", "result"})
		pr.assetsEncoded = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "assets_encoded_total",
			Help:      "Static assets converted to data-URI sidecars",
		})
		pr.assetBytes = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Raw bytes of static assets encoded",
		})
		pr.routes = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Routes synthesized for the last bundle",
		})
		reg.MustRegister(pr.stageDuration, pr.bundleDuration, pr.stageResults, pr.bundleOutcome,
			pr.commandDuration, pr.assetsEncoded, pr.assetBytes, pr.routes)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBundleDuration(d time.Duration) {
	if p == nil || p.bundleDuration == nil {
		return
	}
	p.bundleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBundleOutcome(outcome string) {
	if p == nil || p.bundleOutcome == nil {
		return
	}
	p.bundleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveCommandDuration(command string, d time.Duration, success bool) {
	if p == nil || p.commandDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.commandDuration.WithLabelValues(command, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddAssetsEncoded(n int, bytes int64) {
	if p == nil || p.assetsEncoded == nil {
		return
	}
	p.assetsEncoded.Add(float64(n))
	p.assetBytes.Add(float64(bytes))
}

func (p *PrometheusRecorder) SetRouteCount(n int) {
	if p == nil || p.routes == nil {
		return
	}
	p.routes.Set(float64(n))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("metrics: write textfile %s: %w", path, err)
	}
	return nil
}
