// Package metrics provides observability hooks for next2gas bundle runs.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default; PrometheusRecorder is activated when the CLI is asked for a
// metrics file, and its registry is written once at the end of the run in the
// node_exporter textfile format:
//
//	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	p := pipeline.New(cfg, pipeline.WithRecorder(rec))
//	...
//	_ = rec.WriteTextfile("next2gas.prom")
package metrics
