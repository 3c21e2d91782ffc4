// Package metrics provides the observability hooks used by sitesync tasks.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check:
//
//	client := fetch.New(opts)                      // NoopRecorder
//	client := fetch.New(opts, fetch.WithRecorder(rec)) // Prometheus
//
// The runner builds a PrometheusRecorder and serves it through Listen when
// metrics.listen is configured; one-shot commands keep the NoopRecorder.
package metrics
