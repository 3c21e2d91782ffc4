package metrics

import "time"

// ResultLabel enumerates task outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for fetches, tasks and release state.
type Recorder interface {
	IncFetchRetry(kind string)
	IncFetchExhausted(kind string)
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskOutcome(task string, result ResultLabel)
	IncAssetDownload(success bool)
	SetReleaseVersion(version string)
	SetCatalogDocuments(category string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFetchRetry(string)                      {}
func (NoopRecorder) IncFetchExhausted(string)                  {}
func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncAssetDownload(bool)                     {}
func (NoopRecorder) SetReleaseVersion(string)                  {}
func (NoopRecorder) SetCatalogDocuments(string, int)           {}
