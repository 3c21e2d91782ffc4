package metrics

import (
	"testing"
	"time"
)

// compile-time interface checks
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncFetchRetry("raw")
	r.IncFetchExhausted("raw")
	r.ObserveTaskDuration("guides", time.Second)
	r.IncTaskOutcome("guides", ResultSkipped)
	r.IncAssetDownload(true)
	r.SetReleaseVersion("v1")
	r.SetCatalogDocuments("documentation", 1)
}
