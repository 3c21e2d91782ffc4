package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchRetries     *prom.CounterVec
	fetchExhausted   *prom.CounterVec
	taskDuration     *prom.HistogramVec
	taskOutcomes     *prom.CounterVec
	assetDownloads   *prom.CounterVec
	releaseInfo      *prom.GaugeVec
	catalogDocuments *prom.GaugeVec

	mu             sync.Mutex
	currentVersion string
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "fetch_retries_total",
			Help:      "HTTP fetch attempts that failed and were retried",
		}, []string{"kind"}),
		fetchExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "fetch_exhausted_total",
			Help:      "HTTP fetches that failed after all attempts",
		}, []string{"kind"}),
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitesync",
			Name:      "task_duration_seconds",
			Help:      "Duration of scheduled task runs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"task"}),
		taskOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "task_runs_total",
			Help:      "Task runs by outcome",
		}, []string{"task", "result"}),
		assetDownloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitesync",
			Name:      "release_asset_downloads_total",
			Help:      "Release asset downloads by result",
		}, []string{"result"}),
		releaseInfo: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sitesync",
			Name:      "release_info",
			Help:      "Currently published release version (value is always 1)",
		}, []string{"version"}),
		catalogDocuments: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sitesync",
			Name:      "catalog_documents",
			Help:      "Documents in the last written catalog by category",
		}, []string{"category"}),
	}
	reg.MustRegister(pr.fetchRetries, pr.fetchExhausted, pr.taskDuration, pr.taskOutcomes,
		pr.assetDownloads, pr.releaseInfo, pr.catalogDocuments)
	return pr
}

func (p *PrometheusRecorder) IncFetchRetry(kind string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncFetchExhausted(kind string) {
	if p == nil {
		return
	}
	p.fetchExhausted.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskOutcome(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskOutcomes.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) IncAssetDownload(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.assetDownloads.WithLabelValues(res).Inc()
}

// SetReleaseVersion keeps exactly one version series alive.
func (p *PrometheusRecorder) SetReleaseVersion(version string) {
	if p == nil || version == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentVersion != "" && p.currentVersion != version {
		p.releaseInfo.DeleteLabelValues(p.currentVersion)
	}
	p.currentVersion = version
	p.releaseInfo.WithLabelValues(version).Set(1)
}

func (p *PrometheusRecorder) SetCatalogDocuments(category string, n int) {
	if p == nil {
		return
	}
	p.catalogDocuments.WithLabelValues(category).Set(float64(n))
}
