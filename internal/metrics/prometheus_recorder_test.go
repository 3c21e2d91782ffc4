package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFetchRetry("api")
	pr.IncFetchRetry("api")
	pr.IncFetchExhausted("asset")
	pr.ObserveTaskDuration("releases", 150*time.Millisecond)
	pr.IncTaskOutcome("releases", ResultSuccess)
	pr.IncAssetDownload(true)
	pr.IncAssetDownload(false)
	pr.SetCatalogDocuments("documentation", 11)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.fetchRetries.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.fetchExhausted.WithLabelValues("asset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.taskOutcomes.WithLabelValues("releases", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.assetDownloads.WithLabelValues("failed")))
	assert.Equal(t, 11.0, testutil.ToFloat64(pr.catalogDocuments.WithLabelValues("documentation")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_ReleaseVersionReplacesSeries(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetReleaseVersion("v1.0.0")
	pr.SetReleaseVersion("v1.1.0")

	assert.Equal(t, 1, testutil.CollectAndCount(pr.releaseInfo))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.releaseInfo.WithLabelValues("v1.1.0")))
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncFetchRetry("api")
	pr.SetReleaseVersion("v1")
	pr.IncAssetDownload(true)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTaskOutcome("cache-assets", ResultFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `sitesync_task_runs_total{result="failed",task="cache-assets"} 1`), string(body))
}

func TestServer_ServesConfiguredPath(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetReleaseVersion("v3.1.0")

	srv, err := Listen("127.0.0.1:0", "/internal/metrics", reg)
	require.NoError(t, err)
	go srv.Serve()
	defer srv.Shutdown()

	resp, err := http.Get("http://" + srv.Addr() + "/internal/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `sitesync_release_info{version="v3.1.0"} 1`)

	missing, err := http.Get("http://" + srv.Addr() + DefaultPath)
	require.NoError(t, err)
	_ = missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
