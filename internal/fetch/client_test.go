package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/retry"
)

func testClient(attempts int) *Client {
	return New(Options{
		Timeout:         time.Second,
		DownloadTimeout: time.Second,
		UserAgent:       "sitesync-test",
		Policy:          retry.NewPolicy(config.RetryBackoffFixed, 0, time.Millisecond, attempts),
	})
}

type countingRecorder struct {
	retries   atomic.Int32
	exhausted atomic.Int32
}

func (r *countingRecorder) IncFetchRetry(string)                       { r.retries.Add(1) }
func (r *countingRecorder) IncFetchExhausted(string)                   { r.exhausted.Add(1) }
func (r *countingRecorder) ObserveTaskDuration(string, time.Duration)  {}
func (r *countingRecorder) IncTaskOutcome(string, metrics.ResultLabel) {}
func (r *countingRecorder) IncAssetDownload(bool)                      {}
func (r *countingRecorder) SetReleaseVersion(string)                   {}
func (r *countingRecorder) SetCatalogDocuments(string, int)            {}

func TestGet_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sitesync-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	c := testClient(3)
	WithRecorder(rec)(c)
	body, err := c.Get(context.Background(), Request{URL: srv.URL, Header: http.Header{"X-Test": {"yes"}}})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), rec.retries.Load())
	assert.Equal(t, int32(0), rec.exhausted.Load())
}

func TestGet_ExhaustedAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	c := testClient(3)
	WithRecorder(rec)(c)
	_, err := c.Get(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))

	var exhausted *retry.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(1), rec.exhausted.Load())
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(2).Get(context.Background(), Request{URL: url})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStatus))
}

func TestGet_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(3).Get(ctx, Request{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadToFile(t *testing.T) {
	payload := []byte("binary-asset-content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d, err := testClient(1).DownloadToFile(context.Background(), Request{URL: srv.URL}, dir, "app.apk")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app.apk"), d.Path)
	assert.Equal(t, int64(len(payload)), d.Size)
	assert.Equal(t, xxh3.Hash(payload), d.Checksum)

	got, err := os.ReadFile(d.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadToFile_FailureKeepsExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	_, err := testClient(2).DownloadToFile(context.Background(), Request{URL: srv.URL}, dir, "app.apk")
	require.Error(t, err)

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func trickleServer(t *testing.T, chunks int, gap time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for i := 0; i < chunks; i++ {
			_, _ = w.Write([]byte("chunk-"))
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(gap):
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadToFile_SlowStreamOutlastsTimeout(t *testing.T) {
	srv := trickleServer(t, 12, 50*time.Millisecond)
	c := New(Options{DownloadTimeout: 300 * time.Millisecond, Policy: retry.NewPolicy(config.RetryBackoffFixed, 0, time.Millisecond, 1)})

	start := time.Now()
	d, err := c.DownloadToFile(context.Background(), Request{URL: srv.URL}, t.TempDir(), "large.dmg")
	require.NoError(t, err)
	assert.Greater(t, time.Since(start), 300*time.Millisecond)
	assert.Equal(t, int64(12*len("chunk-")), d.Size)
}

func TestDownloadToFile_StallFails(t *testing.T) {
	srv := trickleServer(t, 2, 2*time.Second)
	c := New(Options{DownloadTimeout: 100 * time.Millisecond, Policy: retry.NewPolicy(config.RetryBackoffFixed, 0, time.Millisecond, 1)})

	dir := t.TempDir()
	_, err := c.DownloadToFile(context.Background(), Request{URL: srv.URL}, dir, "large.dmg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStalled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Options{Timeout: time.Second, RequestsPerSecond: 20, Policy: retry.NewPolicy(config.RetryBackoffFixed, 0, time.Millisecond, 1)})
	start := time.Now()
	for range 3 {
		_, err := c.Get(context.Background(), Request{URL: srv.URL})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
