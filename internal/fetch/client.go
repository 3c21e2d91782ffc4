// Package fetch performs outbound HTTP requests with bounded retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/sitesync/internal/config"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/retry"
	"git.home.luguber.info/inful/sitesync/internal/version"
)

// ErrStatus matches any StatusError via errors.Is.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Request kinds used as metric labels.
const (
	KindAPI   = "api"
	KindRaw   = "raw"
	KindAsset = "asset"
)

// Request describes one GET.
type Request struct {
	URL    string
	Header http.Header
	Kind   string
}

// Options configures a Client.
type Options struct {
	Timeout           time.Duration
	DownloadTimeout   time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Policy            retry.Policy
}

// Option customizes a Client.
type Option func(*Client)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client issues GET requests with retry and optional rate limiting.
type Client struct {
	http     *http.Client
	opts     Options
	limiter  *rate.Limiter
	recorder metrics.Recorder
}

// New builds a Client. Per-request deadlines come from Options, not from http.Client.Timeout.
func New(opts Options, extra ...Option) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 2 * time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	c := &Client{
		http:     &http.Client{},
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		recorder: metrics.NoopRecorder{},
	}
	for _, o := range extra {
		o(c)
	}
	return c
}

// FromConfig builds a Client from the http and retry configuration sections.
func FromConfig(cfg *config.Config, extra ...Option) *Client {
	return New(Options{
		Timeout:           cfg.HTTP.Timeout,
		DownloadTimeout:   cfg.HTTP.DownloadTimeout,
		UserAgent:         cfg.HTTP.UserAgent,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Policy:            retry.FromConfig(cfg.Retry),
	}, extra...)
}

// Get fetches req.URL and returns the full body. After the final failed
// attempt the returned error wraps *retry.ExhaustedError.
func (c *Client) Get(ctx context.Context, req Request) ([]byte, error) {
	var body []byte
	err := c.do(ctx, req, func(ctx context.Context, attempt int) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
		resp, err := c.send(ctx, req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, req Request, fn func(ctx context.Context, attempt int) error) error {
	kind := req.Kind
	if kind == "" {
		kind = KindAPI
	}
	onRetry := retry.OnRetry(func(attempt int, err error, wait time.Duration) {
		c.recorder.IncFetchRetry(kind)
		slog.Warn("Request failed, retrying",
			logfields.URL(req.URL),
			logfields.Attempt(attempt),
			slog.Duration("wait", wait),
			logfields.Error(err))
	})
	err := retry.Do(ctx, c.opts.Policy, fn, onRetry)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.recorder.IncFetchExhausted(kind)
	return ferrors.WrapError(err, ferrors.CategoryNetwork, "request failed").
		Retryable().
		WithContext("url", req.URL).
		Build()
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: req.URL, Code: resp.StatusCode}
	}
	return resp, nil
}
