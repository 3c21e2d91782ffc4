package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
)

// ErrStalled reports a download that received no bytes for DownloadTimeout.
var ErrStalled = errors.New("download stalled")

// Download describes a file written by DownloadToFile.
type Download struct {
	Path     string
	Size     int64
	Checksum uint64 // xxh3-64 of the content
	Elapsed  time.Duration
}

// DownloadToFile streams req.URL into dir/name. Content goes to a temporary
// file in dir that is renamed over the destination only after the body was
// read completely; on failure the destination is left untouched.
// DownloadTimeout bounds the wait for headers and each gap between reads, not
// the whole transfer.
func (c *Client) DownloadToFile(ctx context.Context, req Request, dir, name string) (*Download, error) {
	if req.Kind == "" {
		req.Kind = KindAsset
	}
	dest := filepath.Join(dir, name)
	start := time.Now()
	var result *Download
	err := c.do(ctx, req, func(ctx context.Context, attempt int) error {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)
		watchdog := time.AfterFunc(c.opts.DownloadTimeout, func() { cancel(ErrStalled) })
		defer watchdog.Stop()
		d, err := c.downloadOnce(ctx, req, dir, dest, func() { watchdog.Reset(c.opts.DownloadTimeout) })
		if err != nil {
			if errors.Is(context.Cause(ctx), ErrStalled) {
				return fmt.Errorf("%w after %s: %w", ErrStalled, c.opts.DownloadTimeout, err)
			}
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

func (c *Client) downloadOnce(ctx context.Context, req Request, dir, dest string, progress func()) (*Download, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := xxh3.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), &progressReader{r: resp.Body, progress: progress})
	if err != nil {
		return nil, fmt.Errorf("stream body: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return nil, fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return nil, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return &Download{Path: dest, Size: n, Checksum: h.Sum64()}, nil
}

// progressReader calls progress after every read that returned data.
type progressReader struct {
	r        io.Reader
	progress func()
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.progress()
	}
	return n, err
}
