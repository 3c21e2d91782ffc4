// Package guides crawls repository documentation into the catalog consumed by
// the website.
package guides

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/artifact"
	"git.home.luguber.info/inful/sitesync/internal/config"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/forge"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/markdown"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
)

// Source lists and downloads repository documents.
type Source interface {
	ListFiles(ctx context.Context, dir, ext string) ([]forge.ContentEntry, error)
	RawFile(ctx context.Context, e forge.ContentEntry) ([]byte, error)
}

// Options configures a Crawler.
type Options struct {
	Directories     []string
	Extension       string
	PrimaryCategory string
	Order           []string
	Output          string
	Artifact        artifact.Options
}

// OptionsFromConfig maps the guides configuration section.
func OptionsFromConfig(cfg config.GuidesConfig) Options {
	return Options{
		Directories:     cfg.Directories,
		Extension:       cfg.Extension,
		PrimaryCategory: cfg.PrimaryCategory,
		Order:           cfg.Order,
		Output:          cfg.Output,
		Artifact:        artifact.Options{Precompress: cfg.Precompress},
	}
}

// Result describes a completed crawl.
type Result struct {
	Catalog  *Catalog
	Report   ChangeReport
	Output   string
	Duration time.Duration
}

// Crawler builds catalogs from a Source.
type Crawler struct {
	src      Source
	opts     Options
	recorder metrics.Recorder
}

// NewCrawler creates a crawler. A nil recorder disables metrics.
func NewCrawler(src Source, opts Options, recorder metrics.Recorder) *Crawler {
	if opts.Extension == "" {
		opts.Extension = markdown.DefaultExtension
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Crawler{src: src, opts: opts, recorder: recorder}
}

// Crawl lists every configured directory and processes its documents.
// Per-file failures are logged and skipped; a directory without documents
// produces no category.
func (c *Crawler) Crawl(ctx context.Context) (*Catalog, error) {
	catalog := NewCatalog()
	for _, dir := range c.opts.Directories {
		slog.Info("Crawling directory", logfields.Path(dir))
		files, err := c.src.ListFiles(ctx, dir, c.opts.Extension)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			slog.Warn("No documents found", logfields.Path(dir))
			continue
		}
		slog.Info("Found documents", logfields.Path(dir), logfields.Count(len(files)))

		entries := make([]Entry, 0, len(files))
		for _, f := range files {
			e, err := c.process(ctx, f)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				slog.Error("Failed to process document", logfields.Path(f.Path), logfields.DocID(markdown.EntryID(f.Path)), logfields.Error(err))
				continue
			}
			entries = append(entries, e)
		}

		key := CategoryKey(dir)
		SortEntries(entries, key, c.opts.PrimaryCategory, c.opts.Order)
		catalog.Set(key, entries)
		c.recorder.SetCatalogDocuments(key, len(entries))
	}
	return catalog, nil
}

func (c *Crawler) process(ctx context.Context, f forge.ContentEntry) (Entry, error) {
	id := markdown.EntryID(f.Path)
	slog.Debug("Processing document", logfields.Path(f.Path), logfields.DocID(id))
	raw, err := c.src.RawFile(ctx, f)
	if err != nil {
		return Entry{}, err
	}
	content := markdown.RewriteLinks(string(raw), f.Path)
	return Entry{
		ID:      id,
		Name:    markdown.ExtractTitle([]byte(content), f.Path),
		Content: content,
	}, nil
}

// Run crawls, compares against the catalog currently on disk and writes the
// new catalog to the configured output.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	catalog, err := c.Crawl(ctx)
	if err != nil {
		return nil, err
	}

	prev, err := LoadEntries(c.opts.Output)
	if err != nil {
		slog.Warn("Ignoring unreadable previous catalog", logfields.Path(c.opts.Output), logfields.Error(err))
		prev = map[string][]Entry{}
	}
	report := Compare(prev, catalog)

	if err := artifact.WriteJSON(c.opts.Output, catalog, c.opts.Artifact); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write catalog").
			WithContext("path", c.opts.Output).
			Build()
	}

	res := &Result{Catalog: catalog, Report: report, Output: c.opts.Output, Duration: time.Since(start)}
	slog.Info("Catalog written",
		logfields.Path(c.opts.Output),
		slog.Int("categories", len(catalog.Keys())),
		logfields.Count(catalog.Len()),
		slog.Int("added", report.Added),
		slog.Int("changed", report.Changed),
		slog.Int("removed", report.Removed),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}
