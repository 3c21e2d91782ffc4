// Package releases mirrors the latest upstream release into a local directory
// and publishes a manifest describing it.
package releases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/artifact"
	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/forge"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
)

// State is a step of a sync run.
type State string

const (
	StateCheckRemote     State = "CHECK_REMOTE"
	StateCompareVersion  State = "COMPARE_VERSION"
	StateUpToDate        State = "UP_TO_DATE"
	StateDownloading     State = "DOWNLOADING"
	StateManifestWritten State = "MANIFEST_WRITTEN"
	StateAborted         State = "ABORTED"
	StateCleanup         State = "CLEANUP"
)

var (
	// ErrNoRemoteVersion is returned when the latest release has no tag.
	ErrNoRemoteVersion = errors.New("latest release has no tag name")
	// ErrNoAssetsDownloaded is returned when not a single asset could be stored.
	ErrNoAssetsDownloaded = errors.New("no release assets downloaded")
)

// Source provides the latest release and its assets.
type Source interface {
	LatestRelease(ctx context.Context) (*forge.Release, error)
	DownloadAsset(ctx context.Context, a forge.Asset, dir string) (*fetch.Download, error)
}

// Hook runs after a sync published a new version. Hook errors are logged and
// never change the sync outcome.
type Hook interface {
	Name() string
	ReleaseUpdated(ctx context.Context, res *Result) error
}

// Preparer is implemented by hooks that need to run before the remote check,
// such as refreshing a checkout that holds the manifest. Failures are logged.
type Preparer interface {
	PrepareSync(ctx context.Context) error
}

// Options configures a Syncer.
type Options struct {
	Directory  string
	Manifest   string
	PublicPath string
	Force      bool
	Artifact   artifact.Options
}

// OptionsFromConfig maps the releases configuration section.
func OptionsFromConfig(cfg config.ReleasesConfig) Options {
	return Options{
		Directory:  cfg.Directory,
		Manifest:   cfg.Manifest,
		PublicPath: cfg.PublicPath,
		Artifact:   artifact.Options{Precompress: cfg.Precompress},
	}
}

// Result describes a finished sync.
type Result struct {
	State         State
	Transitions   []State
	RemoteVersion string
	LocalVersion  string
	Manifest      Manifest
	Failed        []string
	Removed       []string
	Duration      time.Duration
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
	slog.Debug("Release sync state", logfields.State(string(s)))
}

// Syncer runs the release sync.
type Syncer struct {
	src      Source
	opts     Options
	recorder metrics.Recorder
	hooks    []Hook
}

// NewSyncer creates a Syncer. A nil recorder disables metrics.
func NewSyncer(src Source, opts Options, recorder metrics.Recorder, hooks ...Hook) *Syncer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Syncer{src: src, opts: opts, recorder: recorder, hooks: hooks}
}

// Sync checks the latest release and, when its version differs from the
// local manifest, downloads its assets, rewrites the manifest and removes
// files that are not part of the new release. Nothing on disk changes unless
// at least one asset was downloaded.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	defer func() { res.Duration = time.Since(start) }()

	for _, h := range s.hooks {
		if p, ok := h.(Preparer); ok {
			if err := p.PrepareSync(ctx); err != nil {
				slog.Error("Pre-sync hook failed", slog.String("hook", h.Name()), logfields.Error(err))
			}
		}
	}

	res.enter(StateCheckRemote)
	rel, err := s.src.LatestRelease(ctx)
	if err != nil {
		return res, ferrors.WrapError(err, ferrors.CategoryRelease, "cannot determine remote version").NextTick().Build()
	}
	if rel.TagName == "" {
		return res, ferrors.ReleaseError("cannot determine remote version").WithCause(ErrNoRemoteVersion).Build()
	}
	res.RemoteVersion = rel.TagName
	slog.Info("Latest remote release", logfields.Version(rel.TagName), logfields.Count(len(rel.Assets)))

	res.enter(StateCompareVersion)
	local, err := LocalVersion(s.opts.Manifest)
	if err != nil {
		slog.Warn("Local manifest unreadable, treating as no local version", logfields.Path(s.opts.Manifest), logfields.Error(err))
	}
	res.LocalVersion = local
	if local == rel.TagName && !s.opts.Force {
		res.enter(StateUpToDate)
		s.recorder.SetReleaseVersion(local)
		slog.Info("Release is up to date", logfields.Version(local))
		return res, nil
	}
	slog.Info("New release found", slog.String("local", local), slog.String("remote", rel.TagName), slog.Bool("force", s.opts.Force))

	res.enter(StateDownloading)
	s.ensureDirectory()
	snapshot, err := listFiles(s.opts.Directory)
	if err != nil {
		res.enter(StateAborted)
		return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read release directory").
			WithContext("path", s.opts.Directory).
			Build()
	}
	if len(rel.Assets) == 0 {
		res.enter(StateAborted)
		return res, ferrors.ReleaseError("release has no assets").WithCause(ErrNoAssetsDownloaded).
			WithContext("version", rel.TagName).
			Build()
	}

	downloaded := map[string]bool{}
	for _, a := range rel.Assets {
		if a.Name == "" || a.BrowserDownloadURL == "" {
			continue
		}
		if filepath.Base(a.Name) != a.Name || a.Name == "." || a.Name == ".." {
			slog.Warn("Skipping asset with unsafe name", logfields.Asset(a.Name))
			continue
		}
		if downloaded[a.Name] {
			continue
		}
		d, err := s.src.DownloadAsset(ctx, a, s.opts.Directory)
		if err != nil {
			if ctx.Err() != nil {
				res.enter(StateAborted)
				return res, ctx.Err()
			}
			s.recorder.IncAssetDownload(false)
			res.Failed = append(res.Failed, a.Name)
			slog.Error("Asset download failed", logfields.Asset(a.Name), logfields.Error(err))
			continue
		}
		s.recorder.IncAssetDownload(true)
		downloaded[a.Name] = true
		res.Manifest = append(res.Manifest, NewRecord(a.Name, rel.TagName, s.opts.PublicPath))
		slog.Info("Asset downloaded",
			logfields.Asset(a.Name),
			slog.Int64("bytes", d.Size),
			slog.String("xxh3", fmt.Sprintf("%016x", d.Checksum)),
			logfields.DurationMS(float64(d.Elapsed.Milliseconds())))
	}

	if len(res.Manifest) == 0 {
		res.enter(StateAborted)
		return res, ferrors.ReleaseError("no assets were downloaded, keeping previous release").
			WithCause(ErrNoAssetsDownloaded).
			WithContext("version", rel.TagName).
			Build()
	}

	if err := WriteManifest(s.opts.Manifest, res.Manifest, s.opts.Artifact); err != nil {
		res.enter(StateAborted)
		return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", s.opts.Manifest).
			Build()
	}
	res.enter(StateManifestWritten)
	s.recorder.SetReleaseVersion(rel.TagName)
	slog.Info("Manifest written", logfields.Path(s.opts.Manifest), logfields.Version(rel.TagName), logfields.Count(len(res.Manifest)))

	res.enter(StateCleanup)
	res.Removed = s.cleanup(snapshot, downloaded)

	for _, h := range s.hooks {
		if err := h.ReleaseUpdated(ctx, res); err != nil {
			slog.Error("Post-sync hook failed", slog.String("hook", h.Name()), logfields.Error(err))
		}
	}
	return res, nil
}

func (s *Syncer) ensureDirectory() {
	if _, err := os.Stat(s.opts.Directory); err == nil {
		return
	}
	if err := os.MkdirAll(s.opts.Directory, 0o755); err != nil {
		slog.Error("Cannot create release directory", logfields.Path(s.opts.Directory), logfields.Error(err))
	}
}

// cleanup removes snapshot files not part of the new download set. The
// manifest and its compressed sibling are kept when they live in the
// release directory.
func (s *Syncer) cleanup(snapshot []string, downloaded map[string]bool) []string {
	keep := map[string]bool{}
	if abs, err := filepath.Abs(s.opts.Manifest); err == nil {
		if dir, err := filepath.Abs(s.opts.Directory); err == nil && filepath.Dir(abs) == dir {
			keep[filepath.Base(abs)] = true
			keep[filepath.Base(abs)+".gz"] = true
		}
	}
	var removed []string
	for _, name := range snapshot {
		if downloaded[name] || keep[name] {
			continue
		}
		p := filepath.Join(s.opts.Directory, name)
		if err := os.Remove(p); err != nil {
			slog.Error("Failed to delete stale file", logfields.Path(p), logfields.Error(err))
			continue
		}
		removed = append(removed, name)
		slog.Info("Deleted stale file", logfields.Path(p))
	}
	if len(removed) == 0 {
		slog.Info("No stale files to clean up")
	}
	return removed
}

// listFiles returns the regular file names in dir, sorted. A missing
// directory is empty.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
