package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/version"
)

// DefaultDocumentationOrder is the curated ordering of the primary documentation category.
var DefaultDocumentationOrder = []string{
	"Documentation-index",
	"Documentation-quick-start",
	"Documentation-installation",
	"Documentation-post-install",
	"Documentation-user-guide",
	"Documentation-server-integration",
	"Documentation-settings",
	"Documentation-faq",
	"Documentation-troubleshooting",
	"Documentation-privacy",
	"Documentation-release-channels",
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		&HTTPDefaultApplier{},
		&RetryDefaultApplier{},
		&GuidesDefaultApplier{},
		&ReleasesDefaultApplier{},
		&PublishDefaultApplier{},
		&ObservabilityDefaultApplier{},
		&RunnerDefaultApplier{},
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = "https://api.github.com"
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// HTTPDefaultApplier handles HTTP client defaults.
type HTTPDefaultApplier struct{}

func (h *HTTPDefaultApplier) Domain() string { return "http" }

func (h *HTTPDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = 15 * time.Second
	}
	// Release binaries are large; the request timeout covers the whole body transfer.
	if cfg.HTTP.DownloadTimeout <= 0 {
		cfg.HTTP.DownloadTimeout = 120 * time.Second
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = version.UserAgent()
	}
	if cfg.HTTP.RequestsPerSecond < 0 {
		cfg.HTTP.RequestsPerSecond = 0
	}
	return nil
}

// RetryDefaultApplier handles retry defaults (3 attempts, fixed 5s delay).
type RetryDefaultApplier struct{}

func (r *RetryDefaultApplier) Domain() string { return "retry" }

func (r *RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Delay <= 0 {
		cfg.Retry.Delay = 5 * time.Second
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffFixed
	}
	return nil
}

// GuidesDefaultApplier handles documentation crawler defaults.
type GuidesDefaultApplier struct{}

func (g *GuidesDefaultApplier) Domain() string { return "guides" }

func (g *GuidesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Guides.Directories) == 0 {
		cfg.Guides.Directories = []string{"Documentation", "CONTRIBUTING_GUIDE"}
	}
	if cfg.Guides.Extension == "" {
		cfg.Guides.Extension = ".md"
	}
	if cfg.Guides.Output == "" {
		cfg.Guides.Output = "guides.json"
	}
	if cfg.Guides.PrimaryCategory == "" {
		cfg.Guides.PrimaryCategory = "documentation"
	}
	if cfg.Guides.Order == nil {
		cfg.Guides.Order = append([]string(nil), DefaultDocumentationOrder...)
	}
	return nil
}

// ReleasesDefaultApplier handles release sync defaults.
type ReleasesDefaultApplier struct{}

func (r *ReleasesDefaultApplier) Domain() string { return "releases" }

func (r *ReleasesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Releases.PublicPath == "" {
		if cfg.Releases.Directory != "" {
			cfg.Releases.PublicPath = filepath.Base(cfg.Releases.Directory)
		} else {
			cfg.Releases.PublicPath = "releases"
		}
	}
	return nil
}

// PublishDefaultApplier handles git publish defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	g := &cfg.Publish.Git
	if g.Remote == "" {
		g.Remote = "origin"
	}
	if g.Pull == nil {
		v := true
		g.Pull = &v
	}
	if g.Push == nil {
		v := true
		g.Push = &v
	}
	if g.AuthorName == "" {
		g.AuthorName = "sitesync"
	}
	if g.AuthorEmail == "" {
		g.AuthorEmail = "sitesync@localhost.localdomain"
	}
	if g.Username == "" {
		g.Username = "x-access-token"
	}
	if g.Message == "" {
		g.Message = "Update releases to {version}"
	}
	return nil
}

// ObservabilityDefaultApplier handles notify, metrics and logging defaults.
type ObservabilityDefaultApplier struct{}

func (o *ObservabilityDefaultApplier) Domain() string { return "observability" }

func (o *ObservabilityDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = "sitesync.release.updated"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// RunnerDefaultApplier handles periodic runner defaults.
type RunnerDefaultApplier struct{}

func (r *RunnerDefaultApplier) Domain() string { return "runner" }

func (r *RunnerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Runner.PollInterval <= 0 {
		cfg.Runner.PollInterval = time.Minute
	}
	if cfg.Runner.Tasks == nil {
		cfg.Runner.Tasks = []TaskConfig{
			{Name: "releases", Interval: 2 * time.Hour, Builtin: BuiltinReleases},
			{Name: "cache-assets", Interval: 24 * time.Hour, Command: []string{"bash", "cache_assets.sh"}},
		}
	}
	return nil
}
