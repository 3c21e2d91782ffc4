package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/forge"
	"git.home.luguber.info/inful/sitesync/internal/guides"
	"git.home.luguber.info/inful/sitesync/internal/history"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/notify"
	"git.home.luguber.info/inful/sitesync/internal/publish"
	"git.home.luguber.info/inful/sitesync/internal/releases"
)

// services wires the components a command needs from one configuration.
type services struct {
	cfg     *config.Config
	github  *forge.GitHubClient
	crawler *guides.Crawler
	syncer  *releases.Syncer
	history history.Store
	closers []func()
}

func newServices(cfg *config.Config, rec metrics.Recorder, force bool) *services {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	s := &services{cfg: cfg, history: history.NoopStore{}}

	fc := fetch.FromConfig(cfg, fetch.WithRecorder(rec))
	s.github = forge.NewGitHubClient(cfg.GitHub, fc)
	s.crawler = guides.NewCrawler(s.github, guides.OptionsFromConfig(cfg.Guides), rec)

	var hooks []releases.Hook
	if cfg.Publish.Git.Enabled {
		hooks = append(hooks, publish.NewGitPublisher(cfg.Publish.Git))
	}
	if cfg.Notify.NATS.URL != "" {
		n, err := notify.Connect(cfg.Notify.NATS, s.github.Repository())
		if err != nil {
			slog.Warn("NATS notifications disabled", logfields.Error(err))
		} else {
			hooks = append(hooks, n)
			s.closers = append(s.closers, n.Close)
		}
	}
	opts := releases.OptionsFromConfig(cfg.Releases)
	opts.Force = force
	s.syncer = releases.NewSyncer(s.github, opts, rec, hooks...)

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("Run history disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			s.history = store
			s.closers = append(s.closers, func() { _ = store.Close() })
		}
	}
	return s
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
