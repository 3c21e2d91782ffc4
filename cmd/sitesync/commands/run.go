package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitesync/internal/config"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
	"git.home.luguber.info/inful/sitesync/internal/runner"
)

// RunCmd runs the configured tasks until interrupted.
type RunCmd struct {
	NoWatch  bool          `name:"no-watch" help:"Do not reload task intervals when the config file changes"`
	Debounce time.Duration `help:"Delay before applying config file changes" default:"1s"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Runner.Tasks) == 0 {
		return ferrors.ConfigError("no tasks configured").WithContext("path", root.Config).Build()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Listen != "" {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		srv, err := metrics.Listen(cfg.Metrics.Listen, cfg.Metrics.Path, reg)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to listen for metrics").
				WithContext("listen", cfg.Metrics.Listen).
				Build()
		}
		go srv.Serve()
		defer srv.Shutdown()
	}

	svc := newServices(cfg, rec, false)
	defer svc.Close()

	run := runner.New(cfg.Runner.PollInterval, buildEntries(cfg.Runner.Tasks, svc),
		runner.WithHistory(svc.history),
		runner.WithRecorder(rec),
	)

	if !r.NoWatch {
		watcher, err := runner.NewConfigWatcher(root.Config, r.Debounce, func(next *config.Config) {
			intervals := make(map[string]time.Duration, len(next.Runner.Tasks))
			for _, t := range next.Runner.Tasks {
				intervals[t.Name] = t.Interval
			}
			run.UpdateIntervals(intervals)
		})
		if err != nil {
			slog.Warn("Config watching disabled", logfields.Error(err))
		} else if err := watcher.Start(ctx); err != nil {
			slog.Warn("Config watching disabled", logfields.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	return run.Run(ctx)
}
