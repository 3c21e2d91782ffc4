package commands

import (
	"context"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/history"
	"git.home.luguber.info/inful/sitesync/internal/runner"
)

// releasesTask runs one release sync and reports it as a runner outcome.
func releasesTask(name string, s *services) runner.Task {
	return runner.NewFuncTask(name, func(ctx context.Context) runner.Outcome {
		res, err := s.syncer.Sync(ctx)
		out := runner.ErrorOutcome(err)
		if res != nil {
			out.State = string(res.State)
			out.Version = res.RemoteVersion
			if err == nil && len(res.Failed) > 0 {
				out.Status = history.OutcomeWarning
				out.Detail = "some assets failed to download"
			}
		}
		return out
	})
}

// guidesTask crawls documentation and writes the catalog.
func guidesTask(name string, s *services) runner.Task {
	return runner.NewFuncTask(name, func(ctx context.Context) runner.Outcome {
		_, err := s.crawler.Run(ctx)
		return runner.ErrorOutcome(err)
	})
}

// buildEntries turns configured tasks into runner entries.
func buildEntries(tasks []config.TaskConfig, s *services) []runner.Entry {
	entries := make([]runner.Entry, 0, len(tasks))
	for _, t := range tasks {
		var task runner.Task
		switch t.Builtin {
		case config.BuiltinReleases:
			task = releasesTask(t.Name, s)
		case config.BuiltinGuides:
			task = guidesTask(t.Name, s)
		default:
			task = runner.NewCommandTask(t.Name, t.Command, t.Dir, t.Timeout)
		}
		entries = append(entries, runner.Entry{Task: task, Interval: t.Interval})
	}
	return entries
}

// runOnce executes task outside the schedule and records it like a runner tick.
func runOnce(ctx context.Context, s *services, task runner.Task) runner.Outcome {
	var out runner.Outcome
	captured := runner.NewFuncTask(task.Name(), func(ctx context.Context) runner.Outcome {
		out = task.Run(ctx)
		return out
	})
	runner.New(0, []runner.Entry{{Task: captured}}, runner.WithHistory(s.history)).Tick(ctx)
	return out
}
