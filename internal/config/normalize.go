package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated and free-form fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}
	normalizeRetry(&c.Retry, res)
	normalizeLogging(&c.Logging, res)
	normalizeGuides(&c.Guides, res)
	normalizeRunner(&c.Runner, res)
	c.GitHub.APIURL = strings.TrimRight(strings.TrimSpace(c.GitHub.APIURL), "/")
	return res
}

func normalizeRetry(r *RetryConfig, res *NormalizationResult) {
	if rb := NormalizeRetryBackoff(string(r.Backoff)); rb != "" {
		if r.Backoff != rb {
			res.Warnings = append(res.Warnings, warnChanged("retry.backoff", r.Backoff, rb))
			r.Backoff = rb
		}
	} else if strings.TrimSpace(string(r.Backoff)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("retry.backoff", string(r.Backoff), string(RetryBackoffFixed)))
		r.Backoff = RetryBackoffFixed
	}
	if r.MaxAttempts < 0 {
		r.MaxAttempts = 0
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if string(l.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if string(l.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func normalizeGuides(g *GuidesConfig, res *NormalizationResult) {
	ext := strings.TrimSpace(g.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		res.Warnings = append(res.Warnings, warnChanged("guides.extension", g.Extension, "."+ext))
		ext = "." + ext
	}
	g.Extension = ext
	dirs := g.Directories[:0]
	for _, d := range g.Directories {
		d = strings.Trim(strings.TrimSpace(d), "/")
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	g.Directories = dirs
}

func normalizeRunner(r *RunnerConfig, res *NormalizationResult) {
	for i := range r.Tasks {
		t := &r.Tasks[i]
		t.Name = strings.TrimSpace(t.Name)
		if t.Builtin != "" {
			b := BuiltinTask(strings.ToLower(strings.TrimSpace(string(t.Builtin))))
			if b != t.Builtin {
				res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("runner.tasks[%d].builtin", i), t.Builtin, b))
				t.Builtin = b
			}
		}
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
