// Package commands implements the sitesync command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitesync/internal/config"
)

// Global carries state shared by every command.
type Global struct{}

// CLI definition & global flags.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"sitesync.yaml" type:"path"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
	LogFormat string `name:"log-format" help:"Log output format (text|json); overrides logging.format"`

	Guides   GuidesCmd   `cmd:"" help:"Crawl repository documentation into the guides catalog"`
	Releases ReleasesCmd `cmd:"" help:"Mirror the latest release assets and rewrite the manifest"`
	Run      RunCmd      `cmd:"" help:"Run configured tasks on their intervals until interrupted"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	History  HistoryCmd  `cmd:"" help:"Show recent task runs"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; set up logging once. The configured
// logging section refines it in loadConfig.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setupLogging(config.LoggingConfig{})
	return nil
}

func (c *CLI) setupLogging(lc config.LoggingConfig) {
	level := lc.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := config.NormalizeLogFormat(c.LogFormat)
	if format == "" {
		format = lc.Format
	}
	slog.SetDefault(slog.New(newHandler(os.Stderr, format, level)))
}

func newHandler(w io.Writer, format config.LogFormat, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// loadConfig loads the configuration file and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.setupLogging(cfg.Logging)
	return cfg, nil
}
