package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
)

// CurrentVersion is the only configuration schema version understood by Load.
const CurrentVersion = "1.0"

// Config is the root sitesync configuration.
type Config struct {
	Version  string         `yaml:"version" validate:"required"`
	GitHub   GitHubConfig   `yaml:"github"`
	HTTP     HTTPConfig     `yaml:"http"`
	Retry    RetryConfig    `yaml:"retry"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Guides   GuidesConfig   `yaml:"guides"`
	Releases ReleasesConfig `yaml:"releases"`
	Publish  PublishConfig  `yaml:"publish,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Runner   RunnerConfig   `yaml:"runner"`
}

// GitHubConfig identifies the source repository and API endpoint.
type GitHubConfig struct {
	Owner  string `yaml:"owner" validate:"required"`
	Repo   string `yaml:"repo" validate:"required"`
	APIURL string `yaml:"api_url" validate:"required,url"`
	Token  string `yaml:"token,omitempty"`
	Ref    string `yaml:"ref,omitempty"` // branch or tag used for contents listing
}

// HTTPConfig holds outbound request settings.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	DownloadTimeout   time.Duration `yaml:"download_timeout" validate:"gt=0"` // longest wait for headers or between reads
	UserAgent         string        `yaml:"user_agent,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty" validate:"gte=0"`
}

// RetryConfig controls fetch-with-retry behaviour.
type RetryConfig struct {
	MaxAttempts int              `yaml:"max_attempts" validate:"gte=1"`
	Delay       time.Duration    `yaml:"delay" validate:"gte=0"`
	MaxDelay    time.Duration    `yaml:"max_delay" validate:"gte=0"`
	Backoff     RetryBackoffMode `yaml:"backoff" validate:"oneof=fixed linear exponential"`
}

// LoggingConfig holds defaults for the CLI log handler; flags take precedence.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format LogFormat `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// GuidesConfig configures the documentation crawler.
type GuidesConfig struct {
	Directories     []string `yaml:"directories" validate:"min=1,dive,required"`
	Extension       string   `yaml:"extension" validate:"required,startswith=."`
	Output          string   `yaml:"output" validate:"required"`
	PrimaryCategory string   `yaml:"primary_category"`
	Order           []string `yaml:"order,omitempty"`
	Precompress     bool     `yaml:"precompress,omitempty"`
}

// ReleasesConfig configures release sync.
type ReleasesConfig struct {
	Directory   string `yaml:"directory" validate:"required"`
	Manifest    string `yaml:"manifest" validate:"required"`
	PublicPath  string `yaml:"public_path"`
	Precompress bool   `yaml:"precompress,omitempty"`
}

// PublishConfig groups optional publication back-ends.
type PublishConfig struct {
	Git GitPublishConfig `yaml:"git,omitempty"`
}

// GitPublishConfig configures the pull/commit/push of the site repository after a release sync.
type GitPublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RepoDir     string `yaml:"repo_dir,omitempty" validate:"required_if=Enabled true"`
	Remote      string `yaml:"remote,omitempty"`
	Branch      string `yaml:"branch,omitempty"`
	Pull        *bool  `yaml:"pull,omitempty"`
	Push        *bool  `yaml:"push,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty" validate:"omitempty,email"`
	Username    string `yaml:"username,omitempty"`
	Token       string `yaml:"token,omitempty"`
	Message     string `yaml:"message,omitempty"`
}

// NotifyConfig groups optional notification sinks.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures release-change notifications. An empty URL disables them.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty" validate:"omitempty,url"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig configures the run history database. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served by the runner.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// RunnerConfig configures the periodic runner.
type RunnerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	Tasks        []TaskConfig  `yaml:"tasks" validate:"dive"`
}

// TaskConfig describes one scheduled task: either a builtin or an external command.
type TaskConfig struct {
	Name     string        `yaml:"name" validate:"required"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
	Builtin  BuiltinTask   `yaml:"builtin,omitempty" validate:"omitempty,oneof=releases guides"`
	Command  []string      `yaml:"command,omitempty"`
	Dir      string        `yaml:"dir,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// BuiltinTask names an in-process task.
type BuiltinTask string

const (
	BuiltinReleases BuiltinTask = "releases"
	BuiltinGuides   BuiltinTask = "guides"
)

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Fatal().WithContext("path", configPath).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML configuration content and runs the normalize/default/validate pipeline.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("config normalization", slog.String("detail", w))
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to apply defaults").Fatal().Build()
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env and .env.local when present. Existing process variables win.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", envPath), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", envPath))
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").WithContext("path", configPath).Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").WithContext("path", configPath).Build()
	}
	return nil
}

// Example returns a fully populated configuration suitable for a first deployment.
func Example() Config {
	cfg := Config{
		Version: CurrentVersion,
		GitHub: GitHubConfig{
			Owner: "MCDFsteve",
			Repo:  "NipaPlay-Reload",
			Token: "${GITHUB_TOKEN}",
		},
		Guides: GuidesConfig{
			Directories: []string{"Documentation", "CONTRIBUTING_GUIDE"},
			Output:      "./public/guides.json",
		},
		Releases: ReleasesConfig{
			Directory: "./public/releases",
			Manifest:  "./public/releases.json",
		},
		History: HistoryConfig{Path: "./sitesync-data/history.db"},
		Runner: RunnerConfig{
			Tasks: []TaskConfig{
				{Name: "releases", Interval: 2 * time.Hour, Builtin: BuiltinReleases},
				{Name: "cache-assets", Interval: 24 * time.Hour, Command: []string{"bash", "./cache_assets.sh"}},
			},
		},
	}
	_ = ApplyDefaults(&cfg)
	return cfg
}
