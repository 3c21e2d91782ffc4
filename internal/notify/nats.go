// Package notify announces published releases on NATS.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/releases"
	"git.home.luguber.info/inful/sitesync/internal/version"
)

// ReleaseEvent is the payload published after a release update.
type ReleaseEvent struct {
	Repository      string    `json:"repository"`
	Version         string    `json:"version"`
	PreviousVersion string    `json:"previous_version,omitempty"`
	Assets          []string  `json:"assets"`
	Failed          []string  `json:"failed,omitempty"`
	Removed         []string  `json:"removed,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Notifier publishes release events. It implements releases.Hook.
type Notifier struct {
	conn       Conn
	closer     func()
	subject    string
	repository string
	now        func() time.Time
}

// New wraps an existing connection.
func New(conn Conn, subject, repository string) *Notifier {
	return &Notifier{conn: conn, closer: func() {}, subject: subject, repository: repository, now: time.Now}
}

// Connect dials the configured NATS server.
func Connect(cfg config.NATSConfig, repository string) (*Notifier, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("sitesync "+version.Version),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n := New(conn, cfg.Subject, repository)
	n.closer = conn.Close
	slog.Info("NATS notifications enabled", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return n, nil
}

// Name identifies the hook in logs.
func (n *Notifier) Name() string { return "nats" }

// ReleaseUpdated publishes a ReleaseEvent for res.
func (n *Notifier) ReleaseUpdated(ctx context.Context, res *releases.Result) error {
	ev := ReleaseEvent{
		Repository:      n.repository,
		Version:         res.RemoteVersion,
		PreviousVersion: res.LocalVersion,
		Assets:          make([]string, 0, len(res.Manifest)),
		Failed:          res.Failed,
		Removed:         res.Removed,
		Timestamp:       n.now().UTC(),
	}
	for _, r := range res.Manifest {
		ev.Assets = append(ev.Assets, r.Name)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published release event", slog.String("subject", n.subject), slog.String("version", ev.Version))
	return nil
}

// Close releases the connection.
func (n *Notifier) Close() { n.closer() }
