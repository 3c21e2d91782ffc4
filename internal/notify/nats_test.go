package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/releases"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushed  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.pubErr
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushed = true
	return nil
}

func TestReleaseUpdated(t *testing.T) {
	conn := &fakeConn{}
	n := New(conn, "sitesync.release.updated", "acme/player")
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res := &releases.Result{
		RemoteVersion: "v2.0.0",
		LocalVersion:  "v1.0.0",
		Manifest:      releases.Manifest{{Name: "a.apk"}, {Name: "b.dmg"}},
		Removed:       []string{"old.apk"},
	}
	require.NoError(t, n.ReleaseUpdated(context.Background(), res))
	assert.Equal(t, "sitesync.release.updated", conn.subject)
	assert.True(t, conn.flushed)

	var ev ReleaseEvent
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, "acme/player", ev.Repository)
	assert.Equal(t, "v2.0.0", ev.Version)
	assert.Equal(t, "v1.0.0", ev.PreviousVersion)
	assert.Equal(t, []string{"a.apk", "b.dmg"}, ev.Assets)
	assert.Equal(t, []string{"old.apk"}, ev.Removed)
	assert.Equal(t, "nats", n.Name())
}

func TestReleaseUpdated_PublishError(t *testing.T) {
	n := New(&fakeConn{pubErr: errors.New("no responders")}, "s", "r")
	err := n.ReleaseUpdated(context.Background(), &releases.Result{RemoteVersion: "v1"})
	assert.ErrorContains(t, err, "failed to publish event")
}
