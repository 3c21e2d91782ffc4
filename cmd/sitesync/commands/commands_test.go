package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/history"
	"git.home.luguber.info/inful/sitesync/internal/runner"
)

const testConfig = `
version: "1.0"
github:
  owner: acme
  repo: player
  api_url: %[1]s
retry:
  max_attempts: 1
  delay: 1ms
guides:
  directories: [Docs]
  output: %[2]s/guides.json
releases:
  directory: %[2]s/releases
  manifest: %[2]s/releases.json
history:
  path: %[2]s/history.db
`

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/acme/player/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name": "v2.0.0",
			"assets": []map[string]any{
				{"name": "player-windows.zip", "browser_download_url": srv.URL + "/dl/player-windows.zip"},
			},
		})
	})
	mux.HandleFunc("/repos/acme/player/contents/Docs", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"type": "file", "name": "intro.md", "path": "Docs/intro.md", "download_url": srv.URL + "/raw/intro.md"},
		})
	})
	mux.HandleFunc("/raw/intro.md", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Intro\n\nSee [setup](setup.md).\n"))
	})
	mux.HandleFunc("/dl/player-windows.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("zip-bytes"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, apiURL string) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sitesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfig, apiURL, dir)), 0o644))
	return &CLI{Config: path}, dir
}

func TestReleasesCmd_SyncsAndRecordsHistory(t *testing.T) {
	srv := fakeGitHub(t)
	cli, dir := writeTestConfig(t, srv.URL)

	require.NoError(t, (&ReleasesCmd{}).Run(&Global{}, cli))

	data, err := os.ReadFile(filepath.Join(dir, "releases", "player-windows.zip"))
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))

	manifest, err := os.ReadFile(filepath.Join(dir, "releases.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `"version": "v2.0.0"`)
	assert.Contains(t, string(manifest), `"os": "Windows"`)

	store, err := history.NewSQLiteStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(t.Context(), "releases", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, "v2.0.0", runs[0].Version)
	assert.Equal(t, "CLEANUP", runs[0].State)
}

func TestGuidesCmd_WritesCatalog(t *testing.T) {
	srv := fakeGitHub(t)
	cli, dir := writeTestConfig(t, srv.URL)

	require.NoError(t, (&GuidesCmd{}).Run(&Global{}, cli))

	data, err := os.ReadFile(filepath.Join(dir, "guides.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "Docs-intro"`)
	assert.Contains(t, string(data), `"name": "Intro"`)
	assert.Contains(t, string(data), "(#Docs-setup)")
}

func TestReleasesCmd_MissingConfig(t *testing.T) {
	err := (&ReleasesCmd{}).Run(&Global{}, &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
}

func TestBuildEntries(t *testing.T) {
	svc := newServices(&config.Config{}, nil, false)
	defer svc.Close()

	entries := buildEntries([]config.TaskConfig{
		{Name: "releases", Interval: 2 * time.Hour, Builtin: config.BuiltinReleases},
		{Name: "guides", Interval: time.Hour, Builtin: config.BuiltinGuides},
		{Name: "cache-assets", Interval: 24 * time.Hour, Command: []string{"true"}},
	}, svc)

	require.Len(t, entries, 3)
	assert.IsType(t, &runner.FuncTask{}, entries[0].Task)
	assert.IsType(t, &runner.FuncTask{}, entries[1].Task)
	assert.IsType(t, &runner.CommandTask{}, entries[2].Task)
	assert.Equal(t, "cache-assets", entries[2].Task.Name())
	assert.Equal(t, 24*time.Hour, entries[2].Interval)
}

func TestDash(t *testing.T) {
	assert.Equal(t, "-", dash(""))
	assert.Equal(t, "v1", dash("v1"))
}
