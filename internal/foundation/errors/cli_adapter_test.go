package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: ExitUsage},
		{name: "config", err: ConfigError("bad config").Build(), expected: ExitConfig},
		{name: "network", err: NetworkError("timeout").Build(), expected: ExitRemote},
		{name: "upstream", err: UpstreamError("missing tag").Build(), expected: ExitRemote},
		{name: "release", err: ReleaseError("no assets").Build(), expected: ExitLocalState},
		{name: "wrapped release", err: fmt.Errorf("run: %w", ReleaseError("no assets").Build()), expected: ExitLocalState},
		{name: "runtime", err: NewError(CategoryRuntime, "scheduler").Build(), expected: ExitRuntime},
		{name: "internal", err: NewError(CategoryInternal, "bug").Build(), expected: ExitInternal},
		{name: "unclassified error", err: errors.New("unknown"), expected: ExitGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	cfgErr := ConfigError("github.owner is required").Build()
	assert.Equal(t, "Configuration error: github.owner is required", quiet.FormatError(cfgErr))

	relErr := WrapError(errors.New("disk full"), CategoryRelease, "manifest write failed").Build()
	assert.Contains(t, quiet.FormatError(relErr), "use -v for details")
	assert.Equal(t, "Error: release: manifest write failed: disk full", verbose.FormatError(relErr))

	assert.Equal(t, "Error: boom", quiet.FormatError(errors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(NetworkError("latest release lookup failed").WithContext("url", "https://api.github.com").Build())

	assert.Equal(t, ExitRemote, code)
	assert.Equal(t, "Error: latest release lookup failed (use -v for details)\n", out.String())
	assert.Contains(t, logs.String(), "category=network")
	assert.Contains(t, logs.String(), "url=https://api.github.com")

	code = -1
	adapter.HandleError(nil)
	assert.Equal(t, -1, code)
}
