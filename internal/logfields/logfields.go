package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTask       = "task"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyCategory   = "category"
	KeyDocID      = "doc_id"
	KeyVersion    = "version"
	KeyAsset      = "asset"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyExitCode   = "exit_code"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyState      = "state"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Asset(name string) slog.Attr     { return slog.String(KeyAsset, name) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
