package errors

// ErrorCategory groups failures by the part of sitesync that produced them.
type ErrorCategory string

const (
	// CategoryConfig and CategoryValidation are user-facing input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryNetwork covers transport failures and non-2xx responses after
	// retries; CategoryUpstream covers responses that arrived but are unusable.
	CategoryNetwork  ErrorCategory = "network"
	CategoryUpstream ErrorCategory = "upstream"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryRelease    ErrorCategory = "release"
	CategoryPublish    ErrorCategory = "publish"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity selects the log level used when the error is reported.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// RetryStrategy says when repeating the failed operation may succeed.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryFixed      RetryStrategy = "fixed"    // after the configured fetch delay
	RetryNextTick   RetryStrategy = "schedule" // on the task's next scheduled run
	RetryUserAction RetryStrategy = "user"     // after the operator fixes something
)

// ErrorContext holds structured values attached to an error.
type ErrorContext map[string]any
