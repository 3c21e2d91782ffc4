package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with severity error and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext attaches key=value; later values for the same key win.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.err.context == nil {
		b.err.context = ErrorContext{}
	}
	b.err.context[key] = value
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder     { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder { return b.WithRetry(RetryFixed) }
func (b *ErrorBuilder) NextTick() *ErrorBuilder  { return b.WithRetry(RetryNextTick) }

// Build returns the error. The builder may be reused; each call yields a
// separate copy.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	if b.err.context != nil {
		out.context = make(ErrorContext, len(b.err.context))
		for k, v := range b.err.context {
			out.context[k] = v
		}
	}
	return &out
}

// ConfigError is a fatal configuration problem the operator has to fix.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().WithRetry(RetryUserAction)
}

// ValidationError is a fatal invalid-input problem the operator has to fix.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().WithRetry(RetryUserAction)
}

// NetworkError is a transport or status failure.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// UpstreamError is a response that arrived but cannot be used.
func UpstreamError(message string) *ErrorBuilder {
	return NewError(CategoryUpstream, message).NextTick()
}

// ReleaseError is a release sync that ended without publishing anything.
func ReleaseError(message string) *ErrorBuilder {
	return NewError(CategoryRelease, message).NextTick()
}

// PublishError is a failed pull, commit or push of the site repository.
func PublishError(message string) *ErrorBuilder {
	return NewError(CategoryPublish, message).NextTick()
}
