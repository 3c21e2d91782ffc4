// Package errors classifies sitesync failures.
//
// A ClassifiedError carries a category (which part failed), a severity (how
// loudly to report it) and a retry hint (fixed delay, next scheduled run, or
// operator action). The CLI adapter maps the category to an exit code; the
// runner logs Attrs next to the task outcome.
//
//	err := errors.NetworkError("latest release lookup failed").
//		WithContext("url", endpoint).
//		WithCause(cause).
//		Build()
package errors
