package alert

import "github.com/pkg/errors"

// Kind classifies an error for the monitor's per-alert isolation contract:
// transient failures are retried by the next cycle, validation failures are
// rejected before an alert ever reaches the monitor, conflicts are expected
// outcomes of the conditional status transition, and invariant violations are
// fatal to the one alert only.
type Kind int

const (
	KindTransient Kind = iota
	KindValidation
	KindConflict
	KindInvariant
)

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

// WithKind tags err with a kind. Returns nil if err is nil.
func WithKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Validationf builds a validation error from a format string.
func Validationf(format string, args ...interface{}) error {
	return &kindError{kind: KindValidation, err: errors.Errorf(format, args...)}
}

// Invariantf builds an invariant-violation error from a format string.
func Invariantf(format string, args ...interface{}) error {
	return &kindError{kind: KindInvariant, err: errors.Errorf(format, args...)}
}

// KindOf walks the error chain for a tagged kind. Untagged errors are treated
// as transient, which matches where they come from: external calls.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindTransient
}

// IsValidation reports whether err carries KindValidation.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}
