package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/dosekeep/internal/logger"
)

var (
	// ErrStorageUnavailable wraps fetch and commit failures. The operation that
	// returned it left no partial state behind and may be retried as a whole.
	ErrStorageUnavailable = stderrors.New("storage unavailable")

	// ErrInvalidRecurrence is reported when a medication's recurrence cannot be
	// accepted as entered (interval < 1, end before start). The due-date
	// predicate clamps instead of returning it.
	ErrInvalidRecurrence = stderrors.New("invalid recurrence")

	// ErrNoAnchorDate marks a medication that has never been activated.
	ErrNoAnchorDate = stderrors.New("medication has no start date")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = stderrors.New("not found")
)

// Is and As re-export the standard library helpers so callers only import one
// errors package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// New is errors.New.
func New(text string) error { return stderrors.New(text) }

// Storage wraps err as a retryable storage failure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
