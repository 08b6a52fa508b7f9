package httpx

import (
	"errors"
	"fmt"
)

// ErrorClass buckets a failed fetch into the engine's error taxonomy.
type ErrorClass string

const (
	ClassNetwork  ErrorClass = "network" // DNS, TLS or connect failure
	ClassTimeout  ErrorClass = "timeout"
	ClassHTTP     ErrorClass = "http" // non-200 status
	ClassParse    ErrorClass = "parse"
	ClassDecrypt  ErrorClass = "decrypt"
	ClassUpstream ErrorClass = "upstream" // API-level error envelope
	ClassPlatform ErrorClass = "platform" // unrecognized platform tag
)

// Error is the classified failure produced anywhere on the fetch path. All
// instances are recoverable: the scheduler downgrades them to a compact
// display code and retries on the next tick.
type Error struct {
	Class  ErrorClass
	Status int // HTTP status, only for ClassHTTP
	Err    error
}

func (e *Error) Error() string {
	if e.Class == ClassHTTP {
		return fmt.Sprintf("fetch failed: http status %d", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch failed (%s): %v", e.Class, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s)", e.Class)
}

func (e *Error) Unwrap() error { return e.Err }

// Compact returns the short user-facing code shown in place of a counter
// value. Internal detail never reaches the display.
func (e *Error) Compact() string {
	if e.Class == ClassHTTP && e.Status > 0 {
		return fmt.Sprintf("Error %d", e.Status)
	}
	return "Error"
}

// NewError wraps err with a classification.
func NewError(class ErrorClass, err error) *Error {
	return &Error{Class: class, Err: err}
}

// NewStatusError records a non-200 HTTP response.
func NewStatusError(status int) *Error {
	return &Error{Class: ClassHTTP, Status: status}
}

// CompactCode renders any error as its user-facing code, falling back to
// the generic "Error" for unclassified failures.
func CompactCode(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Compact()
	}
	return "Error"
}
