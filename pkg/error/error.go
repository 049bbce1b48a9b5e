package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid arguments.
	// Examples: list index out of range, invalid configuration values.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents errors that might succeed on retry.
	// Examples: lock acquisition timeouts, cancelled waits.
	// Retry policy belongs to the caller; nothing in this module retries.
	ErrCategoryTransient

	// ErrCategoryUsage represents protocol misuse by the caller.
	// Examples: double upgrade, upgrading or releasing from a goroutine that
	// does not own the handle, re-entrant acquisition.
	// These signal a programming defect and never go away on retry.
	ErrCategoryUsage
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryTransient:
		return "transient"
	case ErrCategoryUsage:
		return "usage"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Error represents a structured error with rich context information.
type Error struct {
	// Code is a unique identifier for this error type (e.g., "LOCK_TIMEOUT").
	// Two errors with the same code match under errors.Is.
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "read on lock \"users\" after 50ms".
	Detail string

	// Operation identifies the operation that was being performed.
	// Examples: "AcquireRead", "Upgrade", "Release".
	Operation string

	// Component identifies where the error originated.
	// Examples: "Lock", "Map", "List".
	Component string

	// Cause is the underlying error that triggered this error.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new Error with the specified category, code, and message.
func New(category ErrorCategory, code, message string) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Wrap wraps an existing error with operation and component context.
// If the error is already an *Error, it enriches the existing error
// (only fields not already set).
func Wrap(err error, code, operation, component string) *Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		if e.Operation == "" {
			e.Operation = operation
		}
		if e.Component == "" {
			e.Component = component
		}
		return e
	}

	return &Error{
		Code:      code,
		Category:  ErrCategoryUsage,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// Derive returns a fresh instance of e carrying detail, operation and
// component. Package-level sentinels are never mutated; callers derive a
// copy per failure so errors.Is(err, sentinel) still holds.
func (e *Error) Derive(detail, operation, component string, cause error) *Error {
	return &Error{
		Code:      e.Code,
		Category:  e.Category,
		Message:   e.Message,
		Detail:    detail,
		Operation: operation,
		Component: component,
		Cause:     cause,
		Stack:     captureStack(),
	}
}

// captureStack records the stack starting at the caller of New, Wrap or Derive.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *Error) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}

// CategoryOf returns the category of err if it is (or wraps) an *Error.
func CategoryOf(err error) (ErrorCategory, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Category, true
}
