package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
// The REPL keeps running after User and Capacity errors and stops on the rest.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid user input.
	// Examples: negative ids, over-long strings, duplicate keys, unparsable statements.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryCapacity represents a request that cannot be satisfied within
	// the configured page limit. The table is left untouched.
	ErrCategoryCapacity

	// ErrCategorySystem represents errors requiring administrator intervention.
	// Examples: failed reads or writes, page numbers beyond the limit.
	ErrCategorySystem

	// ErrCategoryData represents errors related to data corruption or integrity.
	// Examples: partial trailing pages, nodes with an unknown type byte.
	ErrCategoryData
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryCapacity:
		return "capacity"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Error codes
const (
	CodeNegativeKey           = "NEGATIVE_KEY"
	CodeKeyOutOfRange         = "KEY_OUT_OF_RANGE"
	CodeStringTooLong         = "STRING_TOO_LONG"
	CodeInvalidText           = "INVALID_TEXT"
	CodeDuplicateKey          = "DUPLICATE_KEY"
	CodeSyntaxError           = "SYNTAX_ERROR"
	CodeUnrecognizedStatement = "UNRECOGNIZED_STATEMENT"
	CodeUnrecognizedCommand   = "UNRECOGNIZED_COMMAND"
	CodeTableFull             = "TABLE_FULL"
	CodeIOError               = "IO_ERROR"
	CodePageOutOfBounds       = "PAGE_OUT_OF_BOUNDS"
	CodeCorruptFile           = "CORRUPT_FILE"
	CodeCorruptNode           = "CORRUPT_NODE"
)

// Sentinels for errors.Is. Matching is by Code, so any DBError carrying the
// same code compares equal regardless of detail or cause.
var (
	ErrNegativeKey           = &DBError{Code: CodeNegativeKey, Category: ErrCategoryUser}
	ErrKeyOutOfRange         = &DBError{Code: CodeKeyOutOfRange, Category: ErrCategoryUser}
	ErrStringTooLong         = &DBError{Code: CodeStringTooLong, Category: ErrCategoryUser}
	ErrInvalidText           = &DBError{Code: CodeInvalidText, Category: ErrCategoryUser}
	ErrDuplicateKey          = &DBError{Code: CodeDuplicateKey, Category: ErrCategoryUser}
	ErrSyntax                = &DBError{Code: CodeSyntaxError, Category: ErrCategoryUser}
	ErrUnrecognizedStatement = &DBError{Code: CodeUnrecognizedStatement, Category: ErrCategoryUser}
	ErrUnrecognizedCommand   = &DBError{Code: CodeUnrecognizedCommand, Category: ErrCategoryUser}
	ErrTableFull             = &DBError{Code: CodeTableFull, Category: ErrCategoryCapacity}
	ErrIO                    = &DBError{Code: CodeIOError, Category: ErrCategorySystem}
	ErrPageOutOfBounds       = &DBError{Code: CodePageOutOfBounds, Category: ErrCategorySystem}
	ErrCorruptFile           = &DBError{Code: CodeCorruptFile, Category: ErrCategoryData}
	ErrCorruptNode           = &DBError{Code: CodeCorruptNode, Category: ErrCategoryData}
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "TABLE_FULL", "CORRUPT_NODE").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "key 42 already present in page 3".
	Detail string

	// Hint suggests how the user might fix or work around this error.
	Hint string

	// Operation identifies the operation that was being performed when the error occurred.
	// Examples: "GetPage", "Insert", "Prepare".
	Operation string

	// Component identifies the system component where the error originated.
	// Examples: "Pager", "BTree", "Statement".
	Component string

	// Cause is the underlying error that triggered this database error.
	Cause error

	// Stack contains the call stack where this error was created.
	// Captured automatically in New() and Wrap().
	Stack []uintptr
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	err := &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
	return err
}

// Newf is New with a formatted detail.
func Newf(category ErrorCategory, code, message, format string, args ...any) *DBError {
	err := New(category, code, message)
	err.Detail = fmt.Sprintf(format, args...)
	return err
}

// Wrap wraps an existing error with database-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  categoryFor(code),
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithDetail sets Detail and returns the receiver for chaining.
func (e *DBError) WithDetail(format string, args ...any) *DBError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint sets Hint and returns the receiver for chaining.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// WithContext sets Operation and Component and returns the receiver.
func (e *DBError) WithContext(operation, component string) *DBError {
	e.Operation = operation
	e.Component = component
	return e
}

func categoryFor(code string) ErrorCategory {
	switch code {
	case CodeCorruptFile, CodeCorruptNode:
		return ErrCategoryData
	case CodeTableFull:
		return ErrCategoryCapacity
	case CodeIOError, CodePageOutOfBounds:
		return ErrCategorySystem
	default:
		return ErrCategoryUser
	}
}

// captureStack captures the current call stack for debugging purposes.
// It skips the first 3 frames to exclude captureStack, New/Wrap, and the
// immediate caller, focusing on the actual error origin.
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
func (e *DBError) Error() string {
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

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DBError with the same code.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
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

// GetCode returns the code of the first DBError in err's chain, or "".
func GetCode(err error) string {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Code
	}
	return ""
}

// GetCategory returns the category of the first DBError in err's chain.
// Errors that are not DBErrors are treated as system errors.
func GetCategory(err error) ErrorCategory {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Category
	}
	return ErrCategorySystem
}

// IsFatal reports whether err means the table can no longer be trusted and
// the session should end.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCategory(err) {
	case ErrCategorySystem, ErrCategoryData:
		return true
	default:
		return false
	}
}
