package errors

import (
	stderrors "errors"
	"log/slog"
)

// ClassifiedError carries a category that decides how the error is surfaced
// (HTTP status, exit code, metrics label), plus severity and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category] message: cause".
func (e *ClassifiedError) Error() string {
	s := "[" + string(e.category) + "] " + e.message
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) Cause() error            { return e.cause }
func (e *ClassifiedError) Context() ErrorContext   { return e.context }

// Is matches another ClassifiedError with the same category and message,
// so prebuilt values can serve as sentinels.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// LogValue groups the error's fields when it is logged with slog.Any.
func (e *ClassifiedError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("category", string(e.category)),
		slog.String("severity", string(e.severity)),
		slog.String("message", e.message),
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	attrs = append(attrs, e.context.Attrs()...)
	return slog.GroupValue(attrs...)
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the outermost classified error in the chain
// has category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.category == category
}

// CategoryOf returns the outermost category in err's chain, CategoryInternal
// for unclassified errors.
func CategoryOf(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.category
	}
	return CategoryInternal
}
