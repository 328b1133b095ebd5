package errors

import (
	"log/slog"
	"maps"
	"slices"
)

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// User-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Resolution errors.
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryForbidden  ErrorCategory = "forbidden"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryParse      ErrorCategory = "parse"
	CategoryModifier   ErrorCategory = "modifier"

	// Runtime and infrastructure errors.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext holds structured fields attached to an error.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Attrs returns the fields as slog attributes, sorted by key.
func (c ErrorContext) Attrs() []slog.Attr {
	keys := slices.Sorted(maps.Keys(c))
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}

func (c ErrorContext) clone() ErrorContext {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}
