// Package errors provides foundational, type-safe error primitives used across reqaz.
//
// This package contains classified error types and helpers for error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, not_found, forbidden, parse, modifier, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, cause and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryNotFound, "source not found").
//		WithContext("uri", uri).
//		Build()
package errors
