package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch classified.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryNotFound, CategoryForbidden, CategoryFileSystem:
		return 3 // Source or output I/O
	case CategoryConfig:
		return 7
	case CategoryParse, CategoryModifier:
		return 11 // Pipeline error
	case CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error: %s (use -v for details)", classified.Message())
}

// HandleError logs the error, prints it and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	level := slog.LevelError
	switch classified.Severity() {
	case SeverityInfo:
		level = slog.LevelInfo
	case SeverityWarning:
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if a.verbose {
		if classified.Cause() != nil {
			attrs = append(attrs, slog.String("cause", classified.Cause().Error()))
		}
		attrs = append(attrs, classified.Context().Attrs()...)
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
