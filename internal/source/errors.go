package source

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/reqaz/internal/dom"
	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
)

// Sentinels matched with errors.Is on every error returned by ResolveSource.
var (
	ErrNotFound  = errors.New("source not found")
	ErrOutOfRoot = errors.New("source outside root")
	ErrRead      = errors.New("source read failed")
	ErrParse     = dom.ErrParse
	ErrModifier  = modifier.ErrModifier
)

func notFound(uri string, cause error) error {
	return ferrors.NotFoundError(uri).WithCause(wrapSentinel(ErrNotFound, cause)).Build()
}

func outOfRoot(uri, reason string) error {
	return ferrors.ForbiddenError(uri).WithCause(fmt.Errorf("%w: %s", ErrOutOfRoot, reason)).Build()
}

func readError(uri, path string, cause error) error {
	return ferrors.FileSystemError("source read failed").
		WithCause(wrapSentinel(ErrRead, cause)).
		WithURI(uri).
		WithContext("path", path).
		Build()
}

func parseError(uri string, cause error) error {
	return ferrors.ParseError(uri).WithCause(wrapSentinel(ErrParse, cause)).Build()
}

func modifierError(uri string, cause error) error {
	b := ferrors.ModifierError(uri).WithCause(cause)
	var ce *modifier.ChainError
	if errors.As(cause, &ce) {
		b = b.WithContext("modifier", ce.Name).WithContext("step", ce.Step)
	}
	return b.Build()
}

func canceled(uri string, cause error) error {
	return ferrors.NewError(ferrors.CategoryRuntime, "resolution canceled").WithCause(cause).WithURI(uri).Build()
}

// wrapSentinel makes cause match sentinel without duplicating it in the chain.
func wrapSentinel(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	if errors.Is(cause, sentinel) {
		return cause
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// resultLabel maps a resolution error onto its metrics label.
func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrOutOfRoot):
		return metrics.ResultOutOfRoot
	case errors.Is(err, ErrRead):
		return metrics.ResultReadError
	case errors.Is(err, ErrParse):
		return metrics.ResultParseError
	case errors.Is(err, ErrModifier):
		return metrics.ResultModifierError
	case ferrors.HasCategory(err, ferrors.CategoryRuntime):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
