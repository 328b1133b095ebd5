package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "reqaz.json").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "reqaz.json", file)
	})

	t.Run("Cause chain", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		err := WrapError(sentinel, CategoryNotFound, "source not found").Build()
		wrapped := errors.Join(errors.New("other"), err)

		assert.ErrorIs(t, err, sentinel)
		assert.True(t, HasCategory(wrapped, CategoryNotFound))
		assert.Equal(t, CategoryNotFound, CategoryOf(wrapped))
		assert.Equal(t, CategoryInternal, CategoryOf(errors.New("plain")))
	})

	t.Run("Builder reuse does not leak context", func(t *testing.T) {
		b := ParseError("/index.html")
		first := b.Build()
		second := b.WithContext("line", 3).Build()

		_, ok := first.Context().Get("line")
		assert.False(t, ok)
		uri, _ := second.Context().GetString("uri")
		assert.Equal(t, "/index.html", uri)
		assert.ErrorIs(t, second, first)
		assert.Equal(t, "[parse] source parse failed", first.Error())
	})

	t.Run("Resolution builders are not fatal", func(t *testing.T) {
		for _, b := range []*ErrorBuilder{NotFoundError("a"), ForbiddenError("a"), ParseError("a"), ModifierError("a")} {
			assert.Equal(t, SeverityError, b.Build().Severity())
		}
		assert.Equal(t, SeverityFatal, ConfigError("x").Build().Severity())
	})
}

func TestClassifiedErrorLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	err := ModifierError("/index.html").
		WithCause(errors.New("boom")).
		WithContext("modifier", "script").
		Build()

	logger.Error("failed", slog.Any("error", err))

	out := buf.String()
	assert.Contains(t, out, "error.category=modifier")
	assert.Contains(t, out, "error.cause=boom")
	assert.Contains(t, out, "error.modifier=script")
	assert.Contains(t, out, "error.uri=/index.html")
}

func TestHTTPErrorAdapter_StatusCodes(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := map[ErrorCategory]int{
		CategoryNotFound:   http.StatusNotFound,
		CategoryForbidden:  http.StatusForbidden,
		CategoryParse:      http.StatusUnprocessableEntity,
		CategoryModifier:   http.StatusInternalServerError,
		CategoryFileSystem: http.StatusInternalServerError,
		CategoryValidation: http.StatusBadRequest,
	}
	for cat, want := range cases {
		assert.Equal(t, want, a.StatusCodeFor(NewError(cat, "x").Build()), cat)
	}
	assert.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(errors.New("plain")))
	assert.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing.html", nil)

	err := WrapError(errors.New("stat /secret/path: no such file"), CategoryNotFound, "source not found").
		WithContext("uri", "/missing.html").
		Build()
	a.WriteErrorResponse(rec, req, err)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "source not found", body.Error)
	assert.Equal(t, "not_found", body.Code)
	assert.NotContains(t, rec.Body.String(), "/secret/path")
}

func TestCLIErrorAdapter(t *testing.T) {
	var out bytes.Buffer
	var code int
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.out = &out
	a.exit = func(c int) { code = c }

	a.HandleError(ConfigError("port out of range").Build())

	assert.Equal(t, 7, code)
	assert.Contains(t, out.String(), "port out of range")
	assert.Equal(t, 1, a.ExitCodeFor(errors.New("plain")))
	assert.Equal(t, 3, a.ExitCodeFor(NewError(CategoryForbidden, "x").Build()))
	assert.Equal(t, 0, a.ExitCodeFor(nil))
}
