package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
)

func newChain(buf *bytes.Buffer, accessLog bool) func(http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return Chain(logger, derrors.NewHTTPErrorAdapter(logger), Options{AccessLog: accessLog})
}

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := newChain(&buf, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "request_id="+id)
}

func TestRequestIDReusesIncoming(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Empty(t, buf.String(), "access log disabled logs at debug only")
}

func TestPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf, false)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body derrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Contains(t, buf.String(), "HTTP handler panic")
}

func TestResponseWriterFlushes(t *testing.T) {
	var buf bytes.Buffer
	var flushed bool
	h := newChain(&buf, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data"))
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, flushed)
	assert.True(t, rec.Flushed)
}
