// Package middleware provides request IDs, access logging and panic recovery
// for the reqaz HTTP server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/logfields"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Options tunes the chain.
type Options struct {
	// AccessLog logs every request at info level; otherwise requests log at debug.
	AccessLog bool
	Recorder  metrics.Recorder
}

// Chain returns a middleware wrapper that applies request IDs, logging and
// panic recovery around a handler.
func Chain(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter, opts Options) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	rec := metrics.OrNoop(opts.Recorder)
	return func(next http.Handler) http.Handler {
		return requestIDMiddleware(loggingMiddleware(logger, opts.AccessLog, rec, panicRecoveryMiddleware(logger, adapter, next)))
	}
}

// requestIDMiddleware reuses a sane incoming X-Request-ID or generates one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// loggingMiddleware logs method, path, status, size, duration, user agent and remote addr.
func loggingMiddleware(logger *slog.Logger, accessLog bool, rec metrics.Recorder, next http.Handler) http.Handler {
	level := slog.LevelDebug
	if accessLog {
		level = slog.LevelInfo
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)
		rec.ObserveHTTPRequest(r.Method, wrapped.statusCode, duration)
		logger.LogAttrs(r.Context(), level, "HTTP request",
			logfields.RequestID(RequestID(r.Context())),
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			logfields.ResponseSize(wrapped.bytes),
			slog.Duration("duration", duration),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// panicRecoveryMiddleware recovers from panics and writes a structured error response via the HTTPErrorAdapter.
func panicRecoveryMiddleware(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				logger.Error("HTTP handler panic",
					"panic", rv,
					logfields.RequestID(RequestID(r.Context())),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method))

				panicErr := derrors.InternalError("internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				adapter.WriteErrorResponse(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes and sizes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Flush keeps server-sent event streams working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		rw.wroteHeader = true
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
