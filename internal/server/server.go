// Package server serves resolved sources over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"

	derrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/logfields"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	smw "git.home.luguber.info/inful/reqaz/internal/server/middleware"
	"git.home.luguber.info/inful/reqaz/internal/source"
)

// Resolver is the part of source.Resolver the server needs.
type Resolver interface {
	ResolveSource(ctx context.Context, uri string) (*source.ResolvedSource, error)
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. 127.0.0.1:5000.
	Addr string
	// AccessLog logs every request at info level.
	AccessLog bool
	// LiveReload enables the SSE endpoint, the client script and, when
	// WatchRoot is set, the filesystem watcher.
	LiveReload bool
	WatchRoot  string
	Debounce   time.Duration
	// Registry, when set, is exposed on /metrics.
	Registry *prom.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Server routes requests to the resolver.
type Server struct {
	resolver     Resolver
	opts         Options
	logger       *slog.Logger
	router       *chi.Mux
	errorAdapter *derrors.HTTPErrorAdapter
	hub          *LiveReloadHub

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	cancel     context.CancelFunc
	done       chan struct{}
	ready      atomic.Bool
}

// New wires routes and middleware. Nothing is bound until Start.
func New(resolver Resolver, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	s := &Server{
		resolver:     resolver,
		opts:         opts,
		logger:       logger,
		router:       chi.NewRouter(),
		errorAdapter: derrors.NewHTTPErrorAdapter(logger),
	}
	if opts.LiveReload {
		s.hub = NewLiveReloadHub(opts.Recorder)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(smw.Chain(s.logger, s.errorAdapter, smw.Options{
		AccessLog: s.opts.AccessLog,
		Recorder:  s.opts.Recorder,
	}))
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	if s.opts.Registry != nil {
		s.router.Get("/metrics", metrics.HTTPHandler(s.opts.Registry).ServeHTTP)
	}
	if s.hub != nil {
		s.router.Get(LiveReloadEventsPath, s.hub.ServeHTTP)
		s.router.Get(LiveReloadScriptPath, serveLiveReloadScript)
	}

	s.router.Get("/*", s.handleSource)
	s.router.Head("/*", s.handleSource)
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live reload hub, nil when live reload is off.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return derrors.RuntimeError("server already started").Build()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "bind listener").
			Fatal().WithContext("addr", s.opts.Addr).Build()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if s.hub != nil && s.opts.WatchRoot != "" {
		w, werr := NewWatcher(s.opts.WatchRoot, s.opts.Debounce, func() {
			s.hub.Broadcast(changeHash(time.Now()))
		}, s.logger)
		if werr != nil {
			cancel()
			_ = ln.Close()
			return derrors.WrapError(werr, derrors.CategoryRuntime, "start file watcher").
				WithContext("root", s.opts.WatchRoot).Build()
		}
		go func() { _ = w.Run(runCtx) }()
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}
	s.listener = ln
	s.cancel = cancel
	s.done = make(chan struct{})

	srv, done := s.httpServer, s.done
	go func() {
		defer close(done)
		if serr := srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", logfields.Error(serr))
		}
	}()
	s.ready.Store(true)
	s.logger.Info("Serving sources", logfields.Addr(ln.Addr().String()),
		slog.Bool("live_reload", s.hub != nil),
		slog.Bool("metrics", s.opts.Registry != nil))
	return nil
}

// Stop shuts the server down gracefully, then closes live reload streams.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, cancel, done := s.httpServer, s.cancel, s.done
	s.httpServer, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.ready.Store(false)

	// Streams never finish on their own, so close them before waiting on Shutdown.
	if s.hub != nil {
		s.hub.Shutdown()
	}
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	if len(errs) > 0 {
		return derrors.WrapError(errors.Join(errs...), derrors.CategoryRuntime, "shutdown").Build()
	}
	return nil
}

// Serve starts the server and blocks until ctx is canceled.
func (s *Server) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info("Shutting down server")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.handleMethodNotAllowed(w, r)
		return
	}
	res, err := s.resolver.ResolveSource(r.Context(), r.URL.EscapedPath())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(res.Body)))
	h.Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(res.Body); err != nil {
		s.logger.Debug("write response", logfields.URI(res.URI.String()), logfields.Error(err))
	}
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	err := derrors.NewError(derrors.CategoryValidation, "method not allowed").
		WithContext("method", r.Method).Build()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(s.errorAdapter.FormatErrorResponse(err))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
