// Package source resolves source identifiers under a root directory into byte
// payloads, running HTML through the configured modifier chain.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/reqaz/internal/dom"
	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/logfields"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
)

// ResolvedSource is the payload of one resolution call. It is never mutated
// after ResolveSource returns.
type ResolvedSource struct {
	URI         *url.URL
	Path        string
	ContentType string
	Body        []byte
	// Scripts holds the text extracted from marker elements, in document order.
	Scripts []string
}

// IsHTML reports whether the payload went through the modifier chain.
func (s *ResolvedSource) IsHTML() bool {
	return isHTML(s.ContentType)
}

// Resolver is configured once and safe for concurrent use.
type Resolver struct {
	root      string
	authority string
	factories []modifier.Factory
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithModifiers sets the ordered modifier factories applied to HTML payloads.
func WithModifiers(factories ...modifier.Factory) Option {
	return func(r *Resolver) { r.factories = append([]modifier.Factory(nil), factories...) }
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Resolver) { r.recorder = metrics.OrNoop(rec) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver builds a resolver for root, addressed as authority (host:port).
func NewResolver(root, authority string, opts ...Option) (*Resolver, error) {
	if authority == "" {
		return nil, ferrors.ConfigError("authority is required").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve root").
			Fatal().WithContext("root", root).Build()
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "root not accessible").
			Fatal().WithContext("root", root).Build()
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return nil, ferrors.ConfigError("root is not a directory").WithContext("root", abs).Build()
	}

	r := &Resolver{
		root:      abs,
		authority: authority,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the absolute, symlink-free root directory.
func (r *Resolver) Root() string { return r.root }

// Authority returns the host:port used for canonical URIs.
func (r *Resolver) Authority() string { return r.authority }

// ResolveSource maps uri onto the root, reads the backing file and, for HTML,
// runs the modifier chain. Failures match ErrNotFound, ErrOutOfRoot, ErrRead,
// ErrParse or ErrModifier and never carry a partial payload.
func (r *Resolver) ResolveSource(ctx context.Context, uri string) (_ *ResolvedSource, err error) {
	start := time.Now()
	kind := "asset"
	defer func() {
		r.recorder.ObserveResolveDuration(kind, time.Since(start))
		r.recorder.IncResolveResult(resultLabel(err))
	}()

	canonical, rel, err := canonicalURI(uri, r.authority)
	if err != nil {
		return nil, err
	}
	path, dir, err := r.locate(uri, rel)
	if err != nil {
		return nil, err
	}
	// Relative references in an index page resolve against the directory.
	if dir && !strings.HasSuffix(canonical.Path, "/") {
		canonical.Path += "/"
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, canceled(uri, ctxErr)
	}
	body, err := readFile(path)
	if err != nil {
		return nil, readError(uri, path, err)
	}

	res := &ResolvedSource{
		URI:         canonical,
		Path:        path,
		ContentType: contentType(path, body),
		Body:        body,
	}
	if !isHTML(res.ContentType) {
		return res, nil
	}

	kind = "html"
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, canceled(uri, ctxErr)
	}
	res.Body, res.Scripts, err = r.transform(canonical, body)
	if err != nil {
		return nil, err
	}
	if len(res.Scripts) > 0 {
		r.recorder.AddMarkersRemoved(len(res.Scripts))
		r.logger.Debug("Stripped marker elements",
			logfields.URI(canonical.String()),
			logfields.Markers(len(res.Scripts)))
	}
	return res, nil
}

// transform parses body, applies a fresh chain built for page and renders the result.
func (r *Resolver) transform(page *url.URL, body []byte) ([]byte, []string, error) {
	uri := page.String()
	tree, err := dom.ParseBytes(body)
	if err != nil {
		return nil, nil, parseError(uri, err)
	}

	chain := modifier.NewChain(page, r.factories...)
	out, err := chain.Apply(tree)
	if err != nil {
		return nil, nil, modifierError(uri, err)
	}

	rendered, err := out.Bytes()
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryInternal, "render document").
			WithContext("uri", uri).Build()
	}

	var scripts []string
	for _, m := range chain {
		if sm, ok := m.(interface{ Scripts() []string }); ok {
			scripts = append(scripts, sm.Scripts()...)
		}
	}
	return rendered, scripts, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return body, nil
}

// contentType uses the extension first and falls back to content sniffing.
func contentType(path string, body []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}

func isHTML(ct string) bool {
	media, _, err := mime.ParseMediaType(ct)
	return err == nil && media == "text/html"
}
