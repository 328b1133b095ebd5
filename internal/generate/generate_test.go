package generate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
	"git.home.luguber.info/inful/reqaz/internal/source"
)

func setup(t *testing.T, files map[string]string) (*source.Resolver, string) {
	t.Helper()
	site := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(site, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	r, err := source.NewResolver(site, "localhost:5000",
		source.WithModifiers(modifier.NewScriptFactory(nil)))
	require.NoError(t, err)
	return r, t.TempDir()
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestRun_SkipPolicyCountsOnlySuccesses(t *testing.T) {
	resolver, out := setup(t, map[string]string{
		"present.html": `<p>ok</p><nib:script>gone()</nib:script>`,
	})
	logger, logs := captureLogger()
	g, err := New(resolver, out, WithLogger(logger))
	require.NoError(t, err)

	report, err := g.Run(context.Background(), []Entry{
		{Input: "missing.html", Output: "missing.html"},
		{Input: "present.html", Output: "nested/dir/present.html"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.ErrorIs(t, report.Results[0].Err, source.ErrNotFound)
	assert.NoError(t, report.Results[1].Err)

	got, err := os.ReadFile(filepath.Join(out, "nested", "dir", "present.html"))
	require.NoError(t, err)
	assert.Equal(t, `<p>ok</p>`, string(got))
	assert.NoFileExists(t, filepath.Join(out, "missing.html"))

	assert.Contains(t, logs.String(), "Skipped pipeline entry")
	assert.Contains(t, logs.String(), "input=missing.html")
}

func TestRun_FailPolicyAttemptsAllAndJoinsErrors(t *testing.T) {
	resolver, out := setup(t, map[string]string{"b.html": `<p>b</p>`})
	logger, _ := captureLogger()
	g, err := New(resolver, out, WithPolicy(PolicyFail), WithLogger(logger), WithWorkers(1))
	require.NoError(t, err)

	report, err := g.Run(context.Background(), []Entry{
		{Input: "a.html", Output: "a.html"},
		{Input: "b.html", Output: "b.html"},
		{Input: "../etc/passwd", Output: "c.html"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotFound)
	assert.ErrorIs(t, err, source.ErrOutOfRoot)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))

	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 2, report.Failed)
	assert.Len(t, report.Failures(), 2)
	assert.FileExists(t, filepath.Join(out, "b.html"))
}

func TestRun_OutputEscapingOutputDir(t *testing.T) {
	resolver, out := setup(t, map[string]string{"a.html": `<p>a</p>`})
	logger, _ := captureLogger()
	g, err := New(resolver, out, WithLogger(logger))
	require.NoError(t, err)

	report, err := g.Run(context.Background(), []Entry{
		{Input: "a.html", Output: "../escape.html"},
		{Input: "a.html", Output: "/abs.html"},
		{Input: "a.html", Output: ""},
		{Input: "a.html", Output: "ok/../fine.html"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Generated)
	assert.ErrorIs(t, report.Results[0].Err, ErrOutputEscapes)
	assert.ErrorIs(t, report.Results[1].Err, ErrOutputEscapes)
	assert.Error(t, report.Results[2].Err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "escape.html"))
	assert.FileExists(t, filepath.Join(out, "fine.html"))
}

func TestRun_FailedEntryKeepsExistingOutput(t *testing.T) {
	resolver, out := setup(t, nil)
	logger, _ := captureLogger()
	g, err := New(resolver, out, WithLogger(logger))
	require.NoError(t, err)
	existing := filepath.Join(out, "page.html")
	require.NoError(t, os.WriteFile(existing, []byte("previous"), 0o644))

	report, err := g.Run(context.Background(), []Entry{{Input: "gone.html", Output: "page.html"}})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generated)

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestRun_ManyEntriesKeepInputOrder(t *testing.T) {
	files := map[string]string{}
	var entries []Entry
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[name+".html"] = "<p>" + name + "</p>"
		entries = append(entries, Entry{Input: name + ".html", Output: "out/" + name + ".html"})
	}
	resolver, out := setup(t, files)
	logger, _ := captureLogger()
	g, err := New(resolver, out, WithLogger(logger), WithWorkers(3))
	require.NoError(t, err)

	report, err := g.Run(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, len(entries), report.Generated)
	for i, res := range report.Results {
		assert.Equal(t, entries[i].Input, res.Input)
		got, readErr := os.ReadFile(res.Path)
		require.NoError(t, readErr)
		assert.Equal(t, files[entries[i].Input], string(got))
	}
}

func TestRun_Canceled(t *testing.T) {
	resolver, out := setup(t, map[string]string{"a.html": `<p>a</p>`})
	logger, _ := captureLogger()
	g, err := New(resolver, out, WithLogger(logger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := g.Run(ctx, []Entry{{Input: "a.html", Output: "a.html"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, report.Generated)
}

func TestRun_NoEntries(t *testing.T) {
	resolver, out := setup(t, nil)
	g, err := New(resolver, out)
	require.NoError(t, err)

	report, err := g.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generated)
	assert.Empty(t, report.Results)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, t.TempDir())
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))

	resolver, _ := setup(t, nil)
	_, err = New(resolver, " ")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicySkip, "skip": PolicySkip, " FAIL ": PolicyFail} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("ignore")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}
