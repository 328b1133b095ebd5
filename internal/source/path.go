package source

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// canonicalURI turns raw into an absolute http URI on authority with a
// normalized path. A path climbing above the root is rejected, never clamped.
func canonicalURI(raw, authority string) (*url.URL, string, error) {
	if strings.ContainsRune(raw, 0) {
		return nil, "", outOfRoot(raw, "NUL byte in identifier")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, "", notFound(raw, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
			return nil, "", outOfRoot(raw, "unsupported scheme "+ref.Scheme)
		}
		if ref.Host != authority {
			return nil, "", outOfRoot(raw, "foreign authority "+ref.Host)
		}
	}
	if strings.ContainsRune(ref.Path, 0) {
		return nil, "", outOfRoot(raw, "NUL byte in path")
	}

	rel, err := normalizePath(ref.Path)
	if err != nil {
		return nil, "", outOfRoot(raw, err.Error())
	}
	p := "/" + rel
	if rel != "" && strings.HasSuffix(ref.Path, "/") {
		p += "/"
	}
	u := &url.URL{Scheme: "http", Host: authority, Path: p, RawQuery: ref.RawQuery}
	return u, rel, nil
}

var errClimb = errors.New("path climbs above root")

// normalizePath resolves "." and ".." segments and returns the root-relative
// slash path without leading or trailing slashes.
func normalizePath(p string) (string, error) {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segs) == 0 {
				return "", errClimb
			}
			segs = segs[:len(segs)-1]
		default:
			segs = append(segs, seg)
		}
	}
	return strings.Join(segs, "/"), nil
}

// within reports whether path lies inside root. Both must be absolute and clean.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// locate maps rel onto the root, follows symlinks and resolves directories to
// their index file. dir reports whether rel named a directory.
func (r *Resolver) locate(uri, rel string) (path string, dir bool, err error) {
	candidate := filepath.Join(r.root, filepath.FromSlash(rel))
	resolved, err := r.confine(uri, candidate)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", false, r.statError(uri, resolved, err)
	}
	if !info.IsDir() {
		return resolved, false, nil
	}

	resolved, err = r.confine(uri, filepath.Join(resolved, indexFile))
	if err != nil {
		return "", true, err
	}
	info, err = os.Stat(resolved)
	if err != nil {
		return "", true, r.statError(uri, resolved, err)
	}
	if info.IsDir() {
		return "", true, notFound(uri, errors.New("directory without "+indexFile))
	}
	return resolved, true, nil
}

// confine evaluates symlinks in path and rejects targets outside the root.
func (r *Resolver) confine(uri, path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && r.brokenLinkEscapes(path) {
			return "", outOfRoot(uri, "symlink target leaves root")
		}
		return "", r.statError(uri, path, err)
	}
	if !within(r.root, resolved) {
		return "", outOfRoot(uri, "symlink target leaves root")
	}
	return resolved, nil
}

// maxLinkHops bounds symlink chains, matching the usual kernel limit.
const maxLinkHops = 40

// brokenLinkEscapes reports whether a symlink between the root and path
// points outside the root. It is only consulted when path does not resolve,
// so the chain may end at a missing target.
func (r *Resolver) brokenLinkEscapes(path string) bool {
	for p := path; p != r.root && within(r.root, p); p = filepath.Dir(p) {
		target, ok := linkTarget(p)
		for hops := 0; ok && hops < maxLinkHops; hops++ {
			if !within(r.root, target) {
				return true
			}
			target, ok = linkTarget(target)
		}
	}
	return false
}

// linkTarget returns the absolute target of p when p is a symlink.
func linkTarget(p string) (string, bool) {
	info, err := os.Lstat(p)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return "", false
	}
	target, err := os.Readlink(p)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(target) {
		dir := filepath.Dir(p)
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		target = filepath.Join(dir, target)
	}
	return filepath.Clean(target), true
}

func (r *Resolver) statError(uri, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrInvalid) || isNotDir(err) {
		return notFound(uri, err)
	}
	return readError(uri, path, err)
}
