// Package files reads execution files for the budget tracker.
//
// Reads are relative to a root directory and cached in an LRU. Reading the
// same path twice returns the cached content until Forget is called, which
// the engine does when a file is unloaded or evicted.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/skillgate/internal/errs"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of files kept in memory.
const DefaultCacheSize = 64

// MaxFileSize rejects files larger than 1 MiB.
const MaxFileSize = 1 << 20

// Provider reads files under a root directory.
type Provider struct {
	root  string
	cache *lru.Cache[string, string]
}

// NewProvider returns a provider rooted at root. A cacheSize <= 0 uses
// DefaultCacheSize.
func NewProvider(root string, cacheSize int) (*Provider, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving file root: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating file cache: %w", err)
	}
	return &Provider{root: abs, cache: cache}, nil
}

// Root returns the absolute root directory.
func (p *Provider) Root() string { return p.root }

// Read returns the content of path. Missing files are not_found errors;
// paths that escape the root are validation errors.
func (p *Provider) Read(path string) (string, error) {
	key, full, err := p.resolve(path)
	if err != nil {
		return "", err
	}
	if content, ok := p.cache.Get(key); ok {
		return content, nil
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.NotFound("file", path)
		}
		return "", errs.Wrap(err, "reading "+path)
	}
	if info.IsDir() {
		return "", errs.Validation(fmt.Sprintf("%s is a directory", path), map[string]any{"path": path})
	}
	if info.Size() > MaxFileSize {
		return "", errs.Validation(
			fmt.Sprintf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), MaxFileSize),
			map[string]any{"path": path, "size": info.Size()},
		)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", errs.Wrap(err, "reading "+path)
	}
	content := string(data)
	p.cache.Add(key, content)
	return content, nil
}

// Key returns the canonical form of path: slash separated and relative to
// the root. It does not touch the disk.
func (p *Provider) Key(path string) (string, error) {
	key, _, err := p.resolve(path)
	return key, err
}

// Forget drops path from the cache so the next Read hits the disk.
func (p *Provider) Forget(path string) {
	if key, _, err := p.resolve(path); err == nil {
		p.cache.Remove(key)
	}
}

// resolve cleans path and returns its cache key (slash separated, relative
// to root) and absolute location.
func (p *Provider) resolve(path string) (string, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", errs.Validationf("file path is required")
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(p.root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(p.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", errs.Validation(
			fmt.Sprintf("path %s is outside the file root", path),
			map[string]any{"path": path, "root": p.root},
		)
	}
	return filepath.ToSlash(rel), full, nil
}
