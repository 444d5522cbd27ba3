// Package finder expands command line arguments into stylesheet paths.
package finder

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultPattern is searched under a directory argument.
const DefaultPattern = "**/*.uss"

// StylesheetFinder resolves globs, directories and plain paths to files.
type StylesheetFinder interface {
	Find(ctx context.Context, args []string) ([]string, error)
}

// FileInfo is a found stylesheet and its content.
type FileInfo struct {
	Path    string
	Content []byte
}

type DefaultFinder struct {
	fs afero.Fs
}

var _ StylesheetFinder = (*DefaultFinder)(nil)

func NewDefaultFinder(fs afero.Fs) *DefaultFinder {
	return &DefaultFinder{fs: fs}
}

// Find returns the sorted, deduplicated files matched by args. A directory
// argument means DefaultPattern under it. An argument that matches nothing
// is an error.
func (f *DefaultFinder) Find(ctx context.Context, args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string

	for _, arg := range args {
		pattern := filepath.Clean(arg)
		if isDir, _ := afero.IsDir(f.fs, pattern); isDir {
			pattern = filepath.Join(pattern, DefaultPattern)
		}
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, errors.Errorf("invalid pattern %q", arg)
		}

		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matched := 0
		err := afero.Walk(f.fs, filepath.FromSlash(base), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if info.IsDir() {
				return nil
			}
			ok, err := doublestar.PathMatch(pattern, path)
			if err != nil || !ok {
				return err
			}
			matched++
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Errorf("searching %s: %w", arg, err)
		}
		if matched == 0 {
			return nil, errors.Errorf("no stylesheets match %s", arg)
		}
	}

	slices.Sort(out)
	return out, nil
}

// Read loads the content of each path.
func (f *DefaultFinder) Read(ctx context.Context, paths []string) ([]FileInfo, error) {
	files := make([]FileInfo, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := afero.ReadFile(f.fs, path)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", path, err)
		}
		files = append(files, FileInfo{Path: path, Content: content})
	}
	return files, nil
}
