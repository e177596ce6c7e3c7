// Package loader is the filesystem module loader: the external
// collaborator the compiler calls through compiler.ModuleLoader to
// read and canonicalize import paths.
package loader

import (
	"os"
	"path/filepath"
)

// FS reads source files from the local filesystem and canonicalizes
// paths (symlink resolution, so two import spellings of the same file
// share one cache entry) for the compiler's import cycle/memoization
// cache.
type FS struct {
	// Roots holds extra directories tried, in order, when Load cannot
	// read path as given: each root is joined with path unchanged. The
	// compiler hands Load an import path already joined with the
	// importing file's absolute directory, so the roots do not find
	// imports; they apply to a path that reaches Load still relative,
	// such as the entry file named on the command line.
	// Populated from an optional imp.yaml project file (see cmd/imp).
	Roots []string
}

func (f FS) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	for _, root := range f.Roots {
		data, rootErr := os.ReadFile(filepath.Join(root, path))
		if rootErr == nil {
			return string(data), nil
		}
	}
	return "", err
}

func (f FS) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The file may not exist yet relative to every search root;
		// fall back to the absolute (unresolved) path rather than
		// failing canonicalization outright.
		return abs, nil
	}
	return resolved, nil
}

func (f FS) Dir(canonicalPath string) string {
	return filepath.Dir(canonicalPath)
}
