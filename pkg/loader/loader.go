// Package loader resolves Lox import names to module source text.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is wrapped by every "no such module" error.
var ErrNotFound = errors.New("module not found")

// Extension is appended to import names that carry none.
const Extension = ".lox"

func moduleFile(name string) string {
	if filepath.Ext(name) == "" {
		return name + Extension
	}
	return name
}

// FileLoader reads modules from disk. A relative name is looked up next to
// the importing file first, then in each of ImportPaths in order.
type FileLoader struct {
	ImportPaths []string
}

// NewFileLoader creates a loader searching the given directories.
func NewFileLoader(importPaths ...string) *FileLoader {
	return &FileLoader{ImportPaths: importPaths}
}

// Candidates lists the paths Load tries for name, in order.
func (l *FileLoader) Candidates(name, importer string) []string {
	file := moduleFile(name)
	if filepath.IsAbs(file) {
		return []string{filepath.Clean(file)}
	}
	dirs := make([]string, 0, len(l.ImportPaths)+1)
	dirs = append(dirs, filepath.Dir(importer))
	dirs = append(dirs, l.ImportPaths...)

	out := make([]string, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		p := filepath.Join(dir, file)
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Load implements evaluator.ModuleLoader. The returned path is absolute, so
// the same file reached through different names is executed once.
func (l *FileLoader) Load(name, importer string) (string, string, error) {
	candidates := l.Candidates(name, importer)
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return path, string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return "", "", fmt.Errorf("%w: %s (searched %s)", ErrNotFound, moduleFile(name), strings.Join(candidates, ", "))
}

// MapLoader serves modules from memory, keyed by import name with or
// without the extension.
type MapLoader map[string]string

// Load implements evaluator.ModuleLoader.
func (m MapLoader) Load(name, importer string) (string, string, error) {
	file := moduleFile(name)
	if src, ok := m[name]; ok {
		return file, src, nil
	}
	if src, ok := m[file]; ok {
		return file, src, nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrNotFound, file)
}
