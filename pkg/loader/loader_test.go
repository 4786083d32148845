package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/lox/pkg/loader"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileLoaderImporterDirFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "util.lox"), "var where = \"app\";")
	writeFile(t, filepath.Join(root, "lib", "util.lox"), "var where = \"lib\";")

	l := loader.NewFileLoader(filepath.Join(root, "lib"))
	path, src, err := l.Load("util", filepath.Join(root, "app", "main.lox"))
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(root, "app", "util.lox") {
		t.Errorf("path = %s", path)
	}
	if !strings.Contains(src, "app") {
		t.Errorf("loaded the wrong module: %s", src)
	}
}

func TestFileLoaderImportPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "math.lox"), "fun sq(x) { return x * x; }")

	l := loader.NewFileLoader(filepath.Join(root, "missing"), filepath.Join(root, "lib"))
	path, src, err := l.Load("math", filepath.Join(root, "main.lox"))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(path) || filepath.Base(path) != "math.lox" {
		t.Errorf("path = %s", path)
	}
	if !strings.HasPrefix(src, "fun sq") {
		t.Errorf("src = %q", src)
	}
}

func TestFileLoaderExplicitExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "m.txt"), "print 1;")

	l := loader.NewFileLoader()
	if _, _, err := l.Load("m.txt", filepath.Join(root, "main.lox")); err != nil {
		t.Fatalf("explicit extension should be kept: %v", err)
	}
	if _, _, err := l.Load(filepath.Join(root, "m.txt"), ""); err != nil {
		t.Fatalf("absolute names should load directly: %v", err)
	}
}

func TestFileLoaderNotFound(t *testing.T) {
	root := t.TempDir()
	l := loader.NewFileLoader(filepath.Join(root, "lib"))
	_, _, err := l.Load("ghost", filepath.Join(root, "main.lox"))
	if !errors.Is(err, loader.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "ghost.lox") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestCandidatesDeduplicated(t *testing.T) {
	root := t.TempDir()
	l := loader.NewFileLoader(root, root)
	got := l.Candidates("x", filepath.Join(root, "main.lox"))
	if len(got) != 1 || got[0] != filepath.Join(root, "x.lox") {
		t.Errorf("Candidates = %v", got)
	}
}

func TestMapLoader(t *testing.T) {
	m := loader.MapLoader{
		"a":     "var a = 1;",
		"b.lox": "var b = 2;",
	}
	path, src, err := m.Load("a", "")
	if err != nil || path != "a.lox" || src != "var a = 1;" {
		t.Errorf("Load(a) = %q, %q, %v", path, src, err)
	}
	path, _, err = m.Load("b", "")
	if err != nil || path != "b.lox" {
		t.Errorf("Load(b) = %q, %v", path, err)
	}
	if _, _, err := m.Load("c", ""); !errors.Is(err, loader.ErrNotFound) {
		t.Errorf("Load(c) err = %v", err)
	}
}
