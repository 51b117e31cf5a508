package stub

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

var ErrNoModule = errors.New("no go.mod found")

// ImportPath resolves the import path of dir from the nearest enclosing
// go.mod.
func ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	for root := abs; ; {
		data, err := os.ReadFile(filepath.Join(root, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return "", fmt.Errorf("%s/go.mod: missing module directive", root)
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", err
			}
			return path.Join(mod, filepath.ToSlash(rel)), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("reading go.mod: %w", err)
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("%s: %w", dir, ErrNoModule)
		}
		root = parent
	}
}
