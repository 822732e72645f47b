// Package pathutil implements the path-resolution collaborator described in
// spec.md §6: home-directory expansion, relative-to-CWD resolution, and
// canonicalization for every path-shaped request parameter, plus the
// absolute-to-relative conversion used when rendering results back to a
// caller. Lightning Code Index uses the same split (teacher's
// pkg/pathutil.ToRelative): the core always stores absolute paths, and this
// package is the only place that crosses between that and a user-facing
// relative path.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve expands "~"/"~/...", resolves relative paths against the current
// working directory, and canonicalizes the result. It returns an error the
// caller should surface as InvalidParams when the path cannot be expanded
// or does not exist.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(expanded) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve relative path %q: %w", path, err)
		}
		expanded = filepath.Join(cwd, expanded)
	}

	canonical, err := filepath.EvalSymlinks(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path not found: %s", path)
		}
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	return canonical, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// ToRelative converts an absolute path to one relative to root, falling
// back to the absolute form when the path lies outside root or the
// conversion fails.
//
// Examples:
//   - ToRelative("/proj/src/main.go", "/proj")  -> "src/main.go"
//   - ToRelative("/other/file.go", "/proj")     -> "/other/file.go"
func ToRelative(absPath, root string) string {
	if absPath == "" || root == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(absPath))
	if err != nil || strings.HasPrefix(rel, "..") {
		return absPath
	}
	return rel
}
