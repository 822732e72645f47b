// Package walker implements the Walker collaborator spec.md §4.3 step 1
// names: a directory traversal that respects version-control ignore rules
// and skips non-source files, handing the Pipeline one path at a time.
// Grounded on the teacher's FileScanner.ScanDirectory (internal/indexing/
// pipeline.go): filepath.Walk with a visited-directories set to guard
// against symlink cycles, and gitignore-aware skipping via
// internal/config.GitignoreParser — generalized from the teacher's
// glob-pattern include/exclude lists to the fixed extension table
// internal/parser.LanguageForPath owns.
package walker

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/codeindex/internal/config"
	"github.com/standardbeagle/codeindex/internal/parser"
)

// Walker enumerates source files under a root directory.
type Walker struct {
	exclude    []string
	gitignore  *config.GitignoreParser
}

func New(cfg *config.Config) *Walker {
	exclude := append([]string(nil), cfg.Index.Exclude...)
	exclude = append(exclude, config.NewBuildArtifactDetector(cfg.Project.Root).DetectExcludeGlobs()...)

	w := &Walker{exclude: exclude}
	if cfg.Index.RespectGitignore {
		gi := config.NewGitignoreParser()
		if err := gi.LoadGitignore(cfg.Project.Root); err == nil {
			w.gitignore = gi
		}
	}
	return w
}

// Walk calls visit(path) for every regular file under root whose extension
// is in the closed language table, skipping directories excluded by the
// configured glob list or by .gitignore, and guarding against symlink
// cycles the way the teacher's ScanDirectory does.
func (w *Walker) Walk(root string, visit func(path string) error) error {
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // one unreadable entry does not abort the whole walk
		}

		if info.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visited[real] {
				return filepath.SkipDir
			}
			visited[real] = true

			if path != root && w.shouldExcludeDir(root, path) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldExcludeFile(root, path) {
			return nil
		}
		if _, ok := parser.LanguageForPath(path); !ok {
			return nil
		}

		return visit(path)
	})
}

func (w *Walker) shouldExcludeDir(root, path string) bool {
	rel := relSlash(root, path)
	if w.matchesExclude(rel + "/") {
		return true
	}
	return w.gitignore != nil && w.gitignore.ShouldIgnore(rel, true)
}

func (w *Walker) shouldExcludeFile(root, path string) bool {
	rel := relSlash(root, path)
	if w.matchesExclude(rel) {
		return true
	}
	return w.gitignore != nil && w.gitignore.ShouldIgnore(rel, false)
}

func (w *Walker) matchesExclude(relPath string) bool {
	for _, pattern := range w.exclude {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
