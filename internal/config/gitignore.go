package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser applies the patterns from a single .gitignore file found
// at a project root. It is intentionally simpler than a full git
// implementation: per-directory .gitignore files and !-negation ordering
// subtleties are out of scope, matching the Walker's "respect VCS ignore
// rules" requirement (spec.md §4.3 step 1) rather than full git semantics.
type GitignoreParser struct {
	patterns []gitignorePattern
}

type gitignorePattern struct {
	glob      string
	negate    bool
	dirOnly   bool
}

func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore reads root/.gitignore. A missing file is not an error.
func (p *GitignoreParser) LoadGitignore(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pat := gitignorePattern{glob: line}
		if strings.HasPrefix(pat.glob, "!") {
			pat.negate = true
			pat.glob = strings.TrimPrefix(pat.glob, "!")
		}
		if strings.HasSuffix(pat.glob, "/") {
			pat.dirOnly = true
			pat.glob = strings.TrimSuffix(pat.glob, "/")
		}
		if !strings.Contains(pat.glob, "/") {
			pat.glob = "**/" + pat.glob
		} else if strings.HasPrefix(pat.glob, "/") {
			pat.glob = strings.TrimPrefix(pat.glob, "/")
		}
		if !strings.Contains(pat.glob, "*") {
			pat.glob = pat.glob + "{,/**}"
		} else if !strings.HasSuffix(pat.glob, "/**") {
			pat.glob = pat.glob + "{,/**}"
		}

		p.patterns = append(p.patterns, pat)
	}
	return scanner.Err()
}

// ShouldIgnore reports whether relPath (forward-slash, root-relative)
// matches the loaded patterns. Later patterns win, matching git's
// last-match-wins semantics; a trailing negated match un-ignores a path.
func (p *GitignoreParser) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	ignored := false
	for _, pat := range p.patterns {
		if pat.dirOnly && !isDir {
			continue
		}
		matched, err := doublestar.Match(pat.glob, relPath)
		if err != nil || !matched {
			continue
		}
		ignored = !pat.negate
	}
	return ignored
}
