package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDLFile parses a .codeindex.kdl document and layers its values onto
// cfg, the way the teacher's LoadKDL layers .lci.kdl onto its own defaults.
//
// Shape:
//
//	project {
//	    root "."
//	}
//	index {
//	    include "**/*.go" "**/*.py"
//	    exclude "**/testdata/**"
//	    max_file_size_mb 10
//	    memory_limit_mb 1024
//	    respect_gitignore true
//	}
//	watch {
//	    enabled true
//	    debounce_ms 100
//	}
func applyKDLFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignString(cn, "root", func(v string) { cfg.Project.Root = v })
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include":
					cfg.Index.Include = stringArgs(cn)
				case "exclude":
					cfg.Index.Exclude = stringArgs(cn)
				case "max_file_size_mb":
					if v, ok := intArg(cn); ok {
						cfg.Index.MaxFileSizeByte = int64(v) * 1024 * 1024
					}
				case "memory_limit_mb":
					if v, ok := intArg(cn); ok {
						cfg.Index.MemoryLimitMB = v
					}
				case "respect_gitignore":
					if b, ok := boolArg(cn); ok {
						cfg.Index.RespectGitignore = b
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := boolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := intArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func intArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func boolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func stringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func assignString(n *document.Node, target string, set func(string)) {
	if nodeName(n) != target || len(n.Arguments) == 0 {
		return
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		set(s)
	}
}
