// Package config loads the project configuration the pipeline and watcher
// run with: root directory, include/exclude globs, memory limit, and watch
// settings. Defaults match the spec; a KDL config file and, for the memory
// limit, a single environment variable override them. Not every field is
// consulted by the rest of the module; see the notes on Index.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// MemoryLimitEnvVar is the single environment variable spec.md §6 allows:
// it overrides the configured memory limit, in MiB.
const MemoryLimitEnvVar = "CODEINDEX_MAX_MEMORY_MB"

const defaultMemoryLimitMB = 1024

// ConfigFileName is the KDL file name the CLI looks for in the project
// root, mirroring the teacher's ".lci.kdl" convention.
const ConfigFileName = ".codeindex.kdl"

type Config struct {
	Project Project
	Index   Index
	Watch   Watch
}

type Project struct {
	Root string
}

type Index struct {
	// Include is stored from the config file or --include; the walker does
	// not consult it, so every file with a supported extension is indexed.
	Include         []string
	Exclude         []string
	// MaxFileSizeByte is read from max_file_size_mb; the Pipeline does not
	// consult it and applies its own fixed 10 MiB per-file cap.
	MaxFileSizeByte int64
	MemoryLimitMB   int
	RespectGitignore bool
}

type Watch struct {
	Enabled     bool
	DebounceMs  int
}

// Default returns the configuration spec.md's defaults describe: a 10 MiB
// per-file cap, a 1 GiB memory budget, gitignore respected, watch mode off.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Index: Index{
			Include:          nil, // nil = everything the extension table covers
			Exclude:          defaultExcludes(),
			MaxFileSizeByte:  10 * 1024 * 1024,
			MemoryLimitMB:    defaultMemoryLimitMB,
			RespectGitignore: true,
		},
		Watch: Watch{
			Enabled:    false,
			DebounceMs: 100,
		},
	}
}

func defaultExcludes() []string {
	return []string{
		"**/.git/**", "**/node_modules/**", "**/vendor/**",
		"**/target/**", "**/dist/**", "**/build/**", "**/.cache/**",
	}
}

// Load reads the KDL config file under root, if present, layering it over
// Default(root), then applies the CODEINDEX_MAX_MEMORY_MB override. A
// missing config file is not an error — the defaults stand.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := applyKDLFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(MemoryLimitEnvVar); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			cfg.Index.MemoryLimitMB = mb
		}
	}
}
