package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector inspects a project root's manifest files for
// custom build-output directories so the Walker can exclude them even
// when they are not named in the project's own exclude globs or
// .gitignore. Grounded on the teacher's
// internal/config/build_artifact_detector.go, narrowed to the two
// manifest formats the retrieved pack gives a parser for: Cargo.toml
// (github.com/pelletier/go-toml/v2, the teacher's own dependency for
// this file) and package.json (encoding/json, as the teacher does).
type BuildArtifactDetector struct {
	projectRoot string
}

func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectExcludeGlobs returns doublestar-style exclude patterns for any
// custom output directories declared in the project's manifest files.
func (d *BuildArtifactDetector) DetectExcludeGlobs() []string {
	var patterns []string
	patterns = append(patterns, d.detectRustOutputs()...)
	patterns = append(patterns, d.detectJavaScriptOutputs()...)
	return patterns
}

// detectRustOutputs reads Cargo.toml's [profile.release] target-dir, the
// one field cargo lets a project customize away from the default
// target/ directory the walker already excludes.
func (d *BuildArtifactDetector) detectRustOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var cargo struct {
		Profile struct {
			Release struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"release"`
		} `toml:"profile"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil
	}
	if cargo.Profile.Release.TargetDir == "" {
		return nil
	}
	return []string{"**/" + cargo.Profile.Release.TargetDir + "/**"}
}

// detectJavaScriptOutputs reads package.json's "build.outDir" field, the
// shape the teacher's detector also reads for custom dist directories.
func (d *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Build struct {
			OutDir string `json:"outDir"`
		} `json:"build"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	if pkg.Build.OutDir == "" {
		return nil
	}
	return []string{"**/" + pkg.Build.OutDir + "/**"}
}
