// Package manifest handles mjc.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up by Load and FindAndLoad.
const FileName = "mjc.toml"

// DefaultOutput is the bytecode path used when none is configured.
const DefaultOutput = "output.bc"

// Manifest represents an mjc.toml project configuration.
type Manifest struct {
	Project Project  `toml:"project"`
	Source  Source   `toml:"source"`
	Build   Build    `toml:"build"`
	VM      VMConfig `toml:"vm"`

	// Dir is the directory containing the mjc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations. Files are compiled in the
// order listed, followed by the .java files of each directory in name
// order.
type Source struct {
	Files []string `toml:"files"`
	Dirs  []string `toml:"dirs"`
}

// Build configures compiler output.
type Build struct {
	Output string `toml:"output"`
	CFG    string `toml:"cfg"` // Graphviz dump of the CFG, none when empty
}

// VMConfig configures the interpreter.
type VMConfig struct {
	Entry        string `toml:"entry"` // class whose main runs first
	StrictLoads  bool   `toml:"strict-loads"`
	MaxCallDepth int    `toml:"max-call-depth"`
	Trace        bool   `toml:"trace"`
}

// Load parses an mjc.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.VM.MaxCallDepth < 0 {
		return nil, fmt.Errorf("%s: max-call-depth must not be negative", path)
	}

	// Defaults
	if len(m.Source.Files) == 0 && len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Build.Output == "" {
		m.Build.Output = DefaultOutput
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an mjc.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// SourcePaths returns absolute paths of every configured source file.
// Missing directories are skipped.
func (m *Manifest) SourcePaths() ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, f := range m.Source.Files {
		add(m.abs(f))
	}
	for _, d := range m.Source.Dirs {
		matches, err := filepath.Glob(filepath.Join(m.abs(d), "*.java"))
		if err != nil {
			return nil, fmt.Errorf("source dir %s: %w", d, err)
		}
		sort.Strings(matches)
		for _, p := range matches {
			add(p)
		}
	}
	return paths, nil
}

// OutputPath returns the absolute bytecode output path.
func (m *Manifest) OutputPath() string {
	return m.abs(m.Build.Output)
}

// CFGPath returns the absolute CFG dump path, or "" when disabled.
func (m *Manifest) CFGPath() string {
	if m.Build.CFG == "" {
		return ""
	}
	return m.abs(m.Build.CFG)
}
