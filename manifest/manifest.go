// Package manifest handles tortuga.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tortugalang/tortuga/mem"
)

// Manifest represents a tortuga.toml configuration.
type Manifest struct {
	Project   Project         `toml:"project"`
	Memory    MemoryConfig    `toml:"memory"`
	GC        GCConfig        `toml:"gc"`
	Workspace WorkspaceConfig `toml:"workspace"`

	// Dir is the directory containing the tortuga.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// MemoryConfig sizes the interpreter's memory region. The defaults suit
// the small machines the interpreter targets; hosts running tests or
// tools can raise them freely.
type MemoryConfig struct {
	ArenaWords int `toml:"arena-words"`
	HeapNodes  int `toml:"heap-nodes"`
}

// GCConfig configures collector behavior.
type GCConfig struct {
	// StrictMarks makes a stale frame-arena mark panic instead of being
	// silently ignored. Debug builds only.
	StrictMarks bool `toml:"strict-marks"`
}

// WorkspaceConfig configures workspace persistence.
type WorkspaceConfig struct {
	// Library is the path to the snapshot library database, relative to
	// the manifest directory unless absolute.
	Library string `toml:"library"`

	// Autosave names the snapshot the host saves the workspace under at
	// shutdown. Empty disables autosaving.
	Autosave string `toml:"autosave"`
}

// Default sizes applied when the manifest leaves them unset.
const (
	DefaultArenaWords = mem.DefaultArenaWords
	DefaultHeapNodes  = mem.DefaultHeapNodes
	DefaultLibrary    = ".tortuga/workspace.db"
)

// Load parses a tortuga.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "tortuga.toml")
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

	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tortuga.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "tortuga.toml")
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

// Default returns a manifest with all defaults applied, anchored at dir.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Memory.ArenaWords <= 0 {
		m.Memory.ArenaWords = DefaultArenaWords
	}
	if m.Memory.HeapNodes <= 0 {
		m.Memory.HeapNodes = DefaultHeapNodes
	}
	if m.Workspace.Library == "" {
		m.Workspace.Library = DefaultLibrary
	}
}

// MemConfig converts the manifest's memory sections into a mem.Config.
func (m *Manifest) MemConfig() mem.Config {
	return mem.Config{
		ArenaWords:  m.Memory.ArenaWords,
		HeapNodes:   m.Memory.HeapNodes,
		StrictMarks: m.GC.StrictMarks,
	}
}

// LibraryPath returns the absolute path of the snapshot library database.
func (m *Manifest) LibraryPath() string {
	if filepath.IsAbs(m.Workspace.Library) {
		return m.Workspace.Library
	}
	return filepath.Join(m.Dir, m.Workspace.Library)
}
