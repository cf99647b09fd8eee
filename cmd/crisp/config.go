package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/crisp-lang/crisp/pkg/context"
)

// ProjectConfig represents a crisp.toml project configuration file,
// modeled on dang.toml's role for the dang CLI: it names the source files
// belonging to a project and, optionally, the context-type binding the
// `check`/`run` commands should resolve member references against.
type ProjectConfig struct {
	// Sources lists the project's source files, relative to crisp.toml.
	Sources []string `toml:"sources"`

	// Context declares the host context type driving `check`/`run`, as a
	// data schema rather than a compiled Go struct (cmd/crisp is a
	// standalone binary; a project embedding Crisp as a library uses
	// context.FromStruct directly instead).
	Context *context.Schema `toml:"context"`

	// CacheDir is decoded from crisp.toml, but no command reads or writes a
	// cache; it has no effect.
	CacheDir string `toml:"cache_dir,omitempty"`
}

// LoadProjectConfig loads a crisp.toml file from the given path.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var config ProjectConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &config, nil
}

// FindProjectConfig searches for a crisp.toml file starting from dir and
// walking up to parent directories. Returns ("", nil, nil) if none is found
// before a filesystem or .git boundary.
func FindProjectConfig(dir string) (string, *ProjectConfig, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, "crisp.toml")
		if _, err := os.Stat(path); err == nil {
			config, err := LoadProjectConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// resolveContextType builds the root Descriptor and BlackboardLookup a
// config's Context schema describes. When the project declares none,
// `check`/`run` fall back to DemoAgent (demo.go) — cmd/crisp has no way to
// instantiate an arbitrary compiled host struct from crisp.toml alone, but
// a built-in fallback means the commands work against example trees with
// zero configuration.
func resolveContextType(cfg *ProjectConfig) (context.Descriptor, func(string) (context.Descriptor, bool), error) {
	if cfg == nil || cfg.Context == nil {
		reg, root := context.FromStruct(&DemoAgent{}, nil)
		return root, func(name string) (context.Descriptor, bool) { return reg.Lookup(name) }, nil
	}
	return context.FromSchema(*cfg.Context)
}
