package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LockFileName is the name of the resolved dependency lockfile.
const LockFileName = "manganis.lock"

// Lockfile is the fully resolved dependency set of a workspace.
type Lockfile struct {
	Version  int             `toml:"version"`
	Packages []LockedPackage `toml:"package"`
}

// LockedPackage is one resolved package. Dependencies are written as "name", "name version" or
// "name version (source)".
type LockedPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source,omitempty"`
	Dependencies []string `toml:"dependencies,omitempty"`
}

// DependencyRef is a parsed dependency entry.
type DependencyRef struct {
	Name    string
	Version string
	Source  string
}

// LoadLockfile parses the lockfile at path.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read lockfile %s: %w", path, err)
	}

	var lock Lockfile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse error in lockfile %s: %w", path, err)
	}
	for i, pkg := range lock.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			return nil, fmt.Errorf("lockfile %s: package[%d] must set name and version", path, i)
		}
	}
	return &lock, nil
}

// WriteLockfile writes a lockfile to path.
func WriteLockfile(path string, lock *Lockfile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create lockfile %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(lock); err != nil {
		return fmt.Errorf("cannot encode lockfile %s: %w", path, err)
	}
	return nil
}

// FindLockfile walks up from startDir to the nearest manganis.lock. Workspaces keep a single lockfile at their root,
// above the member packages.
func FindLockfile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, LockFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", LockFileName, startDir)
		}
		dir = parent
	}
}

// ParseDependencyRef splits a dependency entry into its name, optional version and optional source.
func ParseDependencyRef(entry string) (DependencyRef, error) {
	entry = strings.TrimSpace(entry)
	var ref DependencyRef

	if open := strings.Index(entry, "("); open >= 0 {
		if !strings.HasSuffix(entry, ")") {
			return DependencyRef{}, fmt.Errorf("malformed dependency entry '%s'", entry)
		}
		ref.Source = strings.TrimSpace(entry[open+1 : len(entry)-1])
		entry = strings.TrimSpace(entry[:open])
	}

	fields := strings.Fields(entry)
	switch len(fields) {
	case 1:
		ref.Name = fields[0]
	case 2:
		ref.Name, ref.Version = fields[0], fields[1]
	default:
		return DependencyRef{}, fmt.Errorf("malformed dependency entry '%s'", entry)
	}
	return ref, nil
}
