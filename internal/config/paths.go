package config

import (
	"os"
	"path/filepath"
)

// DirName is the per-user state directory under the home directory.
const DirName = ".republic"

// Paths locates the files republic keeps on disk.
type Paths struct {
	Dir string
}

// DefaultPaths returns paths under ~/.republic, or ./.republic when the
// home directory cannot be determined.
func DefaultPaths() Paths {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{Dir: DirName}
	}
	return Paths{Dir: filepath.Join(home, DirName)}
}

// ConfigFile returns the path to config.yaml
func (p Paths) ConfigFile() string {
	return filepath.Join(p.Dir, "config.yaml")
}

// StoreFile returns the path to the session database
func (p Paths) StoreFile() string {
	return filepath.Join(p.Dir, "session.db")
}

// LogFile returns the path the terminal UI logs to
func (p Paths) LogFile() string {
	return filepath.Join(p.Dir, "republic.log")
}

// Ensure creates the state directory with owner-only permissions.
func (p Paths) Ensure() error {
	return os.MkdirAll(p.Dir, 0o700)
}

// DiscoverEnvFile looks for a .env file in the working directory and its
// parents, stopping at a git root. It returns "" when none is found.
func DiscoverEnvFile() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
