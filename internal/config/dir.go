package config

import (
	"os"
	"path/filepath"
)

// DirName is the data directory created by `tkt init`.
const DirName = ".tkt"

// FindDir walks up from the working directory looking for a .tkt
// directory. Returns the absolute path, or "" if none is found.
func FindDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return FindDirFrom(cwd)
}

// FindDirFrom walks up from start looking for a .tkt directory.
func FindDirFrom(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Paths resolves the well-known files inside a .tkt data directory.
type Paths struct {
	Root string
}

func (p Paths) Items() string      { return filepath.Join(p.Root, "items") }
func (p Paths) Queue() string      { return filepath.Join(p.Root, "queue.json") }
func (p Paths) ConfigFile() string { return filepath.Join(p.Root, "config.toml") }
func (p Paths) CacheDB() string    { return filepath.Join(p.Root, "cache.db") }
func (p Paths) DaemonLog() string  { return filepath.Join(p.Root, "daemon.log") }
