package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "grader"

// Dirs provides XDG Base Directory compliant paths for the grader.
type Dirs struct {
	dataHome   string
	configHome string
	cacheHome  string
}

// New resolves the base directories from getenv, falling back to the
// defaults under home. A nil getenv reads the process environment.
func New(getenv func(string) string) *Dirs {
	if getenv == nil {
		getenv = os.Getenv
	}
	home := getenv("HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		} else {
			home = os.TempDir()
		}
	}

	return &Dirs{
		dataHome:   dirOr(getenv("XDG_DATA_HOME"), filepath.Join(home, ".local", "share")),
		configHome: dirOr(getenv("XDG_CONFIG_HOME"), filepath.Join(home, ".config")),
		cacheHome:  dirOr(getenv("XDG_CACHE_HOME"), filepath.Join(home, ".cache")),
	}
}

// Relative paths are invalid per the XDG rules and are ignored.
func dirOr(v string, fallback string) string {
	if v == "" || !filepath.IsAbs(v) {
		return fallback
	}
	return v
}

func (d *Dirs) DataHome() string   { return d.dataHome }
func (d *Dirs) ConfigHome() string { return d.configHome }
func (d *Dirs) CacheHome() string  { return d.cacheHome }

// ConfigFile is the default location of config.toml.
func (d *Dirs) ConfigFile() string {
	return filepath.Join(d.configHome, AppName, "config.toml")
}

// EnvFile is the default location of the .env overlay.
func (d *Dirs) EnvFile() string {
	return filepath.Join(d.configHome, AppName, ".env")
}

// AppDataDir returns the grader's data directory, used as the default
// workspace for clones.
func (d *Dirs) AppDataDir() string {
	return filepath.Join(d.dataHome, AppName)
}

// EnsureDir creates the directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
