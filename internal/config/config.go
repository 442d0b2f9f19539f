// Package config resolves the hook runner's settings once, from the
// environment, into an explicit value passed to every constructor.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/hoofy-hooks/internal/logging"
)

// Environment variables read by FromEnv.
const (
	EnvProjectDir    = "CLAUDE_PROJECT_DIR"
	EnvSkipSlowHooks = "ORCHESTKIT_SKIP_SLOW_HOOKS"
	EnvLogLevel      = "HOOFY_HOOKS_LOG_LEVEL"
	EnvLog           = "HOOFY_HOOKS_LOG"
)

// Overridable in tests.
var (
	userHomeDir = os.UserHomeDir
	getwd       = os.Getwd
)

// Config holds resolved settings.
type Config struct {
	// ProjectDir is the project root fallback used when the host input
	// carries no project_dir.
	ProjectDir string
	// HomeDir holds the global pattern store.
	HomeDir string
	// SkipSlowHooks short-circuits pull sync and the dependency scan.
	SkipSlowHooks bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogDisabled turns off the file log.
	LogDisabled bool
}

// FromEnv builds a Config from lookup, normally os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		ProjectDir:    get(EnvProjectDir),
		SkipSlowHooks: truthy(get(EnvSkipSlowHooks)),
		LogLevel:      strings.ToLower(get(EnvLogLevel)),
		LogDisabled:   strings.EqualFold(get(EnvLog), "off"),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if home, err := userHomeDir(); err == nil {
		cfg.HomeDir = home
	}
	return cfg
}

// Load is FromEnv over the process environment.
func Load() Config {
	return FromEnv(os.LookupEnv)
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ResolveProjectDir picks the project directory for one invocation: the
// host-supplied dir, then the configured root, then the working directory.
func (c Config) ResolveProjectDir(inputDir string) string {
	if dir := strings.TrimSpace(inputDir); dir != "" {
		return dir
	}
	if c.ProjectDir != "" {
		return c.ProjectDir
	}
	if wd, err := getwd(); err == nil {
		return wd
	}
	return "."
}

// LogPath is the rotated hook log for a project.
func LogPath(projectDir string) string {
	return filepath.Join(projectDir, ".claude", "logs", "hooks.log")
}

// LogOptions returns the logging settings for a project.
func (c Config) LogOptions(projectDir string) logging.Options {
	return logging.Options{
		Path:     LogPath(projectDir),
		Level:    c.LogLevel,
		Disabled: c.LogDisabled,
	}
}
