package config

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ProjectConfigFile is the per-repository config file name.
	ProjectConfigFile = "knowhook.yaml"
	// UserConfigDir holds the user-level config, relative to $HOME.
	UserConfigDir = ".config/knowhook"
	// UserConfigFile is the user-level config file name.
	UserConfigFile = "config.yaml"

	// EnvPrefix is shared by all environment overrides.
	EnvPrefix = "KNOWHOOK_"
)

// Loader assembles the effective configuration from layered sources.
// Later layers win: defaults, then the user config file, then the
// project config file, then KNOWHOOK_* environment variables.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves the effective configuration and validates it. The repo
// path, when not set by any layer, is auto-detected from git.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		l.mergeFile(config, path, "user")
	}
	if path := l.findProjectConfig(); path != "" {
		l.mergeFile(config, path, "project")
	} else {
		l.logger.Debug("no project config found")
	}

	l.applyEnv(config)

	if config.Repo.Path == "" {
		config.Repo.Path = l.detectRepoRoot()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile overlays one config file onto config. A missing file is
// normal; any other read or parse failure is logged and skipped.
func (l *Loader) mergeFile(config *Config, path, layer string) {
	overlay, err := LoadFromFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("failed to load config layer",
				slog.String("layer", layer),
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return
	}
	l.logger.Debug("loaded config layer", slog.String("layer", layer), slog.String("path", path))
	config.Merge(overlay)
}

// applyEnv overlays KNOWHOOK_* variables, the highest-precedence layer.
// A malformed KNOWHOOK_TIMEOUT is ignored rather than fatal.
func (l *Loader) applyEnv(config *Config) {
	set := func(key string, apply func(string)) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			apply(v)
		}
	}

	set("HOOKS_DIR", func(v string) { config.Engine.HooksDir = v })
	set("DATA_DIR", func(v string) { config.Engine.DataDir = v })
	set("REPO_PATH", func(v string) { config.Repo.Path = v })
	set("NATS_URL", func(v string) { config.NATS.URL = v })
	set("NATS_SUBJECT", func(v string) { config.NATS.Subject = v })
	set("REPORTS_DIR", func(v string) { config.Reports.Dir = v })
	set("TIMEOUT", func(v string) {
		d, err := time.ParseDuration(v)
		if err != nil {
			l.logger.Warn("invalid KNOWHOOK_TIMEOUT, keeping previous value",
				slog.String("value", v))
			return
		}
		config.Engine.Timeout = d
	})
	set("REPORTS_DISABLED", func(v string) {
		config.Reports.Disabled = v == "true" || v == "1"
	})
}

// EnsureUserConfig writes a default user config file if none exists.
func (l *Loader) EnsureUserConfig() error {
	path := l.userConfigPath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := DefaultConfig().SaveToFile(path); err != nil {
		return err
	}
	l.logger.Info("created default user config", slog.String("path", path))
	return nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig walks from the working directory toward the
// filesystem root looking for knowhook.yaml.
func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// detectRepoRoot resolves the git toplevel, falling back to the working
// directory outside a repository.
func (l *Loader) detectRepoRoot() string {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		root := strings.TrimSpace(string(out))
		l.logger.Debug("auto-detected git root", slog.String("path", root))
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	l.logger.Debug("using current directory as repo root", slog.String("path", cwd))
	return cwd
}
