package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	TargetFolders []string `toml:"target_folders"`
	DataDir       string   `toml:"data_dir"`
	LogDir        string   `toml:"log_dir"`
}

// Engine contains tuning for the organization pipeline.
type Engine struct {
	CooldownSeconds        int      `toml:"cooldown_seconds"`
	FolderMode             string   `toml:"folder_mode"`
	SampleCapPerFolder     int      `toml:"sample_cap_per_folder"`
	DecisionRetentionCount int      `toml:"decision_retention_count"`
	TransientSuffixes      []string `toml:"transient_suffixes"`
	Ignore                 []string `toml:"ignore"`
	DefaultCategory        string   `toml:"default_category"`
	Workers                int      `toml:"workers"`
}

// Rule describes one classification rule. Children refine the category
// into subcategories; sibling order is significant (first match wins).
type Rule struct {
	Category    string   `toml:"category"`
	Subcategory string   `toml:"subcategory"`
	Extensions  []string `toml:"extensions"`
	Patterns    []string `toml:"patterns"`
	Children    []Rule   `toml:"children"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
	Moves          bool   `toml:"moves"`
	Decisions      bool   `toml:"decisions"`
}

// Daemon contains daemon runtime configuration.
type Daemon struct {
	SocketPath string `toml:"socket_path"`
}

// Folder handling modes recognized by the classifier.
const (
	FolderModeSmartScan    = "smart_scan"
	FolderModeMoveToOthers = "move_to_others"
	FolderModeIgnore       = "ignore"
)

// Config encapsulates all configuration values for tidycore.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Rules         []Rule        `toml:"rules"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Daemon        Daemon        `toml:"daemon"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tidycore/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tidycore.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs to run.
// Watched roots are not created: a missing root is a degraded-watch
// condition the watcher reports, not something to silently paper over.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CooldownDuration returns the configured per-path settle window.
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.Engine.CooldownSeconds) * time.Second
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	if strings.TrimSpace(c.Daemon.SocketPath) != "" {
		return c.Daemon.SocketPath
	}
	return filepath.Join(c.Paths.DataDir, "tidycored.sock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "tidycore.log")
}

// IsTransient reports whether name carries a known partial-download suffix.
func (c *Config) IsTransient(name string) bool {
	lowered := strings.ToLower(name)
	for _, suffix := range c.Engine.TransientSuffixes {
		if strings.HasSuffix(lowered, suffix) {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if pathValue == downloadsPlaceholder {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, "Downloads"), nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
