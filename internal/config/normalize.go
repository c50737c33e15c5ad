package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var categoryCaser = cases.Title(language.English, cases.NoLower)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeRules()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	roots := make([]string, 0, len(c.Paths.TargetFolders))
	seen := make(map[string]struct{}, len(c.Paths.TargetFolders))
	for _, folder := range c.Paths.TargetFolders {
		trimmed := strings.TrimSpace(folder)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("paths.target_folders: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.TargetFolders = roots

	if c.Daemon.SocketPath != "" {
		if c.Daemon.SocketPath, err = expandPath(c.Daemon.SocketPath); err != nil {
			return fmt.Errorf("daemon.socket_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if c.Engine.CooldownSeconds <= 0 {
		c.Engine.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Engine.SampleCapPerFolder <= 0 {
		c.Engine.SampleCapPerFolder = defaultSampleCapPerFolder
	}
	if c.Engine.DecisionRetentionCount <= 0 {
		c.Engine.DecisionRetentionCount = defaultDecisionRetentionCount
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = defaultWorkers
	}

	c.Engine.FolderMode = strings.ToLower(strings.TrimSpace(c.Engine.FolderMode))
	if c.Engine.FolderMode == "" {
		c.Engine.FolderMode = FolderModeSmartScan
	}

	c.Engine.DefaultCategory = strings.TrimSpace(c.Engine.DefaultCategory)
	if c.Engine.DefaultCategory == "" {
		c.Engine.DefaultCategory = defaultCategory
	}
	c.Engine.DefaultCategory = categoryCaser.String(c.Engine.DefaultCategory)

	if len(c.Engine.TransientSuffixes) == 0 {
		c.Engine.TransientSuffixes = append([]string(nil), defaultTransientSuffixes...)
	}
	suffixes := make([]string, 0, len(c.Engine.TransientSuffixes))
	for _, suffix := range c.Engine.TransientSuffixes {
		normalized := strings.ToLower(strings.TrimSpace(suffix))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		suffixes = append(suffixes, normalized)
	}
	c.Engine.TransientSuffixes = suffixes

	patterns := make([]string, 0, len(c.Engine.Ignore))
	for _, pattern := range c.Engine.Ignore {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		patterns = append(patterns, trimmed)
	}
	c.Engine.Ignore = patterns
}

func (c *Config) normalizeRules() {
	if len(c.Rules) == 0 {
		c.Rules = DefaultRules()
	}
	for i := range c.Rules {
		normalizeRule(&c.Rules[i])
	}
}

// normalizeRule lowercases extensions (matching is case-insensitive) and
// title-cases the destination segments so on-disk folder names stay
// consistent regardless of how the user typed them.
func normalizeRule(rule *Rule) {
	rule.Category = strings.TrimSpace(rule.Category)
	if rule.Category != "" {
		rule.Category = categoryCaser.String(rule.Category)
	}
	rule.Subcategory = strings.TrimSpace(rule.Subcategory)

	extensions := make([]string, 0, len(rule.Extensions))
	for _, ext := range rule.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		extensions = append(extensions, normalized)
	}
	rule.Extensions = extensions

	patterns := make([]string, 0, len(rule.Patterns))
	for _, pattern := range rule.Patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		patterns = append(patterns, trimmed)
	}
	rule.Patterns = patterns

	for i := range rule.Children {
		normalizeRule(&rule.Children[i])
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}
}
