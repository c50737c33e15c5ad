package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Paths.TargetFolders) == 0 {
		problems = append(problems, "paths.target_folders: at least one watched folder is required")
	}
	for _, root := range c.Paths.TargetFolders {
		if c.Paths.DataDir == root || c.Paths.LogDir == root {
			problems = append(problems, fmt.Sprintf("paths.target_folders: %q overlaps the tidycore data/log directory", root))
		}
	}

	switch c.Engine.FolderMode {
	case FolderModeSmartScan, FolderModeMoveToOthers, FolderModeIgnore:
	default:
		problems = append(problems, fmt.Sprintf("engine.folder_mode: unsupported value %q", c.Engine.FolderMode))
	}

	if err := validateRules(c.Rules, "rules"); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

func validateRules(rules []Rule, prefix string) error {
	for i, rule := range rules {
		label := fmt.Sprintf("%s[%d]", prefix, i)
		if rule.Category == "" && rule.Subcategory == "" {
			return fmt.Errorf("%s: rule needs a category or subcategory", label)
		}
		if len(rule.Extensions) == 0 && len(rule.Patterns) == 0 && len(rule.Children) == 0 {
			return fmt.Errorf("%s: rule %q has no matchers and no children", label, rule.Category)
		}
		if err := validateRules(rule.Children, label+".children"); err != nil {
			return err
		}
	}
	return nil
}
