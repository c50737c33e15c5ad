// Package classify turns settled paths into destination decisions. It
// reads the rule tree through a provider so a live reload takes effect
// between classifications without tearing an in-flight one.
package classify

import (
	"log/slog"
	"os"
	"path/filepath"

	"tidycore/internal/analyzer"
	"tidycore/internal/config"
	"tidycore/internal/engine"
	"tidycore/internal/logging"
	"tidycore/internal/rules"
)

// Decision names where a settled path belongs.
type Decision struct {
	Category    string
	Subcategory string
	IsFolder    bool
}

// Classifier applies the rule tree to files and the folder-handling
// mode to directories. It is read-only; moving is the executor's job.
type Classifier struct {
	provider   *rules.Provider
	folderMode string
	sampleCap  int
	logger     *slog.Logger
}

// New builds a Classifier around a rule provider.
func New(provider *rules.Provider, folderMode string, sampleCap int, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{
		provider:   provider,
		folderMode: folderMode,
		sampleCap:  sampleCap,
		logger:     logger,
	}
}

// Classify resolves path to a Decision. Skips are reported as errors
// tagged ErrClassificationSkipped; the path simply stays unmoved until
// a future event.
func (c *Classifier) Classify(path string, isFolder bool) (Decision, error) {
	tree := c.provider.Current()

	if isFolder {
		return c.classifyFolder(path, tree)
	}

	info, err := os.Lstat(path)
	if err != nil {
		return Decision{}, engine.Wrap(engine.ErrClassificationSkipped, "classifier", "stat", "file unreadable", err)
	}
	if info.Size() == 0 {
		return Decision{}, engine.Wrap(engine.ErrClassificationSkipped, "classifier", "classify", "empty transient artifact", nil)
	}

	match, matched := tree.Classify(filepath.Base(path))
	if !matched {
		c.logger.Debug("no rule matched, using default category",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldCategory, match.Category))
	}
	return Decision{Category: match.Category, Subcategory: match.Subcategory}, nil
}

func (c *Classifier) classifyFolder(path string, tree *rules.Tree) (Decision, error) {
	switch c.folderMode {
	case config.FolderModeIgnore:
		return Decision{}, engine.Wrap(engine.ErrClassificationSkipped, "classifier", "classify", "folder handling disabled", nil)
	case config.FolderModeMoveToOthers:
		return Decision{Category: tree.DefaultCategory(), IsFolder: true}, nil
	default:
		result := analyzer.Analyze(path, tree, c.sampleCap)
		c.logger.Debug("smart scan complete",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldCategory, result.Category),
			logging.Int("sampled", result.Sampled))
		return Decision{Category: result.Category, IsFolder: true}, nil
	}
}

// Destination composes the target directory for a decision beneath the
// watched root the source lives in.
func Destination(root string, decision Decision) string {
	if decision.Subcategory != "" {
		return filepath.Join(root, decision.Category, decision.Subcategory)
	}
	return filepath.Join(root, decision.Category)
}
