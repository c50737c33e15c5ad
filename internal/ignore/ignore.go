// Package ignore filters paths the engine must never touch. The set
// combines configured patterns with user "ignore" decisions, which are
// persisted so they survive restarts.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const persistFileName = "ignored_paths"

// Set answers "should the engine leave this path alone". Configured
// patterns match base names (or whole paths when they contain a
// separator); persisted entries are absolute paths that suppress the
// path itself and everything beneath it.
type Set struct {
	mu       sync.RWMutex
	patterns []string
	paths    map[string]struct{}
	filePath string
}

// Load builds a Set from configured patterns plus any entries persisted
// under dataDir. A missing persistence file is not an error.
func Load(dataDir string, patterns []string) (*Set, error) {
	set := &Set{
		paths:    make(map[string]struct{}),
		filePath: filepath.Join(dataDir, persistFileName),
	}
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		set.patterns = append(set.patterns, trimmed)
	}

	file, err := os.Open(set.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("open ignore set: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.paths[filepath.Clean(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore set: %w", err)
	}
	return set, nil
}

// Match reports whether path is suppressed by the set.
func (s *Set) Match(path string) bool {
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pattern := range s.patterns {
		target := base
		if strings.ContainsRune(pattern, os.PathSeparator) {
			target = cleaned
		}
		if ok, err := filepath.Match(pattern, target); err == nil && ok {
			return true
		}
	}

	for candidate := range s.paths {
		if cleaned == candidate || strings.HasPrefix(cleaned, candidate+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// SetPatterns replaces the configured patterns, used on config reload.
// Persisted user entries are unaffected.
func (s *Set) SetPatterns(patterns []string) {
	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}

	s.mu.Lock()
	s.patterns = cleaned
	s.mu.Unlock()
}

// Add persists an absolute path into the set. Adding an already-present
// path is a no-op.
func (s *Set) Add(path string) error {
	cleaned := filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paths[cleaned]; exists {
		return nil
	}
	s.paths[cleaned] = struct{}{}
	return s.writeLocked()
}

// Remove deletes a persisted path from the set. Configured patterns
// cannot be removed here; they belong to the config file.
func (s *Set) Remove(path string) error {
	cleaned := filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paths[cleaned]; !exists {
		return nil
	}
	delete(s.paths, cleaned)
	return s.writeLocked()
}

// Entries returns the persisted paths in sorted order.
func (s *Set) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]string, 0, len(s.paths))
	for path := range s.paths {
		entries = append(entries, path)
	}
	sort.Strings(entries)
	return entries
}

func (s *Set) writeLocked() error {
	entries := make([]string, 0, len(s.paths))
	for path := range s.paths {
		entries = append(entries, path)
	}
	sort.Strings(entries)

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create ignore set directory: %w", err)
	}
	tmpPath := s.filePath + ".tmp"
	body := strings.Join(entries, "\n")
	if body != "" {
		body += "\n"
	}
	if err := os.WriteFile(tmpPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write ignore set: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace ignore set: %w", err)
	}
	return nil
}
