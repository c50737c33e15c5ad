// Package analyzer infers a category for a folder by sampling its
// contents. Analysis is strictly read-only; it never mutates the tree
// it inspects.
package analyzer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"tidycore/internal/rules"
)

// Result summarizes one folder analysis.
type Result struct {
	Category string
	Sampled  int
}

type tally struct {
	count int
	bytes int64
}

// Analyze samples up to sampleCap files beneath root and returns the
// plurality category. Ties break toward the category with the greatest
// total sampled byte size, then alphabetically. An empty or unreadable
// folder yields the tree's default category.
func Analyze(root string, tree *rules.Tree, sampleCap int) Result {
	if sampleCap <= 0 {
		sampleCap = 64
	}

	tallies := make(map[string]*tally)
	sampled := 0

	filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fs.SkipAll
			}
			return nil
		}
		name := entry.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil
		}
		match, _ := tree.Classify(name)
		counter := tallies[match.Category]
		if counter == nil {
			counter = &tally{}
			tallies[match.Category] = counter
		}
		counter.count++
		counter.bytes += info.Size()

		sampled++
		if sampled >= sampleCap {
			return fs.SkipAll
		}
		return nil
	})

	if sampled == 0 {
		return Result{Category: tree.DefaultCategory()}
	}

	categories := make([]string, 0, len(tallies))
	for category := range tallies {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := tallies[categories[i]], tallies[categories[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		if a.bytes != b.bytes {
			return a.bytes > b.bytes
		}
		return categories[i] < categories[j]
	})
	return Result{Category: categories[0], Sampled: sampled}
}
