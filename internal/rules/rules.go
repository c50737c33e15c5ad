// Package rules holds the classification rule tree. Trees are immutable
// once compiled; live reload swaps the whole tree behind an atomic
// reference so readers always see a consistent snapshot.
package rules

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"tidycore/internal/config"
)

// Node is one compiled rule. A node matches a name when one of its own
// matchers hits or when any descendant matches; sibling order is
// significant and the first match wins.
type Node struct {
	Category    string
	Subcategory string
	Extensions  []string
	Patterns    []string
	Children    []*Node
}

// Match is the outcome of classifying a single name.
type Match struct {
	Category    string
	Subcategory string
}

// Tree is a compiled, immutable rule set.
type Tree struct {
	roots           []*Node
	defaultCategory string
	categories      map[string]struct{}
}

// Compile builds a Tree from normalized configuration rules. Extensions
// and categories are assumed normalized already (config.Load does this);
// Compile still lowercases extensions so hand-built rules behave.
func Compile(configRules []config.Rule, defaultCategory string) *Tree {
	if defaultCategory == "" {
		defaultCategory = "Others"
	}
	tree := &Tree{
		defaultCategory: defaultCategory,
		categories:      map[string]struct{}{strings.ToLower(defaultCategory): {}},
	}
	for i := range configRules {
		node := compileNode(&configRules[i])
		tree.roots = append(tree.roots, node)
		if node.Category != "" {
			tree.categories[strings.ToLower(node.Category)] = struct{}{}
		}
	}
	return tree
}

func compileNode(rule *config.Rule) *Node {
	node := &Node{
		Category:    rule.Category,
		Subcategory: rule.Subcategory,
	}
	for _, ext := range rule.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		node.Extensions = append(node.Extensions, normalized)
	}
	for _, pattern := range rule.Patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		node.Patterns = append(node.Patterns, strings.ToLower(trimmed))
	}
	for i := range rule.Children {
		node.Children = append(node.Children, compileNode(&rule.Children[i]))
	}
	return node
}

// DefaultCategory returns the category assigned when no rule matches.
func (t *Tree) DefaultCategory() string {
	return t.defaultCategory
}

// Classify resolves a base name to its destination category. The second
// return value reports whether a rule matched; when false the Match
// carries the default category.
func (t *Tree) Classify(name string) (Match, bool) {
	for _, root := range t.roots {
		if match, ok := classifyNode(root, name, ""); ok {
			if match.Category == "" {
				match.Category = t.defaultCategory
			}
			return match, true
		}
	}
	return Match{Category: t.defaultCategory}, false
}

func classifyNode(node *Node, name, inherited string) (Match, bool) {
	category := inherited
	if node.Category != "" {
		category = node.Category
	}
	for _, child := range node.Children {
		if match, ok := classifyNode(child, name, category); ok {
			return match, true
		}
	}
	if node.matchesName(name) {
		return Match{Category: category, Subcategory: node.Subcategory}, true
	}
	return Match{}, false
}

func (n *Node) matchesName(name string) bool {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	for _, candidate := range n.Extensions {
		if ext == candidate {
			return true
		}
	}
	for _, pattern := range n.Patterns {
		if ok, err := filepath.Match(pattern, lower); err == nil && ok {
			return true
		}
	}
	return false
}

// IsCategoryFolder reports whether name matches a top-level category or
// the default category. The engine never classifies the folders it
// creates itself.
func (t *Tree) IsCategoryFolder(name string) bool {
	_, ok := t.categories[strings.ToLower(name)]
	return ok
}

// Categories lists the top-level category folder names, default
// category included, in rule order.
func (t *Tree) Categories() []string {
	names := make([]string, 0, len(t.roots)+1)
	seen := make(map[string]struct{}, len(t.roots)+1)
	for _, root := range t.roots {
		if root.Category == "" {
			continue
		}
		key := strings.ToLower(root.Category)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, root.Category)
	}
	if _, dup := seen[strings.ToLower(t.defaultCategory)]; !dup {
		names = append(names, t.defaultCategory)
	}
	return names
}

// Provider hands out the current Tree and accepts atomic replacements
// while classification continues on other goroutines.
type Provider struct {
	current atomic.Pointer[Tree]
}

// NewProvider seeds a Provider with an initial tree.
func NewProvider(tree *Tree) *Provider {
	provider := &Provider{}
	provider.current.Store(tree)
	return provider
}

// Current returns the tree snapshot in effect right now. In-flight
// classifications keep the snapshot they started with across a Swap.
func (p *Provider) Current() *Tree {
	return p.current.Load()
}

// Swap installs a replacement tree for subsequent classifications.
func (p *Provider) Swap(tree *Tree) {
	p.current.Store(tree)
}
