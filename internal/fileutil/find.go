package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoLevelLimit disables the recursion depth restriction.
const NoLevelLimit = -1

// EntryType selects whether Find matches files or directories.
type EntryType int

const (
	// TypeFile matches regular files (and symlinks to them).
	TypeFile EntryType = iota
	// TypeDir matches directories (and symlinks to them).
	TypeDir
)

// String returns the string representation of EntryType.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// MatchMode decides how multiple include patterns combine.
type MatchMode int

const (
	// MatchAny accepts a name that matches at least one include pattern.
	MatchAny MatchMode = iota
	// MatchAll accepts a name only if it matches every include pattern.
	MatchAll
)

// String returns the string representation of MatchMode.
func (m MatchMode) String() string {
	switch m {
	case MatchAny:
		return "any"
	case MatchAll:
		return "all"
	default:
		return "unknown"
	}
}

// FindOptions configures a search
type FindOptions struct {
	// Include holds glob patterns matched against the entry's base name.
	// An empty list matches every name.
	Include []string
	// Exclude holds glob patterns; an entry matching any of them is rejected.
	Exclude []string
	// Type selects files or directories
	Type EntryType
	// NumLimit caps the number of returned paths (0 = unlimited)
	NumLimit int
	// LevelLimit is the deepest level searched below the root
	// (0 = root's direct children only, NoLevelLimit = unlimited)
	LevelLimit int
	// MatchMode decides how Include patterns combine
	MatchMode MatchMode
}

// FindResult contains the results of a search
type FindResult struct {
	// Paths contains the absolute, sorted paths of matched entries, truncated to NumLimit
	Paths []string
	// Total is the number of matches before NumLimit was applied
	Total int
}

// Truncated reports whether NumLimit discarded any matches.
func (r *FindResult) Truncated() bool {
	return r.Total > len(r.Paths)
}

// Find searches dir for entries matching the provided options
func Find(dir string, opts FindOptions) (*FindResult, error) {
	if err := validatePatterns(opts.Include); err != nil {
		return nil, err
	}
	if err := validatePatterns(opts.Exclude); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve search directory %s: %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	matches := make([]string, 0)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}

		if path == root {
			return nil
		}

		level := entryLevel(root, path)
		name := d.Name()

		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			// Classify by target; WalkDir never descends into links.
			if target, statErr := os.Stat(path); statErr == nil {
				isDir = target.IsDir()
			}
		}

		if isDir == (opts.Type == TypeDir) && matchName(name, opts) {
			matches = append(matches, path)
		}

		if d.IsDir() && opts.LevelLimit != NoLevelLimit && level >= opts.LevelLimit {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(matches)

	result := &FindResult{
		Paths: matches,
		Total: len(matches),
	}
	if opts.NumLimit > 0 && len(matches) > opts.NumLimit {
		result.Paths = matches[:opts.NumLimit]
	}
	return result, nil
}

// entryLevel returns how many directories separate path from root
// (0 for a direct child).
func entryLevel(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator))
}

// matchName applies include and exclude patterns to a base name.
func matchName(name string, opts FindOptions) bool {
	for _, pattern := range opts.Exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return false
		}
	}

	if len(opts.Include) == 0 {
		return true
	}

	for _, pattern := range opts.Include {
		ok, _ := filepath.Match(pattern, name)
		if opts.MatchMode == MatchAll && !ok {
			return false
		}
		if opts.MatchMode == MatchAny && ok {
			return true
		}
	}
	return opts.MatchMode == MatchAll
}

// validatePatterns rejects malformed glob patterns up front so a bad pattern
// is not silently treated as "no match".
func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}
