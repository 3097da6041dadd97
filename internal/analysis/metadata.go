package analysis

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
)

// Metadata holds named collections of absolute file and directory paths.
// Roles that were never set read as empty slices; reading never creates a role.
type Metadata struct {
	files map[string][]string
	dirs  map[string][]string
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{
		files: make(map[string][]string),
		dirs:  make(map[string][]string),
	}
}

// FirstOrNone returns the first element of paths and true, or "" and false
// when paths is empty.
func FirstOrNone(paths []string) (string, bool) {
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

// SetFile replaces the files for role with the single path.
func (m *Metadata) SetFile(role, path string) error {
	return set(m.files, role, []string{path})
}

// SetFiles replaces the files for role with paths.
func (m *Metadata) SetFiles(role string, paths []string) error {
	return set(m.files, role, paths)
}

// AddFile appends path to the files for role.
func (m *Metadata) AddFile(role, path string) error {
	return add(m.files, role, []string{path})
}

// AddFiles appends paths, in order, to the files for role.
func (m *Metadata) AddFiles(role string, paths []string) error {
	return add(m.files, role, paths)
}

// Files returns a copy of the files for role, or an empty slice.
func (m *Metadata) Files(role string) []string {
	return get(m.files, role)
}

// FileRoles returns every file role in sorted order.
func (m *Metadata) FileRoles() []string {
	return roles(m.files)
}

// SetDir replaces the directories for role with the single path.
func (m *Metadata) SetDir(role, path string) error {
	return set(m.dirs, role, []string{path})
}

// SetDirs replaces the directories for role with paths.
func (m *Metadata) SetDirs(role string, paths []string) error {
	return set(m.dirs, role, paths)
}

// AddDir appends path to the directories for role.
func (m *Metadata) AddDir(role, path string) error {
	return add(m.dirs, role, []string{path})
}

// AddDirs appends paths, in order, to the directories for role.
func (m *Metadata) AddDirs(role string, paths []string) error {
	return add(m.dirs, role, paths)
}

// Dirs returns a copy of the directories for role, or an empty slice.
func (m *Metadata) Dirs(role string) []string {
	return get(m.dirs, role)
}

// DirRoles returns every directory role in sorted order.
func (m *Metadata) DirRoles() []string {
	return roles(m.dirs)
}

func set(target map[string][]string, role string, paths []string) error {
	abs, err := absolutize(paths)
	if err != nil {
		return fmt.Errorf("set %s: %w", role, err)
	}
	target[role] = abs
	return nil
}

func add(target map[string][]string, role string, paths []string) error {
	abs, err := absolutize(paths)
	if err != nil {
		return fmt.Errorf("add %s: %w", role, err)
	}
	target[role] = append(target[role], abs...)
	return nil
}

func get(source map[string][]string, role string) []string {
	paths, ok := source[role]
	if !ok {
		return []string{}
	}
	return slices.Clone(paths)
}

func roles(source map[string][]string) []string {
	names := make([]string, 0, len(source))
	for name := range source {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func absolutize(paths []string) ([]string, error) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	return abs, nil
}
