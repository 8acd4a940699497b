// Package alias manages command aliases and their on-disk persistence at
// ~/.config/rush/aliases.
package alias

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPath returns the alias file location under the given home
// directory.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "rush", "aliases")
}

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Manager holds the name to expansion mapping.
type Manager struct {
	fs      afero.Fs
	path    string
	aliases map[string]string
}

// NewManager creates a Manager persisting to path on fs.
func NewManager(fs afero.Fs, path string) *Manager {
	return &Manager{
		fs:      fs,
		path:    path,
		aliases: make(map[string]string),
	}
}

// Set defines or replaces an alias. Names must be plain identifiers.
func (m *Manager) Set(name, value string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid alias name %q", name)
	}
	m.aliases[name] = value
	return nil
}

// Get looks up an alias expansion.
func (m *Manager) Get(name string) (string, bool) {
	value, ok := m.aliases[name]
	return value, ok
}

// Remove deletes an alias and reports whether it existed.
func (m *Manager) Remove(name string) bool {
	_, ok := m.aliases[name]
	delete(m.aliases, name)
	return ok
}

// Names returns all alias names sorted.
func (m *Manager) Names() []string {
	var names []string
	for name := range m.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined aliases.
func (m *Manager) Len() int {
	return len(m.aliases)
}

// Load reads the alias file, replacing the in-memory mapping. A missing file
// is not an error; the manager just starts empty. Blank lines and '#'
// comments are skipped.
func (m *Manager) Load() error {
	m.aliases = make(map[string]string)

	fd, err := m.fs.Open(m.path)
	if err != nil {
		if exists, _ := afero.Exists(m.fs, m.path); !exists {
			return nil
		}
		return fmt.Errorf("open alias file: %w", err)
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := parseLine(line)
		if !ok || !nameRegexp.MatchString(name) {
			continue
		}
		m.aliases[name] = value
	}
	return scanner.Err()
}

// Save rewrites the alias file sorted by name.
func (m *Manager) Save() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create alias dir: %w", err)
	}

	buf := &bytes.Buffer{}
	for _, name := range m.Names() {
		fmt.Fprintf(buf, "%s=%s\n", name, Quote(m.aliases[name]))
	}

	if err := afero.WriteFile(m.fs, m.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write alias file: %w", err)
	}
	return nil
}

// Quote single-quotes a value for the alias file, escaping embedded single
// quotes as '\''.
func Quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// parseLine splits a name='value' line. Values are stored single-quoted by
// Save but unquoted values from hand-edited files load too.
func parseLine(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return "", "", false
	}
	name = line[:idx]
	value = line[idx+1:]

	if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && len(value) >= 2 {
		value = value[1 : len(value)-1]
		value = strings.ReplaceAll(value, `'\''`, "'")
	}
	return name, value, true
}
