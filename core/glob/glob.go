// Package glob matches wildcard filename patterns and expands them against a
// directory. Shell rules apply: a pattern that matches nothing is passed
// through literally, never an error.
package glob

import (
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Match reports whether name matches pattern. Supported metacharacters:
//
//	*      any run of characters, excluding '/'
//	?      exactly one character, excluding '/'
//	[...]  a character class with ranges; [!...] negates
//
// A '-' directly after '[' or '[!' is a literal hyphen.
func Match(pattern, name string) bool {
	return match(pattern, name)
}

func match(pattern, name string) bool {
	// Iterative backtracking for '*', recursive descent elsewhere.
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse repeated stars, then try zero-width first and grow.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return !strings.ContainsRune(name, '/')
			}
			for i := 0; i <= len(name); i++ {
				if i > 0 && name[i-1] == '/' {
					return false
				}
				if match(pattern, name[i:]) {
					return true
				}
			}
			return false

		case '?':
			if name == "" || name[0] == '/' {
				return false
			}
			pattern, name = pattern[1:], name[1:]

		case '[':
			rest, ok := matchClass(pattern, name)
			if !ok {
				return false
			}
			pattern, name = rest, name[1:]

		default:
			if name == "" || name[0] != pattern[0] {
				return false
			}
			pattern, name = pattern[1:], name[1:]
		}
	}
	return name == ""
}

// matchClass matches name[0] against the class at the head of pattern and
// returns the pattern remainder after the closing ']'.
func matchClass(pattern, name string) (rest string, ok bool) {
	if name == "" {
		return "", false
	}
	c := name[0]

	i := 1 // past '['
	negate := false
	if i < len(pattern) && pattern[i] == '!' {
		negate = true
		i++
	}

	matched := false
	first := true
	for {
		if i >= len(pattern) {
			// Unterminated class: treat the '[' as a literal.
			return pattern[1:], c == '['
		}
		if pattern[i] == ']' && !first {
			i++
			break
		}

		lo := pattern[i]
		if lo == '-' && first {
			// Literal leading hyphen.
			if c == '-' {
				matched = true
			}
			i++
			first = false
			continue
		}
		first = false

		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi := pattern[i+2]
			if c >= lo && c <= hi {
				matched = true
			}
			i += 3
			continue
		}

		if c == lo {
			matched = true
		}
		i++
	}

	return pattern[i:], matched != negate
}

// HasMeta reports whether the pattern contains glob metacharacters.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// Expand lists the pattern's target directory on fs and returns the sorted
// entries that match. The pattern's directory part is taken literally; only
// the final path element is matched. Hidden entries are excluded unless the
// name pattern itself starts with '.'.
//
// A metacharacter-free pattern is returned as-is without touching the
// filesystem, and a pattern that matches nothing expands to itself.
func Expand(fs afero.Fs, cwd, pattern string) []string {
	if !HasMeta(pattern) {
		return []string{pattern}
	}

	dir, namePat := splitPattern(pattern)
	listDir := dir
	if listDir == "" {
		listDir = cwd
		if listDir == "" {
			listDir = "."
		}
	}

	entries, err := afero.ReadDir(fs, listDir)
	if err != nil {
		// Unreadable directory: fall back to the literal pattern.
		return []string{pattern}
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(namePat, ".") {
			continue
		}
		if Match(namePat, name) {
			if dir == "" {
				matches = append(matches, name)
			} else {
				matches = append(matches, joinPath(dir, name))
			}
		}
	}

	if len(matches) == 0 {
		return []string{pattern}
	}
	sort.Strings(matches)
	return matches
}

// splitPattern separates the literal directory prefix from the name pattern.
func splitPattern(pattern string) (dir, name string) {
	idx := strings.LastIndexByte(pattern, '/')
	if idx < 0 {
		return "", pattern
	}
	if idx == 0 {
		return "/", pattern[1:]
	}
	return pattern[:idx], pattern[idx+1:]
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
