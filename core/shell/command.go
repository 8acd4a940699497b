package shell

import (
	"strconv"
	"strings"
)

// This file splits raw statement text into pipelines, words and
// redirections. The scanners never look inside quoted regions or $(...)
// groups, so operators embedded in strings or substitutions stay literal.

// skipRegion returns the index just past the protected region starting at i
// (a backslash escape, a quoted span or a $(...) group), or i when s[i]
// starts no region. Unterminated regions run to the end of the string; the
// expansion stage reports those.
func skipRegion(s string, i int) int {
	switch s[i] {
	case '\\':
		if i+1 < len(s) {
			return i + 2
		}
		return i + 1

	case '\'':
		if j := strings.IndexByte(s[i+1:], '\''); j >= 0 {
			return i + j + 2
		}
		return len(s)

	case '"':
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case '"':
				return j + 1
			}
		}
		return len(s)

	case '$':
		if i+1 < len(s) && s[i+1] == '(' {
			return skipParens(s, i+1)
		}
	}
	return i
}

// skipParens consumes a balanced paren group starting at an opening paren,
// honoring nested quotes and escapes.
func skipParens(s string, open int) int {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'', '"':
			j = skipRegion(s, j) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}

// condStart reports whether position i opens a [[ ]] conditional: the [[
// must stand alone as a word. Operators inside the conditional are its own,
// so the statement scanners skip the whole region.
func condStart(s string, i int) bool {
	if !strings.HasPrefix(s[i:], "[[") {
		return false
	}
	if i > 0 && s[i-1] != ' ' && s[i-1] != '\t' {
		return false
	}
	return i+2 == len(s) || s[i+2] == ' ' || s[i+2] == '\t'
}

// condEnd returns the index past the closing ]] word of a conditional
// opening at i, or the end of the string when unterminated.
func condEnd(s string, i int) int {
	for j := i + 2; j < len(s); j++ {
		if k := skipRegion(s, j); k > j {
			j = k - 1
			continue
		}
		if strings.HasPrefix(s[j:], "]]") &&
			(s[j-1] == ' ' || s[j-1] == '\t') &&
			(j+2 == len(s) || s[j+2] == ' ' || s[j+2] == '\t') {
			return j + 2
		}
	}
	return len(s)
}

// chainPart is one pipeline of an && / || chain. Op is the connector
// preceding the part; the first part's Op is empty.
type chainPart struct {
	text string
	op   string
}

// splitAndOr splits a statement at top-level && and || connectors.
func splitAndOr(stmt string) []chainPart {
	var parts []chainPart
	op := ""
	start := 0

	for i := 0; i < len(stmt); {
		if condStart(stmt, i) {
			i = condEnd(stmt, i)
			continue
		}
		if j := skipRegion(stmt, i); j > i {
			i = j
			continue
		}
		var next string
		switch {
		case strings.HasPrefix(stmt[i:], "&&"):
			next = "&&"
		case strings.HasPrefix(stmt[i:], "||"):
			next = "||"
		default:
			i++
			continue
		}
		parts = append(parts, chainPart{text: strings.TrimSpace(stmt[start:i]), op: op})
		op = next
		i += 2
		start = i
	}

	parts = append(parts, chainPart{text: strings.TrimSpace(stmt[start:]), op: op})
	return parts
}

// splitPipes splits a pipeline into command segments at top-level '|'. The
// input has no && or || left; splitAndOr runs first.
func splitPipes(text string) []string {
	var segments []string
	start := 0

	for i := 0; i < len(text); {
		if condStart(text, i) {
			i = condEnd(text, i)
			continue
		}
		if j := skipRegion(text, i); j > i {
			i = j
			continue
		}
		if text[i] == '|' {
			segments = append(segments, strings.TrimSpace(text[start:i]))
			i++
			start = i
			continue
		}
		i++
	}

	return append(segments, strings.TrimSpace(text[start:]))
}

// stripBackground removes a trailing top-level '&' and reports whether the
// statement should run in the background.
func stripBackground(stmt string) (string, bool) {
	trimmed := strings.TrimRight(stmt, " \t")
	if !strings.HasSuffix(trimmed, "&") || strings.HasSuffix(trimmed, "&&") {
		return stmt, false
	}
	// Make sure the '&' is top-level, not swallowed by a quote or $().
	for i := 0; i < len(trimmed)-1; {
		if j := skipRegion(trimmed, i); j > i {
			if j >= len(trimmed) {
				return stmt, false
			}
			i = j
			continue
		}
		i++
	}
	return strings.TrimSpace(trimmed[:len(trimmed)-1]), true
}

// redirect operations.
const (
	redirOut    = ">"
	redirAppend = ">>"
	redirIn     = "<"
	redirDup    = "dup"
)

// redirect is one parsed redirection. Target stays raw; it is expanded when
// the redirection is applied.
type redirect struct {
	fd     int
	op     string
	target string
	dupTo  int
}

// parseWords splits a command segment into raw words (quotes intact, for the
// expansion pipeline) and redirections.
func parseWords(segment string) ([]string, []redirect, error) {
	var words []string
	var redirs []redirect
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(segment); {
		c := segment[i]

		if c == ' ' || c == '\t' || c == '\n' {
			flush()
			i++
			continue
		}

		// A '#' opening a word starts a comment that runs to the end.
		if c == '#' && cur.Len() == 0 {
			break
		}

		if j := skipRegion(segment, i); j > i {
			cur.WriteString(segment[i:j])
			i = j
			continue
		}

		if c == '>' || c == '<' {
			fd := 1
			if c == '<' {
				fd = 0
			}
			// An all-digit word directly before the operator names the
			// descriptor, as in 2>err.
			if isAllDigits(cur.String()) && cur.Len() > 0 {
				fd, _ = strconv.Atoi(cur.String())
				cur.Reset()
			} else {
				flush()
			}

			op := string(c)
			i++
			if c == '>' && i < len(segment) && segment[i] == '>' {
				op = redirAppend
				i++
			}

			// Descriptor duplication: 2>&1, 1>&2.
			if op == redirOut && i < len(segment) && segment[i] == '&' {
				i++
				j := i
				for j < len(segment) && segment[j] >= '0' && segment[j] <= '9' {
					j++
				}
				if j == i {
					return nil, nil, errorf(KindSyntax, "expected file descriptor after '>&'")
				}
				dupTo, _ := strconv.Atoi(segment[i:j])
				redirs = append(redirs, redirect{fd: fd, op: redirDup, dupTo: dupTo})
				i = j
				continue
			}

			target, next, err := scanRedirTarget(segment, i)
			if err != nil {
				return nil, nil, err
			}
			redirs = append(redirs, redirect{fd: fd, op: op, target: target})
			i = next
			continue
		}

		cur.WriteByte(c)
		i++
	}
	flush()

	return words, redirs, nil
}

func scanRedirTarget(s string, i int) (string, int, error) {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	for i < len(s) {
		if j := skipRegion(s, i); j > i {
			i = j
			continue
		}
		c := s[i]
		if c == ' ' || c == '\t' || c == '<' || c == '>' {
			break
		}
		i++
	}
	if i == start {
		return "", i, errorf(KindSyntax, "missing redirection target")
	}
	return s[start:i], i, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// splitAssignment recognizes a NAME=value word and returns its parts. Words
// with a quoted or invalid name aren't assignments.
func splitAssignment(word string) (name, value string, ok bool) {
	eq := strings.IndexByte(word, '=')
	if eq <= 0 {
		return "", "", false
	}
	name = word[:eq]
	if !isName(name) {
		return "", "", false
	}
	return name, word[eq+1:], true
}

func isName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}

// arrayAssignment recognizes a whole-statement NAME=(elem ...) array literal
// and returns the name and the raw body between the parens.
func arrayAssignment(stmt string) (name, body string, ok bool) {
	eq := strings.IndexByte(stmt, '=')
	if eq <= 0 || !isName(stmt[:eq]) {
		return "", "", false
	}
	rest := stmt[eq+1:]
	if !strings.HasPrefix(rest, "(") {
		return "", "", false
	}
	end := skipParens(rest, 0)
	if end != len(rest) || !strings.HasSuffix(rest, ")") {
		return "", "", false
	}
	return stmt[:eq], rest[1 : len(rest)-1], true
}
