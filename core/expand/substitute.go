package expand

import (
	"errors"
	"fmt"
	"strings"
)

// MaxInputLen caps the text handed to the substitution scanner so
// pathological input can't balloon memory.
const MaxInputLen = 10 << 20 // 10 MB

// MaxSubstDepth bounds $() nesting; deeper input degrades to an error rather
// than unbounded recursion. The count survives the round trip through the
// shell, so a substitution that re-enters the expander keeps climbing toward
// the cap instead of starting over.
const MaxSubstDepth = 64

// ErrUnterminatedSubstitution is returned for a $( with no matching ).
var ErrUnterminatedSubstitution = errors.New("unterminated command substitution")

// ErrUnterminatedQuote is returned for a quote that is opened and never
// closed.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Runner executes the text of a command substitution and captures its
// stdout. A non-zero exit status is not an error; the captured output is
// used regardless. depth is the substitution nesting level of the command;
// implementations must carry it into any expansion the command triggers.
type Runner interface {
	Capture(command string, depth int) (stdout string, exitCode int, err error)
}

// runSubstitution executes one $(...) body found during word expansion:
// nested substitutions expand innermost-first, then the body runs through
// the Runner. Trailing newlines are stripped from the captured output.
func (e *Expander) runSubstitution(body string) (string, error) {
	expanded, err := e.expandSubstitutions(body, e.Depth+1)
	if err != nil {
		return "", err
	}
	return e.capture(expanded, e.Depth+1)
}

// expandSubstitutions replaces every $(...) in s, innermost first, with the
// captured stdout of the command. depth counts enclosing substitutions.
func (e *Expander) expandSubstitutions(s string, depth int) (string, error) {
	if len(s) > MaxInputLen {
		return "", fmt.Errorf("input exceeds %d bytes", MaxInputLen)
	}
	if depth > MaxSubstDepth {
		return "", fmt.Errorf("command substitution nested deeper than %d", MaxSubstDepth)
	}

	var out strings.Builder
	rest := s
	for {
		start, end, err := findSubstitution(rest)
		if err != nil {
			return "", err
		}
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])

		// Inner text between "$(" and the matching ")". Nested
		// substitutions expand before the outer command runs.
		inner := rest[start+2 : end]
		expanded, err := e.expandSubstitutions(inner, depth+1)
		if err != nil {
			return "", err
		}

		stdout, err := e.capture(expanded, depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString(stdout)

		rest = rest[end+1:]
	}
}

func (e *Expander) capture(command string, depth int) (string, error) {
	if e.Runner == nil {
		return "", errors.New("command substitution is not available here")
	}
	stdout, _, err := e.Runner.Capture(command, depth)
	if err != nil {
		return "", fmt.Errorf("command substitution: %w", err)
	}
	return strings.TrimRight(stdout, "\n"), nil
}

// findSubstitution locates the first $( in s that starts a command
// substitution: not preceded by an unescaped backslash, not inside single
// quotes, and not the $(( of arithmetic expansion. Double quotes keep
// substitution live but protect apostrophes. It returns the offset of the
// '$' and of the matching ')'. start is -1 when there is none.
func findSubstitution(s string) (start, end int, err error) {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && !inSingle:
			i++ // escaped character, including \$

		case c == '\'' && !inDouble:
			inSingle = !inSingle

		case c == '"' && !inSingle:
			inDouble = !inDouble

		case c == '$' && !inSingle && i+1 < len(s) && s[i+1] == '(':
			if i+2 < len(s) && s[i+2] == '(' {
				// Arithmetic $((...)); skip past it whole. Without the
				// double closer it is treated as a substitution that
				// happens to open with a subshell.
				if closer := matchingArith(s, i); closer >= 0 {
					i = closer
					continue
				}
			}
			closer, err := matchingParen(s, i+1)
			if err != nil {
				return -1, -1, err
			}
			return i, closer, nil
		}
	}
	if inSingle || inDouble {
		return -1, -1, ErrUnterminatedQuote
	}
	return -1, -1, nil
}

// matchingParen finds the ')' matching the '(' at s[open]. Quote state
// inside the substitution is tracked independently of the caller's context:
// single quotes are verbatim, double quotes honor backslash escapes.
func matchingParen(s string, open int) (int, error) {
	parenDepth := 0
	inSingle, inDouble := false, false

	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}

		case c == '\\' && i+1 < len(s):
			i++ // escape, meaningful outside single quotes

		case inDouble:
			if c == '"' {
				inDouble = false
			}

		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true

		case c == '(':
			parenDepth++
		case c == ')':
			parenDepth--
			if parenDepth == 0 {
				return i, nil
			}
		}
	}

	if inSingle || inDouble {
		return -1, ErrUnterminatedQuote
	}
	return -1, ErrUnterminatedSubstitution
}

// matchingArith returns the index of the final ')' of a $((...)) starting at
// s[dollar], or -1 when the )) closer is missing.
func matchingArith(s string, dollar int) int {
	parenDepth := 0
	for i := dollar + 1; i < len(s); i++ {
		switch s[i] {
		case '(':
			parenDepth++
		case ')':
			parenDepth--
			if parenDepth == 0 {
				return i
			}
			// The arithmetic form needs the double closer.
			if parenDepth == 1 && (i+1 >= len(s) || s[i+1] != ')') {
				return -1
			}
		}
	}
	return -1
}
