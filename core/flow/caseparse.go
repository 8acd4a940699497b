package flow

import "strings"

// Case arm terminators, longest first so ;;& is never read as ;; then &.
const (
	termTestNext    = ";;&"
	termFallThrough = ";&"
	termStop        = ";;"
)

// ParseCase parses `case value in pattern) body;; ... esac`.
func ParseCase(input string) (*CaseStatement, error) {
	kts := scanKeywords(input)
	if len(kts) == 0 || !kts[0].atCmd || kts[0].tok.Text != "case" {
		return nil, syntaxErrorf("not a case statement")
	}
	if len(kts) < 2 || kts[1].tok.IsOperator() {
		return nil, syntaxErrorf("case: missing value")
	}
	value := kts[1].tok.Text

	if len(kts) < 3 || kts[2].tok.Text != "in" {
		return nil, syntaxErrorf("case: expected 'in'")
	}

	esacIdx := findKeyword(kts, 3, "esac")
	if esacIdx < 0 {
		return nil, syntaxErrorf("case: expected 'esac'")
	}

	armsText := input[kts[2].tok.End:kts[esacIdx].tok.Start]

	var arms []CasePattern
	for _, raw := range splitArms(armsText) {
		arm, err := parseArm(raw)
		if err != nil {
			return nil, err
		}
		if arm != nil {
			arms = append(arms, *arm)
		}
	}

	return &CaseStatement{Value: value, Arms: arms}, nil
}

// rawArm is one arm's text plus the terminator that ended it ("" for the
// final arm).
type rawArm struct {
	text string
	term string
}

// splitArms cuts the region between 'in' and 'esac' at the ;; / ;& / ;;&
// terminators, skipping quoted text and the bodies of nested case
// statements.
func splitArms(text string) []rawArm {
	var arms []rawArm
	depth := 0
	start := 0

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			i += 2
			continue

		case c == '\'' || c == '"':
			i = skipQuoted(text, i)
			continue

		case isWordBoundary(text, i, "case"):
			depth++
			i += len("case")
			continue

		case isWordBoundary(text, i, "esac"):
			depth--
			i += len("esac")
			continue

		case c == ';' && depth == 0:
			for _, term := range []string{termTestNext, termFallThrough, termStop} {
				if strings.HasPrefix(text[i:], term) {
					arms = append(arms, rawArm{text: text[start:i], term: term})
					i += len(term)
					start = i
					break
				}
			}
			if start == i {
				continue
			}
			i++ // lone ';' separates statements inside a body
			continue
		}
		i++
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		arms = append(arms, rawArm{text: tail})
	}
	return arms
}

// parseArm splits "patterns) body" into its parts. Empty regions between
// terminators produce nil.
func parseArm(raw rawArm) (*CasePattern, error) {
	text := strings.TrimSpace(raw.text)
	if text == "" {
		return nil, nil
	}

	close := findUnquoted(text, ')')
	if close < 0 {
		return nil, syntaxErrorf("case: expected ')' after pattern in %q", text)
	}

	patternText := strings.TrimSpace(text[:close])
	patternText = strings.TrimPrefix(patternText, "(")

	var patterns []string
	for _, p := range strings.Split(patternText, "|") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, syntaxErrorf("case: empty pattern in %q", text)
	}

	return &CasePattern{
		Patterns:    patterns,
		BodyRaw:     strings.TrimSpace(text[close+1:]),
		FallThrough: raw.term == termFallThrough,
		TestNext:    raw.term == termTestNext,
	}, nil
}

// skipQuoted returns the index just past the quoted region opening at
// text[i]. Backslash escapes count inside double quotes only. Unterminated
// quotes run to the end of the text.
func skipQuoted(text string, i int) int {
	quote := text[i]
	for i++; i < len(text); i++ {
		c := text[i]
		if c == '\\' && quote == '"' && i+1 < len(text) {
			i++
			continue
		}
		if c == quote {
			return i + 1
		}
	}
	return i
}

// isWordBoundary reports whether word appears at text[i] delimited by
// non-word characters on both sides.
func isWordBoundary(text string, i int, word string) bool {
	if !strings.HasPrefix(text[i:], word) {
		return false
	}
	if i > 0 && isWordChar(text[i-1]) {
		return false
	}
	after := i + len(word)
	return after >= len(text) || !isWordChar(text[after])
}

func isWordChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// findUnquoted locates the first occurrence of c outside quotes, -1 when
// absent.
func findUnquoted(text string, c byte) int {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '\'', '"':
			i = skipQuoted(text, i) - 1
		case c:
			return i
		}
	}
	return -1
}
